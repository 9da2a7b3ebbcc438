package clarification

import (
	"errors"
	"fmt"
)

// ErrTemplateMissing is returned when a finding's category has no registered
// clarification template. Callers batching findings skip these rather than
// failing the whole batch.
var ErrTemplateMissing = errors.New("no clarification template for category")

// MissingFieldError reports a template placeholder the finding's details did
// not supply.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing template field %q", e.Field)
}
