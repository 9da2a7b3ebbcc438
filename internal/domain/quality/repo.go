package quality

import (
	"context"
	"time"

	"github.com/ctmonitor/ctmonitor/internal/domain/trial"
)

// DuplicatePatientRow is one duplicated study identifier with its
// registration count.
type DuplicatePatientRow struct {
	PatientID string `json:"patient_id"`
	Count     int    `json:"count"`
}

// EventEnrollmentRow pairs an adverse event with the enrollment date of the
// patient it belongs to.
type EventEnrollmentRow struct {
	Event          trial.AdverseEvent `json:"event"`
	EnrollmentDate time.Time          `json:"enrollment_date"`
}

// Repository exposes the rule-scoped read queries the checker runs. Each
// method returns only rows that are candidates for its rule; severity math
// stays in the checker.
type Repository interface {
	EventsMissingSeverity(ctx context.Context) ([]*trial.AdverseEvent, error)
	EventsMissingResolution(ctx context.Context) ([]*trial.AdverseEvent, error)
	OutOfRangeLabResults(ctx context.Context) ([]*trial.LabResult, error)
	LateVisits(ctx context.Context, minDaysLate int) ([]*trial.Visit, error)
	DuplicatePatientIDs(ctx context.Context) ([]DuplicatePatientRow, error)
	EventsBeforeEnrollment(ctx context.Context) ([]EventEnrollmentRow, error)
	UnresolvedEvents(ctx context.Context) ([]*trial.AdverseEvent, error)
}
