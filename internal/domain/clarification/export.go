package clarification

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ExportToFiles writes each query's rendered body to <query_id>_<patient_id>.txt
// under dir, creating the directory if needed. A failed write does not stop
// the export; the count of files written is returned alongside the joined
// per-file errors.
func ExportToFiles(queries []*ClarificationQuery, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create export directory %s: %w", dir, err)
	}

	written := 0
	var errs []error
	for _, q := range queries {
		name := fmt.Sprintf("%s_%s.txt", q.QueryID, q.PatientID)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(q.Body), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", name, err))
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}
