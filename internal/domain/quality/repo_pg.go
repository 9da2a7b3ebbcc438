package quality

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ctmonitor/ctmonitor/internal/domain/trial"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const eventCols = `id, patient_id, event_term, severity, event_date, resolved, created_at, updated_at`

func scanEvent(row pgx.Row) (*trial.AdverseEvent, error) {
	var e trial.AdverseEvent
	err := row.Scan(&e.ID, &e.PatientID, &e.EventTerm, &e.Severity, &e.EventDate, &e.Resolved,
		&e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) queryEvents(ctx context.Context, sql string, args ...interface{}) ([]*trial.AdverseEvent, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*trial.AdverseEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *repoPG) EventsMissingSeverity(ctx context.Context) ([]*trial.AdverseEvent, error) {
	items, err := r.queryEvents(ctx, `
		SELECT `+eventCols+` FROM adverse_events
		WHERE severity IS NULL OR severity = ''
		ORDER BY event_date`)
	if err != nil {
		return nil, fmt.Errorf("query events missing severity: %w", err)
	}
	return items, nil
}

func (r *repoPG) EventsMissingResolution(ctx context.Context) ([]*trial.AdverseEvent, error) {
	items, err := r.queryEvents(ctx, `
		SELECT `+eventCols+` FROM adverse_events
		WHERE resolved IS NULL OR resolved = ''
		ORDER BY event_date`)
	if err != nil {
		return nil, fmt.Errorf("query events missing resolution: %w", err)
	}
	return items, nil
}

func (r *repoPG) OutOfRangeLabResults(ctx context.Context) ([]*trial.LabResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, test_name, test_value, unit, test_date,
			normal_range_low, normal_range_high, created_at, updated_at
		FROM lab_results
		WHERE test_value > normal_range_high OR test_value < normal_range_low
		ORDER BY test_date`)
	if err != nil {
		return nil, fmt.Errorf("query out-of-range lab results: %w", err)
	}
	defer rows.Close()
	var items []*trial.LabResult
	for rows.Next() {
		var l trial.LabResult
		if err := rows.Scan(&l.ID, &l.PatientID, &l.TestName, &l.TestValue, &l.Unit, &l.TestDate,
			&l.NormalRangeLow, &l.NormalRangeHigh, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lab result: %w", err)
		}
		items = append(items, &l)
	}
	return items, rows.Err()
}

func (r *repoPG) LateVisits(ctx context.Context, minDaysLate int) ([]*trial.Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, visit_number, visit_date, scheduled_date, visit_type, completed, created_at, updated_at
		FROM visits
		WHERE visit_date - scheduled_date > $1
		ORDER BY visit_date`, minDaysLate)
	if err != nil {
		return nil, fmt.Errorf("query late visits: %w", err)
	}
	defer rows.Close()
	var items []*trial.Visit
	for rows.Next() {
		var v trial.Visit
		if err := rows.Scan(&v.ID, &v.PatientID, &v.VisitNumber, &v.VisitDate, &v.ScheduledDate,
			&v.VisitType, &v.Completed, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

func (r *repoPG) DuplicatePatientIDs(ctx context.Context) ([]DuplicatePatientRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_id, COUNT(*) AS n
		FROM patients
		GROUP BY patient_id
		HAVING COUNT(*) > 1
		ORDER BY patient_id`)
	if err != nil {
		return nil, fmt.Errorf("query duplicate patient ids: %w", err)
	}
	defer rows.Close()
	var items []DuplicatePatientRow
	for rows.Next() {
		var d DuplicatePatientRow
		if err := rows.Scan(&d.PatientID, &d.Count); err != nil {
			return nil, fmt.Errorf("scan duplicate row: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) EventsBeforeEnrollment(ctx context.Context) ([]EventEnrollmentRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.patient_id, e.event_term, e.severity, e.event_date, e.resolved,
			e.created_at, e.updated_at, p.enrollment_date
		FROM adverse_events e
		JOIN patients p ON p.patient_id = e.patient_id
		WHERE e.event_date < p.enrollment_date
		ORDER BY e.event_date`)
	if err != nil {
		return nil, fmt.Errorf("query events before enrollment: %w", err)
	}
	defer rows.Close()
	var items []EventEnrollmentRow
	for rows.Next() {
		var row EventEnrollmentRow
		if err := rows.Scan(&row.Event.ID, &row.Event.PatientID, &row.Event.EventTerm,
			&row.Event.Severity, &row.Event.EventDate, &row.Event.Resolved,
			&row.Event.CreatedAt, &row.Event.UpdatedAt, &row.EnrollmentDate); err != nil {
			return nil, fmt.Errorf("scan event/enrollment row: %w", err)
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

func (r *repoPG) UnresolvedEvents(ctx context.Context) ([]*trial.AdverseEvent, error) {
	// An absent resolution counts as unresolved: the event is still open even
	// though the gap also surfaces as a missing-data finding.
	items, err := r.queryEvents(ctx, `
		SELECT `+eventCols+` FROM adverse_events
		WHERE resolved = 'No' OR resolved IS NULL OR resolved = ''
		ORDER BY event_date`)
	if err != nil {
		return nil, fmt.Errorf("query unresolved events: %w", err)
	}
	return items, nil
}
