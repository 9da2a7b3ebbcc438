package trial

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ctmonitor/ctmonitor/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `id, patient_id, site_id, age, gender, enrollment_date,
	treatment_arm, status, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientID, &p.SiteID, &p.Age, &p.Gender, &p.EnrollmentDate,
		&p.TreatmentArm, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patients (id, patient_id, site_id, age, gender, enrollment_date, treatment_arm, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.PatientID, p.SiteID, p.Age, p.Gender, p.EnrollmentDate, p.TreatmentArm, p.Status)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return scanPatient(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE patient_id = $1 ORDER BY created_at LIMIT 1`, patientID))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE patients SET site_id=$2, age=$3, gender=$4, enrollment_date=$5,
			treatment_arm=$6, status=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.SiteID, p.Age, p.Gender, p.EnrollmentDate, p.TreatmentArm, p.Status)
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+patientCols+` FROM patients ORDER BY patient_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) ListBySite(ctx context.Context, siteID string, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE site_id = $1`, siteID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+patientCols+` FROM patients WHERE site_id = $1 ORDER BY patient_id LIMIT $2 OFFSET $3`,
		siteID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== AdverseEvent Repository ===========

type adverseEventRepoPG struct{ pool *pgxpool.Pool }

func NewAdverseEventRepoPG(pool *pgxpool.Pool) AdverseEventRepository {
	return &adverseEventRepoPG{pool: pool}
}

const eventCols = `id, patient_id, event_term, severity, event_date, resolved, created_at, updated_at`

func scanAdverseEvent(row pgx.Row) (*AdverseEvent, error) {
	var e AdverseEvent
	err := row.Scan(&e.ID, &e.PatientID, &e.EventTerm, &e.Severity, &e.EventDate, &e.Resolved,
		&e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *adverseEventRepoPG) Create(ctx context.Context, e *AdverseEvent) error {
	e.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO adverse_events (id, patient_id, event_term, severity, event_date, resolved)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.PatientID, e.EventTerm, e.Severity, e.EventDate, e.Resolved)
	return err
}

func (r *adverseEventRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AdverseEvent, error) {
	return scanAdverseEvent(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+eventCols+` FROM adverse_events WHERE id = $1`, id))
}

func (r *adverseEventRepoPG) Update(ctx context.Context, e *AdverseEvent) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE adverse_events SET event_term=$2, severity=$3, event_date=$4, resolved=$5, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.EventTerm, e.Severity, e.EventDate, e.Resolved)
	return err
}

func (r *adverseEventRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM adverse_events WHERE id = $1`, id)
	return err
}

func (r *adverseEventRepoPG) List(ctx context.Context, limit, offset int) ([]*AdverseEvent, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM adverse_events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+eventCols+` FROM adverse_events ORDER BY event_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*AdverseEvent
	for rows.Next() {
		e, err := scanAdverseEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *adverseEventRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*AdverseEvent, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM adverse_events WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+eventCols+` FROM adverse_events WHERE patient_id = $1 ORDER BY event_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*AdverseEvent
	for rows.Next() {
		e, err := scanAdverseEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

// =========== LabResult Repository ===========

type labResultRepoPG struct{ pool *pgxpool.Pool }

func NewLabResultRepoPG(pool *pgxpool.Pool) LabResultRepository {
	return &labResultRepoPG{pool: pool}
}

const labCols = `id, patient_id, test_name, test_value, unit, test_date,
	normal_range_low, normal_range_high, created_at, updated_at`

func scanLabResult(row pgx.Row) (*LabResult, error) {
	var l LabResult
	err := row.Scan(&l.ID, &l.PatientID, &l.TestName, &l.TestValue, &l.Unit, &l.TestDate,
		&l.NormalRangeLow, &l.NormalRangeHigh, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *labResultRepoPG) Create(ctx context.Context, l *LabResult) error {
	l.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO lab_results (id, patient_id, test_name, test_value, unit, test_date, normal_range_low, normal_range_high)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		l.ID, l.PatientID, l.TestName, l.TestValue, l.Unit, l.TestDate, l.NormalRangeLow, l.NormalRangeHigh)
	return err
}

func (r *labResultRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabResult, error) {
	return scanLabResult(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+labCols+` FROM lab_results WHERE id = $1`, id))
}

func (r *labResultRepoPG) Update(ctx context.Context, l *LabResult) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE lab_results SET test_name=$2, test_value=$3, unit=$4, test_date=$5,
			normal_range_low=$6, normal_range_high=$7, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.TestName, l.TestValue, l.Unit, l.TestDate, l.NormalRangeLow, l.NormalRangeHigh)
	return err
}

func (r *labResultRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM lab_results WHERE id = $1`, id)
	return err
}

func (r *labResultRepoPG) List(ctx context.Context, limit, offset int) ([]*LabResult, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM lab_results`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+labCols+` FROM lab_results ORDER BY test_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabResult
	for rows.Next() {
		l, err := scanLabResult(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}

func (r *labResultRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*LabResult, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_results WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+labCols+` FROM lab_results WHERE patient_id = $1 ORDER BY test_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabResult
	for rows.Next() {
		l, err := scanLabResult(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}

// =========== Visit Repository ===========

type visitRepoPG struct{ pool *pgxpool.Pool }

func NewVisitRepoPG(pool *pgxpool.Pool) VisitRepository { return &visitRepoPG{pool: pool} }

const visitCols = `id, patient_id, visit_number, visit_date, scheduled_date, visit_type, completed, created_at, updated_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.PatientID, &v.VisitNumber, &v.VisitDate, &v.ScheduledDate,
		&v.VisitType, &v.Completed, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func (r *visitRepoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO visits (id, patient_id, visit_number, visit_date, scheduled_date, visit_type, completed)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		v.ID, v.PatientID, v.VisitNumber, v.VisitDate, v.ScheduledDate, v.VisitType, v.Completed)
	return err
}

func (r *visitRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
}

func (r *visitRepoPG) Update(ctx context.Context, v *Visit) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE visits SET visit_number=$2, visit_date=$3, scheduled_date=$4, visit_type=$5, completed=$6, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.VisitNumber, v.VisitDate, v.ScheduledDate, v.VisitType, v.Completed)
	return err
}

func (r *visitRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	return err
}

func (r *visitRepoPG) List(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM visits`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+visitCols+` FROM visits ORDER BY visit_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *visitRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+visitCols+` FROM visits WHERE patient_id = $1 ORDER BY visit_number LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}
