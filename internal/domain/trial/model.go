package trial

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. PatientID is the study subject
// identifier assigned at enrollment; it is deliberately not unique at the
// database level so that duplicate registrations remain detectable.
type Patient struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      string    `db:"patient_id" json:"patient_id"`
	SiteID         string    `db:"site_id" json:"site_id"`
	Age            int       `db:"age" json:"age"`
	Gender         string    `db:"gender" json:"gender"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
	TreatmentArm   string    `db:"treatment_arm" json:"treatment_arm"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AdverseEvent maps to the adverse_events table. Severity and Resolved are
// nullable: a nil value is a data-entry gap, not a default.
type AdverseEvent struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID string    `db:"patient_id" json:"patient_id"`
	EventTerm string    `db:"event_term" json:"event_term"`
	Severity  *string   `db:"severity" json:"severity,omitempty"`
	EventDate time.Time `db:"event_date" json:"event_date"`
	Resolved  *string   `db:"resolved" json:"resolved,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LabResult maps to the lab_results table.
type LabResult struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       string    `db:"patient_id" json:"patient_id"`
	TestName        string    `db:"test_name" json:"test_name"`
	TestValue       float64   `db:"test_value" json:"test_value"`
	Unit            string    `db:"unit" json:"unit"`
	TestDate        time.Time `db:"test_date" json:"test_date"`
	NormalRangeLow  float64   `db:"normal_range_low" json:"normal_range_low"`
	NormalRangeHigh float64   `db:"normal_range_high" json:"normal_range_high"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Visit maps to the visits table.
type Visit struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     string    `db:"patient_id" json:"patient_id"`
	VisitNumber   int       `db:"visit_number" json:"visit_number"`
	VisitDate     time.Time `db:"visit_date" json:"visit_date"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	VisitType     string    `db:"visit_type" json:"visit_type"`
	Completed     bool      `db:"completed" json:"completed"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DaysLate returns how many days the visit occurred after its scheduled date.
// Negative values mean the visit happened early.
func (v *Visit) DaysLate() int {
	return int(v.VisitDate.Sub(v.ScheduledDate).Hours() / 24)
}
