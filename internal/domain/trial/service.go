package trial

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	patients PatientRepository
	events   AdverseEventRepository
	labs     LabResultRepository
	visits   VisitRepository
}

func NewService(patients PatientRepository, events AdverseEventRepository, labs LabResultRepository, visits VisitRepository) *Service {
	return &Service{patients: patients, events: events, labs: labs, visits: visits}
}

// -- Patient --

var validPatientStatuses = map[string]bool{
	"active": true, "completed": true, "withdrawn": true, "screening": true,
}

var validSeverities = map[string]bool{
	"Mild": true, "Moderate": true, "Severe": true, "Life-threatening": true,
}

var validResolved = map[string]bool{
	"Yes": true, "No": true,
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if p.SiteID == "" {
		return fmt.Errorf("site_id is required")
	}
	if p.EnrollmentDate.IsZero() {
		return fmt.Errorf("enrollment_date is required")
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if !validPatientStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return s.patients.GetByPatientID(ctx, patientID)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Status != "" && !validPatientStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) ListPatientsBySite(ctx context.Context, siteID string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.ListBySite(ctx, siteID, limit, offset)
}

// -- AdverseEvent --

func (s *Service) CreateAdverseEvent(ctx context.Context, e *AdverseEvent) error {
	if e.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if e.EventTerm == "" {
		return fmt.Errorf("event_term is required")
	}
	if e.EventDate.IsZero() {
		return fmt.Errorf("event_date is required")
	}
	// Severity and resolved may legitimately be absent at entry time; when
	// present they must be recognized values.
	if e.Severity != nil && !validSeverities[*e.Severity] {
		return fmt.Errorf("invalid severity: %s", *e.Severity)
	}
	if e.Resolved != nil && !validResolved[*e.Resolved] {
		return fmt.Errorf("invalid resolved value: %s", *e.Resolved)
	}
	return s.events.Create(ctx, e)
}

func (s *Service) GetAdverseEvent(ctx context.Context, id uuid.UUID) (*AdverseEvent, error) {
	return s.events.GetByID(ctx, id)
}

func (s *Service) UpdateAdverseEvent(ctx context.Context, e *AdverseEvent) error {
	if e.Severity != nil && !validSeverities[*e.Severity] {
		return fmt.Errorf("invalid severity: %s", *e.Severity)
	}
	if e.Resolved != nil && !validResolved[*e.Resolved] {
		return fmt.Errorf("invalid resolved value: %s", *e.Resolved)
	}
	return s.events.Update(ctx, e)
}

func (s *Service) DeleteAdverseEvent(ctx context.Context, id uuid.UUID) error {
	return s.events.Delete(ctx, id)
}

func (s *Service) ListAdverseEvents(ctx context.Context, limit, offset int) ([]*AdverseEvent, int, error) {
	return s.events.List(ctx, limit, offset)
}

func (s *Service) ListAdverseEventsByPatient(ctx context.Context, patientID string, limit, offset int) ([]*AdverseEvent, int, error) {
	return s.events.ListByPatient(ctx, patientID, limit, offset)
}

// -- LabResult --

func (s *Service) CreateLabResult(ctx context.Context, l *LabResult) error {
	if l.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if l.TestName == "" {
		return fmt.Errorf("test_name is required")
	}
	if l.TestDate.IsZero() {
		return fmt.Errorf("test_date is required")
	}
	if l.NormalRangeHigh < l.NormalRangeLow {
		return fmt.Errorf("normal_range_high must be >= normal_range_low")
	}
	return s.labs.Create(ctx, l)
}

func (s *Service) GetLabResult(ctx context.Context, id uuid.UUID) (*LabResult, error) {
	return s.labs.GetByID(ctx, id)
}

func (s *Service) UpdateLabResult(ctx context.Context, l *LabResult) error {
	if l.NormalRangeHigh < l.NormalRangeLow {
		return fmt.Errorf("normal_range_high must be >= normal_range_low")
	}
	return s.labs.Update(ctx, l)
}

func (s *Service) DeleteLabResult(ctx context.Context, id uuid.UUID) error {
	return s.labs.Delete(ctx, id)
}

func (s *Service) ListLabResults(ctx context.Context, limit, offset int) ([]*LabResult, int, error) {
	return s.labs.List(ctx, limit, offset)
}

func (s *Service) ListLabResultsByPatient(ctx context.Context, patientID string, limit, offset int) ([]*LabResult, int, error) {
	return s.labs.ListByPatient(ctx, patientID, limit, offset)
}

// -- Visit --

func (s *Service) CreateVisit(ctx context.Context, v *Visit) error {
	if v.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if v.VisitNumber <= 0 {
		return fmt.Errorf("visit_number must be positive")
	}
	if v.ScheduledDate.IsZero() {
		return fmt.Errorf("scheduled_date is required")
	}
	if v.VisitType == "" {
		v.VisitType = "scheduled"
	}
	return s.visits.Create(ctx, v)
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.visits.GetByID(ctx, id)
}

func (s *Service) UpdateVisit(ctx context.Context, v *Visit) error {
	return s.visits.Update(ctx, v)
}

func (s *Service) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	return s.visits.Delete(ctx, id)
}

func (s *Service) ListVisits(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.visits.List(ctx, limit, offset)
}

func (s *Service) ListVisitsByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Visit, int, error) {
	return s.visits.ListByPatient(ctx, patientID, limit, offset)
}
