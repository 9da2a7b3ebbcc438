package trial

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	ListBySite(ctx context.Context, siteID string, limit, offset int) ([]*Patient, int, error)
}

type AdverseEventRepository interface {
	Create(ctx context.Context, e *AdverseEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*AdverseEvent, error)
	Update(ctx context.Context, e *AdverseEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*AdverseEvent, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*AdverseEvent, int, error)
}

type LabResultRepository interface {
	Create(ctx context.Context, l *LabResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabResult, error)
	Update(ctx context.Context, l *LabResult) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*LabResult, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*LabResult, int, error)
}

type VisitRepository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	Update(ctx context.Context, v *Visit) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Visit, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Visit, int, error)
}
