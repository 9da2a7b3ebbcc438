package clarification

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists clarification queries.
type Repository interface {
	Create(ctx context.Context, q *ClarificationQuery) error
	// NextBatchSequence returns the first free batch sequence number for a
	// YYYYMMDD date prefix (1 when no batch ran that day), so query IDs stay
	// unique across same-day scans.
	NextBatchSequence(ctx context.Context, datePrefix string) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ClarificationQuery, error)
	GetByQueryID(ctx context.Context, queryID string) (*ClarificationQuery, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	List(ctx context.Context, limit, offset int) ([]*ClarificationQuery, int, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*ClarificationQuery, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*ClarificationQuery, int, error)
}
