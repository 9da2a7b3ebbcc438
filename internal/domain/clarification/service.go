package clarification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ctmonitor/ctmonitor/internal/domain/quality"
)

// scanner is the slice of the quality checker the workflow needs.
type scanner interface {
	RunAllChecks(ctx context.Context) (quality.Results, error)
}

// Service runs the clarification workflow: scan the trial data for findings,
// render queries for the categories that have templates, persist them, and
// export rendered bodies to files on request.
type Service struct {
	checker   scanner
	generator *Generator
	repo      Repository
	log       zerolog.Logger
}

func NewService(checker scanner, generator *Generator, repo Repository, log zerolog.Logger) *Service {
	return &Service{checker: checker, generator: generator, repo: repo, log: log}
}

// ScanResult reports one scan-and-generate run.
type ScanResult struct {
	Queries []*ClarificationQuery `json:"queries"`
	Skipped []SkippedFinding      `json:"-"`

	TotalFindings int `json:"total_findings"`
	SkippedCount  int `json:"skipped_count"`
}

// Scan runs every quality check, generates clarification queries for the
// findings and persists them. Findings whose category has no template are
// skipped, not errors; a storage failure aborts the run.
func (s *Service) Scan(ctx context.Context, siteID string) (*ScanResult, error) {
	results, err := s.checker.RunAllChecks(ctx)
	if err != nil {
		return nil, fmt.Errorf("run quality checks: %w", err)
	}

	var findings []quality.Finding
	for _, cat := range quality.Categories() {
		findings = append(findings, results[cat]...)
	}

	// Continue the day's sequence past already-persisted batches so a rerun
	// on the same date never collides with a stored query_id.
	startSeq, err := s.repo.NextBatchSequence(ctx, s.generator.BatchDate())
	if err != nil {
		return nil, fmt.Errorf("next batch sequence: %w", err)
	}

	queries, skipped := s.generator.GenerateBatch(findings, siteID, startSeq)
	for _, sk := range skipped {
		s.log.Warn().Err(sk.Err).
			Str("category", string(findings[sk.Index].Category)).
			Str("patient_id", findings[sk.Index].PatientID).
			Msg("finding skipped during query generation")
	}

	for _, q := range queries {
		if err := s.repo.Create(ctx, q); err != nil {
			return nil, fmt.Errorf("persist query %s: %w", q.QueryID, err)
		}
	}

	s.log.Info().
		Int("findings", len(findings)).
		Int("queries", len(queries)).
		Int("skipped", len(skipped)).
		Msg("clarification scan complete")

	return &ScanResult{
		Queries:       queries,
		Skipped:       skipped,
		TotalFindings: len(findings),
		SkippedCount:  len(skipped),
	}, nil
}

// Export writes every open query to dir and returns the number of files written.
func (s *Service) Export(ctx context.Context, dir string) (int, error) {
	const pageSize = 100

	var queries []*ClarificationQuery
	for offset := 0; ; offset += pageSize {
		page, total, err := s.repo.ListByStatus(ctx, StatusOpen, pageSize, offset)
		if err != nil {
			return 0, fmt.Errorf("list open queries: %w", err)
		}
		queries = append(queries, page...)
		if offset+pageSize >= total {
			break
		}
	}

	written, err := ExportToFiles(queries, dir)
	if err != nil {
		return written, err
	}
	s.log.Info().Int("files", written).Str("dir", dir).Msg("clarification queries exported")
	return written, nil
}

func (s *Service) GetQuery(ctx context.Context, id uuid.UUID) (*ClarificationQuery, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) ListQueries(ctx context.Context, status Status, patientID string, limit, offset int) ([]*ClarificationQuery, int, error) {
	switch {
	case status != "":
		if !status.IsValid() {
			return nil, 0, fmt.Errorf("invalid status: %s", status)
		}
		return s.repo.ListByStatus(ctx, status, limit, offset)
	case patientID != "":
		return s.repo.ListByPatient(ctx, patientID, limit, offset)
	default:
		return s.repo.List(ctx, limit, offset)
	}
}
