package clarification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ctmonitor/ctmonitor/internal/domain/quality"
)

type mockRepo struct {
	store     map[uuid.UUID]*ClarificationQuery
	createErr error
	listErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: map[uuid.UUID]*ClarificationQuery{}}
}

func (m *mockRepo) Create(_ context.Context, q *ClarificationQuery) error {
	if m.createErr != nil {
		return m.createErr
	}
	// query_id carries a UNIQUE constraint in the real table.
	for _, existing := range m.store {
		if existing.QueryID == q.QueryID {
			return fmt.Errorf("duplicate key value violates unique constraint: query_id %s", q.QueryID)
		}
	}
	m.store[q.ID] = q
	return nil
}

func (m *mockRepo) NextBatchSequence(_ context.Context, datePrefix string) (int, error) {
	if m.listErr != nil {
		return 0, m.listErr
	}
	maxSeq := 0
	for _, q := range m.store {
		suffix, ok := strings.CutPrefix(q.QueryID, datePrefix+"-")
		if !ok || len(suffix) != 4 {
			continue
		}
		seq, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*ClarificationQuery, error) {
	q, ok := m.store[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return q, nil
}

func (m *mockRepo) GetByQueryID(_ context.Context, queryID string) (*ClarificationQuery, error) {
	for _, q := range m.store {
		if q.QueryID == queryID {
			return q, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	q, ok := m.store[id]
	if !ok {
		return errors.New("not found")
	}
	q.Status = status
	return nil
}

func (m *mockRepo) list(match func(*ClarificationQuery) bool, limit, offset int) ([]*ClarificationQuery, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var all []*ClarificationQuery
	for _, q := range m.store {
		if match(q) {
			all = append(all, q)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].QueryID < all[j].QueryID })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*ClarificationQuery, int, error) {
	return m.list(func(*ClarificationQuery) bool { return true }, limit, offset)
}

func (m *mockRepo) ListByStatus(_ context.Context, status Status, limit, offset int) ([]*ClarificationQuery, int, error) {
	return m.list(func(q *ClarificationQuery) bool { return q.Status == status }, limit, offset)
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*ClarificationQuery, int, error) {
	return m.list(func(q *ClarificationQuery) bool { return q.PatientID == patientID }, limit, offset)
}

type mockScanner struct {
	results quality.Results
	err     error
}

func (m *mockScanner) RunAllChecks(context.Context) (quality.Results, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func newTestService(sc *mockScanner, repo *mockRepo) *Service {
	svc := NewService(sc, newTestGenerator(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)), repo, zerolog.Nop())
	return svc
}

func scanResults() quality.Results {
	return quality.Results{
		quality.CategoryMissingData: {missingSeverityFinding("P001")},
		quality.CategoryLabOutlier:  {labOutlierFinding("P002", "mg/dL")},
		quality.CategoryDateAnomaly: {{
			Category:  quality.CategoryDateAnomaly,
			Severity:  quality.SeverityHigh,
			PatientID: "P003",
			Details: quality.DateAnomalyDetail{
				EventID:        "ae-009",
				EventTerm:      "Nausea",
				EventDate:      day("2024-01-01"),
				EnrollmentDate: day("2024-01-15"),
			},
		}},
	}
}

func TestService_Scan(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(&mockScanner{results: scanResults()}, repo)

	result, err := svc.Scan(context.Background(), "SITE0001")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if result.TotalFindings != 3 {
		t.Errorf("expected 3 findings, got %d", result.TotalFindings)
	}
	// date_anomaly has no template and is skipped.
	if result.SkippedCount != 1 {
		t.Errorf("expected 1 skipped, got %d", result.SkippedCount)
	}
	if len(result.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(result.Queries))
	}
	if len(repo.store) != 2 {
		t.Errorf("expected 2 persisted queries, got %d", len(repo.store))
	}
	for _, q := range result.Queries {
		if q.SiteID != "SITE0001" {
			t.Errorf("expected site SITE0001, got %s", q.SiteID)
		}
		if q.Status != StatusOpen {
			t.Errorf("expected Open status, got %s", q.Status)
		}
	}
}

func TestService_Scan_SameDayRerunContinuesSequence(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(&mockScanner{results: scanResults()}, repo)

	first, err := svc.Scan(context.Background(), "SITE0001")
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := svc.Scan(context.Background(), "SITE0001")
	if err != nil {
		t.Fatalf("second same-day scan: %v", err)
	}

	wantFirst := []string{"20240315-0001", "20240315-0002"}
	for i, want := range wantFirst {
		if first.Queries[i].QueryID != want {
			t.Errorf("first scan query %d: expected %s, got %s", i, want, first.Queries[i].QueryID)
		}
	}
	wantSecond := []string{"20240315-0003", "20240315-0004"}
	for i, want := range wantSecond {
		if second.Queries[i].QueryID != want {
			t.Errorf("second scan query %d: expected %s, got %s", i, want, second.Queries[i].QueryID)
		}
	}

	seen := map[string]bool{}
	for _, q := range repo.store {
		if seen[q.QueryID] {
			t.Errorf("duplicate persisted query_id %s", q.QueryID)
		}
		seen[q.QueryID] = true
	}
	if len(repo.store) != 4 {
		t.Errorf("expected 4 persisted queries, got %d", len(repo.store))
	}
}

func TestService_Scan_CheckerError(t *testing.T) {
	svc := newTestService(&mockScanner{err: fmt.Errorf("connection refused")}, newMockRepo())

	if _, err := svc.Scan(context.Background(), ""); err == nil {
		t.Fatal("expected error when checks fail")
	}
}

func TestService_Scan_PersistError(t *testing.T) {
	repo := newMockRepo()
	repo.createErr = fmt.Errorf("insert failed")
	svc := newTestService(&mockScanner{results: scanResults()}, repo)

	if _, err := svc.Scan(context.Background(), ""); err == nil {
		t.Fatal("expected error when persistence fails")
	}
}

func TestService_Export_OnlyOpenQueries(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(&mockScanner{results: scanResults()}, repo)

	if _, err := svc.Scan(context.Background(), "SITE0001"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// Close one of the two queries; only the open one should be exported.
	for id := range repo.store {
		if err := svc.UpdateStatus(context.Background(), id, StatusClosed); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		break
	}

	dir := t.TempDir()
	written, err := svc.Export(context.Background(), dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if written != 1 {
		t.Errorf("expected 1 exported file, got %d", written)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(&mockScanner{results: scanResults()}, repo)

	result, err := svc.Scan(context.Background(), "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	id := result.Queries[0].ID

	if err := svc.UpdateStatus(context.Background(), id, StatusResolved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	q, err := svc.GetQuery(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != StatusResolved {
		t.Errorf("expected Resolved, got %s", q.Status)
	}

	if err := svc.UpdateStatus(context.Background(), id, Status("Pending")); err == nil {
		t.Error("expected error for invalid status")
	}
	if err := svc.UpdateStatus(context.Background(), uuid.New(), StatusClosed); err == nil {
		t.Error("expected error for unknown query")
	}
}

func TestService_ListQueries(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(&mockScanner{results: scanResults()}, repo)

	if _, err := svc.Scan(context.Background(), ""); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	items, total, err := svc.ListQueries(context.Background(), "", "", 20, 0)
	if err != nil {
		t.Fatalf("ListQueries: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 queries, got total=%d len=%d", total, len(items))
	}

	items, total, err = svc.ListQueries(context.Background(), "", "P001", 20, 0)
	if err != nil {
		t.Fatalf("ListQueries by patient: %v", err)
	}
	if total != 1 || items[0].PatientID != "P001" {
		t.Errorf("expected P001's query, got total=%d", total)
	}

	if _, _, err := svc.ListQueries(context.Background(), Status("Bogus"), "", 20, 0); err == nil {
		t.Error("expected error for invalid status filter")
	}
}
