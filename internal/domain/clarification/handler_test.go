package clarification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(sc *mockScanner, repo *mockRepo, exportDir string) *Handler {
	return NewHandler(newTestService(sc, repo), DefaultSiteID, exportDir)
}

func TestHandler_Scan(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(&mockScanner{results: scanResults()}, repo, t.TempDir())
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/?site_id=SITE0001", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Scan(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if int(resp["total_findings"].(float64)) != 3 {
		t.Errorf("expected total_findings 3, got %v", resp["total_findings"])
	}
	if int(resp["skipped_count"].(float64)) != 1 {
		t.Errorf("expected skipped_count 1, got %v", resp["skipped_count"])
	}
	if len(repo.store) != 2 {
		t.Errorf("expected 2 persisted queries, got %d", len(repo.store))
	}
}

func TestHandler_Scan_StoreUnavailable(t *testing.T) {
	h := newTestHandler(&mockScanner{err: fmt.Errorf("connection refused")}, newMockRepo(), t.TempDir())
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Scan(c)
	if err == nil {
		t.Fatal("expected error when store is unavailable")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", httpErr.Code)
	}
}

func TestHandler_Export(t *testing.T) {
	repo := newMockRepo()
	dir := t.TempDir()
	h := newTestHandler(&mockScanner{results: scanResults()}, repo, dir)
	e := echo.New()

	// Generate some open queries first.
	scanReq := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := h.Scan(e.NewContext(scanReq, httptest.NewRecorder())); err != nil {
		t.Fatalf("scan: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Export(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if int(resp["exported"].(float64)) != 2 {
		t.Errorf("expected 2 exported, got %v", resp["exported"])
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 files in export dir, got %d", len(entries))
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".txt" {
			t.Errorf("unexpected export file %s", entry.Name())
		}
	}
}

func TestHandler_ListQueries(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(&mockScanner{results: scanResults()}, repo, t.TempDir())
	e := echo.New()

	scanReq := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := h.Scan(e.NewContext(scanReq, httptest.NewRecorder())); err != nil {
		t.Fatalf("scan: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?status=Open", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListQueries(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
}

func TestHandler_ListQueries_InvalidStatus(t *testing.T) {
	h := newTestHandler(&mockScanner{results: scanResults()}, newMockRepo(), t.TempDir())
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?status=Bogus", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListQueries(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	repo := newMockRepo()
	h := newTestHandler(&mockScanner{results: scanResults()}, repo, t.TempDir())
	e := echo.New()

	scanReq := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := h.Scan(e.NewContext(scanReq, httptest.NewRecorder())); err != nil {
		t.Fatalf("scan: %v", err)
	}
	var id string
	for qid := range repo.store {
		id = qid.String()
		break
	}

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"Resolved"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var q ClarificationQuery
	if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if q.Status != StatusResolved {
		t.Errorf("expected Resolved, got %s", q.Status)
	}
}

func TestHandler_UpdateStatus_Invalid(t *testing.T) {
	h := newTestHandler(&mockScanner{results: scanResults()}, newMockRepo(), t.TempDir())
	e := echo.New()

	cases := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"bad uuid", "not-a-uuid", `{"status":"Resolved"}`, http.StatusBadRequest},
		{"bad status", "0b9faf0f-3ec4-4be8-8b02-8e9f615b3a6b", `{"status":"Pending"}`, http.StatusBadRequest},
		{"unknown id", "0b9faf0f-3ec4-4be8-8b02-8e9f615b3a6b", `{"status":"Closed"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tc.id)

			err := h.UpdateStatus(c)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, httpErr.Code)
			}
		})
	}
}

func TestHandler_GetQuery_NotFound(t *testing.T) {
	h := newTestHandler(&mockScanner{results: scanResults()}, newMockRepo(), t.TempDir())
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("0b9faf0f-3ec4-4be8-8b02-8e9f615b3a6b")

	err := h.GetQuery(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}
