package trial

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

// ── Patient Handlers ──

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()
	body := `{"patient_id":"P0001","site_id":"SITE0001","age":52,"gender":"F","enrollment_date":"2024-01-15T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreatePatient(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_CreatePatient_BadRequest(t *testing.T) {
	h, e := newTestHandler()
	body := `{"site_id":"SITE0001"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreatePatient(c)
	if err == nil {
		t.Error("expected error for missing required fields")
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler()
	p := &Patient{PatientID: "P0001", SiteID: "SITE0001", EnrollmentDate: day("2024-01-15")}
	h.svc.CreatePatient(nil, p)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	err := h.GetPatient(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	err := h.GetPatient(c)
	if err == nil {
		t.Error("expected error for not found")
	}
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	err := h.GetPatient(c)
	if err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreatePatient(nil, &Patient{PatientID: "P0001", SiteID: "SITE0001", EnrollmentDate: day("2024-01-15")})
	h.svc.CreatePatient(nil, &Patient{PatientID: "P0002", SiteID: "SITE0002", EnrollmentDate: day("2024-01-20")})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.ListPatients(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if int(resp["total"].(float64)) != 2 {
		t.Errorf("expected total 2, got %v", resp["total"])
	}
}

// ── AdverseEvent Handlers ──

func TestHandler_CreateAdverseEvent(t *testing.T) {
	h, e := newTestHandler()
	body := `{"patient_id":"P0001","event_term":"Headache","event_date":"2024-03-01T00:00:00Z","severity":"Mild"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreateAdverseEvent(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_ListAdverseEvents_ByPatient(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateAdverseEvent(nil, &AdverseEvent{PatientID: "P0001", EventTerm: "Headache", EventDate: day("2024-03-01")})
	h.svc.CreateAdverseEvent(nil, &AdverseEvent{PatientID: "P0002", EventTerm: "Nausea", EventDate: day("2024-03-02")})

	req := httptest.NewRequest(http.MethodGet, "/?patient_id=P0001", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.ListAdverseEvents(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if int(resp["total"].(float64)) != 1 {
		t.Errorf("expected total 1, got %v", resp["total"])
	}
}

// ── LabResult Handlers ──

func TestHandler_CreateLabResult(t *testing.T) {
	h, e := newTestHandler()
	body := `{"patient_id":"P0001","test_name":"ALT","test_value":120,"unit":"U/L","test_date":"2024-03-10T00:00:00Z","normal_range_low":7,"normal_range_high":56}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreateLabResult(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

// ── Visit Handlers ──

func TestHandler_CreateVisit(t *testing.T) {
	h, e := newTestHandler()
	body := `{"patient_id":"P0001","visit_number":2,"visit_date":"2024-02-10T00:00:00Z","scheduled_date":"2024-02-01T00:00:00Z","visit_type":"scheduled","completed":true}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreateVisit(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_DeleteVisit(t *testing.T) {
	h, e := newTestHandler()
	v := &Visit{PatientID: "P0001", VisitNumber: 1, ScheduledDate: day("2024-02-01")}
	h.svc.CreateVisit(nil, v)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(v.ID.String())
	err := h.DeleteVisit(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
