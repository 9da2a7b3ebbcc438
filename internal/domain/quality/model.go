package quality

import (
	"strconv"
	"time"
)

// Severity grades a finding. The four tiers are ordered; Rank supports
// comparisons without string juggling.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

var severityRanks = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

func (s Severity) Rank() int {
	return severityRanks[s]
}

func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Category identifies which detection rule produced a finding.
type Category string

const (
	CategoryMissingData       Category = "missing_data"
	CategoryLabOutlier        Category = "lab_outlier"
	CategoryProtocolDeviation Category = "protocol_deviation"
	CategoryDuplicateRecord   Category = "duplicate_record"
	CategoryDateAnomaly       Category = "date_anomaly"
	CategoryUnresolvedEvent   Category = "unresolved_event"
)

// Categories lists every detection rule in report order.
func Categories() []Category {
	return []Category{
		CategoryMissingData,
		CategoryLabOutlier,
		CategoryProtocolDeviation,
		CategoryDuplicateRecord,
		CategoryDateAnomaly,
		CategoryUnresolvedEvent,
	}
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryMissingData, CategoryLabOutlier, CategoryProtocolDeviation,
		CategoryDuplicateRecord, CategoryDateAnomaly, CategoryUnresolvedEvent:
		return true
	}
	return false
}

// Finding is a single data quality issue attached to a patient. Details
// carries the category-specific attributes; exactly one concrete type exists
// per category, so a finding can never carry another rule's attributes.
type Finding struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	PatientID   string   `json:"patient_id"`
	Description string   `json:"description"`
	Details     Details  `json:"details"`
}

// Details is the category-specific attribute set of a finding. Fields
// flattens the attributes to strings for template rendering and reports.
type Details interface {
	Fields() map[string]string
	isDetails()
}

const dateLayout = "2006-01-02"

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// MissingDataDetail describes a required adverse-event field that was left
// empty. Field is the column name ("severity" or "resolved").
type MissingDataDetail struct {
	Table     string    `json:"table"`
	Field     string    `json:"field"`
	EventID   string    `json:"event_id"`
	EventTerm string    `json:"event_term"`
	EventDate time.Time `json:"event_date"`
}

func (d MissingDataDetail) isDetails() {}

func (d MissingDataDetail) Fields() map[string]string {
	return map[string]string{
		"table":      d.Table,
		"field":      d.Field,
		"event_id":   d.EventID,
		"event_term": d.EventTerm,
		"event_date": d.EventDate.Format(dateLayout),
	}
}

// LabOutlierDetail describes a lab value outside its normal range.
// OutlierType is "High" or "Low"; Deviation is the relative distance from
// the violated bound.
type LabOutlierDetail struct {
	TestName        string    `json:"test_name"`
	TestValue       float64   `json:"test_value"`
	Unit            string    `json:"unit"`
	TestDate        time.Time `json:"test_date"`
	NormalRangeLow  float64   `json:"normal_range_low"`
	NormalRangeHigh float64   `json:"normal_range_high"`
	OutlierType     string    `json:"outlier_type"`
	Deviation       float64   `json:"deviation"`
}

func (d LabOutlierDetail) isDetails() {}

func (d LabOutlierDetail) Fields() map[string]string {
	return map[string]string{
		"test_name":         d.TestName,
		"test_value":        formatFloat(d.TestValue),
		"unit":              d.Unit,
		"test_date":         d.TestDate.Format(dateLayout),
		"normal_range_low":  formatFloat(d.NormalRangeLow),
		"normal_range_high": formatFloat(d.NormalRangeHigh),
		"outlier_type":      d.OutlierType,
	}
}

// ProtocolDeviationDetail describes a visit that happened too long after its
// scheduled date.
type ProtocolDeviationDetail struct {
	VisitNumber   int       `json:"visit_number"`
	VisitType     string    `json:"visit_type"`
	VisitDate     time.Time `json:"visit_date"`
	ScheduledDate time.Time `json:"scheduled_date"`
	DaysLate      int       `json:"days_late"`
}

func (d ProtocolDeviationDetail) isDetails() {}

func (d ProtocolDeviationDetail) Fields() map[string]string {
	return map[string]string{
		"visit_number":   strconv.Itoa(d.VisitNumber),
		"visit_type":     d.VisitType,
		"visit_date":     d.VisitDate.Format(dateLayout),
		"scheduled_date": d.ScheduledDate.Format(dateLayout),
		"days_late":      strconv.Itoa(d.DaysLate),
	}
}

// DuplicateRecordDetail describes a patient identifier registered more than
// once. Count is the total number of registrations.
type DuplicateRecordDetail struct {
	Count int `json:"count"`
}

func (d DuplicateRecordDetail) isDetails() {}

func (d DuplicateRecordDetail) Fields() map[string]string {
	return map[string]string{
		"count": strconv.Itoa(d.Count),
	}
}

// DateAnomalyDetail describes an adverse event dated before the patient's
// enrollment.
type DateAnomalyDetail struct {
	EventID        string    `json:"event_id"`
	EventTerm      string    `json:"event_term"`
	EventDate      time.Time `json:"event_date"`
	EnrollmentDate time.Time `json:"enrollment_date"`
}

func (d DateAnomalyDetail) isDetails() {}

func (d DateAnomalyDetail) Fields() map[string]string {
	return map[string]string{
		"event_id":        d.EventID,
		"event_term":      d.EventTerm,
		"event_date":      d.EventDate.Format(dateLayout),
		"enrollment_date": d.EnrollmentDate.Format(dateLayout),
	}
}

// UnresolvedEventDetail describes an adverse event still open as of the scan.
type UnresolvedEventDetail struct {
	EventID       string    `json:"event_id"`
	EventTerm     string    `json:"event_term"`
	EventDate     time.Time `json:"event_date"`
	EventSeverity string    `json:"event_severity"`
	DaysOpen      int       `json:"days_open"`
}

func (d UnresolvedEventDetail) isDetails() {}

func (d UnresolvedEventDetail) Fields() map[string]string {
	return map[string]string{
		"event_id":       d.EventID,
		"event_term":     d.EventTerm,
		"event_date":     d.EventDate.Format(dateLayout),
		"event_severity": d.EventSeverity,
		"days_open":      strconv.Itoa(d.DaysOpen),
	}
}
