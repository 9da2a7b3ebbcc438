package clarification

import (
	"time"

	"github.com/google/uuid"

	"github.com/ctmonitor/ctmonitor/internal/domain/quality"
)

// Priority orders clarification queries for site staff. It is deliberately
// a separate scale from quality.Severity: severity grades the data problem,
// priority drives the response deadline.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var priorityRanks = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
}

func (p Priority) Rank() int {
	return priorityRanks[p]
}

func (p Priority) IsValid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// DueDays returns the response window for a priority. Unknown priorities get
// the medium window.
func (p Priority) DueDays() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 5
	case PriorityLow:
		return 10
	default:
		return 5
	}
}

// Status tracks a query through its lifecycle. New queries are always Open.
type Status string

const (
	StatusOpen     Status = "Open"
	StatusResolved Status = "Resolved"
	StatusClosed   Status = "Closed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// ClarificationQuery is a rendered data clarification request addressed to a
// site. QueryID is the business identifier (timestamp or batch sequence);
// ID is the storage key.
type ClarificationQuery struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	QueryID     string           `db:"query_id" json:"query_id"`
	PatientID   string           `db:"patient_id" json:"patient_id"`
	SiteID      string           `db:"site_id" json:"site_id"`
	Category    quality.Category `db:"category" json:"category"`
	Title       string           `db:"title" json:"title"`
	Priority    Priority         `db:"priority" json:"priority"`
	Status      Status           `db:"status" json:"status"`
	Body        string           `db:"body" json:"body"`
	CreatedDate time.Time        `db:"created_date" json:"created_date"`
	DueDate     time.Time        `db:"due_date" json:"due_date"`
}
