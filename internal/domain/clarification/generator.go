package clarification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ctmonitor/ctmonitor/internal/domain/quality"
)

// DefaultSiteID is used when the caller does not identify the site.
const DefaultSiteID = "SITEXXXX"

const dateLayout = "2006-01-02"

// Generator turns quality findings into rendered clarification queries.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// SkippedFinding records a finding that could not be turned into a query
// during a batch run, keeping its position in the input slice.
type SkippedFinding struct {
	Index int
	Err   error
}

// Generate renders a single clarification query for a finding. An empty
// queryID gets a timestamp identifier; batch callers pass sequenced IDs.
func (g *Generator) Generate(f quality.Finding, siteID, queryID string) (*ClarificationQuery, error) {
	tpl, err := TemplateFor(f.Category)
	if err != nil {
		return nil, err
	}

	now := g.now()
	if queryID == "" {
		queryID = now.Format("20060102150405")
	}
	if siteID == "" {
		siteID = DefaultSiteID
	}

	data := map[string]string{
		"patient_id":   f.PatientID,
		"site_id":      siteID,
		"current_date": now.Format(dateLayout),
		"query_id":     queryID,
	}
	if f.Details != nil {
		for k, v := range f.Details.Fields() {
			data[k] = v
		}
	}

	body, err := tpl.Render(data)
	if err != nil {
		return nil, err
	}

	return &ClarificationQuery{
		ID:          uuid.New(),
		QueryID:     queryID,
		PatientID:   f.PatientID,
		SiteID:      siteID,
		Category:    f.Category,
		Title:       tpl.Title,
		Priority:    tpl.Priority,
		Status:      StatusOpen,
		Body:        body,
		CreatedDate: now,
		DueDate:     now.AddDate(0, 0, tpl.Priority.DueDays()),
	}, nil
}

// BatchDate returns the date prefix batch IDs carry for the current clock.
func (g *Generator) BatchDate() string {
	return g.now().Format("20060102")
}

// GenerateBatch renders queries for a slice of findings with sequential IDs
// of the form <YYYYMMDD>-0001, starting at startSeq (values below 1 mean 1).
// Callers persisting batches pass the next free sequence for the day so a
// second same-day run never reissues a stored ID. A sequence number is
// consumed only by a successfully generated query, so issued IDs never have
// gaps; findings that fail are reported in the skipped slice and do not
// abort the batch.
func (g *Generator) GenerateBatch(findings []quality.Finding, siteID string, startSeq int) ([]*ClarificationQuery, []SkippedFinding) {
	datePrefix := g.BatchDate()

	queries := make([]*ClarificationQuery, 0, len(findings))
	var skipped []SkippedFinding

	seq := startSeq
	if seq < 1 {
		seq = 1
	}
	for i, f := range findings {
		queryID := fmt.Sprintf("%s-%04d", datePrefix, seq)
		q, err := g.Generate(f, siteID, queryID)
		if err != nil {
			skipped = append(skipped, SkippedFinding{Index: i, Err: err})
			continue
		}
		seq++
		queries = append(queries, q)
	}
	return queries, skipped
}
