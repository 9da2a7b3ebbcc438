package clarification

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ctmonitor/ctmonitor/internal/domain/quality"
)

// Template describes one standardized clarification request. Required lists
// the placeholders the finding's details must supply; the generator injects
// site_id, current_date and query_id itself.
type Template struct {
	Key      string
	Title    string
	Priority Priority
	Required []string
	Body     string
}

var templates = map[quality.Category]Template{
	quality.CategoryMissingData: {
		Key:      "missing_severity",
		Title:    "Missing AE Severity",
		Priority: PriorityHigh,
		Required: []string{"patient_id", "event_id", "event_term", "event_date"},
		Body: `DATA CLARIFICATION REQUEST

To: Site {{.site_id}} Study Team
Date: {{.current_date}}
Query ID: DCR-{{.query_id}}
Priority: HIGH

ISSUE:
The following adverse event is missing severity:

  Patient ID: {{.patient_id}}
  Event ID: {{.event_id}}
  Event Term: {{.event_term}}
  Event Date: {{.event_date}}

ACTION REQUIRED:
Please provide severity classification (Mild/Moderate/Severe)

RESPONSE DUE: Within 48 hours
`,
	},
	quality.CategoryLabOutlier: {
		Key:      "lab_outlier",
		Title:    "Lab Value Out of Range",
		Priority: PriorityHigh,
		Required: []string{
			"patient_id", "test_name", "test_value", "unit",
			"normal_range_low", "normal_range_high", "test_date", "outlier_type",
		},
		Body: `DATA CLARIFICATION REQUEST

To: Site {{.site_id}} Study Team
Date: {{.current_date}}
Query ID: DCR-{{.query_id}}
Priority: HIGH

ISSUE:
Out-of-range lab value identified:

  Patient ID: {{.patient_id}}
  Test Name: {{.test_name}}
  Test Value: {{.test_value}} {{.unit}}
  Normal Range: {{.normal_range_low}} - {{.normal_range_high}} {{.unit}}
  Test Date: {{.test_date}}
  Deviation: {{.outlier_type}}

ACTION REQUIRED:
Please verify and provide clinical assessment

RESPONSE DUE: Within 72 hours
`,
	},
	quality.CategoryProtocolDeviation: {
		Key:      "protocol_deviation",
		Title:    "Visit Protocol Deviation",
		Priority: PriorityMedium,
		Required: []string{"patient_id", "visit_type", "scheduled_date", "visit_date", "days_late"},
		Body: `DATA CLARIFICATION REQUEST

To: Site {{.site_id}} Study Team
Date: {{.current_date}}
Query ID: DCR-{{.query_id}}
Priority: MEDIUM

ISSUE:
Protocol deviation identified:

  Patient ID: {{.patient_id}}
  Visit: {{.visit_type}}
  Scheduled: {{.scheduled_date}}
  Actual: {{.visit_date}}
  Days Late: {{.days_late}}

ACTION REQUIRED:
Please provide reason for deviation

RESPONSE DUE: Within 5 business days
`,
	},
}

// TemplateFor returns the clarification template registered for a finding
// category, or ErrTemplateMissing when none exists.
func TemplateFor(category quality.Category) (Template, error) {
	tpl, ok := templates[category]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateMissing, category)
	}
	return tpl, nil
}

// Render checks every required placeholder is present and non-empty, then
// executes the body. Missing fields surface as MissingFieldError rather than
// a template execution error so callers can report the exact gap.
func (t Template) Render(data map[string]string) (string, error) {
	for _, field := range t.Required {
		if data[field] == "" {
			return "", &MissingFieldError{Field: field}
		}
	}

	tpl, err := template.New(t.Key).Option("missingkey=error").Parse(t.Body)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", t.Key, err)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.Key, err)
	}
	return buf.String(), nil
}
