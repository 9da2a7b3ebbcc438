// Package nlquery exposes a read-only ad-hoc query surface over the trial
// database. Natural-language translation is pluggable via Translator; every
// statement, translated or hand-written, passes through ValidateReadOnly
// before execution.
package nlquery

import "context"

// SchemaDescription documents the queryable tables for translators that
// build prompts from it.
const SchemaDescription = `DATABASE SCHEMA FOR CLINICAL TRIAL:

1. patients table:
   - id (UUID PRIMARY KEY)
   - patient_id (TEXT)
   - site_id (TEXT)
   - age (INTEGER)
   - gender (TEXT)
   - enrollment_date (DATE)
   - treatment_arm (TEXT)
   - status (TEXT)

2. adverse_events table:
   - id (UUID PRIMARY KEY)
   - patient_id (TEXT)
   - event_term (TEXT)
   - severity (TEXT)
   - event_date (DATE)
   - resolved (TEXT)

3. lab_results table:
   - id (UUID PRIMARY KEY)
   - patient_id (TEXT)
   - test_name (TEXT)
   - test_value (REAL)
   - unit (TEXT)
   - test_date (DATE)
   - normal_range_low (REAL)
   - normal_range_high (REAL)

4. visits table:
   - id (UUID PRIMARY KEY)
   - patient_id (TEXT)
   - visit_number (INTEGER)
   - visit_date (DATE)
   - scheduled_date (DATE)
   - visit_type (TEXT)
   - completed (BOOLEAN)
`

// Translator converts a natural-language question into a SQL statement.
type Translator interface {
	Translate(ctx context.Context, question string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, question string) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// ExampleQueries are questions a translator is expected to handle.
func ExampleQueries() []string {
	return []string{
		"Show all patients",
		"How many patients per site?",
		"List patients with severe adverse events",
		"Show patients older than 65",
		"Find lab results with outliers",
		"Count adverse events by severity",
	}
}
