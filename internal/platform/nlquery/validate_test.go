package nlquery

import (
	"strings"
	"testing"
)

func TestValidateReadOnly_Accepts(t *testing.T) {
	valid := []string{
		"SELECT * FROM patients",
		"select count(*) from adverse_events group by severity",
		"  SELECT site_id, COUNT(*) FROM patients GROUP BY site_id  ",
		"SELECT * FROM lab_results WHERE test_value > normal_range_high LIMIT 100",
		"SELECT * FROM visits;",
	}
	for _, sql := range valid {
		if err := ValidateReadOnly(sql); err != nil {
			t.Errorf("%q: unexpected rejection: %v", sql, err)
		}
	}
}

func TestValidateReadOnly_Rejects(t *testing.T) {
	cases := []struct {
		sql  string
		want string
	}{
		{"", "empty"},
		{"   ", "empty"},
		{"DROP TABLE patients", "SELECT"},
		{"DELETE FROM patients", "SELECT"},
		{"WITH x AS (SELECT 1) SELECT * FROM x", "SELECT"},
		{"SELECT * FROM patients; DROP TABLE patients", "forbidden keyword"},
		{"SELECT * FROM patients WHERE status = 'x'; SELECT 1", "multiple statements"},
		{"SELECT 1 UNION SELECT * FROM pg_catalog.pg_tables WHERE 'a' = 'a' AND 1 = (INSERT INTO x VALUES (1))", "forbidden keyword"},
		{"select * from patients where note = 'update me'", "forbidden keyword"},
	}
	for _, tc := range cases {
		err := ValidateReadOnly(tc.sql)
		if err == nil {
			t.Errorf("%q: expected rejection", tc.sql)
			continue
		}
		if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.want)) {
			t.Errorf("%q: expected error mentioning %q, got %v", tc.sql, tc.want, err)
		}
	}
}

func TestExtractSQL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"plain",
			"SELECT * FROM patients",
			"SELECT * FROM patients",
		},
		{
			"fenced",
			"```sql\nSELECT * FROM patients\n```",
			"SELECT * FROM patients",
		},
		{
			"prose prefix",
			"Here is the query: SELECT COUNT(*) FROM visits",
			"SELECT COUNT(*) FROM visits",
		},
		{
			"fence without language",
			"```\nSELECT 1\n```",
			"SELECT 1",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractSQL(tc.in); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
