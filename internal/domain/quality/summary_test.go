package quality

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func sampleResults() Results {
	results := Results{}
	for _, cat := range Categories() {
		results[cat] = []Finding{}
	}
	results[CategoryMissingData] = []Finding{
		{Category: CategoryMissingData, Severity: SeverityHigh, PatientID: "P0001", Description: "Adverse event 'Headache' has no severity recorded"},
		{Category: CategoryMissingData, Severity: SeverityMedium, PatientID: "P0002", Description: "Adverse event 'Nausea' has no resolution status recorded"},
	}
	results[CategoryDuplicateRecord] = []Finding{
		{Category: CategoryDuplicateRecord, Severity: SeverityCritical, PatientID: "P0003", Description: "Patient P0003 has 2 registrations"},
	}
	return results
}

func TestBuildSummary(t *testing.T) {
	s := BuildSummary(sampleResults())

	if s.TotalFindings != 3 {
		t.Errorf("expected 3 total findings, got %d", s.TotalFindings)
	}
	if len(s.Categories) != len(Categories()) {
		t.Fatalf("expected %d categories, got %d", len(Categories()), len(s.Categories))
	}

	byCat := make(map[Category]CategorySummary)
	for _, cs := range s.Categories {
		byCat[cs.Category] = cs
	}

	md := byCat[CategoryMissingData]
	if md.Total != 2 || md.High != 1 || md.Medium != 1 {
		t.Errorf("missing_data summary wrong: %+v", md)
	}
	dup := byCat[CategoryDuplicateRecord]
	if dup.Total != 1 || dup.Critical != 1 {
		t.Errorf("duplicate_record summary wrong: %+v", dup)
	}
	if byCat[CategoryLabOutlier].Total != 0 {
		t.Errorf("expected empty lab_outlier summary, got %+v", byCat[CategoryLabOutlier])
	}
}

func TestBuildSummary_StableOrder(t *testing.T) {
	s := BuildSummary(sampleResults())
	for i, cat := range Categories() {
		if s.Categories[i].Category != cat {
			t.Errorf("position %d: expected %s, got %s", i, cat, s.Categories[i].Category)
		}
	}
}

func TestWriteCSVReport(t *testing.T) {
	dir := t.TempDir()

	written, err := WriteCSVReport(sampleResults(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// summary.csv plus one file per non-empty category
	if len(written) != 3 {
		t.Fatalf("expected 3 files, got %d: %v", len(written), written)
	}

	f, err := os.Open(filepath.Join(dir, "summary.csv"))
	if err != nil {
		t.Fatalf("summary.csv not written: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse summary.csv: %v", err)
	}
	// header + one row per category
	if len(records) != len(Categories())+1 {
		t.Errorf("expected %d rows, got %d", len(Categories())+1, len(records))
	}
	if records[0][0] != "category" {
		t.Errorf("expected header to start with 'category', got %q", records[0][0])
	}

	if _, err := os.Stat(filepath.Join(dir, "missing_data.csv")); err != nil {
		t.Errorf("expected missing_data.csv: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "lab_outlier.csv")); err == nil {
		t.Error("did not expect a file for an empty category")
	}
}

func TestSeverity_Rank(t *testing.T) {
	if !(SeverityLow.Rank() < SeverityMedium.Rank() &&
		SeverityMedium.Rank() < SeverityHigh.Rank() &&
		SeverityHigh.Rank() < SeverityCritical.Rank()) {
		t.Error("severity ranks are not strictly increasing")
	}
}

func TestSeverity_IsValid(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if !s.IsValid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Severity("Fatal").IsValid() {
		t.Error("expected unknown severity to be invalid")
	}
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.IsValid() {
			t.Errorf("expected %s to be valid", c)
		}
	}
	if Category("made_up").IsValid() {
		t.Error("expected unknown category to be invalid")
	}
}
