package quality

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CategorySummary is the per-rule roll-up of a scan.
type CategorySummary struct {
	Category Category `json:"category"`
	Total    int      `json:"total"`
	Critical int      `json:"critical"`
	High     int      `json:"high"`
	Medium   int      `json:"medium"`
	Low      int      `json:"low"`
}

// Summary is the scan-wide roll-up derived purely from Results.
type Summary struct {
	TotalFindings int               `json:"total_findings"`
	Categories    []CategorySummary `json:"categories"`
}

// BuildSummary rolls Results up into per-category severity counts, in stable
// report order.
func BuildSummary(results Results) Summary {
	s := Summary{TotalFindings: results.TotalFindings()}
	for _, cat := range Categories() {
		cs := CategorySummary{Category: cat}
		for _, f := range results[cat] {
			cs.Total++
			switch f.Severity {
			case SeverityCritical:
				cs.Critical++
			case SeverityHigh:
				cs.High++
			case SeverityMedium:
				cs.Medium++
			case SeverityLow:
				cs.Low++
			}
		}
		s.Categories = append(s.Categories, cs)
	}
	return s
}

// WriteCSVReport writes a scan report to dir: summary.csv with per-category
// severity counts, plus one findings file per non-empty category. Returns
// the paths written.
func WriteCSVReport(results Results, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	var written []string

	summaryPath := filepath.Join(dir, "summary.csv")
	if err := writeSummaryCSV(results, summaryPath); err != nil {
		return written, err
	}
	written = append(written, summaryPath)

	for _, cat := range Categories() {
		findings := results[cat]
		if len(findings) == 0 {
			continue
		}
		path := filepath.Join(dir, string(cat)+".csv")
		if err := writeFindingsCSV(findings, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeSummaryCSV(results Results, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"category", "total", "critical", "high", "medium", "low"}); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, cs := range BuildSummary(results).Categories {
		record := []string{
			string(cs.Category),
			strconv.Itoa(cs.Total),
			strconv.Itoa(cs.Critical),
			strconv.Itoa(cs.High),
			strconv.Itoa(cs.Medium),
			strconv.Itoa(cs.Low),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeFindingsCSV(findings []Finding, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"patient_id", "severity", "description"}); err != nil {
		return fmt.Errorf("write findings header: %w", err)
	}
	for _, finding := range findings {
		if err := w.Write([]string{finding.PatientID, string(finding.Severity), finding.Description}); err != nil {
			return fmt.Errorf("write finding row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
