package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/ctmonitor/ctmonitor/internal/domain/trial"
)

// lateVisitThreshold is the number of days a visit may slip before it counts
// as a protocol deviation.
const lateVisitThreshold = 7

// Results maps every detection category to its findings. A category with an
// empty slice is clean; a missing key never occurs — the checker always
// populates all six.
type Results map[Category][]Finding

// TotalFindings counts findings across all categories.
func (r Results) TotalFindings() int {
	n := 0
	for _, findings := range r {
		n += len(findings)
	}
	return n
}

// Checker runs the detection rules against a Repository. It holds no state
// between scans; the clock is injectable so day-based math is reproducible
// in tests.
type Checker struct {
	repo Repository
	now  func() time.Time
}

func NewChecker(repo Repository) *Checker {
	return &Checker{repo: repo, now: time.Now}
}

// labOutlierSeverity grades a lab outlier by its relative deviation from the
// violated bound. Boundaries are strict: a deviation of exactly 0.5 is High,
// exactly 0.2 is Medium.
func labOutlierSeverity(deviation float64) Severity {
	switch {
	case deviation > 0.5:
		return SeverityCritical
	case deviation > 0.2:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// labDeviation computes the relative deviation of a lab value from its normal
// range. Returns (0, "", false) when the value is within range.
func labDeviation(l *trial.LabResult) (float64, string, bool) {
	if l.TestValue > l.NormalRangeHigh {
		return (l.TestValue - l.NormalRangeHigh) / l.NormalRangeHigh, "High", true
	}
	if l.TestValue < l.NormalRangeLow {
		return (l.NormalRangeLow - l.TestValue) / l.NormalRangeLow, "Low", true
	}
	return 0, "", false
}

// visitDelaySeverity grades a late visit. Callers only pass visits more than
// lateVisitThreshold days late; exactly 22 days is Critical, exactly 15 is
// High, the rest Medium.
func visitDelaySeverity(daysLate int) Severity {
	switch {
	case daysLate > 21:
		return SeverityCritical
	case daysLate > 14:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// unresolvedSeverity grades an open adverse event by how long it has been
// open. There is no lower cutoff: a freshly opened event is still Low.
func unresolvedSeverity(daysOpen int) Severity {
	switch {
	case daysOpen > 90:
		return SeverityHigh
	case daysOpen > 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// CheckMissingData flags adverse events with an empty severity (High) or an
// empty resolution status (Medium). An event missing both yields two
// independent findings.
func (c *Checker) CheckMissingData(ctx context.Context) ([]Finding, error) {
	var findings []Finding

	missingSeverity, err := c.repo.EventsMissingSeverity(ctx)
	if err != nil {
		return nil, fmt.Errorf("check missing data: %w", err)
	}
	for _, e := range missingSeverity {
		findings = append(findings, Finding{
			Category:    CategoryMissingData,
			Severity:    SeverityHigh,
			PatientID:   e.PatientID,
			Description: fmt.Sprintf("Adverse event '%s' has no severity recorded", e.EventTerm),
			Details: MissingDataDetail{
				Table:     "adverse_events",
				Field:     "severity",
				EventID:   e.ID.String(),
				EventTerm: e.EventTerm,
				EventDate: e.EventDate,
			},
		})
	}

	missingResolution, err := c.repo.EventsMissingResolution(ctx)
	if err != nil {
		return nil, fmt.Errorf("check missing data: %w", err)
	}
	for _, e := range missingResolution {
		findings = append(findings, Finding{
			Category:    CategoryMissingData,
			Severity:    SeverityMedium,
			PatientID:   e.PatientID,
			Description: fmt.Sprintf("Adverse event '%s' has no resolution status recorded", e.EventTerm),
			Details: MissingDataDetail{
				Table:     "adverse_events",
				Field:     "resolved",
				EventID:   e.ID.String(),
				EventTerm: e.EventTerm,
				EventDate: e.EventDate,
			},
		})
	}

	return findings, nil
}

// CheckLabOutliers flags lab values outside their normal range, graded by
// relative deviation from the violated bound.
func (c *Checker) CheckLabOutliers(ctx context.Context) ([]Finding, error) {
	labs, err := c.repo.OutOfRangeLabResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("check lab outliers: %w", err)
	}

	var findings []Finding
	for _, l := range labs {
		deviation, outlierType, ok := labDeviation(l)
		if !ok {
			continue
		}
		findings = append(findings, Finding{
			Category:    CategoryLabOutlier,
			Severity:    labOutlierSeverity(deviation),
			PatientID:   l.PatientID,
			Description: fmt.Sprintf("%s: %s %s (%s)", l.TestName, formatFloat(l.TestValue), l.Unit, outlierType),
			Details: LabOutlierDetail{
				TestName:        l.TestName,
				TestValue:       l.TestValue,
				Unit:            l.Unit,
				TestDate:        l.TestDate,
				NormalRangeLow:  l.NormalRangeLow,
				NormalRangeHigh: l.NormalRangeHigh,
				OutlierType:     outlierType,
				Deviation:       deviation,
			},
		})
	}
	return findings, nil
}

// CheckProtocolDeviations flags visits more than lateVisitThreshold days
// behind schedule.
func (c *Checker) CheckProtocolDeviations(ctx context.Context) ([]Finding, error) {
	visits, err := c.repo.LateVisits(ctx, lateVisitThreshold)
	if err != nil {
		return nil, fmt.Errorf("check protocol deviations: %w", err)
	}

	var findings []Finding
	for _, v := range visits {
		daysLate := v.DaysLate()
		if daysLate <= lateVisitThreshold {
			continue
		}
		findings = append(findings, Finding{
			Category:    CategoryProtocolDeviation,
			Severity:    visitDelaySeverity(daysLate),
			PatientID:   v.PatientID,
			Description: fmt.Sprintf("Visit %d was %d days late", v.VisitNumber, daysLate),
			Details: ProtocolDeviationDetail{
				VisitNumber:   v.VisitNumber,
				VisitType:     v.VisitType,
				VisitDate:     v.VisitDate,
				ScheduledDate: v.ScheduledDate,
				DaysLate:      daysLate,
			},
		})
	}
	return findings, nil
}

// CheckDuplicatePatients flags study identifiers registered more than once.
// One finding per identifier regardless of how many copies exist.
func (c *Checker) CheckDuplicatePatients(ctx context.Context) ([]Finding, error) {
	dups, err := c.repo.DuplicatePatientIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("check duplicate patients: %w", err)
	}

	var findings []Finding
	for _, d := range dups {
		findings = append(findings, Finding{
			Category:    CategoryDuplicateRecord,
			Severity:    SeverityCritical,
			PatientID:   d.PatientID,
			Description: fmt.Sprintf("Patient %s has %d registrations", d.PatientID, d.Count),
			Details:     DuplicateRecordDetail{Count: d.Count},
		})
	}
	return findings, nil
}

// CheckDateAnomalies flags adverse events dated before the patient's
// enrollment.
func (c *Checker) CheckDateAnomalies(ctx context.Context) ([]Finding, error) {
	rows, err := c.repo.EventsBeforeEnrollment(ctx)
	if err != nil {
		return nil, fmt.Errorf("check date anomalies: %w", err)
	}

	var findings []Finding
	for _, row := range rows {
		findings = append(findings, Finding{
			Category:  CategoryDateAnomaly,
			Severity:  SeverityHigh,
			PatientID: row.Event.PatientID,
			Description: fmt.Sprintf("Adverse event '%s' dated %s precedes enrollment on %s",
				row.Event.EventTerm, row.Event.EventDate.Format(dateLayout), row.EnrollmentDate.Format(dateLayout)),
			Details: DateAnomalyDetail{
				EventID:        row.Event.ID.String(),
				EventTerm:      row.Event.EventTerm,
				EventDate:      row.Event.EventDate,
				EnrollmentDate: row.EnrollmentDate,
			},
		})
	}
	return findings, nil
}

// CheckUnresolvedEvents flags adverse events marked "No" or with no
// resolution recorded at all, graded by how long they have been open as of
// the scan clock. An event with a missing resolution therefore produces both
// a missing-data finding and an unresolved-event finding.
func (c *Checker) CheckUnresolvedEvents(ctx context.Context) ([]Finding, error) {
	events, err := c.repo.UnresolvedEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("check unresolved events: %w", err)
	}

	now := c.now()
	var findings []Finding
	for _, e := range events {
		daysOpen := daysBetween(e.EventDate, now)
		severity := ""
		if e.Severity != nil {
			severity = *e.Severity
		}
		findings = append(findings, Finding{
			Category:    CategoryUnresolvedEvent,
			Severity:    unresolvedSeverity(daysOpen),
			PatientID:   e.PatientID,
			Description: fmt.Sprintf("Adverse event '%s' unresolved for %d days", e.EventTerm, daysOpen),
			Details: UnresolvedEventDetail{
				EventID:       e.ID.String(),
				EventTerm:     e.EventTerm,
				EventDate:     e.EventDate,
				EventSeverity: severity,
				DaysOpen:      daysOpen,
			},
		})
	}
	return findings, nil
}

// RunAllChecks executes every detection rule and returns the findings keyed
// by category. Any store error aborts the whole scan: callers must never
// mistake a failed scan for a clean one.
func (c *Checker) RunAllChecks(ctx context.Context) (Results, error) {
	checks := []struct {
		category Category
		run      func(context.Context) ([]Finding, error)
	}{
		{CategoryMissingData, c.CheckMissingData},
		{CategoryLabOutlier, c.CheckLabOutliers},
		{CategoryProtocolDeviation, c.CheckProtocolDeviations},
		{CategoryDuplicateRecord, c.CheckDuplicatePatients},
		{CategoryDateAnomaly, c.CheckDateAnomalies},
		{CategoryUnresolvedEvent, c.CheckUnresolvedEvents},
	}

	results := make(Results, len(checks))
	for _, check := range checks {
		findings, err := check.run(ctx)
		if err != nil {
			return nil, err
		}
		if findings == nil {
			findings = []Finding{}
		}
		results[check.category] = findings
	}
	return results, nil
}
