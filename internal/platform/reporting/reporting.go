package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "enrollment-by-site",
		Name:        "Enrollment by Site",
		Description: "Number of patients enrolled per site",
		SQL:         `SELECT site_id, COUNT(*) AS total FROM patients GROUP BY site_id ORDER BY total DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "adverse-events-by-severity",
		Name:        "Adverse Events by Severity",
		Description: "Count of adverse events grouped by severity grade",
		SQL:         `SELECT COALESCE(NULLIF(severity, ''), 'unspecified') AS severity, COUNT(*) AS total FROM adverse_events GROUP BY 1 ORDER BY total DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "out-of-range-labs",
		Name:        "Out-of-Range Lab Results",
		Description: "Count of lab results outside the normal range, by test",
		SQL:         `SELECT test_name, COUNT(*) AS total FROM lab_results WHERE test_value > normal_range_high OR test_value < normal_range_low GROUP BY test_name ORDER BY total DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "visit-completion",
		Name:        "Visit Completion",
		Description: "Scheduled versus completed visits by visit type",
		SQL:         `SELECT visit_type, COUNT(*) AS total, SUM(CASE WHEN completed THEN 1 ELSE 0 END) AS completed FROM visits GROUP BY visit_type ORDER BY total DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "open-queries-by-priority",
		Name:        "Open Clarification Queries by Priority",
		Description: "Count of open data clarification queries grouped by priority",
		SQL:         `SELECT priority, COUNT(*) AS total FROM clarification_queries WHERE status = 'Open' GROUP BY priority ORDER BY total DESC`,
		Parameters:  []string{},
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	pool *pgxpool.Pool
}

// NewHandler creates a new reporting handler.
func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports")
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params := map[string]string{}
	for _, p := range measure.Parameters {
		if v := c.QueryParam(p); v != "" {
			params[p] = v
		}
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	report := MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
		Parameters:  params,
	}

	return c.JSON(http.StatusOK, report)
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, rows.Err()
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
