package nlquery

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// runner executes a validated SQL statement.
type runner interface {
	Execute(ctx context.Context, sql string) ([]map[string]interface{}, error)
}

type Handler struct {
	translator Translator // nil when no translation backend is configured
	runner     runner
}

func NewHandler(translator Translator, runner runner) *Handler {
	return &Handler{translator: translator, runner: runner}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/nlquery", h.Query)
	api.GET("/nlquery/examples", h.Examples)
}

type queryRequest struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

type queryResponse struct {
	Question string                   `json:"question,omitempty"`
	SQL      string                   `json:"sql"`
	RowCount int                      `json:"row_count"`
	Results  []map[string]interface{} `json:"results"`
}

// Query accepts either a natural-language question or a raw SELECT. Questions
// require a configured translator; both paths go through the read-only
// validator before touching the database.
func (h *Handler) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sql := req.SQL
	if sql == "" {
		if req.Question == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "question or sql is required")
		}
		if h.translator == nil {
			return echo.NewHTTPError(http.StatusNotImplemented, "no translation backend configured")
		}
		raw, err := h.translator.Translate(c.Request().Context(), req.Question)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		sql = ExtractSQL(raw)
	}

	if err := ValidateReadOnly(sql); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	results, err := h.runner.Execute(c.Request().Context(), sql)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, queryResponse{
		Question: req.Question,
		SQL:      sql,
		RowCount: len(results),
		Results:  results,
	})
}

func (h *Handler) Examples(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"examples": ExampleQueries(),
	})
}
