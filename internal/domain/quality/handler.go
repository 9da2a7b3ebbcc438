package quality

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	checker *Checker
}

func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/quality/checks", h.RunChecks)
	api.GET("/quality/summary", h.GetSummary)
}

// RunChecks executes all detection rules and returns the findings per
// category. A store failure surfaces as 503, never as an empty result set.
func (h *Handler) RunChecks(c echo.Context) error {
	results, err := h.checker.RunAllChecks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total_findings": results.TotalFindings(),
		"results":        results,
	})
}

func (h *Handler) GetSummary(c echo.Context) error {
	results, err := h.checker.RunAllChecks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, BuildSummary(results))
}
