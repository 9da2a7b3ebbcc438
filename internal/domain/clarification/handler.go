package clarification

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ctmonitor/ctmonitor/pkg/pagination"
)

type Handler struct {
	svc *Service

	defaultSiteID string
	exportDir     string
}

func NewHandler(svc *Service, defaultSiteID, exportDir string) *Handler {
	return &Handler{svc: svc, defaultSiteID: defaultSiteID, exportDir: exportDir}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/clarifications/scan", h.Scan)
	api.POST("/clarifications/export", h.Export)
	api.GET("/clarifications", h.ListQueries)
	api.GET("/clarifications/:id", h.GetQuery)
	api.PATCH("/clarifications/:id/status", h.UpdateStatus)
}

// Scan runs all quality checks and generates clarification queries for the
// resulting findings.
func (h *Handler) Scan(c echo.Context) error {
	siteID := c.QueryParam("site_id")
	if siteID == "" {
		siteID = h.defaultSiteID
	}
	result, err := h.svc.Scan(c.Request().Context(), siteID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusCreated, result)
}

type exportRequest struct {
	Dir string `json:"dir"`
}

// Export writes all open queries to text files and reports the count.
func (h *Handler) Export(c echo.Context) error {
	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dir := req.Dir
	if dir == "" {
		dir = h.exportDir
	}
	written, err := h.svc.Export(c.Request().Context(), dir)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"exported": written,
		"dir":      dir,
	})
}

func (h *Handler) ListQueries(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := Status(c.QueryParam("status"))
	patientID := c.QueryParam("patient_id")

	items, total, err := h.svc.ListQueries(c.Request().Context(), status, patientID, pg.Limit, pg.Offset)
	if err != nil {
		if status != "" && !status.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetQuery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	q, err := h.svc.GetQuery(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "query not found")
	}
	return c.JSON(http.StatusOK, q)
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.Status.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "query not found")
	}
	q, err := h.svc.GetQuery(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "query not found")
	}
	return c.JSON(http.StatusOK, q)
}
