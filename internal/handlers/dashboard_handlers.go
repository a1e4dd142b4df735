package handlers

import (
	"net/http"
	"strconv"

	"stockpilot/internal/analytics"
	"stockpilot/internal/common"

	"github.com/labstack/echo/v4"
)

// DashboardHandlers handles HTTP requests for the operational dashboard
type DashboardHandlers struct {
	dashboardService analytics.DashboardService
}

// NewDashboardHandlers creates a new dashboard handlers instance
func NewDashboardHandlers(dashboardService analytics.DashboardService) *DashboardHandlers {
	return &DashboardHandlers{
		dashboardService: dashboardService,
	}
}

// GetMetrics handles GET /dashboard/metrics
func (h *DashboardHandlers) GetMetrics(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	windowDays := 0
	if windowParam := c.QueryParam("window_days"); windowParam != "" {
		w, err := strconv.Atoi(windowParam)
		if err != nil || w < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "window_days must be a non-negative integer")
		}
		windowDays = w
	}

	metrics, err := h.dashboardService.Metrics(ctx, tenantID, windowDays)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, metrics)
}
