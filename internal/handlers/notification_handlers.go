package handlers

import (
	"net/http"
	"strconv"

	"stockpilot/internal/common"
	"stockpilot/internal/services"

	"github.com/labstack/echo/v4"
)

// NotificationHandlers handles HTTP requests for reorder alerts raised by
// the background sweep.
type NotificationHandlers struct {
	notificationService services.NotificationService
}

// NewNotificationHandlers creates a new notification handlers instance
func NewNotificationHandlers(notificationService services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{
		notificationService: notificationService,
	}
}

// ListNotifications handles GET /notifications
func (h *NotificationHandlers) ListNotifications(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	unacknowledgedOnly := c.QueryParam("unacknowledged") == "true"

	limit := 50
	offset := 0

	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}

	notifications, err := h.notificationService.List(ctx, tenantID, unacknowledgedOnly, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// AcknowledgeNotification handles POST /notifications/:id/acknowledge
func (h *NotificationHandlers) AcknowledgeNotification(c echo.Context) error {
	ctx := c.Request().Context()

	notificationID, err := common.ValidateUUID(c.Param("id"), "notification ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if err := h.notificationService.Acknowledge(ctx, tenantID, notificationID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Notification acknowledged",
	})
}
