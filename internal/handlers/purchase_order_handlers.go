package handlers

import (
	"net/http"
	"strconv"

	"stockpilot/internal/common"
	"stockpilot/internal/services"

	"github.com/labstack/echo/v4"
)

// PurchaseOrderHandlers handles HTTP requests for purchase orders. Orders
// are created through the reorder endpoints; this surface covers listing,
// inspection, receiving, and cancellation.
type PurchaseOrderHandlers struct {
	orderService services.PurchaseOrderService
}

// NewPurchaseOrderHandlers creates a new purchase order handlers instance
func NewPurchaseOrderHandlers(orderService services.PurchaseOrderService) *PurchaseOrderHandlers {
	return &PurchaseOrderHandlers{
		orderService: orderService,
	}
}

// ListPurchaseOrders handles GET /purchase-orders
func (h *PurchaseOrderHandlers) ListPurchaseOrders(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	status := c.QueryParam("status")
	if status != "" {
		if err := common.ValidatePurchaseOrderStatus(status); err != nil {
			return common.SendValidationError(c, "status", err.Error())
		}
	}

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

	orders, err := h.orderService.List(ctx, tenantID, status, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to retrieve purchase orders: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"purchase_orders": orders,
		"count":           len(orders),
		"limit":           limit,
		"offset":          offset,
	})
}

// GetPurchaseOrder handles GET /purchase-orders/:id
func (h *PurchaseOrderHandlers) GetPurchaseOrder(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := common.ValidateUUID(c.Param("id"), "order ID")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	order, err := h.orderService.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return common.SendNotFoundError(c, "purchase order")
	}

	return c.JSON(http.StatusOK, order)
}

// ReceivePurchaseOrder handles POST /purchase-orders/:id/receive
func (h *PurchaseOrderHandlers) ReceivePurchaseOrder(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := common.ValidateUUID(c.Param("id"), "order ID")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	userID, _ := common.GetUserIDFromContext(ctx)

	order, err := h.orderService.Receive(ctx, tenantID, orderID, userID)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":        "Purchase order received successfully",
		"purchase_order": order,
	})
}

// CancelPurchaseOrder handles POST /purchase-orders/:id/cancel
func (h *PurchaseOrderHandlers) CancelPurchaseOrder(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := common.ValidateUUID(c.Param("id"), "order ID")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	userID, _ := common.GetUserIDFromContext(ctx)

	if err := h.orderService.Cancel(ctx, tenantID, orderID, userID); err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Purchase order cancelled successfully",
	})
}
