package handlers

import (
	"net/http"
	"strconv"
	"time"

	"stockpilot/internal/common"
	"stockpilot/internal/models"
	"stockpilot/internal/services"

	"github.com/labstack/echo/v4"
)

// SalesHandlers handles HTTP requests for sale recording and history
type SalesHandlers struct {
	salesService services.SalesService
}

// NewSalesHandlers creates a new sales handlers instance
func NewSalesHandlers(salesService services.SalesService) *SalesHandlers {
	return &SalesHandlers{
		salesService: salesService,
	}
}

// RecordSaleRequest represents a point-of-sale line
type RecordSaleRequest struct {
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	SoldAt    *string  `json:"sold_at"`
}

// RecordSale handles POST /sales
func (h *SalesHandlers) RecordSale(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req RecordSaleRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	productID, err := common.ValidateUUID(req.ProductID, "product_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	// Set reasonable limits for quantity (max 10,000 units per sale)
	if err := common.ValidatePositiveInteger(req.Quantity, "quantity", 10000); err != nil {
		return common.SendValidationError(c, "quantity", err.Error())
	}

	sale := &models.Sale{
		ProductID: productID,
		Quantity:  req.Quantity,
	}

	// Omitted unit price falls back to the product's selling price.
	if req.UnitPrice != nil {
		if err := common.ValidatePositiveFloat(*req.UnitPrice, "unit_price", 1000000.0); err != nil {
			return common.SendValidationError(c, "unit_price", err.Error())
		}
		sale.UnitPrice = *req.UnitPrice
	}

	if soldAtStr := common.SafeString(req.SoldAt); soldAtStr != "" {
		soldAt, err := time.Parse(time.RFC3339, soldAtStr)
		if err != nil {
			return common.SendValidationError(c, "sold_at", "expected an RFC3339 timestamp")
		}
		sale.SoldAt = soldAt
	}

	if err := h.salesService.RecordSale(ctx, tenantID, sale); err != nil {
		return common.SendServerError(c, "Failed to record sale: "+err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Sale recorded successfully",
		"sale":    sale,
	})
}

// ListSales handles GET /sales
func (h *SalesHandlers) ListSales(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	filter := &models.SaleSearchFilter{}

	if productIDStr := c.QueryParam("product_id"); productIDStr != "" {
		productID, err := common.ValidateUUID(productIDStr, "product_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		filter.ProductID = &productID
	}

	if fromParam := c.QueryParam("from"); fromParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return common.SendValidationError(c, "from", "expected an RFC3339 timestamp")
		}
		filter.From = &from
	}

	if toParam := c.QueryParam("to"); toParam != "" {
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return common.SendValidationError(c, "to", "expected an RFC3339 timestamp")
		}
		filter.To = &to
	}

	if filter.From != nil && filter.To != nil {
		if err := common.ValidateDateRange(*filter.From, *filter.To); err != nil {
			return common.SendValidationError(c, "to", err.Error())
		}
	}

	limit := 0
	offset := 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil {
			offset = o
		}
	}

	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	filter.Limit = limit
	filter.Offset = offset

	sales, err := h.salesService.List(ctx, tenantID, filter)
	if err != nil {
		return common.SendServerError(c, "Failed to retrieve sales: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sales": sales,
		"count": len(sales),
	})
}
