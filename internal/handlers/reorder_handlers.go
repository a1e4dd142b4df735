package handlers

import (
	"net/http"
	"strings"

	"stockpilot/internal/common"
	"stockpilot/internal/models"
	"stockpilot/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ReorderHandlers exposes the replenishment engine over HTTP: suggestion
// queries, the urgency roll-up, ML-enhanced suggestions, and batch purchase
// order creation from a selection.
type ReorderHandlers struct {
	reorderService services.ReorderService
}

// NewReorderHandlers creates a new reorder handlers instance
func NewReorderHandlers(reorderService services.ReorderService) *ReorderHandlers {
	return &ReorderHandlers{
		reorderService: reorderService,
	}
}

// SuggestionQueryRequest represents query parameters for suggestion endpoints
type SuggestionQueryRequest struct {
	Urgency            string `query:"urgency"`
	SupplierID         string `query:"supplier_id"`
	CategoryID         string `query:"category_id"`
	IncludeInactive    bool   `query:"include_inactive"`
	AnalysisPeriodDays int    `query:"analysis_period_days"`
	SafetyStockDays    int    `query:"safety_stock_days"`
	ForecastPeriodDays int    `query:"forecast_period_days"`
}

// parseSuggestionOptions turns the query string into engine options. The
// urgency parameter is a comma separated list, e.g. urgency=critical,high.
// Query params are bound explicitly so the POST endpoint can carry options
// alongside a JSON body.
func parseSuggestionOptions(c echo.Context) (models.ReorderSuggestionOptions, error) {
	var req SuggestionQueryRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return models.ReorderSuggestionOptions{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	opts := models.ReorderSuggestionOptions{
		IncludeInactive:    req.IncludeInactive,
		AnalysisPeriodDays: req.AnalysisPeriodDays,
		SafetyStockDays:    req.SafetyStockDays,
		ForecastPeriodDays: req.ForecastPeriodDays,
	}

	if req.Urgency != "" {
		for _, part := range strings.Split(req.Urgency, ",") {
			urgency := models.ReorderUrgency(strings.TrimSpace(strings.ToLower(part)))
			if !urgency.Valid() {
				return opts, echo.NewHTTPError(http.StatusBadRequest, "Invalid urgency filter: must be one of critical, high, medium, low")
			}
			opts.UrgencyFilter = append(opts.UrgencyFilter, urgency)
		}
	}

	if req.SupplierID != "" {
		supplierID, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return opts, echo.NewHTTPError(http.StatusBadRequest, "Invalid supplier ID format")
		}
		opts.SupplierID = &supplierID
	}

	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return opts, echo.NewHTTPError(http.StatusBadRequest, "Invalid category ID format")
		}
		opts.CategoryID = &categoryID
	}

	return opts, nil
}

// GetSuggestions handles GET /reorder/suggestions
func (h *ReorderHandlers) GetSuggestions(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	opts, err := parseSuggestionOptions(c)
	if err != nil {
		return err
	}

	suggestions, err := h.reorderService.GetSuggestions(ctx, tenantID, opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// GetSummary handles GET /reorder/summary
func (h *ReorderHandlers) GetSummary(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	opts, err := parseSuggestionOptions(c)
	if err != nil {
		return err
	}

	summary, err := h.reorderService.GetSummary(ctx, tenantID, opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, summary)
}

// GetMLSuggestions handles GET /reorder/ml-suggestions
func (h *ReorderHandlers) GetMLSuggestions(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	opts, err := parseSuggestionOptions(c)
	if err != nil {
		return err
	}

	suggestions, err := h.reorderService.GetMLSuggestions(ctx, tenantID, opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// CreatePurchaseOrdersRequest represents the batch order creation payload
type CreatePurchaseOrdersRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// CreatePurchaseOrders handles POST /reorder/purchase-orders
func (h *ReorderHandlers) CreatePurchaseOrders(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	userID, _ := common.GetUserIDFromContext(ctx)

	var req CreatePurchaseOrdersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if len(req.ProductIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No products selected for ordering")
	}

	productIDs := make([]uuid.UUID, 0, len(req.ProductIDs))
	for _, idStr := range req.ProductIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID format: "+idStr)
		}
		productIDs = append(productIDs, id)
	}

	opts, err := parseSuggestionOptions(c)
	if err != nil {
		return err
	}

	result, err := h.reorderService.CreateOrdersFromSuggestions(ctx, tenantID, productIDs, opts, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// 201 only when at least one order was created; a result where every
	// supplier group failed still returns the detailed body.
	status := http.StatusOK
	if result.CreatedCount > 0 {
		status = http.StatusCreated
	}

	return c.JSON(status, result)
}
