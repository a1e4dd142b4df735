package handlers

import (
	"net/http"
	"strings"

	"stockpilot/internal/common"
	"stockpilot/internal/models"
	"stockpilot/internal/services"

	"github.com/labstack/echo/v4"
)

// SupplierHandlers handles supplier-related HTTP requests
type SupplierHandlers struct {
	supplierService services.SupplierService
}

// NewSupplierHandlers creates a new supplier handlers instance
func NewSupplierHandlers(supplierService services.SupplierService) *SupplierHandlers {
	return &SupplierHandlers{
		supplierService: supplierService,
	}
}

// ListSuppliersRequest represents query parameters for listing suppliers
type ListSuppliersRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListSuppliers handles GET /suppliers
func (h *SupplierHandlers) ListSuppliers(c echo.Context) error {
	ctx := c.Request().Context()

	var req ListSuppliersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	suppliers, err := h.supplierService.List(ctx, tenantID, req.Limit, req.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list suppliers")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"limit":     req.Limit,
		"offset":    req.Offset,
	})
}

// CreateSupplierRequest represents the supplier creation request payload
type CreateSupplierRequest struct {
	Name         string  `json:"name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Address      *string `json:"address"`
	LeadTimeDays *int    `json:"lead_time_days"`
}

// CreateSupplier handles POST /suppliers
func (h *SupplierHandlers) CreateSupplier(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateSupplierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name is required")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	supplier := &models.Supplier{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
		LeadTimeDays: req.LeadTimeDays,
		IsActive:     true,
	}

	if err := h.supplierService.Create(ctx, tenantID, supplier); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, supplier)
}

// GetSupplier handles GET /suppliers/:id
func (h *SupplierHandlers) GetSupplier(c echo.Context) error {
	ctx := c.Request().Context()

	supplierID, err := common.ValidateUUID(c.Param("id"), "supplier ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	supplier, err := h.supplierService.GetByID(ctx, tenantID, supplierID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Supplier not found")
	}

	return c.JSON(http.StatusOK, supplier)
}

// UpdateSupplierRequest represents the supplier update request payload
type UpdateSupplierRequest struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Address      *string `json:"address"`
	LeadTimeDays *int    `json:"lead_time_days"`
	IsActive     *bool   `json:"is_active"`
}

// UpdateSupplier handles PUT /suppliers/:id
func (h *SupplierHandlers) UpdateSupplier(c echo.Context) error {
	ctx := c.Request().Context()

	supplierID, err := common.ValidateUUID(c.Param("id"), "supplier ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateSupplierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	supplier, err := h.supplierService.GetByID(ctx, tenantID, supplierID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Supplier not found")
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.ContactEmail != nil {
		supplier.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != nil {
		supplier.ContactPhone = req.ContactPhone
	}
	if req.Address != nil {
		supplier.Address = req.Address
	}
	if req.LeadTimeDays != nil {
		supplier.LeadTimeDays = req.LeadTimeDays
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if err := h.supplierService.Update(ctx, tenantID, supplier); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, supplier)
}

// DeleteSupplier handles DELETE /suppliers/:id
func (h *SupplierHandlers) DeleteSupplier(c echo.Context) error {
	ctx := c.Request().Context()

	supplierID, err := common.ValidateUUID(c.Param("id"), "supplier ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if _, err := h.supplierService.GetByID(ctx, tenantID, supplierID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Supplier not found")
	}

	if err := h.supplierService.Delete(ctx, tenantID, supplierID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete supplier")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Supplier deleted successfully",
	})
}
