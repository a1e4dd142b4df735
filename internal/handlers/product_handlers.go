package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockpilot/internal/common"
	"stockpilot/internal/models"
	"stockpilot/internal/services"

	"github.com/labstack/echo/v4"
)

// ProductHandlers handles HTTP requests for the product catalog
type ProductHandlers struct {
	productService services.ProductService
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(productService services.ProductService) *ProductHandlers {
	return &ProductHandlers{
		productService: productService,
	}
}

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Barcode      *string `json:"barcode"`
	Description  *string `json:"description"`
	CategoryID   *string `json:"category_id"`
	SupplierID   *string `json:"supplier_id"`
	CurrentStock int     `json:"current_stock"`
	ReorderLevel int     `json:"reorder_level"`
	MaxStock     *int    `json:"max_stock"`
	CostPrice    float64 `json:"cost_price"`
	SellingPrice float64 `json:"selling_price"`
	Currency     string  `json:"currency"`
	IsActive     *bool   `json:"is_active"`
}

// CreateProduct handles POST /products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Product name is required")
	}
	if strings.TrimSpace(req.SKU) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "SKU is required")
	}

	product := &models.Product{
		Name:         req.Name,
		SKU:          req.SKU,
		Barcode:      req.Barcode,
		Description:  req.Description,
		CurrentStock: req.CurrentStock,
		ReorderLevel: req.ReorderLevel,
		MaxStock:     req.MaxStock,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Currency:     req.Currency,
		IsActive:     true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if req.CategoryID != nil && *req.CategoryID != "" {
		categoryID, err := common.ValidateUUID(*req.CategoryID, "category ID")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		product.CategoryID = &categoryID
	}

	if req.SupplierID != nil && *req.SupplierID != "" {
		supplierID, err := common.ValidateUUID(*req.SupplierID, "supplier ID")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		product.SupplierID = &supplierID
	}

	if err := h.productService.Create(ctx, tenantID, product); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Product created successfully",
		"product": product,
	})
}

// ListProducts handles GET /products
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
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

	products, err := h.productService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"products": products,
		"limit":    limit,
		"offset":   offset,
	})
}

// SearchProducts handles GET /products/search
func (h *ProductHandlers) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	filter := &models.ProductSearchFilter{
		Query:     common.SanitizeSearchQuery(c.QueryParam("q")),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}

	if categoryIDStr := c.QueryParam("category_id"); categoryIDStr != "" {
		categoryID, err := common.ValidateUUID(categoryIDStr, "category ID")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter.CategoryID = &categoryID
	}

	if supplierIDStr := c.QueryParam("supplier_id"); supplierIDStr != "" {
		supplierID, err := common.ValidateUUID(supplierIDStr, "supplier ID")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter.SupplierID = &supplierID
	}

	if activeParam := c.QueryParam("is_active"); activeParam != "" {
		active, err := strconv.ParseBool(activeParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "is_active must be true or false")
		}
		filter.IsActive = &active
	}

	if c.QueryParam("low_stock") == "true" {
		filter.LowStockOnly = true
	}

	if minPriceParam := c.QueryParam("min_price"); minPriceParam != "" {
		if v, err := strconv.ParseFloat(minPriceParam, 64); err == nil && v >= 0 {
			filter.MinPrice = &v
		}
	}

	if maxPriceParam := c.QueryParam("max_price"); maxPriceParam != "" {
		if v, err := strconv.ParseFloat(maxPriceParam, 64); err == nil && v >= 0 {
			filter.MaxPrice = &v
		}
	}

	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			filter.Limit = l
		}
	}

	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	products, err := h.productService.Search(ctx, tenantID, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
		"query":    filter.Query,
	})
}

// GetProductByBarcode handles GET /products/barcode/:barcode
func (h *ProductHandlers) GetProductByBarcode(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	barcode := strings.TrimSpace(c.Param("barcode"))
	if barcode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Barcode is required")
	}

	product, err := h.productService.GetByBarcode(ctx, tenantID, barcode)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	return c.JSON(http.StatusOK, product)
}

// GetProductByID handles GET /products/:id
func (h *ProductHandlers) GetProductByID(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := common.ValidateUUID(c.Param("id"), "product ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	product, err := h.productService.GetByID(ctx, tenantID, productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	return c.JSON(http.StatusOK, product)
}

// UpdateProductRequest represents the product update payload; only provided
// fields are changed. Stock is deliberately absent, it moves through sales,
// receipts, and the stock adjustment endpoint.
type UpdateProductRequest struct {
	Name         *string  `json:"name"`
	SKU          *string  `json:"sku"`
	Barcode      *string  `json:"barcode"`
	Description  *string  `json:"description"`
	CategoryID   *string  `json:"category_id"`
	SupplierID   *string  `json:"supplier_id"`
	ReorderLevel *int     `json:"reorder_level"`
	MaxStock     *int     `json:"max_stock"`
	CostPrice    *float64 `json:"cost_price"`
	SellingPrice *float64 `json:"selling_price"`
	Currency     *string  `json:"currency"`
	IsActive     *bool    `json:"is_active"`
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := common.ValidateUUID(c.Param("id"), "product ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	existing, err := h.productService.GetByID(ctx, tenantID, productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.SKU != nil {
		existing.SKU = *req.SKU
	}
	if req.Barcode != nil {
		existing.Barcode = req.Barcode
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.ReorderLevel != nil {
		existing.ReorderLevel = *req.ReorderLevel
	}
	if req.MaxStock != nil {
		existing.MaxStock = req.MaxStock
	}
	if req.CostPrice != nil {
		existing.CostPrice = *req.CostPrice
	}
	if req.SellingPrice != nil {
		existing.SellingPrice = *req.SellingPrice
	}
	if req.Currency != nil {
		existing.Currency = *req.Currency
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			existing.CategoryID = nil
		} else {
			categoryID, err := common.ValidateUUID(*req.CategoryID, "category ID")
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			existing.CategoryID = &categoryID
		}
	}

	if req.SupplierID != nil {
		if *req.SupplierID == "" {
			existing.SupplierID = nil
		} else {
			supplierID, err := common.ValidateUUID(*req.SupplierID, "supplier ID")
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			existing.SupplierID = &supplierID
		}
	}

	if err := h.productService.Update(ctx, tenantID, existing); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Product updated successfully",
		"product": existing,
	})
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := common.ValidateUUID(c.Param("id"), "product ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if err := h.productService.Delete(ctx, tenantID, productID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Product deleted successfully",
	})
}

// AdjustStockRequest represents a manual stock correction
type AdjustStockRequest struct {
	Change int     `json:"change"`
	Reason *string `json:"reason"`
}

// AdjustStock handles POST /products/:id/stock
func (h *ProductHandlers) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := common.ValidateUUID(c.Param("id"), "product ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	userID, _ := common.GetUserIDFromContext(ctx)

	var req AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Change == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Change must be non-zero")
	}

	if err := h.productService.AdjustStock(ctx, tenantID, productID, req.Change, userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := h.productService.GetByID(ctx, tenantID, productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Stock adjusted successfully",
		"product": product,
	})
}

// UploadProductImage handles POST /products/:id/images
func (h *ProductHandlers) UploadProductImage(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := common.ValidateUUID(c.Param("id"), "product ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Image file is required")
	}

	const maxFileSize = 5 * 1024 * 1024
	if file.Size > maxFileSize {
		return echo.NewHTTPError(http.StatusBadRequest, "File size exceeds maximum limit of 5MB")
	}

	allowedTypes := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open image file")
	}
	defer src.Close()

	// Sniff the real content type, the client-supplied header is not trusted.
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && n == 0 {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read file content")
	}
	contentType := http.DetectContentType(buffer[:n])

	if !allowedTypes[contentType] {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file type. Only JPEG, PNG, GIF, and WebP images are allowed")
	}

	if _, err := src.Seek(0, 0); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to rewind file content")
	}

	var altText *string
	if v := c.FormValue("alt_text"); v != "" {
		altText = &v
	}

	image, err := h.productService.UploadImage(ctx, tenantID, productID, file.Filename, src, file.Size, altText)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Image uploaded successfully",
		"image":   image,
	})
}

// GetProductImages handles GET /products/:id/images
func (h *ProductHandlers) GetProductImages(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := common.ValidateUUID(c.Param("id"), "product ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	images, err := h.productService.ListImages(ctx, tenantID, productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"images":     images,
		"count":      len(images),
		"product_id": productID,
	})
}

// GetProductImageURL handles GET /products/:id/images/:imageId/url
func (h *ProductHandlers) GetProductImageURL(c echo.Context) error {
	ctx := c.Request().Context()

	imageID, err := common.ValidateUUID(c.Param("imageId"), "image ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	expiry := 24 * time.Hour
	if expiryStr := c.QueryParam("expiry_minutes"); expiryStr != "" {
		if minutes, err := strconv.Atoi(expiryStr); err == nil && minutes > 0 {
			expiry = time.Duration(minutes) * time.Minute
		}
	}

	url, err := h.productService.ImageURL(ctx, tenantID, imageID, expiry)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"url":        url,
		"expires_in": expiry.String(),
	})
}

// DeleteProductImage handles DELETE /products/:id/images/:imageId
func (h *ProductHandlers) DeleteProductImage(c echo.Context) error {
	ctx := c.Request().Context()

	imageID, err := common.ValidateUUID(c.Param("imageId"), "image ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if err := h.productService.DeleteImage(ctx, tenantID, imageID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Image deleted successfully",
	})
}
