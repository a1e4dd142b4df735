package handlers

import (
	"net/http"
	"strings"

	"stockpilot/internal/common"
	"stockpilot/internal/models"
	"stockpilot/internal/repositories"

	"github.com/labstack/echo/v4"
)

// CategoryHandlers handles category-related HTTP requests
type CategoryHandlers struct {
	categoryRepo repositories.CategoryRepository
}

// NewCategoryHandlers creates a new category handlers instance
func NewCategoryHandlers(categoryRepo repositories.CategoryRepository) *CategoryHandlers {
	return &CategoryHandlers{
		categoryRepo: categoryRepo,
	}
}

// ListCategoriesRequest represents query parameters for listing categories
type ListCategoriesRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListCategories handles GET /categories
func (h *CategoryHandlers) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()

	var req ListCategoriesRequest
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

	categories, err := h.categoryRepo.List(ctx, tenantID, req.Limit, req.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list categories")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": categories,
		"limit":      req.Limit,
		"offset":     req.Offset,
	})
}

// CreateCategoryRequest represents the category creation request payload
type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id"`
}

// CreateCategory handles POST /categories
func (h *CategoryHandlers) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateCategoryRequest
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

	category := &models.Category{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
	}

	if req.ParentID != nil && *req.ParentID != "" {
		parentID, err := common.ValidateUUID(*req.ParentID, "parent ID")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		// The parent has to exist within the same tenant.
		if _, err := h.categoryRepo.GetByID(ctx, tenantID, parentID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent category not found")
		}
		category.ParentID = &parentID
	}

	if err := h.categoryRepo.Create(ctx, category); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, category)
}

// GetCategory handles GET /categories/:id
func (h *CategoryHandlers) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()

	categoryID, err := common.ValidateUUID(c.Param("id"), "category ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	category, err := h.categoryRepo.GetByID(ctx, tenantID, categoryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Category not found")
	}

	return c.JSON(http.StatusOK, category)
}

// UpdateCategoryRequest represents the category update request payload
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id"`
}

// UpdateCategory handles PUT /categories/:id
func (h *CategoryHandlers) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()

	categoryID, err := common.ValidateUUID(c.Param("id"), "category ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	category, err := h.categoryRepo.GetByID(ctx, tenantID, categoryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Category not found")
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Name cannot be empty")
		}
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if req.ParentID != nil {
		if *req.ParentID == "" {
			category.ParentID = nil
		} else {
			parentID, err := common.ValidateUUID(*req.ParentID, "parent ID")
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			if parentID == categoryID {
				return echo.NewHTTPError(http.StatusBadRequest, "Category cannot be its own parent")
			}
			if _, err := h.categoryRepo.GetByID(ctx, tenantID, parentID); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Parent category not found")
			}
			category.ParentID = &parentID
		}
	}

	if err := h.categoryRepo.Update(ctx, category); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /categories/:id
func (h *CategoryHandlers) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()

	categoryID, err := common.ValidateUUID(c.Param("id"), "category ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if _, err := h.categoryRepo.GetByID(ctx, tenantID, categoryID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Category not found")
	}

	if err := h.categoryRepo.Delete(ctx, tenantID, categoryID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete category")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Category deleted successfully",
	})
}
