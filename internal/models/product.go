package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductSearchFilter holds search and filter criteria for product queries
type ProductSearchFilter struct {
	Query        string     `json:"query,omitempty"`          // Full-text search across name, sku, barcode
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`    // Filter by category
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty"`    // Filter by supplier
	IsActive     *bool      `json:"is_active,omitempty"`      // Filter by active flag
	LowStockOnly bool       `json:"low_stock_only,omitempty"` // Only products at or below reorder level
	MinPrice     *float64   `json:"min_price,omitempty"`      // Minimum selling price
	MaxPrice     *float64   `json:"max_price,omitempty"`      // Maximum selling price
	Barcode      *string    `json:"barcode,omitempty"`        // Exact barcode match
	SortBy       string     `json:"sort_by,omitempty"`        // Sort field: name, sku, current_stock, selling_price, created_at
	SortOrder    string     `json:"sort_order,omitempty"`     // Sort order: asc, desc
	Limit        int        `json:"limit,omitempty"`          // Page size (default: 50)
	Offset       int        `json:"offset,omitempty"`         // Page offset
}

type Product struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	CategoryID   *uuid.UUID `json:"category_id" db:"category_id"`
	SupplierID   *uuid.UUID `json:"supplier_id" db:"supplier_id"`
	Name         string     `json:"name" db:"name"`
	SKU          string     `json:"sku" db:"sku"`
	Barcode      *string    `json:"barcode" db:"barcode"`
	Description  *string    `json:"description" db:"description"`
	CurrentStock int        `json:"current_stock" db:"current_stock"`
	ReorderLevel int        `json:"reorder_level" db:"reorder_level"`
	MaxStock     *int       `json:"max_stock" db:"max_stock"`
	CostPrice    float64    `json:"cost_price" db:"cost_price"`
	SellingPrice float64    `json:"selling_price" db:"selling_price"`
	Currency     string     `json:"currency" db:"currency"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CategoryName *string    `json:"category_name,omitempty" db:"-"` // Joined from categories
	SupplierName *string    `json:"supplier_name,omitempty" db:"-"` // Joined from suppliers
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether the product sits at or below its reorder level.
func (p *Product) IsLowStock() bool {
	return p.CurrentStock <= p.ReorderLevel
}

// IsOutOfStock reports whether the product has no sellable stock left.
func (p *Product) IsOutOfStock() bool {
	return p.CurrentStock <= 0
}
