package models

import (
	"time"

	"github.com/google/uuid"
)

// SaleSearchFilter holds filter criteria for sale queries
type SaleSearchFilter struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"` // Filter by product
	From      *time.Time `json:"from,omitempty"`       // Sold at or after
	To        *time.Time `json:"to,omitempty"`         // Sold before
	Limit     int        `json:"limit,omitempty"`      // Page size (default: 50)
	Offset    int        `json:"offset,omitempty"`     // Page offset
}

type Sale struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	TotalAmount float64   `json:"total_amount" db:"total_amount"`
	SoldAt      time.Time `json:"sold_at" db:"sold_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SalesDailyPoint is one day of a product's sales history. A dense series
// covers every day of its window; days without sales carry quantity 0.
type SalesDailyPoint struct {
	Date     time.Time `json:"date"`
	Quantity int       `json:"quantity"`
}
