package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase order lifecycle states
const (
	PurchaseOrderStatusPending   = "pending"
	PurchaseOrderStatusReceived  = "received"
	PurchaseOrderStatusCancelled = "cancelled"
)

type PurchaseOrder struct {
	ID               uuid.UUID            `json:"id" db:"id"`
	TenantID         uuid.UUID            `json:"tenant_id" db:"tenant_id"`
	SupplierID       uuid.UUID            `json:"supplier_id" db:"supplier_id"`
	SupplierName     *string              `json:"supplier_name,omitempty" db:"-"` // Joined from suppliers
	CreatedBy        *uuid.UUID           `json:"created_by" db:"created_by"`
	Status           string               `json:"status" db:"status"`
	TotalValue       float64              `json:"total_value" db:"total_value"`
	Notes            *string              `json:"notes" db:"notes"`
	OrderDate        time.Time            `json:"order_date" db:"order_date"`
	ExpectedDelivery *time.Time           `json:"expected_delivery" db:"expected_delivery"`
	ReceivedAt       *time.Time           `json:"received_at" db:"received_at"`
	Items            []*PurchaseOrderItem `json:"items,omitempty" db:"-"`
	CreatedAt        time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at" db:"updated_at"`
}

type PurchaseOrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PurchaseOrderLine is one line of a purchase order creation request.
type PurchaseOrderLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// PurchaseOrderBatchResult reports the outcome of turning a set of reorder
// suggestions into purchase orders. Success means at least one order was
// created; Errors collects item-level and supplier-level failures in a
// deterministic order.
type PurchaseOrderBatchResult struct {
	Success         bool        `json:"success"`
	CreatedCount    int         `json:"created_count"`
	FailedCount     int         `json:"failed_count"`
	CreatedOrderIDs []uuid.UUID `json:"created_order_ids,omitempty"`
	Errors          []string    `json:"errors,omitempty"`
	Warnings        []string    `json:"warnings,omitempty"`
}
