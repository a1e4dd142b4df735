package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records who triggered a state-changing operation and what came of
// it. Written internally by services; there is no write endpoint.
type AuditLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Action     string     `json:"action" db:"action"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id" db:"entity_id"`
	ActorID    *uuid.UUID `json:"actor_id" db:"actor_id"`
	Detail     string     `json:"detail" db:"detail"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Audit actions
const (
	AuditActionReorderBatch   = "reorder.batch_orders"
	AuditActionOrderReceived  = "purchase_order.received"
	AuditActionOrderCancelled = "purchase_order.cancelled"
	AuditActionStockAdjusted  = "product.stock_adjusted"
)
