package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types emitted by background jobs
const (
	NotificationTypeReorderAlert = "reorder_alert"
	NotificationTypeOrderFailed  = "order_failed"
)

// Notification severities
const (
	NotificationSeverityCritical = "critical"
	NotificationSeverityWarning  = "warning"
	NotificationSeverityInfo     = "info"
)

type Notification struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Type           string     `json:"type" db:"type"`
	Severity       string     `json:"severity" db:"severity"`
	ProductID      *uuid.UUID `json:"product_id" db:"product_id"`
	Title          string     `json:"title" db:"title"`
	Message        string     `json:"message" db:"message"`
	AcknowledgedAt *time.Time `json:"acknowledged_at" db:"acknowledged_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
