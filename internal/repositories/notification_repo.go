package repositories

import (
	"context"
	"time"

	"stockpilot/internal/models"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, tenantID uuid.UUID, unacknowledgedOnly bool, limit, offset int) ([]*models.Notification, error)
	Acknowledge(ctx context.Context, tenantID, id uuid.UUID) error
	HasRecent(ctx context.Context, tenantID, productID uuid.UUID, notificationType string, since time.Time) (bool, error)
}

type notificationRepo struct {
	db DB
}

func NewNotificationRepository(db DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (id, tenant_id, type, severity, product_id, title, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	notification.ID = uuid.New()
	_, err := r.db.Exec(ctx, query, notification.ID, notification.TenantID, notification.Type, notification.Severity, notification.ProductID, notification.Title, notification.Message)
	return err
}

func (r *notificationRepo) List(ctx context.Context, tenantID uuid.UUID, unacknowledgedOnly bool, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT id, tenant_id, type, severity, product_id, title, message, acknowledged_at, created_at
		FROM notifications
		WHERE tenant_id = $1
	`
	if unacknowledgedOnly {
		query += ` AND acknowledged_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		notification := &models.Notification{}
		if err := rows.Scan(&notification.ID, &notification.TenantID, &notification.Type, &notification.Severity, &notification.ProductID, &notification.Title, &notification.Message, &notification.AcknowledgedAt, &notification.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

func (r *notificationRepo) Acknowledge(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET acknowledged_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND acknowledged_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

// HasRecent reports whether a notification of the given type already exists
// for the product since the cutoff. The alert sweep uses it to avoid spamming
// the same alert every run.
func (r *notificationRepo) HasRecent(ctx context.Context, tenantID, productID uuid.UUID, notificationType string, since time.Time) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE tenant_id = $1 AND product_id = $2 AND type = $3 AND created_at >= $4
	`
	err := r.db.QueryRow(ctx, query, tenantID, productID, notificationType, since).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
