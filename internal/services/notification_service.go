package services

import (
	"context"
	"errors"

	"stockpilot/internal/models"
	"stockpilot/internal/repositories"

	"github.com/google/uuid"
)

// NotificationService serves the alert inbox the reorder sweep writes into.
type NotificationService interface {
	List(ctx context.Context, tenantID uuid.UUID, unacknowledgedOnly bool, limit, offset int) ([]*models.Notification, error)
	Acknowledge(ctx context.Context, tenantID, id uuid.UUID) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
	}
}

func (s *notificationService) List(ctx context.Context, tenantID uuid.UUID, unacknowledgedOnly bool, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.List(ctx, tenantID, unacknowledgedOnly, limit, offset)
}

func (s *notificationService) Acknowledge(ctx context.Context, tenantID, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("notification id is required")
	}
	return s.notificationRepo.Acknowledge(ctx, tenantID, id)
}
