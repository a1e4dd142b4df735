package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockpilot/internal/caching"
	"stockpilot/internal/models"
	"stockpilot/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PurchaseOrderService manages the order lifecycle after the replenishment
// engine has created them: listing, receipt and cancellation. Receiving an
// order is the moment stock goes up, so it invalidates every tenant cache.
type PurchaseOrderService interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.PurchaseOrder, error)
	Receive(ctx context.Context, tenantID, id uuid.UUID, userID uuid.UUID) (*models.PurchaseOrder, error)
	Cancel(ctx context.Context, tenantID, id uuid.UUID, userID uuid.UUID) error
}

type purchaseOrderService struct {
	orderRepo repositories.PurchaseOrderRepository
	auditRepo repositories.AuditLogRepository
	cache     caching.CacheService
	log       *logrus.Logger
}

func NewPurchaseOrderService(orderRepo repositories.PurchaseOrderRepository, auditRepo repositories.AuditLogRepository, cache caching.CacheService, log *logrus.Logger) PurchaseOrderService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &purchaseOrderService{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		cache:     cache,
		log:       log,
	}
}

func (s *purchaseOrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error) {
	return s.orderRepo.GetByID(ctx, tenantID, id)
}

func (s *purchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.PurchaseOrder, error) {
	status = strings.TrimSpace(status)
	if status != "" {
		switch status {
		case models.PurchaseOrderStatusPending, models.PurchaseOrderStatusReceived, models.PurchaseOrderStatusCancelled:
		default:
			return nil, fmt.Errorf("unknown order status %q", status)
		}
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.List(ctx, tenantID, status, limit, offset)
}

// Receive marks a pending order received. The repository bumps the stock of
// every line atomically with the status flip; afterwards nothing cached for
// the tenant can be trusted, so the whole tenant key space is dropped.
func (s *purchaseOrderService) Receive(ctx context.Context, tenantID, id uuid.UUID, userID uuid.UUID) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, errors.New("order id is required")
	}

	order, err := s.orderRepo.MarkReceived(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateTenantCache(ctx, tenantID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate tenant cache after order receipt")
	}

	s.recordAudit(ctx, tenantID, userID, models.AuditActionOrderReceived, id,
		fmt.Sprintf("order received with %d items, total value %.2f", len(order.Items), order.TotalValue))
	return order, nil
}

func (s *purchaseOrderService) Cancel(ctx context.Context, tenantID, id uuid.UUID, userID uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("order id is required")
	}

	if err := s.orderRepo.Cancel(ctx, tenantID, id); err != nil {
		return err
	}

	// Stock is untouched by a cancellation; only the pending order count on
	// the dashboard changes.
	if err := s.cache.DeleteDashboard(ctx, tenantID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate dashboard cache after order cancellation")
	}

	s.recordAudit(ctx, tenantID, userID, models.AuditActionOrderCancelled, id, "order cancelled")
	return nil
}

func (s *purchaseOrderService) recordAudit(ctx context.Context, tenantID, userID uuid.UUID, action string, orderID uuid.UUID, detail string) {
	entry := &models.AuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Action:     action,
		EntityType: "purchase_order",
		Detail:     detail,
	}
	entityID := orderID
	entry.EntityID = &entityID
	if userID != uuid.Nil {
		actorID := userID
		entry.ActorID = &actorID
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("failed to write audit entry")
	}
}
