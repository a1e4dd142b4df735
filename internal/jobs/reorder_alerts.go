package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockpilot/internal/models"
	"stockpilot/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// defaultDedupWindow suppresses repeat alerts for a product that is
	// still critical on the next sweep.
	defaultDedupWindow = 24 * time.Hour

	// maxConcurrentSweeps bounds the tenant fan-out so a large install
	// does not stampede the database.
	maxConcurrentSweeps = 5
)

// SuggestionSource yields the reorder suggestions the sweep turns into
// alerts. services.ReorderService satisfies it.
type SuggestionSource interface {
	GetSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.ReorderSuggestion, error)
}

// ReorderAlertService periodically runs the suggestion engine per tenant and
// persists a notification for every product that has turned critical.
type ReorderAlertService struct {
	suggestions      SuggestionSource
	notificationRepo repositories.NotificationRepository
	tenantRepo       repositories.TenantRepository
	dedupWindow      time.Duration
	log              *logrus.Logger
	now              func() time.Time
}

// NewReorderAlertService creates a new reorder alert sweep service
func NewReorderAlertService(suggestions SuggestionSource, notificationRepo repositories.NotificationRepository, tenantRepo repositories.TenantRepository, log *logrus.Logger) *ReorderAlertService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReorderAlertService{
		suggestions:      suggestions,
		notificationRepo: notificationRepo,
		tenantRepo:       tenantRepo,
		dedupWindow:      defaultDedupWindow,
		log:              log,
		now:              time.Now,
	}
}

// SweepTenant checks one tenant for critical products and raises alerts for
// those without a recent one. Per-product failures are logged and skipped so
// a single bad row cannot abort the sweep.
func (s *ReorderAlertService) SweepTenant(ctx context.Context, tenantID uuid.UUID) error {
	opts := models.ReorderSuggestionOptions{
		UrgencyFilter: []models.ReorderUrgency{models.UrgencyCritical},
	}

	suggestions, err := s.suggestions.GetSuggestions(ctx, tenantID, opts)
	if err != nil {
		return fmt.Errorf("fetch critical suggestions: %w", err)
	}

	since := s.now().Add(-s.dedupWindow)
	created := 0

	for _, suggestion := range suggestions {
		productID := suggestion.ProductID

		recent, err := s.notificationRepo.HasRecent(ctx, tenantID, productID, models.NotificationTypeReorderAlert, since)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"tenant_id":  tenantID,
				"product_id": productID,
			}).Warn("Could not check for recent alert, skipping product")
			continue
		}
		if recent {
			continue
		}

		notification := &models.Notification{
			TenantID:  tenantID,
			Type:      models.NotificationTypeReorderAlert,
			Severity:  models.NotificationSeverityCritical,
			ProductID: &productID,
			Title:     fmt.Sprintf("Reorder needed: %s", suggestion.ProductName),
			Message: fmt.Sprintf("%s (%s) has %d units left, about %.1f days of stock. Recommended order: %d units.",
				suggestion.ProductName, suggestion.SKU, suggestion.CurrentStock,
				suggestion.DaysOfStockRemaining, suggestion.RecommendedQuantity),
		}

		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"tenant_id":  tenantID,
				"product_id": productID,
			}).Warn("Could not persist reorder alert")
			continue
		}
		created++
	}

	if created > 0 {
		s.log.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"alerts":    created,
			"critical":  len(suggestions),
		}).Info("Reorder alerts raised")
	}

	return nil
}

// SweepAllTenants runs the sweep across every active tenant with a bounded
// fan-out. Tenant failures are logged and do not stop the other tenants.
func (s *ReorderAlertService) SweepAllTenants(ctx context.Context) error {
	tenants, err := s.tenantRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active tenants: %w", err)
	}

	semaphore := make(chan struct{}, maxConcurrentSweeps)
	var wg sync.WaitGroup

	for _, tenant := range tenants {
		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := s.SweepTenant(ctx, tenantID); err != nil {
				s.log.WithError(err).WithField("tenant_id", tenantID).Warn("Reorder alert sweep failed for tenant")
			}
		}(tenant.ID)
	}

	wg.Wait()

	s.log.WithField("tenants", len(tenants)).Debug("Reorder alert sweep completed")
	return nil
}
