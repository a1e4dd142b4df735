package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockpilot/internal/caching"
	"stockpilot/internal/models"
	"stockpilot/internal/replenishment"
	"stockpilot/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// suggestionEngine is the slice of the replenishment engine this service
// depends on. *replenishment.Engine satisfies it.
type suggestionEngine interface {
	NormalizeOptions(opts models.ReorderSuggestionOptions) models.ReorderSuggestionOptions
	GetSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.ReorderSuggestion, error)
	GetMLSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.MLReorderSuggestion, error)
	SuggestionsFor(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, opts models.ReorderSuggestionOptions) []models.ReorderSuggestion
}

// orderBatcher turns selected suggestions into purchase orders.
// *replenishment.OrderBatcher satisfies it.
type orderBatcher interface {
	CreateOrders(ctx context.Context, tenantID uuid.UUID, selected []models.ReorderSuggestion, userID uuid.UUID) *models.PurchaseOrderBatchResult
}

// ReorderService exposes the replenishment engine to the API layer, adding
// short-lived memoization of suggestion queries and an audit trail for order
// creation.
type ReorderService interface {
	GetSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.ReorderSuggestion, error)
	GetSummary(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) (*models.ReorderSuggestionSummary, error)
	GetMLSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.MLReorderSuggestion, error)
	CreateOrdersFromSuggestions(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, opts models.ReorderSuggestionOptions, userID uuid.UUID) (*models.PurchaseOrderBatchResult, error)
}

type reorderService struct {
	engine    suggestionEngine
	batcher   orderBatcher
	cache     caching.CacheService
	auditRepo repositories.AuditLogRepository
	cacheTTL  time.Duration
	log       *logrus.Logger
}

func NewReorderService(engine suggestionEngine, batcher orderBatcher, cache caching.CacheService, auditRepo repositories.AuditLogRepository, cacheTTL time.Duration, log *logrus.Logger) ReorderService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &reorderService{
		engine:    engine,
		batcher:   batcher,
		cache:     cache,
		auditRepo: auditRepo,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// GetSuggestions serves the suggestion list from redis when a recent
// computation with the same options exists, otherwise runs the engine and
// memoizes the result. Options are normalized before fingerprinting so an
// empty request and an explicit-defaults request share one cache entry.
func (s *reorderService) GetSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.ReorderSuggestion, error) {
	opts = s.engine.NormalizeOptions(opts)
	fingerprint := opts.Fingerprint()

	if cached, err := s.cache.GetSuggestions(ctx, tenantID, fingerprint); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.log.WithError(err).Debug("suggestion cache read failed, computing")
	}

	suggestions, err := s.engine.GetSuggestions(ctx, tenantID, opts)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSuggestions(ctx, tenantID, fingerprint, suggestions, s.cacheTTL); err != nil {
		s.log.WithError(err).Warn("failed to cache reorder suggestions")
	}
	return suggestions, nil
}

// GetSummary folds the suggestion list into per-tier counts. It goes through
// GetSuggestions so the summary and the list share the same cache entry.
func (s *reorderService) GetSummary(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) (*models.ReorderSuggestionSummary, error) {
	suggestions, err := s.GetSuggestions(ctx, tenantID, opts)
	if err != nil {
		return nil, err
	}
	summary := replenishment.Summarize(suggestions)
	return &summary, nil
}

// GetMLSuggestions mirrors GetSuggestions for the forecast-augmented path,
// memoized under a separate key space.
func (s *reorderService) GetMLSuggestions(ctx context.Context, tenantID uuid.UUID, opts models.ReorderSuggestionOptions) ([]models.MLReorderSuggestion, error) {
	opts = s.engine.NormalizeOptions(opts)
	fingerprint := opts.Fingerprint()

	if cached, err := s.cache.GetMLSuggestions(ctx, tenantID, fingerprint); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.log.WithError(err).Debug("ml suggestion cache read failed, computing")
	}

	suggestions, err := s.engine.GetMLSuggestions(ctx, tenantID, opts)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetMLSuggestions(ctx, tenantID, fingerprint, suggestions, s.cacheTTL); err != nil {
		s.log.WithError(err).Warn("failed to cache ml reorder suggestions")
	}
	return suggestions, nil
}

// CreateOrdersFromSuggestions re-evaluates the selected products and hands
// the fresh suggestions to the order batcher. Products that cannot be
// evaluated are reported as warnings rather than aborting the batch. A
// successful batch is recorded in the audit trail and invalidates the
// dashboard cache, since the pending order count just changed.
func (s *reorderService) CreateOrdersFromSuggestions(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, opts models.ReorderSuggestionOptions, userID uuid.UUID) (*models.PurchaseOrderBatchResult, error) {
	if len(productIDs) == 0 {
		return nil, errors.New("no products selected for ordering")
	}

	opts = s.engine.NormalizeOptions(opts)
	suggestions := s.engine.SuggestionsFor(ctx, tenantID, productIDs, opts)

	evaluated := make(map[uuid.UUID]bool, len(suggestions))
	for _, suggestion := range suggestions {
		evaluated[suggestion.ProductID] = true
	}
	var warnings []string
	for _, id := range productIDs {
		if !evaluated[id] {
			warnings = append(warnings, fmt.Sprintf("product %s: could not be evaluated, skipped", id))
		}
	}

	result := s.batcher.CreateOrders(ctx, tenantID, suggestions, userID)
	result.Warnings = append(warnings, result.Warnings...)

	if result.CreatedCount > 0 {
		s.recordBatchAudit(ctx, tenantID, userID, result, len(productIDs))
		if err := s.cache.DeleteDashboard(ctx, tenantID); err != nil {
			s.log.WithError(err).Warn("failed to invalidate dashboard cache after order batch")
		}
	}
	return result, nil
}

// recordBatchAudit is best effort: a failed audit insert is logged, never
// surfaced to the caller.
func (s *reorderService) recordBatchAudit(ctx context.Context, tenantID, userID uuid.UUID, result *models.PurchaseOrderBatchResult, selectedCount int) {
	entry := &models.AuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Action:     models.AuditActionReorderBatch,
		EntityType: "purchase_order",
		Detail:     fmt.Sprintf("created %d purchase orders from %d selected products (%d failed)", result.CreatedCount, selectedCount, result.FailedCount),
	}
	if userID != uuid.Nil {
		actorID := userID
		entry.ActorID = &actorID
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.log.WithError(err).Warn("failed to write audit entry for reorder batch")
	}
}
