package replenishment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stockpilot/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OrderWriter creates one purchase order with all its lines as a unit.
type OrderWriter interface {
	CreateWithItems(ctx context.Context, order *models.PurchaseOrder) error
}

// OrderBatcher turns a selection of reorder suggestions into purchase
// orders, one per supplier. Each run moves through grouping, per-supplier
// creation and a final fold; suppliers fail independently and a prior
// supplier's order is never rolled back because a later one failed.
type OrderBatcher struct {
	products ProductSource
	orders   OrderWriter
	cfg      Config
	log      *logrus.Logger
	now      func() time.Time
}

func NewOrderBatcher(products ProductSource, orders OrderWriter, cfg Config, log *logrus.Logger) *OrderBatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OrderBatcher{
		products: products,
		orders:   orders,
		cfg:      cfg.withDefaults(),
		log:      log,
		now:      time.Now,
	}
}

// supplierGroup gathers the selected suggestions destined for one supplier.
type supplierGroup struct {
	supplierID   uuid.UUID
	supplierName string
	suggestions  []models.ReorderSuggestion
}

// supplierOutcome is one supplier's creation result. Item errors are kept
// apart from the order error so the fold can report them in a stable order.
type supplierOutcome struct {
	created    bool
	orderID    uuid.UUID
	itemErrors []string
	orderError string
}

// CreateOrders drives the batch: group the selection by supplier, create one
// order per supplier with bounded concurrency, fold the outcomes. Selections
// without a supplier are excluded with a warning; if nothing eligible
// remains the order store is never contacted. Success means at least one
// order was created.
func (b *OrderBatcher) CreateOrders(ctx context.Context, tenantID uuid.UUID, selected []models.ReorderSuggestion, userID uuid.UUID) *models.PurchaseOrderBatchResult {
	log := b.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"selected":  len(selected),
	})

	log.WithField("phase", "grouping").Debug("partitioning selection by supplier")
	groups, warnings := groupBySupplier(selected)

	result := &models.PurchaseOrderBatchResult{Warnings: warnings}
	if len(groups) == 0 {
		result.Errors = append(result.Errors, "no eligible items: none of the selected products can be ordered")
		log.WithField("phase", "done").Warn("nothing to order, no supplier contacted")
		return result
	}

	log.WithFields(logrus.Fields{
		"phase":     "per_supplier_creation",
		"suppliers": len(groups),
	}).Debug("creating purchase orders")
	outcomes := b.createAll(ctx, tenantID, groups, userID)

	for i := range groups {
		outcome := outcomes[i]
		result.Errors = append(result.Errors, outcome.itemErrors...)
		if outcome.created {
			result.CreatedCount++
			result.CreatedOrderIDs = append(result.CreatedOrderIDs, outcome.orderID)
			continue
		}
		result.FailedCount++
		if outcome.orderError != "" {
			result.Errors = append(result.Errors, outcome.orderError)
		}
	}
	result.Success = result.CreatedCount > 0

	log.WithFields(logrus.Fields{
		"phase":   "done",
		"created": result.CreatedCount,
		"failed":  result.FailedCount,
	}).Info("purchase order batch finished")
	return result
}

// groupBySupplier partitions the selection, excluding suggestions that carry
// no supplier or a zero recommended quantity. Groups come back in ascending
// supplier-id order so repeated runs report errors identically.
func groupBySupplier(selected []models.ReorderSuggestion) ([]supplierGroup, []string) {
	byID := make(map[uuid.UUID]*supplierGroup)
	var warnings []string

	for _, s := range selected {
		if s.SupplierID == nil {
			warnings = append(warnings, fmt.Sprintf("%s (%s) skipped: no supplier assigned", s.ProductName, s.SKU))
			continue
		}
		if s.RecommendedQuantity <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s (%s) skipped: nothing to order", s.ProductName, s.SKU))
			continue
		}
		group, ok := byID[*s.SupplierID]
		if !ok {
			group = &supplierGroup{supplierID: *s.SupplierID, supplierName: s.SupplierID.String()}
			byID[*s.SupplierID] = group
		}
		if s.SupplierName != nil && *s.SupplierName != "" {
			group.supplierName = *s.SupplierName
		}
		group.suggestions = append(group.suggestions, s)
	}

	groups := make([]supplierGroup, 0, len(byID))
	for _, group := range byID {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].supplierID.String() < groups[j].supplierID.String()
	})
	return groups, warnings
}

// createAll fans the supplier groups out over a bounded worker pool.
// Cancellation is honored between groups only: a group that has started is
// allowed to finish its commit.
func (b *OrderBatcher) createAll(ctx context.Context, tenantID uuid.UUID, groups []supplierGroup, userID uuid.UUID) []supplierOutcome {
	outcomes := make([]supplierOutcome, len(groups))
	sem := make(chan struct{}, b.cfg.SupplierWorkerLimit)
	var wg sync.WaitGroup

	for i := range groups {
		wg.Add(1)
		go func(i int, group supplierGroup) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				outcomes[i] = supplierOutcome{
					orderError: fmt.Sprintf("%s: cancelled before order creation", group.supplierName),
				}
				return
			}
			outcomes[i] = b.createOne(ctx, tenantID, group, userID)
		}(i, groups[i])
	}
	wg.Wait()
	return outcomes
}

// createOne resolves live unit costs for a supplier's items and submits the
// order as one atomic call. Items without a valid cost price are dropped
// with their own error; the order proceeds with whatever remains.
func (b *OrderBatcher) createOne(ctx context.Context, tenantID uuid.UUID, group supplierGroup, userID uuid.UUID) supplierOutcome {
	// A started commit must not be torn down by the caller going away; the
	// collaborator timeout bounds it instead.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.CollaboratorTimeout)
	defer cancel()

	var outcome supplierOutcome
	orderID := uuid.New()
	items := make([]*models.PurchaseOrderItem, 0, len(group.suggestions))
	var total float64

	for _, s := range group.suggestions {
		// Cost comes from the live product, not the possibly stale suggestion.
		product, err := b.products.GetByID(cctx, tenantID, s.ProductID)
		if err != nil {
			outcome.itemErrors = append(outcome.itemErrors,
				fmt.Sprintf("%s (%s): product lookup failed: %v", s.ProductName, s.SKU, err))
			continue
		}
		if product.CostPrice <= 0 {
			outcome.itemErrors = append(outcome.itemErrors,
				fmt.Sprintf("%s (%s): no valid cost price", product.Name, product.SKU))
			continue
		}
		items = append(items, &models.PurchaseOrderItem{
			ID:        uuid.New(),
			TenantID:  tenantID,
			OrderID:   orderID,
			ProductID: s.ProductID,
			Quantity:  s.RecommendedQuantity,
			UnitPrice: product.CostPrice,
		})
		total += float64(s.RecommendedQuantity) * product.CostPrice
	}

	if len(items) == 0 {
		outcome.orderError = fmt.Sprintf("%s: no orderable items", group.supplierName)
		return outcome
	}

	var createdBy *uuid.UUID
	if userID != uuid.Nil {
		createdBy = &userID
	}
	order := &models.PurchaseOrder{
		ID:         orderID,
		TenantID:   tenantID,
		SupplierID: group.supplierID,
		CreatedBy:  createdBy,
		Status:     models.PurchaseOrderStatusPending,
		TotalValue: total,
		OrderDate:  b.now().UTC(),
		Items:      items,
	}
	if err := b.orders.CreateWithItems(cctx, order); err != nil {
		b.log.WithFields(logrus.Fields{
			"tenant_id":   tenantID,
			"supplier_id": group.supplierID,
		}).WithError(err).Error("purchase order creation failed")
		outcome.orderError = fmt.Sprintf("%s: order creation failed: %v", group.supplierName, err)
		return outcome
	}

	outcome.created = true
	outcome.orderID = orderID
	return outcome
}
