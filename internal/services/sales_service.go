package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockpilot/internal/caching"
	"stockpilot/internal/models"
	"stockpilot/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SalesService records sales and serves the transaction history. Every
// recorded sale decrements product stock; overselling is allowed so the till
// keeps working when the stock count is wrong, it just gets logged.
type SalesService interface {
	RecordSale(ctx context.Context, tenantID uuid.UUID, sale *models.Sale) error
	List(ctx context.Context, tenantID uuid.UUID, filter *models.SaleSearchFilter) ([]*models.Sale, error)
}

type salesService struct {
	salesRepo   repositories.SalesRepository
	productRepo repositories.ProductRepository
	cache       caching.CacheService
	log         *logrus.Logger
}

func NewSalesService(salesRepo repositories.SalesRepository, productRepo repositories.ProductRepository, cache caching.CacheService, log *logrus.Logger) SalesService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &salesService{
		salesRepo:   salesRepo,
		productRepo: productRepo,
		cache:       cache,
		log:         log,
	}
}

func (s *salesService) RecordSale(ctx context.Context, tenantID uuid.UUID, sale *models.Sale) error {
	if sale.ProductID == uuid.Nil {
		return errors.New("product id is required")
	}
	if sale.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	if sale.UnitPrice < 0 {
		return errors.New("unit price cannot be negative")
	}

	product, err := s.productRepo.GetByID(ctx, tenantID, sale.ProductID)
	if err != nil {
		return fmt.Errorf("product not found: %w", err)
	}

	sale.ID = uuid.New()
	sale.TenantID = tenantID
	if sale.UnitPrice == 0 {
		sale.UnitPrice = product.SellingPrice
	}
	sale.TotalAmount = sale.UnitPrice * float64(sale.Quantity)
	if sale.SoldAt.IsZero() {
		sale.SoldAt = time.Now().UTC()
	}

	if err := s.salesRepo.Create(ctx, sale); err != nil {
		return err
	}

	if product.CurrentStock-sale.Quantity < 0 {
		s.log.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"product_id": sale.ProductID,
			"stock":      product.CurrentStock,
			"quantity":   sale.Quantity,
		}).Warn("sale exceeds recorded stock, stock going negative")
	}
	if err := s.productRepo.AdjustStock(ctx, tenantID, sale.ProductID, -sale.Quantity); err != nil {
		// The sale row exists but the decrement did not land; surface the
		// error so the caller retries or corrects stock manually.
		return fmt.Errorf("sale recorded but stock adjustment failed: %w", err)
	}

	s.invalidateAfterSale(ctx, tenantID, sale.ProductID)
	return nil
}

func (s *salesService) List(ctx context.Context, tenantID uuid.UUID, filter *models.SaleSearchFilter) ([]*models.Sale, error) {
	if filter == nil {
		filter = &models.SaleSearchFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.salesRepo.List(ctx, tenantID, filter)
}

// invalidateAfterSale drops the caches a sale makes stale: the product
// snapshot (stock changed), memoized suggestions (history and stock are
// engine inputs) and the dashboard aggregates.
func (s *salesService) invalidateAfterSale(ctx context.Context, tenantID, productID uuid.UUID) {
	if err := s.cache.DeleteProduct(ctx, tenantID, productID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate product cache after sale")
	}
	if err := s.cache.InvalidateSuggestions(ctx, tenantID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate suggestion cache after sale")
	}
	if err := s.cache.DeleteDashboard(ctx, tenantID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate dashboard cache after sale")
	}
}
