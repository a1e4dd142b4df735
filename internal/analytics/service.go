package analytics

import (
	"context"
	"time"

	"stockpilot/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultWindowDays is the metrics window when the caller does not pick one.
	DefaultWindowDays = 30

	topMoversLimit    = 5
	dashboardCacheTTL = 5 * time.Minute
)

// SalesSource provides the sales aggregates the dashboard shows.
// repositories.SalesRepository satisfies it.
type SalesSource interface {
	Totals(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, float64, error)
	TopMovers(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]models.ProductSales, error)
}

// StockSource provides the stock-level counters.
// repositories.ProductRepository satisfies it.
type StockSource interface {
	CountLowStock(ctx context.Context, tenantID uuid.UUID) (int, error)
	CountOutOfStock(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// OrderSource provides the purchase-order counters.
// repositories.PurchaseOrderRepository satisfies it.
type OrderSource interface {
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status string) (int, error)
}

// MetricsCache is the slice of the cache service the dashboard uses.
type MetricsCache interface {
	GetDashboard(ctx context.Context, tenantID uuid.UUID) (*models.DashboardMetrics, error)
	SetDashboard(ctx context.Context, tenantID uuid.UUID, metrics *models.DashboardMetrics, ttl time.Duration) error
}

// DashboardService computes the per-tenant overview: sales totals, revenue,
// top movers, stock alarm counters and the pending order count. Results are
// cached briefly; writes that change the inputs drop the cache entry.
type DashboardService interface {
	Metrics(ctx context.Context, tenantID uuid.UUID, windowDays int) (*models.DashboardMetrics, error)
}

type dashboardService struct {
	sales  SalesSource
	stock  StockSource
	orders OrderSource
	cache  MetricsCache
	log    *logrus.Logger
	now    func() time.Time
}

func NewDashboardService(sales SalesSource, stock StockSource, orders OrderSource, cache MetricsCache, log *logrus.Logger) DashboardService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &dashboardService{
		sales:  sales,
		stock:  stock,
		orders: orders,
		cache:  cache,
		log:    log,
		now:    time.Now,
	}
}

func (s *dashboardService) Metrics(ctx context.Context, tenantID uuid.UUID, windowDays int) (*models.DashboardMetrics, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	// Only one window is cached per tenant; a request for a different
	// window recomputes and takes over the slot.
	if cached, err := s.cache.GetDashboard(ctx, tenantID); err == nil && cached != nil && cached.WindowDays == windowDays {
		return cached, nil
	} else if err != nil {
		s.log.WithError(err).Debug("dashboard cache read failed, computing")
	}

	now := s.now().UTC()
	from := now.AddDate(0, 0, -windowDays)

	quantity, revenue, err := s.sales.Totals(ctx, tenantID, from, now)
	if err != nil {
		return nil, err
	}
	topMovers, err := s.sales.TopMovers(ctx, tenantID, from, now, topMoversLimit)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.stock.CountLowStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	outOfStock, err := s.stock.CountOutOfStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	pendingOrders, err := s.orders.CountByStatus(ctx, tenantID, models.PurchaseOrderStatusPending)
	if err != nil {
		return nil, err
	}

	metrics := &models.DashboardMetrics{
		TenantID:           tenantID,
		WindowDays:         windowDays,
		TotalSalesQuantity: quantity,
		TotalRevenue:       revenue,
		TopMovers:          topMovers,
		LowStockCount:      lowStock,
		OutOfStockCount:    outOfStock,
		PendingOrderCount:  pendingOrders,
		GeneratedAt:        now,
	}

	if err := s.cache.SetDashboard(ctx, tenantID, metrics, dashboardCacheTTL); err != nil {
		s.log.WithError(err).Warn("failed to cache dashboard metrics")
	}
	return metrics, nil
}
