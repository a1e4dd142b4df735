package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductSales is one row of the top-movers ranking: how much of a product
// sold over the dashboard window.
type ProductSales struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	SKU          string    `json:"sku"`
	QuantitySold int       `json:"quantity_sold"`
	Revenue      float64   `json:"revenue"`
}

// DashboardMetrics is the per-tenant operational snapshot the dashboard
// endpoint serves. It is computed on demand and cached; GeneratedAt tells
// the caller how fresh the numbers are.
type DashboardMetrics struct {
	TenantID           uuid.UUID      `json:"tenant_id"`
	WindowDays         int            `json:"window_days"`
	TotalSalesQuantity int            `json:"total_sales_quantity"`
	TotalRevenue       float64        `json:"total_revenue"`
	TopMovers          []ProductSales `json:"top_movers"`
	LowStockCount      int            `json:"low_stock_count"`
	OutOfStockCount    int            `json:"out_of_stock_count"`
	PendingOrderCount  int            `json:"pending_order_count"`
	GeneratedAt        time.Time      `json:"generated_at"`
}
