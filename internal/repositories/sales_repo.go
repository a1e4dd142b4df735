package repositories

import (
	"context"
	"fmt"
	"time"

	"stockpilot/internal/models"

	"github.com/google/uuid"
)

type SalesRepository interface {
	Create(ctx context.Context, sale *models.Sale) error
	List(ctx context.Context, tenantID uuid.UUID, filter *models.SaleSearchFilter) ([]*models.Sale, error)
	GetDailySales(ctx context.Context, tenantID, productID uuid.UUID, from, to time.Time) ([]models.SalesDailyPoint, error)
	GetLastSaleDate(ctx context.Context, tenantID, productID uuid.UUID) (*time.Time, error)
	Totals(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, float64, error)
	TopMovers(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]models.ProductSales, error)
}

type salesRepo struct {
	db DB
}

func NewSalesRepository(db DB) SalesRepository {
	return &salesRepo{db: db}
}

func (r *salesRepo) Create(ctx context.Context, sale *models.Sale) error {
	query := `
		INSERT INTO sales (id, tenant_id, product_id, quantity, unit_price, total_amount, sold_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.db.Exec(ctx, query, sale.ID, sale.TenantID, sale.ProductID, sale.Quantity, sale.UnitPrice, sale.TotalAmount, sale.SoldAt)
	return err
}

func (r *salesRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.SaleSearchFilter) ([]*models.Sale, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}
	queryBase := `
		SELECT id, tenant_id, product_id, quantity, unit_price, total_amount, sold_at, created_at
		FROM sales
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filter.ProductID != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND product_id = $%d`, conditionCount)
		args = append(args, *filter.ProductID)
	}
	if filter.From != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND sold_at >= $%d`, conditionCount)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND sold_at < $%d`, conditionCount)
		args = append(args, *filter.To)
	}

	queryBase += ` ORDER BY sold_at DESC`

	conditionCount++
	queryBase += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filter.Limit)

	conditionCount++
	queryBase += fmt.Sprintf(` OFFSET $%d`, conditionCount)
	args = append(args, filter.Offset)

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		sale := &models.Sale{}
		if err := rows.Scan(&sale.ID, &sale.TenantID, &sale.ProductID, &sale.Quantity, &sale.UnitPrice, &sale.TotalAmount, &sale.SoldAt, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// GetDailySales returns per-day sold quantities within [from, to). Days with
// no sales are not returned; callers densify the series themselves.
func (r *salesRepo) GetDailySales(ctx context.Context, tenantID, productID uuid.UUID, from, to time.Time) ([]models.SalesDailyPoint, error) {
	query := `
		SELECT DATE(sold_at), COALESCE(SUM(quantity), 0)
		FROM sales
		WHERE tenant_id = $1 AND product_id = $2 AND sold_at >= $3 AND sold_at < $4
		GROUP BY DATE(sold_at)
		ORDER BY DATE(sold_at)
	`
	rows, err := r.db.Query(ctx, query, tenantID, productID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.SalesDailyPoint
	for rows.Next() {
		var point models.SalesDailyPoint
		if err := rows.Scan(&point.Date, &point.Quantity); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

func (r *salesRepo) GetLastSaleDate(ctx context.Context, tenantID, productID uuid.UUID) (*time.Time, error) {
	var last *time.Time
	query := `SELECT MAX(sold_at) FROM sales WHERE tenant_id = $1 AND product_id = $2`
	err := r.db.QueryRow(ctx, query, tenantID, productID).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

// Totals returns the quantity sold and revenue within [from, to).
func (r *salesRepo) Totals(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, float64, error) {
	var quantity int
	var revenue float64
	query := `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE tenant_id = $1 AND sold_at >= $2 AND sold_at < $3
	`
	err := r.db.QueryRow(ctx, query, tenantID, from, to).Scan(&quantity, &revenue)
	if err != nil {
		return 0, 0, err
	}
	return quantity, revenue, nil
}

// TopMovers ranks products by quantity sold within [from, to).
func (r *salesRepo) TopMovers(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]models.ProductSales, error) {
	query := `
		SELECT s.product_id, p.name, p.sku, SUM(s.quantity), SUM(s.total_amount)
		FROM sales s
		JOIN products p ON p.tenant_id = s.tenant_id AND p.id = s.product_id
		WHERE s.tenant_id = $1 AND s.sold_at >= $2 AND s.sold_at < $3
		GROUP BY s.product_id, p.name, p.sku
		ORDER BY SUM(s.quantity) DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movers []models.ProductSales
	for rows.Next() {
		var mover models.ProductSales
		if err := rows.Scan(&mover.ProductID, &mover.ProductName, &mover.SKU, &mover.QuantitySold, &mover.Revenue); err != nil {
			return nil, err
		}
		movers = append(movers, mover)
	}
	return movers, rows.Err()
}
