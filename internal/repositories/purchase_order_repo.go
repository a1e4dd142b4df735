package repositories

import (
	"context"
	"fmt"

	"stockpilot/internal/models"

	"github.com/google/uuid"
)

type PurchaseOrderRepository interface {
	CreateWithItems(ctx context.Context, order *models.PurchaseOrder) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.PurchaseOrder, error)
	MarkReceived(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error)
	Cancel(ctx context.Context, tenantID, id uuid.UUID) error
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status string) (int, error)
}

type purchaseOrderRepo struct {
	db DB
}

func NewPurchaseOrderRepository(db DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

// CreateWithItems inserts the order header and all of its lines in one
// transaction. Either the whole order lands or none of it does.
func (r *purchaseOrderRepo) CreateWithItems(ctx context.Context, order *models.PurchaseOrder) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}

	headerQuery := `
		INSERT INTO purchase_orders (id, tenant_id, supplier_id, created_by, status, total_value, notes, order_date, expected_delivery, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err = tx.Exec(ctx, headerQuery, order.ID, order.TenantID, order.SupplierID, order.CreatedBy, order.Status, order.TotalValue, order.Notes, order.OrderDate, order.ExpectedDelivery)
	if err != nil {
		tx.Rollback(ctx)
		return err
	}

	itemQuery := `
		INSERT INTO purchase_order_items (id, tenant_id, order_id, product_id, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	for _, item := range order.Items {
		_, err = tx.Exec(ctx, itemQuery, item.ID, item.TenantID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			tx.Rollback(ctx)
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *purchaseOrderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error) {
	order := &models.PurchaseOrder{}
	query := `
		SELECT o.id, o.tenant_id, o.supplier_id, o.created_by, o.status, o.total_value, o.notes, o.order_date, o.expected_delivery, o.received_at, s.name, o.created_at, o.updated_at
		FROM purchase_orders o
		LEFT JOIN suppliers s ON s.tenant_id = o.tenant_id AND s.id = o.supplier_id
		WHERE o.tenant_id = $1 AND o.id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&order.ID, &order.TenantID, &order.SupplierID, &order.CreatedBy, &order.Status, &order.TotalValue, &order.Notes, &order.OrderDate, &order.ExpectedDelivery, &order.ReceivedAt, &order.SupplierName, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *purchaseOrderRepo) listItems(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.PurchaseOrderItem, error) {
	query := `
		SELECT id, tenant_id, order_id, product_id, quantity, unit_price, created_at
		FROM purchase_order_items
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.PurchaseOrderItem
	for rows.Next() {
		item := &models.PurchaseOrderItem{}
		if err := rows.Scan(&item.ID, &item.TenantID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *purchaseOrderRepo) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.PurchaseOrder, error) {
	queryBase := `
		SELECT o.id, o.tenant_id, o.supplier_id, o.created_by, o.status, o.total_value, o.notes, o.order_date, o.expected_delivery, o.received_at, s.name, o.created_at, o.updated_at
		FROM purchase_orders o
		LEFT JOIN suppliers s ON s.tenant_id = o.tenant_id AND s.id = o.supplier_id
		WHERE o.tenant_id = $1
	`
	args := []interface{}{tenantID}
	conditionCount := 1

	if status != "" {
		conditionCount++
		queryBase += fmt.Sprintf(` AND o.status = $%d`, conditionCount)
		args = append(args, status)
	}

	queryBase += ` ORDER BY o.order_date DESC`

	conditionCount++
	queryBase += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, limit)

	conditionCount++
	queryBase += fmt.Sprintf(` OFFSET $%d`, conditionCount)
	args = append(args, offset)

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.PurchaseOrder
	for rows.Next() {
		order := &models.PurchaseOrder{}
		if err := rows.Scan(&order.ID, &order.TenantID, &order.SupplierID, &order.CreatedBy, &order.Status, &order.TotalValue, &order.Notes, &order.OrderDate, &order.ExpectedDelivery, &order.ReceivedAt, &order.SupplierName, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// MarkReceived flips a pending order to received and bumps stock for every
// line inside one transaction.
func (r *purchaseOrderRepo) MarkReceived(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM purchase_orders WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id).Scan(&status)
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}
	if status != models.PurchaseOrderStatusPending {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("order %s is %s, only pending orders can be received", id, status)
	}

	_, err = tx.Exec(ctx, `UPDATE purchase_orders SET status = $1, received_at = NOW(), updated_at = NOW() WHERE tenant_id = $2 AND id = $3`, models.PurchaseOrderStatusReceived, tenantID, id)
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}

	itemRows, err := tx.Query(ctx, `SELECT product_id, quantity FROM purchase_order_items WHERE tenant_id = $1 AND order_id = $2`, tenantID, id)
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}
	type received struct {
		productID uuid.UUID
		quantity  int
	}
	var lines []received
	for itemRows.Next() {
		var line received
		if err := itemRows.Scan(&line.productID, &line.quantity); err != nil {
			itemRows.Close()
			tx.Rollback(ctx)
			return nil, err
		}
		lines = append(lines, line)
	}
	itemRows.Close()
	if err := itemRows.Err(); err != nil {
		tx.Rollback(ctx)
		return nil, err
	}

	for _, line := range lines {
		_, err = tx.Exec(ctx, `UPDATE products SET current_stock = current_stock + $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`, line.quantity, tenantID, line.productID)
		if err != nil {
			tx.Rollback(ctx)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

func (r *purchaseOrderRepo) CountByStatus(ctx context.Context, tenantID uuid.UUID, status string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM purchase_orders WHERE tenant_id = $1 AND status = $2`
	if err := r.db.QueryRow(ctx, query, tenantID, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *purchaseOrderRepo) Cancel(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `
		UPDATE purchase_orders
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, models.PurchaseOrderStatusCancelled, tenantID, id, models.PurchaseOrderStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found or not pending", id)
	}
	return nil
}
