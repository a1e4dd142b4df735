package repositories

import (
	"context"
	"fmt"
	"strings"

	"stockpilot/internal/models"

	"github.com/google/uuid"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error)
	GetByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*models.Product, error)
	AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, change int) error
	ListForReplenishment(ctx context.Context, tenantID uuid.UUID, includeInactive bool, supplierID, categoryID *uuid.UUID) ([]*models.Product, error)
	AdvancedSearch(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error)
	CountLowStock(ctx context.Context, tenantID uuid.UUID) (int, error)
	CountOutOfStock(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type productRepo struct {
	db DB
}

func NewProductRepository(db DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, category_id, supplier_id, name, sku, barcode, description, current_stock, reorder_level, max_stock, cost_price, selling_price, currency, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, product.ID, product.TenantID, product.CategoryID, product.SupplierID, product.Name, product.SKU, product.Barcode, product.Description, product.CurrentStock, product.ReorderLevel, product.MaxStock, product.CostPrice, product.SellingPrice, product.Currency, product.IsActive)
	return err
}

func (r *productRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT p.id, p.tenant_id, p.category_id, p.supplier_id, p.name, p.sku, p.barcode, p.description, p.current_stock, p.reorder_level, p.max_stock, p.cost_price, p.selling_price, p.currency, p.is_active, c.name, s.name, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON c.tenant_id = p.tenant_id AND c.id = p.category_id
		LEFT JOIN suppliers s ON s.tenant_id = p.tenant_id AND s.id = p.supplier_id
		WHERE p.tenant_id = $1 AND p.id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&product.ID, &product.TenantID, &product.CategoryID, &product.SupplierID, &product.Name, &product.SKU, &product.Barcode, &product.Description, &product.CurrentStock, &product.ReorderLevel, &product.MaxStock, &product.CostPrice, &product.SellingPrice, &product.Currency, &product.IsActive, &product.CategoryName, &product.SupplierName, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *productRepo) GetByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT p.id, p.tenant_id, p.category_id, p.supplier_id, p.name, p.sku, p.barcode, p.description, p.current_stock, p.reorder_level, p.max_stock, p.cost_price, p.selling_price, p.currency, p.is_active, c.name, s.name, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON c.tenant_id = p.tenant_id AND c.id = p.category_id
		LEFT JOIN suppliers s ON s.tenant_id = p.tenant_id AND s.id = p.supplier_id
		WHERE p.tenant_id = $1 AND p.barcode = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, barcode).Scan(&product.ID, &product.TenantID, &product.CategoryID, &product.SupplierID, &product.Name, &product.SKU, &product.Barcode, &product.Description, &product.CurrentStock, &product.ReorderLevel, &product.MaxStock, &product.CostPrice, &product.SellingPrice, &product.Currency, &product.IsActive, &product.CategoryName, &product.SupplierName, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET category_id = $1, supplier_id = $2, name = $3, sku = $4, barcode = $5, description = $6, current_stock = $7, reorder_level = $8, max_stock = $9, cost_price = $10, selling_price = $11, currency = $12, is_active = $13, updated_at = NOW()
		WHERE tenant_id = $14 AND id = $15
	`
	_, err := r.db.Exec(ctx, query, product.CategoryID, product.SupplierID, product.Name, product.SKU, product.Barcode, product.Description, product.CurrentStock, product.ReorderLevel, product.MaxStock, product.CostPrice, product.SellingPrice, product.Currency, product.IsActive, product.TenantID, product.ID)
	return err
}

func (r *productRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM products WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *productRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	query := `
		SELECT p.id, p.tenant_id, p.category_id, p.supplier_id, p.name, p.sku, p.barcode, p.description, p.current_stock, p.reorder_level, p.max_stock, p.cost_price, p.selling_price, p.currency, p.is_active, c.name, s.name, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON c.tenant_id = p.tenant_id AND c.id = p.category_id
		LEFT JOIN suppliers s ON s.tenant_id = p.tenant_id AND s.id = p.supplier_id
		WHERE p.tenant_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.TenantID, &product.CategoryID, &product.SupplierID, &product.Name, &product.SKU, &product.Barcode, &product.Description, &product.CurrentStock, &product.ReorderLevel, &product.MaxStock, &product.CostPrice, &product.SellingPrice, &product.Currency, &product.IsActive, &product.CategoryName, &product.SupplierName, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// AdjustStock applies a relative stock change. Negative changes may take the
// stock below zero; overselling is surfaced by the replenishment engine, not
// rejected here.
func (r *productRepo) AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, change int) error {
	query := `
		UPDATE products
		SET current_stock = current_stock + $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
	`
	tag, err := r.db.Exec(ctx, query, change, tenantID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s not found", productID)
	}
	return nil
}

// ListForReplenishment returns the products the reorder engine evaluates,
// ordered by id so repeated runs see the same sequence.
func (r *productRepo) ListForReplenishment(ctx context.Context, tenantID uuid.UUID, includeInactive bool, supplierID, categoryID *uuid.UUID) ([]*models.Product, error) {
	queryBase := `
		SELECT p.id, p.tenant_id, p.category_id, p.supplier_id, p.name, p.sku, p.barcode, p.description, p.current_stock, p.reorder_level, p.max_stock, p.cost_price, p.selling_price, p.currency, p.is_active, c.name, s.name, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON c.tenant_id = p.tenant_id AND c.id = p.category_id
		LEFT JOIN suppliers s ON s.tenant_id = p.tenant_id AND s.id = p.supplier_id
		WHERE p.tenant_id = $1
	`
	args := []interface{}{tenantID}
	conditionCount := 1

	if !includeInactive {
		queryBase += ` AND p.is_active = TRUE`
	}
	if supplierID != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND p.supplier_id = $%d`, conditionCount)
		args = append(args, *supplierID)
	}
	if categoryID != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND p.category_id = $%d`, conditionCount)
		args = append(args, *categoryID)
	}

	queryBase += ` ORDER BY p.id`

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.TenantID, &product.CategoryID, &product.SupplierID, &product.Name, &product.SKU, &product.Barcode, &product.Description, &product.CurrentStock, &product.ReorderLevel, &product.MaxStock, &product.CostPrice, &product.SellingPrice, &product.Currency, &product.IsActive, &product.CategoryName, &product.SupplierName, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// CountLowStock counts active products at or below their reorder level.
func (r *productRepo) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM products
		WHERE tenant_id = $1 AND is_active = TRUE AND current_stock <= reorder_level
	`
	if err := r.db.QueryRow(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountOutOfStock counts active products with nothing left to sell.
func (r *productRepo) CountOutOfStock(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM products
		WHERE tenant_id = $1 AND is_active = TRUE AND current_stock <= 0
	`
	if err := r.db.QueryRow(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// AdvancedSearch performs advanced search on products with multiple filters
func (r *productRepo) AdvancedSearch(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error) {
	// Set defaults
	if filter.Limit == 0 {
		filter.Limit = 50
	}
	if filter.SortBy == "" {
		filter.SortBy = "created_at"
	}
	if filter.SortOrder == "" {
		filter.SortOrder = "desc"
	}

	queryBase := `
		SELECT p.id, p.tenant_id, p.category_id, p.supplier_id, p.name, p.sku, p.barcode, p.description, p.current_stock, p.reorder_level, p.max_stock, p.cost_price, p.selling_price, p.currency, p.is_active, c.name, s.name, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON c.tenant_id = p.tenant_id AND c.id = p.category_id
		LEFT JOIN suppliers s ON s.tenant_id = p.tenant_id AND s.id = p.supplier_id
		WHERE p.tenant_id = $1
	`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filter.Query != "" {
		sanitized := "%" + strings.ToLower(filter.Query) + "%"
		conditionCount++
		queryBase += fmt.Sprintf(` AND (p.name ILIKE $%d OR p.sku ILIKE $%d OR COALESCE(p.barcode, '') ILIKE $%d)`, conditionCount, conditionCount, conditionCount)
		args = append(args, sanitized)
	}

	if filter.CategoryID != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND p.category_id = $%d`, conditionCount)
		args = append(args, *filter.CategoryID)
	}

	if filter.SupplierID != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND p.supplier_id = $%d`, conditionCount)
		args = append(args, *filter.SupplierID)
	}

	if filter.IsActive != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND p.is_active = $%d`, conditionCount)
		args = append(args, *filter.IsActive)
	}

	if filter.LowStockOnly {
		queryBase += ` AND p.current_stock <= p.reorder_level`
	}

	if filter.MinPrice != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND p.selling_price >= $%d`, conditionCount)
		args = append(args, *filter.MinPrice)
	}

	if filter.MaxPrice != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND p.selling_price <= $%d`, conditionCount)
		args = append(args, *filter.MaxPrice)
	}

	if filter.Barcode != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND p.barcode = $%d`, conditionCount)
		args = append(args, *filter.Barcode)
	}

	// Validate sort field to prevent injection
	validSortFields := map[string]bool{
		"name": true, "sku": true, "current_stock": true, "selling_price": true, "created_at": true,
	}
	sortBy := filter.SortBy
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}
	queryBase += fmt.Sprintf(` ORDER BY p.%s %s`, sortBy, sortOrder)

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

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.TenantID, &product.CategoryID, &product.SupplierID, &product.Name, &product.SKU, &product.Barcode, &product.Description, &product.CurrentStock, &product.ReorderLevel, &product.MaxStock, &product.CostPrice, &product.SellingPrice, &product.Currency, &product.IsActive, &product.CategoryName, &product.SupplierName, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}
