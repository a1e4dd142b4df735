package repositories

import (
	"context"

	"stockpilot/internal/models"

	"github.com/google/uuid"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Supplier, error)
	GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Supplier, error)
}

type supplierRepo struct {
	db DB
}

func NewSupplierRepository(db DB) SupplierRepository {
	return &supplierRepo{db: db}
}

func (r *supplierRepo) Create(ctx context.Context, supplier *models.Supplier) error {
	query := `
		INSERT INTO suppliers (id, tenant_id, name, contact_email, contact_phone, address, lead_time_days, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, supplier.ID, supplier.TenantID, supplier.Name, supplier.ContactEmail, supplier.ContactPhone, supplier.Address, supplier.LeadTimeDays, supplier.IsActive)
	return err
}

func (r *supplierRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	query := `
		SELECT id, tenant_id, name, contact_email, contact_phone, address, lead_time_days, is_active, created_at, updated_at
		FROM suppliers
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&supplier.ID, &supplier.TenantID, &supplier.Name, &supplier.ContactEmail, &supplier.ContactPhone, &supplier.Address, &supplier.LeadTimeDays, &supplier.IsActive, &supplier.CreatedAt, &supplier.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (r *supplierRepo) Update(ctx context.Context, supplier *models.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $1, contact_email = $2, contact_phone = $3, address = $4, lead_time_days = $5, is_active = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	_, err := r.db.Exec(ctx, query, supplier.Name, supplier.ContactEmail, supplier.ContactPhone, supplier.Address, supplier.LeadTimeDays, supplier.IsActive, supplier.TenantID, supplier.ID)
	return err
}

func (r *supplierRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM suppliers WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *supplierRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Supplier, error) {
	query := `
		SELECT id, tenant_id, name, contact_email, contact_phone, address, lead_time_days, is_active, created_at, updated_at
		FROM suppliers
		WHERE tenant_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []*models.Supplier
	for rows.Next() {
		supplier := &models.Supplier{}
		if err := rows.Scan(&supplier.ID, &supplier.TenantID, &supplier.Name, &supplier.ContactEmail, &supplier.ContactPhone, &supplier.Address, &supplier.LeadTimeDays, &supplier.IsActive, &supplier.CreatedAt, &supplier.UpdatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, rows.Err()
}

// GetByIDs loads a batch of suppliers keyed by id. Missing ids are simply
// absent from the map.
func (r *supplierRepo) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Supplier, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*models.Supplier{}, nil
	}
	query := `
		SELECT id, tenant_id, name, contact_email, contact_phone, address, lead_time_days, is_active, created_at, updated_at
		FROM suppliers
		WHERE tenant_id = $1 AND id = ANY($2)
	`
	rows, err := r.db.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make(map[uuid.UUID]*models.Supplier, len(ids))
	for rows.Next() {
		supplier := &models.Supplier{}
		if err := rows.Scan(&supplier.ID, &supplier.TenantID, &supplier.Name, &supplier.ContactEmail, &supplier.ContactPhone, &supplier.Address, &supplier.LeadTimeDays, &supplier.IsActive, &supplier.CreatedAt, &supplier.UpdatedAt); err != nil {
			return nil, err
		}
		suppliers[supplier.ID] = supplier
	}
	return suppliers, rows.Err()
}
