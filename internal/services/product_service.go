package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"stockpilot/internal/caching"
	"stockpilot/internal/models"
	"stockpilot/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// productCacheTTL bounds how stale a cached product snapshot can get.
const productCacheTTL = 15 * time.Minute

type ProductService interface {
	Create(ctx context.Context, tenantID uuid.UUID, product *models.Product) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, tenantID uuid.UUID, product *models.Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error)
	GetByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*models.Product, error)
	Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error)
	AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, change int, userID uuid.UUID) error

	UploadImage(ctx context.Context, tenantID, productID uuid.UUID, filename string, reader io.Reader, size int64, altText *string) (*models.ProductImage, error)
	ListImages(ctx context.Context, tenantID, productID uuid.UUID) ([]*models.ProductImage, error)
	ImageURL(ctx context.Context, tenantID, imageID uuid.UUID, expiry time.Duration) (string, error)
	DeleteImage(ctx context.Context, tenantID, imageID uuid.UUID) error
}

type productService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
	supplierRepo repositories.SupplierRepository
	imageRepo    repositories.ProductImageRepository
	minio        MinioService
	cache        caching.CacheService
	auditRepo    repositories.AuditLogRepository
	imageBucket  string
	log          *logrus.Logger
}

func NewProductService(productRepo repositories.ProductRepository, categoryRepo repositories.CategoryRepository, supplierRepo repositories.SupplierRepository, imageRepo repositories.ProductImageRepository, minio MinioService, cache caching.CacheService, auditRepo repositories.AuditLogRepository, imageBucket string, log *logrus.Logger) ProductService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
		imageRepo:    imageRepo,
		minio:        minio,
		cache:        cache,
		auditRepo:    auditRepo,
		imageBucket:  imageBucket,
		log:          log,
	}
}

func (s *productService) validate(product *models.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return errors.New("product name is required")
	}
	if strings.TrimSpace(product.SKU) == "" {
		return errors.New("product sku is required")
	}
	if product.CostPrice < 0 {
		return errors.New("cost price cannot be negative")
	}
	if product.SellingPrice < 0 {
		return errors.New("selling price cannot be negative")
	}
	if product.ReorderLevel < 0 {
		return errors.New("reorder level cannot be negative")
	}
	if product.MaxStock != nil && *product.MaxStock < product.ReorderLevel {
		return errors.New("max stock cannot be below the reorder level")
	}
	return nil
}

func (s *productService) Create(ctx context.Context, tenantID uuid.UUID, product *models.Product) error {
	if err := s.validate(product); err != nil {
		return err
	}
	if product.CurrentStock < 0 {
		return errors.New("initial stock cannot be negative")
	}

	// Check for barcode duplicates if barcode is provided
	if product.Barcode != nil && strings.TrimSpace(*product.Barcode) != "" {
		if _, err := s.productRepo.GetByBarcode(ctx, tenantID, *product.Barcode); err == nil {
			return fmt.Errorf("barcode %s already exists for another product", *product.Barcode)
		}
	}

	if product.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, tenantID, *product.CategoryID); err != nil {
			return fmt.Errorf("category not found: %w", err)
		}
	}
	if product.SupplierID != nil {
		if _, err := s.supplierRepo.GetByID(ctx, tenantID, *product.SupplierID); err != nil {
			return fmt.Errorf("supplier not found: %w", err)
		}
	}

	product.ID = uuid.New()
	product.TenantID = tenantID
	if product.Currency == "" {
		product.Currency = "USD"
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return err
	}

	// A new product can surface in suggestion queries immediately.
	if err := s.cache.InvalidateSuggestions(ctx, tenantID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate suggestion cache after product create")
	}
	return nil
}

func (s *productService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	if cached, err := s.cache.GetProduct(ctx, tenantID, id); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.log.WithError(err).WithField("product_id", id).Debug("product cache read failed")
	}

	product, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetProduct(ctx, tenantID, product, productCacheTTL); err != nil {
		s.log.WithError(err).WithField("product_id", id).Warn("failed to cache product")
	}
	return product, nil
}

// Update rewrites the catalog fields of an existing product. Stock is never
// changed here; stock movements go through AdjustStock, sales or order
// receipt so every movement leaves a traceable path.
func (s *productService) Update(ctx context.Context, tenantID uuid.UUID, product *models.Product) error {
	if err := s.validate(product); err != nil {
		return err
	}

	existing, err := s.productRepo.GetByID(ctx, tenantID, product.ID)
	if err != nil {
		return err
	}

	product.TenantID = tenantID
	product.CurrentStock = existing.CurrentStock
	if product.Currency == "" {
		product.Currency = existing.Currency
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return err
	}

	s.invalidateProduct(ctx, tenantID, product.ID)
	return nil
}

func (s *productService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.productRepo.GetByID(ctx, tenantID, id); err != nil {
		return err
	}

	// Remove stored images first; object removal is best effort, the
	// database rows are authoritative.
	images, err := s.imageRepo.GetByProductID(ctx, tenantID, id)
	if err == nil {
		for _, image := range images {
			if err := s.minio.DeleteImage(ctx, s.imageBucket, image.ObjectKey); err != nil {
				s.log.WithError(err).WithField("object_key", image.ObjectKey).Warn("failed to remove product image object")
			}
		}
		if err := s.imageRepo.DeleteAllByProductID(ctx, tenantID, id); err != nil {
			return fmt.Errorf("failed to delete product images: %w", err)
		}
	}

	if err := s.productRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	s.invalidateProduct(ctx, tenantID, id)
	return nil
}

func (s *productService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.productRepo.List(ctx, tenantID, limit, offset)
}

func (s *productService) GetByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, errors.New("barcode is required")
	}
	return s.productRepo.GetByBarcode(ctx, tenantID, barcode)
}

func (s *productService) Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error) {
	if filter == nil {
		filter = &models.ProductSearchFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.productRepo.AdvancedSearch(ctx, tenantID, filter)
}

// AdjustStock applies a manual stock correction. Negative resulting stock is
// allowed and logged, matching how sales are recorded; the adjustment is
// written to the audit trail.
func (s *productService) AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, change int, userID uuid.UUID) error {
	if change == 0 {
		return errors.New("stock change cannot be zero")
	}

	if err := s.productRepo.AdjustStock(ctx, tenantID, productID, change); err != nil {
		return err
	}

	s.invalidateProduct(ctx, tenantID, productID)

	if product, err := s.productRepo.GetByID(ctx, tenantID, productID); err == nil && product.CurrentStock < 0 {
		s.log.WithFields(logrus.Fields{
			"tenant_id":     tenantID,
			"product_id":    productID,
			"current_stock": product.CurrentStock,
		}).Warn("stock is negative after adjustment")
	}

	entry := &models.AuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Action:     models.AuditActionStockAdjusted,
		EntityType: "product",
		Detail:     fmt.Sprintf("stock adjusted by %d", change),
	}
	entityID := productID
	entry.EntityID = &entityID
	if userID != uuid.Nil {
		actorID := userID
		entry.ActorID = &actorID
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.log.WithError(err).Warn("failed to write audit entry for stock adjustment")
	}
	return nil
}

func (s *productService) UploadImage(ctx context.Context, tenantID, productID uuid.UUID, filename string, reader io.Reader, size int64, altText *string) (*models.ProductImage, error) {
	if _, err := s.productRepo.GetByID(ctx, tenantID, productID); err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}

	// Tenant-isolated object key; the original filename only contributes
	// its extension so uploads cannot collide or traverse.
	ext := strings.ToLower(filepath.Ext(filename))
	objectKey := fmt.Sprintf("%s/%s/%s%s", tenantID.String(), productID.String(), uuid.New().String(), ext)

	if err := s.minio.EnsureBucketExists(ctx, s.imageBucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	if err := s.minio.UploadImage(ctx, s.imageBucket, objectKey, reader, size); err != nil {
		return nil, fmt.Errorf("failed to upload image to storage: %w", err)
	}

	image := &models.ProductImage{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ProductID: productID,
		ObjectKey: objectKey,
		ImageURL:  fmt.Sprintf("%s/%s", s.imageBucket, objectKey),
		AltText:   altText,
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		// Remove the stored object so the bucket does not accumulate
		// orphans the database knows nothing about.
		if removeErr := s.minio.DeleteImage(ctx, s.imageBucket, objectKey); removeErr != nil {
			s.log.WithError(removeErr).WithField("object_key", objectKey).Warn("failed to remove orphaned image object")
		}
		return nil, err
	}
	return image, nil
}

func (s *productService) ListImages(ctx context.Context, tenantID, productID uuid.UUID) ([]*models.ProductImage, error) {
	return s.imageRepo.GetByProductID(ctx, tenantID, productID)
}

func (s *productService) ImageURL(ctx context.Context, tenantID, imageID uuid.UUID, expiry time.Duration) (string, error) {
	image, err := s.imageRepo.GetByID(ctx, tenantID, imageID)
	if err != nil {
		return "", fmt.Errorf("image not found: %w", err)
	}

	url, err := s.minio.GetPresignedURL(s.imageBucket, image.ObjectKey, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

func (s *productService) DeleteImage(ctx context.Context, tenantID, imageID uuid.UUID) error {
	image, err := s.imageRepo.GetByID(ctx, tenantID, imageID)
	if err != nil {
		return fmt.Errorf("image not found: %w", err)
	}

	if err := s.minio.DeleteImage(ctx, s.imageBucket, image.ObjectKey); err != nil {
		s.log.WithError(err).WithField("object_key", image.ObjectKey).Warn("failed to remove image object, deleting metadata anyway")
	}
	return s.imageRepo.Delete(ctx, tenantID, imageID)
}

// invalidateProduct drops every cache entry a product write can stale:
// the product snapshot, memoized suggestions and the dashboard counters.
func (s *productService) invalidateProduct(ctx context.Context, tenantID, productID uuid.UUID) {
	if err := s.cache.DeleteProduct(ctx, tenantID, productID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate product cache")
	}
	if err := s.cache.InvalidateSuggestions(ctx, tenantID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate suggestion cache")
	}
	if err := s.cache.DeleteDashboard(ctx, tenantID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate dashboard cache")
	}
}
