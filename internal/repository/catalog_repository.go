package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wms-service/internal/models"
)

// CatalogRepositoryInterface defines product and variant persistence
type CatalogRepositoryInterface interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error)
	GetProductByBaseSKU(ctx context.Context, tenantID, baseSKU string) (*models.Product, error)
	ListProducts(ctx context.Context, tenantID string, search string, limit, offset int) ([]models.Product, int64, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, tenantID string, id uuid.UUID) error

	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	GetVariantByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error)
	GetVariantBySKU(ctx context.Context, tenantID, sku string) (*models.ProductVariant, error)
	GetVariantByBarcode(ctx context.Context, tenantID, barcode string) (*models.ProductVariant, error)
	ListVariantsByProduct(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ProductVariant, error)
	UpdateVariant(ctx context.Context, variant *models.ProductVariant) error
	DeleteVariant(ctx context.Context, tenantID string, id uuid.UUID) error
	SearchSKUs(ctx context.Context, tenantID, query string, limit int) ([]models.ProductVariant, error)
}

// CatalogRepository handles database operations for products and variants
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// --- Product Methods ---

// CreateProduct creates a new product with its variants
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetProductByID retrieves a product with its variants
func (r *CatalogRepository) GetProductByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("hierarchy_level ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// GetProductByBaseSKU retrieves a product by its base SKU
func (r *CatalogRepository) GetProductByBaseSKU(ctx context.Context, tenantID, baseSKU string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("tenant_id = ? AND base_sku = ?", tenantID, baseSKU).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// ListProducts retrieves products with optional name/SKU search
func (r *CatalogRepository) ListProducts(ctx context.Context, tenantID string, search string, limit, offset int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ?", tenantID)

	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR base_sku ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Variants").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error

	return products, total, err
}

// UpdateProduct updates a product
func (r *CatalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// DeleteProduct soft-deletes a product
func (r *CatalogRepository) DeleteProduct(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Variant Methods ---

// CreateVariant creates a new variant
func (r *CatalogRepository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

// GetVariantByID retrieves a variant by ID
func (r *CatalogRepository) GetVariantByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// GetVariantBySKU retrieves a variant by its full SKU
func (r *CatalogRepository) GetVariantBySKU(ctx context.Context, tenantID, sku string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ?", tenantID, sku).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// GetVariantByBarcode retrieves a variant by scanned barcode
func (r *CatalogRepository) GetVariantByBarcode(ctx context.Context, tenantID, barcode string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND barcode = ?", tenantID, barcode).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// ListVariantsByProduct retrieves all variants of a product ordered by level
func (r *CatalogRepository) ListVariantsByProduct(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("hierarchy_level ASC").
		Find(&variants).Error
	return variants, err
}

// UpdateVariant updates a variant
func (r *CatalogRepository) UpdateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

// DeleteVariant soft-deletes a variant
func (r *CatalogRepository) DeleteVariant(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.ProductVariant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchSKUs retrieves variants whose SKU or barcode matches a prefix,
// used by scan and autocomplete endpoints.
func (r *CatalogRepository) SearchSKUs(ctx context.Context, tenantID, query string, limit int) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	like := query + "%"
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND (sku ILIKE ? OR barcode ILIKE ?)", tenantID, like, like).
		Order("sku ASC").
		Limit(limit).
		Find(&variants).Error
	return variants, err
}
