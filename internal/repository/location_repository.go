package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wms-service/internal/models"
)

// LocationRepositoryInterface defines warehouse and location persistence
type LocationRepositoryInterface interface {
	CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error
	GetWarehouseByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Warehouse, error)
	GetDefaultWarehouse(ctx context.Context, tenantID string) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context, tenantID string) ([]models.Warehouse, error)
	UpdateWarehouse(ctx context.Context, warehouse *models.Warehouse) error
	ClearDefaultWarehouse(ctx context.Context, tenantID string) error

	CreateLocation(ctx context.Context, location *models.Location) error
	GetLocationByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Location, error)
	GetLocationByCode(ctx context.Context, tenantID string, warehouseID uuid.UUID, code string) (*models.Location, error)
	ListLocations(ctx context.Context, tenantID string, warehouseID uuid.UUID, locType *models.LocationType, limit, offset int) ([]models.Location, int64, error)
	UpdateLocation(ctx context.Context, location *models.Location) error
	DeleteLocation(ctx context.Context, tenantID string, id uuid.UUID) error
}

// LocationRepository handles database operations for warehouses and locations
type LocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// --- Warehouse Methods ---

func (r *LocationRepository) CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *LocationRepository) GetWarehouseByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&warehouse).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &warehouse, nil
}

// GetDefaultWarehouse retrieves the tenant's default warehouse
func (r *LocationRepository) GetDefaultWarehouse(ctx context.Context, tenantID string) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_default = true", tenantID).
		First(&warehouse).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &warehouse, nil
}

func (r *LocationRepository) ListWarehouses(ctx context.Context, tenantID string) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("code ASC").
		Find(&warehouses).Error
	return warehouses, err
}

func (r *LocationRepository) UpdateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	return r.db.WithContext(ctx).Save(warehouse).Error
}

// ClearDefaultWarehouse unsets the default flag so a new default can be set
func (r *LocationRepository) ClearDefaultWarehouse(ctx context.Context, tenantID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Warehouse{}).
		Where("tenant_id = ? AND is_default = true", tenantID).
		Update("is_default", false).Error
}

// --- Location Methods ---

func (r *LocationRepository) CreateLocation(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *LocationRepository) GetLocationByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &location, nil
}

func (r *LocationRepository) GetLocationByCode(ctx context.Context, tenantID string, warehouseID uuid.UUID, code string) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND code = ?", tenantID, warehouseID, code).
		First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &location, nil
}

func (r *LocationRepository) ListLocations(ctx context.Context, tenantID string, warehouseID uuid.UUID, locType *models.LocationType, limit, offset int) ([]models.Location, int64, error) {
	var locations []models.Location
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Location{}).
		Where("tenant_id = ? AND warehouse_id = ?", tenantID, warehouseID)

	if locType != nil {
		query = query.Where("location_type = ?", *locType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("code ASC").
		Limit(limit).
		Offset(offset).
		Find(&locations).Error

	return locations, total, err
}

func (r *LocationRepository) UpdateLocation(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Save(location).Error
}

func (r *LocationRepository) DeleteLocation(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Location{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
