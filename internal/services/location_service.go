package services

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// LocationService handles warehouse and bin location business logic
type LocationService struct {
	repo   repository.LocationRepositoryInterface
	ledger repository.LedgerRepositoryInterface
	logger *logrus.Logger
}

// NewLocationService creates a new LocationService
func NewLocationService(repo repository.LocationRepositoryInterface, ledger repository.LedgerRepositoryInterface, logger *logrus.Logger) *LocationService {
	return &LocationService{repo: repo, ledger: ledger, logger: logger}
}

// CreateWarehouse creates a warehouse; the first one becomes the default.
func (s *LocationService) CreateWarehouse(ctx context.Context, tenantID string, req models.CreateWarehouseRequest, createdBy *string) (*models.Warehouse, error) {
	warehouse := &models.Warehouse{
		TenantID:            tenantID,
		Code:                req.Code,
		Name:                req.Name,
		IsActive:            true,
		InventorySourceType: models.InventorySourceInternal,
		ExternalLocationID:  req.ExternalLocationID,
		ZoneSequence:        req.ZoneSequence,
		Metadata:            req.Metadata,
		CreatedBy:           createdBy,
	}
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}
	if req.InventorySourceType != nil {
		warehouse.InventorySourceType = *req.InventorySourceType
	}

	existing, err := s.repo.ListWarehouses(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		warehouse.IsDefault = true
	} else if req.IsDefault != nil && *req.IsDefault {
		if err := s.repo.ClearDefaultWarehouse(ctx, tenantID); err != nil {
			return nil, err
		}
		warehouse.IsDefault = true
	}

	if err := s.repo.CreateWarehouse(ctx, warehouse); err != nil {
		return nil, err
	}
	return warehouse, nil
}

// UpdateWarehouse applies a partial update, keeping at most one default.
func (s *LocationService) UpdateWarehouse(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateWarehouseRequest, updatedBy *string) (*models.Warehouse, error) {
	warehouse, err := s.GetWarehouse(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		warehouse.Name = *req.Name
	}
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}
	if req.ExternalLocationID != nil {
		warehouse.ExternalLocationID = req.ExternalLocationID
	}
	if req.InventorySourceType != nil {
		warehouse.InventorySourceType = *req.InventorySourceType
	}
	if req.ZoneSequence != nil {
		warehouse.ZoneSequence = req.ZoneSequence
	}
	if req.Metadata != nil {
		warehouse.Metadata = req.Metadata
	}
	if req.IsDefault != nil && *req.IsDefault && !warehouse.IsDefault {
		if err := s.repo.ClearDefaultWarehouse(ctx, tenantID); err != nil {
			return nil, err
		}
		warehouse.IsDefault = true
	}
	warehouse.UpdatedBy = updatedBy
	if err := s.repo.UpdateWarehouse(ctx, warehouse); err != nil {
		return nil, err
	}
	return warehouse, nil
}

// GetWarehouse retrieves one warehouse.
func (s *LocationService) GetWarehouse(ctx context.Context, tenantID string, id uuid.UUID) (*models.Warehouse, error) {
	warehouse, err := s.repo.GetWarehouseByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("WAREHOUSE_NOT_FOUND", "warehouse not found")
	}
	return warehouse, err
}

// ListWarehouses lists all warehouses of the tenant.
func (s *LocationService) ListWarehouses(ctx context.Context, tenantID string) ([]models.Warehouse, error) {
	return s.repo.ListWarehouses(ctx, tenantID)
}

// DefaultWarehouse resolves the tenant's default warehouse.
func (s *LocationService) DefaultWarehouse(ctx context.Context, tenantID string) (*models.Warehouse, error) {
	warehouse, err := s.repo.GetDefaultWarehouse(ctx, tenantID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("NO_DEFAULT_WAREHOUSE", "no default warehouse configured")
	}
	return warehouse, err
}

// CreateLocation creates a bin inside a warehouse.
func (s *LocationService) CreateLocation(ctx context.Context, tenantID string, req models.CreateLocationRequest) (*models.Location, error) {
	if !req.LocationType.Valid() {
		return nil, apperrors.Validation("INVALID_LOCATION_TYPE", "unknown location type")
	}
	if _, err := s.GetWarehouse(ctx, tenantID, req.WarehouseID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetLocationByCode(ctx, tenantID, req.WarehouseID, req.Code); err == nil {
		return nil, apperrors.Conflict("DUPLICATE_LOCATION_CODE", "a location with this code already exists in the warehouse")
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	location := &models.Location{
		TenantID:     tenantID,
		WarehouseID:  req.WarehouseID,
		Code:         req.Code,
		LocationType: req.LocationType,
		IsPickable:   true,
	}
	if req.IsPickable != nil {
		location.IsPickable = *req.IsPickable
	}
	if err := s.repo.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// GetLocation retrieves one bin.
func (s *LocationService) GetLocation(ctx context.Context, tenantID string, id uuid.UUID) (*models.Location, error) {
	location, err := s.repo.GetLocationByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("LOCATION_NOT_FOUND", "location not found")
	}
	return location, err
}

// ListLocations lists bins of a warehouse with an optional type filter.
func (s *LocationService) ListLocations(ctx context.Context, tenantID string, warehouseID uuid.UUID, locType *models.LocationType, limit, offset int) ([]models.Location, int64, error) {
	return s.repo.ListLocations(ctx, tenantID, warehouseID, locType, limit, offset)
}

// DeleteLocation removes a bin unless it still carries inventory.
func (s *LocationService) DeleteLocation(ctx context.Context, tenantID string, id uuid.UUID) error {
	balances, _, err := s.ledger.ListBalancesByLocation(ctx, tenantID, id, 1, 0)
	if err != nil {
		return err
	}
	if len(balances) > 0 {
		return apperrors.Conflict("LOCATION_IN_USE", "location still carries inventory")
	}
	err = s.repo.DeleteLocation(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("LOCATION_NOT_FOUND", "location not found")
	}
	return err
}

// ========== Bulk warehouse import ==========

// warehouseImportHeader is the column order of the warehouse CSV template.
var warehouseImportHeader = []string{"code", "name", "is_default", "zone_sequence"}

// ImportTemplate returns the CSV header row for bulk warehouse import.
func (s *LocationService) ImportTemplate() string {
	return strings.Join(warehouseImportHeader, ",") + "\n"
}

// ImportWarehousesCSV bulk-creates warehouses. Bad rows produce warnings;
// good rows still land.
func (s *LocationService) ImportWarehousesCSV(ctx context.Context, tenantID string, r io.Reader, createdBy *string) (*models.WarehouseImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Validation("INVALID_CSV", "could not read CSV header")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"code", "name"} {
		if _, ok := col[required]; !ok {
			return nil, apperrors.Validation("INVALID_CSV", "CSV is missing the "+required+" column")
		}
	}
	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	result := &models.WarehouseImportResult{Success: true}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.Warnings = append(result.Warnings, models.WarehouseImportWarning{Row: row, Message: err.Error()})
			continue
		}
		result.TotalRows++

		code := field(record, "code")
		name := field(record, "name")
		if code == "" || name == "" {
			result.Warnings = append(result.Warnings, models.WarehouseImportWarning{Row: row, Code: code, Message: "code and name are required"})
			continue
		}
		req := models.CreateWarehouseRequest{Code: code, Name: name}
		if v := field(record, "is_default"); v != "" {
			isDefault := strings.EqualFold(v, "true")
			req.IsDefault = &isDefault
		}
		if v := field(record, "zone_sequence"); v != "" {
			req.ZoneSequence = &v
		}
		if _, err := s.CreateWarehouse(ctx, tenantID, req, createdBy); err != nil {
			result.Warnings = append(result.Warnings, models.WarehouseImportWarning{Row: row, Code: code, Message: apperrors.MessageOf(err)})
			continue
		}
		result.CreatedCount++
	}
	result.Success = len(result.Warnings) == 0
	return result, nil
}
