package services

import (
	"context"

	"github.com/google/uuid"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// ATPService projects available-to-promise figures out of the ledger.
// Variants of one product draw on a shared pool of base units: a Case of 12
// is promisable as 12 Pieces and vice versa.
type ATPService struct {
	ledger    repository.LedgerRepositoryInterface
	catalog   repository.CatalogRepositoryInterface
	locations repository.LocationRepositoryInterface
}

// NewATPService creates a new ATPService
func NewATPService(ledger repository.LedgerRepositoryInterface, catalog repository.CatalogRepositoryInterface, locations repository.LocationRepositoryInterface) *ATPService {
	return &ATPService{
		ledger:    ledger,
		catalog:   catalog,
		locations: locations,
	}
}

// ProductATP computes per-variant availability for one product at one
// warehouse. Internal warehouses promise on_hand in pickable bins plus
// committed-but-unfulfilled units (reservations move stock out of on_hand,
// so adding committed back reconstructs the sellable pool); external
// warehouses mirror the external cell as-is.
func (s *ATPService) ProductATP(ctx context.Context, tenantID string, productID, warehouseID uuid.UUID) ([]models.ATPFigure, error) {
	warehouse, err := s.locations.GetWarehouseByID(ctx, tenantID, warehouseID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("WAREHOUSE_NOT_FOUND", "warehouse not found")
		}
		return nil, err
	}

	variants, err := s.catalog.ListVariantsByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, apperrors.NotFound("PRODUCT_NOT_FOUND", "product has no variants")
	}

	pool, err := s.basePool(ctx, tenantID, productID, warehouse)
	if err != nil {
		return nil, err
	}

	figures := make([]models.ATPFigure, 0, len(variants))
	for _, v := range variants {
		units := int64(0)
		if pool > 0 && v.UnitsPerVariant > 0 {
			units = pool / v.UnitsPerVariant
		}
		figures = append(figures, models.ATPFigure{
			VariantID:       v.ID,
			SKU:             v.SKU,
			WarehouseID:     warehouseID,
			UnitsPerVariant: v.UnitsPerVariant,
			ATPBase:         pool,
			ATPUnits:        units,
		})
	}
	return figures, nil
}

// VariantATP computes availability for one variant at one warehouse.
func (s *ATPService) VariantATP(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID) (*models.ATPFigure, error) {
	variant, err := s.catalog.GetVariantByID(ctx, tenantID, variantID)
	if err != nil {
		return nil, variantLookupError(variantID, err)
	}
	figures, err := s.ProductATP(ctx, tenantID, variant.ProductID, warehouseID)
	if err != nil {
		return nil, err
	}
	for i := range figures {
		if figures[i].VariantID == variantID {
			return &figures[i], nil
		}
	}
	return nil, apperrors.NotFound("VARIANT_NOT_FOUND", "variant not found")
}

func (s *ATPService) basePool(ctx context.Context, tenantID string, productID uuid.UUID, warehouse *models.Warehouse) (int64, error) {
	if warehouse.InventorySourceType == models.InventorySourceExternal {
		return s.ledger.SumProductBaseUnits(ctx, tenantID, productID, warehouse.ID, models.BalanceStateExternal, false)
	}

	onHand, err := s.ledger.SumProductBaseUnits(ctx, tenantID, productID, warehouse.ID, models.BalanceStateOnHand, true)
	if err != nil {
		return 0, err
	}
	committed, err := s.ledger.SumProductBaseUnits(ctx, tenantID, productID, warehouse.ID, models.BalanceStateCommitted, false)
	if err != nil {
		return 0, err
	}
	return onHand + committed, nil
}
