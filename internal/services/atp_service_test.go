package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wms-service/internal/models"
)

// atpFixture wires a real ledger over the in-memory repository so the
// projection is computed from actual balance cells.
type atpFixture struct {
	repo      *fakeLedgerRepo
	catalog   *MockCatalogRepository
	locations *MockLocationRepository
	ledger    *LedgerService
	atp       *ATPService

	productID uuid.UUID
	piece     *models.ProductVariant
	caseOf12  *models.ProductVariant
	warehouse *models.Warehouse
	pickLoc   uuid.UUID
}

func newATPFixture() *atpFixture {
	f := &atpFixture{
		repo:      newFakeLedgerRepo(),
		catalog:   new(MockCatalogRepository),
		locations: new(MockLocationRepository),
		productID: uuid.New(),
		pickLoc:   uuid.New(),
	}
	f.piece = &models.ProductVariant{
		ID: uuid.New(), TenantID: testTenant, ProductID: f.productID,
		SKU: "WIDGET", UnitsPerVariant: 1, HierarchyLevel: models.HierarchyEach,
	}
	f.caseOf12 = &models.ProductVariant{
		ID: uuid.New(), TenantID: testTenant, ProductID: f.productID,
		SKU: "WIDGET-C12", UnitsPerVariant: 12, HierarchyLevel: models.HierarchyCase,
	}
	f.warehouse = &models.Warehouse{
		ID: uuid.New(), TenantID: testTenant, Code: "MAIN",
		InventorySourceType: models.InventorySourceInternal,
	}
	f.repo.addLocation(f.pickLoc, f.warehouse.ID, true)
	f.repo.addVariant(f.piece.ID, f.productID, 1)
	f.repo.addVariant(f.caseOf12.ID, f.productID, 12)

	f.ledger = newTestLedger(f.repo, f.catalog)
	f.atp = NewATPService(f.repo, f.catalog, f.locations)

	ctx := context.Background()
	f.locations.On("GetWarehouseByID", ctx, testTenant, f.warehouse.ID).Return(f.warehouse, nil)
	f.catalog.On("ListVariantsByProduct", ctx, testTenant, f.productID).
		Return([]models.ProductVariant{*f.piece, *f.caseOf12}, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, f.piece.ID).Return(f.piece, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, f.caseOf12.ID).Return(f.caseOf12, nil)
	return f
}

func (f *atpFixture) figureBySKU(t *testing.T, sku string) models.ATPFigure {
	t.Helper()
	figures, err := f.atp.ProductATP(context.Background(), testTenant, f.productID, f.warehouse.ID)
	require.NoError(t, err)
	for _, fig := range figures {
		if fig.SKU == sku {
			return fig
		}
	}
	t.Fatalf("no figure for %s", sku)
	return models.ATPFigure{}
}

func TestProductATP_FungibleAcrossUOMSiblings(t *testing.T) {
	ctx := context.Background()
	f := newATPFixture()

	// 24 pieces arrive at the pick face.
	require.NoError(t, f.ledger.Receive(ctx, testTenant, models.ReceiveRequest{
		VariantID:    f.piece.ID,
		ToLocationID: f.pickLoc,
		Quantity:     24,
	}, models.TxnRefs{}))

	// One shared 24-unit pool serves both variants.
	assert.Equal(t, int64(24), f.figureBySKU(t, "WIDGET").ATPUnits)
	caseFigure := f.figureBySKU(t, "WIDGET-C12")
	assert.Equal(t, int64(2), caseFigure.ATPUnits)
	assert.Equal(t, int64(24), caseFigure.ATPBase)
}

func TestProductATP_ReservationLeavesPromisableUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newATPFixture()

	require.NoError(t, f.ledger.Receive(ctx, testTenant, models.ReceiveRequest{
		VariantID:    f.piece.ID,
		ToLocationID: f.pickLoc,
		Quantity:     24,
	}, models.TxnRefs{}))

	// Reserving moves units on_hand -> committed; the stock is still in the
	// building and still promisable, so the figures do not move.
	require.NoError(t, f.ledger.Reserve(ctx, testTenant, f.piece.ID, f.warehouse.ID, 12, models.TxnRefs{}))
	assert.Equal(t, int64(24), f.figureBySKU(t, "WIDGET").ATPUnits)
	assert.Equal(t, int64(2), f.figureBySKU(t, "WIDGET-C12").ATPUnits)

	// Picking pulls the committed units out of the pool.
	require.NoError(t, f.ledger.MoveState(ctx, testTenant, f.piece.ID, f.pickLoc, 12,
		models.BalanceStateCommitted, models.BalanceStatePicked, models.TransactionTypePick, models.TxnRefs{}))
	assert.Equal(t, int64(12), f.figureBySKU(t, "WIDGET").ATPUnits)
	assert.Equal(t, int64(1), f.figureBySKU(t, "WIDGET-C12").ATPUnits)
}

func TestProductATP_ExternalWarehouseMirrorsExternalCell(t *testing.T) {
	ctx := context.Background()
	f := newATPFixture()

	external := &models.Warehouse{
		ID: uuid.New(), TenantID: testTenant, Code: "3PL",
		InventorySourceType: models.InventorySourceExternal,
	}
	extLoc := uuid.New()
	f.repo.addLocation(extLoc, external.ID, false)
	f.repo.seed(testTenant, f.piece.ID, extLoc, models.BalanceStateExternal, 36)
	f.locations.On("GetWarehouseByID", ctx, testTenant, external.ID).Return(external, nil)

	figures, err := f.atp.ProductATP(ctx, testTenant, f.productID, external.ID)
	require.NoError(t, err)
	for _, fig := range figures {
		if fig.SKU == "WIDGET" {
			assert.Equal(t, int64(36), fig.ATPUnits)
		}
		if fig.SKU == "WIDGET-C12" {
			assert.Equal(t, int64(3), fig.ATPUnits)
		}
	}
}
