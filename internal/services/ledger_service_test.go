package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// MockCatalogRepository is a mock implementation of CatalogRepositoryInterface
type MockCatalogRepository struct {
	mock.Mock
}

// Ensure MockCatalogRepository implements the interface
var _ repository.CatalogRepositoryInterface = (*MockCatalogRepository)(nil)

func (m *MockCatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogRepository) GetProductByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogRepository) GetProductByBaseSKU(ctx context.Context, tenantID, baseSKU string) (*models.Product, error) {
	args := m.Called(ctx, tenantID, baseSKU)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogRepository) ListProducts(ctx context.Context, tenantID string, search string, limit, offset int) ([]models.Product, int64, error) {
	args := m.Called(ctx, tenantID, search, limit, offset)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockCatalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogRepository) DeleteProduct(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCatalogRepository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	args := m.Called(ctx, variant)
	return args.Error(0)
}

func (m *MockCatalogRepository) GetVariantByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *MockCatalogRepository) GetVariantBySKU(ctx context.Context, tenantID, sku string) (*models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *MockCatalogRepository) GetVariantByBarcode(ctx context.Context, tenantID, barcode string) (*models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *MockCatalogRepository) ListVariantsByProduct(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).([]models.ProductVariant), args.Error(1)
}

func (m *MockCatalogRepository) UpdateVariant(ctx context.Context, variant *models.ProductVariant) error {
	args := m.Called(ctx, variant)
	return args.Error(0)
}

func (m *MockCatalogRepository) DeleteVariant(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCatalogRepository) SearchSKUs(ctx context.Context, tenantID, query string, limit int) ([]models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, query, limit)
	return args.Get(0).([]models.ProductVariant), args.Error(1)
}

// fakeLedgerRepo is an in-memory LedgerRepositoryInterface. Balance cells live
// in a map; LockBalance hands out copies and SaveBalance writes them back, so
// an aborted operation leaves the map untouched, like a rolled-back
// transaction would.
type fakeLedgerRepo struct {
	balances  map[string]models.InventoryBalance
	cellOrder []string
	txns      []models.InventoryTransaction

	// location metadata for warehouse-scoped queries
	locWarehouse map[uuid.UUID]uuid.UUID
	locPickable  map[uuid.UUID]bool

	// variant metadata for product-level sums
	variantProduct map[uuid.UUID]uuid.UUID
	variantUnits   map[uuid.UUID]int64

	// canned per-variant totals for pick-face queries
	pickUnits map[uuid.UUID]int64

	seq int
}

var _ repository.LedgerRepositoryInterface = (*fakeLedgerRepo)(nil)

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		balances:       make(map[string]models.InventoryBalance),
		locWarehouse:   make(map[uuid.UUID]uuid.UUID),
		locPickable:    make(map[uuid.UUID]bool),
		variantProduct: make(map[uuid.UUID]uuid.UUID),
		variantUnits:   make(map[uuid.UUID]int64),
		pickUnits:      make(map[uuid.UUID]int64),
	}
}

func cellKey(tenantID string, variantID, locationID uuid.UUID, state models.BalanceState) string {
	return strings.Join([]string{tenantID, variantID.String(), locationID.String(), string(state)}, "|")
}

func (f *fakeLedgerRepo) addLocation(locationID, warehouseID uuid.UUID, pickable bool) {
	f.locWarehouse[locationID] = warehouseID
	f.locPickable[locationID] = pickable
}

func (f *fakeLedgerRepo) addVariant(variantID, productID uuid.UUID, units int64) {
	f.variantProduct[variantID] = productID
	f.variantUnits[variantID] = units
}

func (f *fakeLedgerRepo) seed(tenantID string, variantID, locationID uuid.UUID, state models.BalanceState, qty int64) {
	key := cellKey(tenantID, variantID, locationID, state)
	if _, ok := f.balances[key]; !ok {
		f.cellOrder = append(f.cellOrder, key)
	}
	f.balances[key] = models.InventoryBalance{
		ID:         uuid.New(),
		TenantID:   tenantID,
		VariantID:  variantID,
		LocationID: locationID,
		State:      state,
		Quantity:   qty,
	}
}

func (f *fakeLedgerRepo) quantity(tenantID string, variantID, locationID uuid.UUID, state models.BalanceState) int64 {
	return f.balances[cellKey(tenantID, variantID, locationID, state)].Quantity
}

func (f *fakeLedgerRepo) WithTransaction(ctx context.Context, fn repository.TxFn) error {
	return fn(nil)
}

func (f *fakeLedgerRepo) LockBalance(tx *gorm.DB, tenantID string, variantID, locationID uuid.UUID, state models.BalanceState) (*models.InventoryBalance, error) {
	key := cellKey(tenantID, variantID, locationID, state)
	balance, ok := f.balances[key]
	if !ok {
		balance = models.InventoryBalance{
			ID:         uuid.New(),
			TenantID:   tenantID,
			VariantID:  variantID,
			LocationID: locationID,
			State:      state,
		}
		f.balances[key] = balance
		f.cellOrder = append(f.cellOrder, key)
	}
	copied := balance
	return &copied, nil
}

func (f *fakeLedgerRepo) SaveBalance(tx *gorm.DB, balance *models.InventoryBalance) error {
	f.balances[cellKey(balance.TenantID, balance.VariantID, balance.LocationID, balance.State)] = *balance
	return nil
}

func (f *fakeLedgerRepo) AppendTransaction(tx *gorm.DB, txn *models.InventoryTransaction) error {
	f.seq++
	stored := *txn
	stored.ID = uuid.New()
	stored.CreatedAt = time.Unix(0, int64(f.seq)*int64(time.Millisecond))
	f.txns = append(f.txns, stored)
	return nil
}

func (f *fakeLedgerRepo) LastTransactionForCell(tx *gorm.DB, tenantID string, variantID, locationID uuid.UUID) (*models.InventoryTransaction, error) {
	for i := len(f.txns) - 1; i >= 0; i-- {
		t := f.txns[i]
		if t.TenantID != tenantID || t.VariantID != variantID {
			continue
		}
		if (t.FromLocationID != nil && *t.FromLocationID == locationID) ||
			(t.ToLocationID != nil && *t.ToLocationID == locationID) {
			copied := t
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLedgerRepo) ListCandidateCells(tx *gorm.DB, tenantID string, variantID, warehouseID uuid.UUID, state models.BalanceState) ([]models.InventoryBalance, error) {
	var cells []models.InventoryBalance
	for _, key := range f.cellOrder {
		b := f.balances[key]
		if b.TenantID != tenantID || b.VariantID != variantID || b.State != state || b.Quantity <= 0 {
			continue
		}
		if f.locWarehouse[b.LocationID] != warehouseID || !f.locPickable[b.LocationID] {
			continue
		}
		cells = append(cells, b)
	}
	return cells, nil
}

func (f *fakeLedgerRepo) GetBalance(ctx context.Context, tenantID string, variantID, locationID uuid.UUID, state models.BalanceState) (*models.InventoryBalance, error) {
	b, ok := f.balances[cellKey(tenantID, variantID, locationID, state)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := b
	return &copied, nil
}

func (f *fakeLedgerRepo) ListBalancesByVariant(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.InventoryBalance, error) {
	var out []models.InventoryBalance
	for _, key := range f.cellOrder {
		b := f.balances[key]
		if b.TenantID == tenantID && b.VariantID == variantID && b.Quantity > 0 {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListBalancesByLocation(ctx context.Context, tenantID string, locationID uuid.UUID, limit, offset int) ([]models.InventoryBalance, int64, error) {
	var out []models.InventoryBalance
	for _, key := range f.cellOrder {
		b := f.balances[key]
		if b.TenantID == tenantID && b.LocationID == locationID && b.Quantity > 0 {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedgerRepo) ListTransactions(ctx context.Context, tenantID string, filter repository.TransactionFilter, limit, offset int) ([]models.InventoryTransaction, int64, error) {
	var out []models.InventoryTransaction
	for _, t := range f.txns {
		if t.TenantID != tenantID {
			continue
		}
		if filter.VariantID != nil && t.VariantID != *filter.VariantID {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedgerRepo) ListTransactionsByBatch(ctx context.Context, tenantID string, batchID uuid.UUID) ([]models.InventoryTransaction, error) {
	var out []models.InventoryTransaction
	for _, t := range f.txns {
		if t.TenantID == tenantID && t.BatchID != nil && *t.BatchID == batchID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) SumProductBaseUnits(ctx context.Context, tenantID string, productID, warehouseID uuid.UUID, state models.BalanceState, pickableOnly bool) (int64, error) {
	var total int64
	for _, key := range f.cellOrder {
		b := f.balances[key]
		if b.TenantID != tenantID || b.State != state {
			continue
		}
		if f.variantProduct[b.VariantID] != productID {
			continue
		}
		if f.locWarehouse[b.LocationID] != warehouseID {
			continue
		}
		if pickableOnly && !f.locPickable[b.LocationID] {
			continue
		}
		total += b.Quantity * f.variantUnits[b.VariantID]
	}
	return total, nil
}

func (f *fakeLedgerRepo) SumVariantState(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, state models.BalanceState) (int64, error) {
	var total int64
	for _, b := range f.balances {
		if b.TenantID == tenantID && b.VariantID == variantID && b.State == state && f.locWarehouse[b.LocationID] == warehouseID {
			total += b.Quantity
		}
	}
	return total, nil
}

func (f *fakeLedgerRepo) SumPickLocationUnits(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, locType models.LocationType) (int64, error) {
	return f.pickUnits[variantID], nil
}

// recordingNotifier captures post-commit announcements.
type recordingNotifier struct {
	calls [][]uuid.UUID
}

func (r *recordingNotifier) InventoryChanged(tenantID string, variantIDs []uuid.UUID) {
	r.calls = append(r.calls, variantIDs)
}

// --- fixtures ---

const testTenant = "tenant-123"

func testVariant(units int64) *models.ProductVariant {
	return &models.ProductVariant{
		ID:              uuid.New(),
		TenantID:        testTenant,
		SKU:             "WIDGET-C12",
		Name:            "Widget Case",
		UnitsPerVariant: units,
	}
}

func newTestLedger(repo *fakeLedgerRepo, catalog *MockCatalogRepository) *LedgerService {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewLedgerService(repo, catalog, logger)
}

// ===========================================
// Receive / Adjust Tests
// ===========================================

func TestReceive_CreatesBalanceAndLedgerRow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(12)
	location := uuid.New()
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	err := service.Receive(ctx, testTenant, models.ReceiveRequest{
		VariantID:    variant.ID,
		ToLocationID: location,
		Quantity:     5,
	}, models.TxnRefs{})

	assert.NoError(t, err)
	assert.Equal(t, int64(5), repo.quantity(testTenant, variant.ID, location, models.BalanceStateOnHand))
	assert.Len(t, repo.txns, 1)
	assert.Equal(t, models.TransactionTypeReceipt, repo.txns[0].Type)
	assert.Equal(t, int64(5), repo.txns[0].VariantQtyDelta)
	assert.Equal(t, int64(60), repo.txns[0].BaseQtyDelta) // 5 cases x 12 each
	// Receipts enter from outside the building.
	assert.Equal(t, models.BalanceStateExternal, repo.txns[0].SourceState)
	assert.Equal(t, models.BalanceStateOnHand, repo.txns[0].TargetState)
	catalog.AssertExpectations(t)
}

func TestReceive_FiresNotifier(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)
	notifier := &recordingNotifier{}
	service.SetNotifier(notifier)

	variant := testVariant(1)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	err := service.Receive(ctx, testTenant, models.ReceiveRequest{
		VariantID:    variant.ID,
		ToLocationID: uuid.New(),
		Quantity:     1,
	}, models.TxnRefs{})

	assert.NoError(t, err)
	assert.Len(t, notifier.calls, 1)
	assert.Equal(t, []uuid.UUID{variant.ID}, notifier.calls[0])
}

func TestAdjust_RequiresReason(t *testing.T) {
	ctx := context.Background()
	service := newTestLedger(newFakeLedgerRepo(), new(MockCatalogRepository))

	err := service.Adjust(ctx, testTenant, models.AdjustRequest{
		VariantID:  uuid.New(),
		LocationID: uuid.New(),
		State:      models.BalanceStateOnHand,
		Delta:      -1,
	}, models.TxnRefs{})

	assert.Error(t, err)
	assert.Equal(t, "REASON_REQUIRED", apperrors.CodeOf(err))
}

func TestAdjust_NegativeBelowZeroRejected(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	location := uuid.New()
	repo.seed(testTenant, variant.ID, location, models.BalanceStateOnHand, 3)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	err := service.Adjust(ctx, testTenant, models.AdjustRequest{
		VariantID:  variant.ID,
		LocationID: location,
		State:      models.BalanceStateOnHand,
		Delta:      -5,
		Reason:     "damage",
	}, models.TxnRefs{})

	assert.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInsufficientStock))
	// Rejected adjustment leaves the balance untouched.
	assert.Equal(t, int64(3), repo.quantity(testTenant, variant.ID, location, models.BalanceStateOnHand))
	assert.Empty(t, repo.txns)
}

// ===========================================
// Transfer / Undo Tests
// ===========================================

func TestTransfer_MovesQuantityAtomically(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	from, to := uuid.New(), uuid.New()
	repo.seed(testTenant, variant.ID, from, models.BalanceStateOnHand, 10)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	resp, err := service.Transfer(ctx, testTenant, models.TransferRequest{
		VariantID:      variant.ID,
		FromLocationID: from,
		ToLocationID:   to,
		Quantity:       4,
	}, models.TxnRefs{})

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.UndoToken)
	assert.Equal(t, int64(6), repo.quantity(testTenant, variant.ID, from, models.BalanceStateOnHand))
	assert.Equal(t, int64(4), repo.quantity(testTenant, variant.ID, to, models.BalanceStateOnHand))
	// Both legs share the batch id.
	assert.Len(t, repo.txns, 2)
	assert.Equal(t, repo.txns[0].BatchID, repo.txns[1].BatchID)
}

func TestTransfer_SameLocationRejected(t *testing.T) {
	ctx := context.Background()
	service := newTestLedger(newFakeLedgerRepo(), new(MockCatalogRepository))

	loc := uuid.New()
	_, err := service.Transfer(ctx, testTenant, models.TransferRequest{
		VariantID:      uuid.New(),
		FromLocationID: loc,
		ToLocationID:   loc,
		Quantity:       1,
	}, models.TxnRefs{})

	assert.Error(t, err)
	assert.Equal(t, "SAME_LOCATION", apperrors.CodeOf(err))
}

func TestTransfer_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	from, to := uuid.New(), uuid.New()
	repo.seed(testTenant, variant.ID, from, models.BalanceStateOnHand, 2)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	_, err := service.Transfer(ctx, testTenant, models.TransferRequest{
		VariantID:      variant.ID,
		FromLocationID: from,
		ToLocationID:   to,
		Quantity:       3,
	}, models.TxnRefs{})

	assert.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInsufficientStock))
	assert.Equal(t, int64(2), repo.quantity(testTenant, variant.ID, from, models.BalanceStateOnHand))
	assert.Equal(t, int64(0), repo.quantity(testTenant, variant.ID, to, models.BalanceStateOnHand))
}

func TestUndoTransfer_RestoresBothCells(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	from, to := uuid.New(), uuid.New()
	repo.seed(testTenant, variant.ID, from, models.BalanceStateOnHand, 10)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	resp, err := service.Transfer(ctx, testTenant, models.TransferRequest{
		VariantID:      variant.ID,
		FromLocationID: from,
		ToLocationID:   to,
		Quantity:       4,
	}, models.TxnRefs{})
	assert.NoError(t, err)

	err = service.UndoTransfer(ctx, testTenant, resp.UndoToken, models.TxnRefs{})

	assert.NoError(t, err)
	assert.Equal(t, int64(10), repo.quantity(testTenant, variant.ID, from, models.BalanceStateOnHand))
	assert.Equal(t, int64(0), repo.quantity(testTenant, variant.ID, to, models.BalanceStateOnHand))
	// The undo is a new batch, not a deletion: four ledger rows total.
	assert.Len(t, repo.txns, 4)
}

func TestUndoTransfer_InvalidatedByLaterMovement(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	from, to := uuid.New(), uuid.New()
	repo.seed(testTenant, variant.ID, from, models.BalanceStateOnHand, 10)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	resp, err := service.Transfer(ctx, testTenant, models.TransferRequest{
		VariantID:      variant.ID,
		FromLocationID: from,
		ToLocationID:   to,
		Quantity:       4,
	}, models.TxnRefs{})
	assert.NoError(t, err)

	// A later receipt into the destination invalidates the undo window.
	err = service.Receive(ctx, testTenant, models.ReceiveRequest{
		VariantID:    variant.ID,
		ToLocationID: to,
		Quantity:     1,
	}, models.TxnRefs{})
	assert.NoError(t, err)

	err = service.UndoTransfer(ctx, testTenant, resp.UndoToken, models.TxnRefs{})

	assert.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotUndoable))
	assert.Equal(t, int64(6), repo.quantity(testTenant, variant.ID, from, models.BalanceStateOnHand))
	assert.Equal(t, int64(5), repo.quantity(testTenant, variant.ID, to, models.BalanceStateOnHand))
}

func TestUndoTransfer_SecondUndoRejected(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	from, to := uuid.New(), uuid.New()
	repo.seed(testTenant, variant.ID, from, models.BalanceStateOnHand, 10)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	resp, err := service.Transfer(ctx, testTenant, models.TransferRequest{
		VariantID:      variant.ID,
		FromLocationID: from,
		ToLocationID:   to,
		Quantity:       4,
	}, models.TxnRefs{})
	assert.NoError(t, err)
	assert.NoError(t, service.UndoTransfer(ctx, testTenant, resp.UndoToken, models.TxnRefs{}))

	err = service.UndoTransfer(ctx, testTenant, resp.UndoToken, models.TxnRefs{})

	assert.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotUndoable))
}

func TestUndoTransfer_UnknownToken(t *testing.T) {
	ctx := context.Background()
	service := newTestLedger(newFakeLedgerRepo(), new(MockCatalogRepository))

	err := service.UndoTransfer(ctx, testTenant, uuid.New().String(), models.TxnRefs{})
	assert.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotUndoable))

	err = service.UndoTransfer(ctx, testTenant, "not-a-token", models.TxnRefs{})
	assert.Error(t, err)
	assert.Equal(t, "INVALID_UNDO_TOKEN", apperrors.CodeOf(err))
}

// ===========================================
// Reserve Tests
// ===========================================

func TestReserve_ConsumesCellsFIFO(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	warehouse := uuid.New()
	locA, locB := uuid.New(), uuid.New()
	repo.addLocation(locA, warehouse, true)
	repo.addLocation(locB, warehouse, true)
	repo.seed(testTenant, variant.ID, locA, models.BalanceStateOnHand, 3)
	repo.seed(testTenant, variant.ID, locB, models.BalanceStateOnHand, 5)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	err := service.Reserve(ctx, testTenant, variant.ID, warehouse, 5, models.TxnRefs{})

	assert.NoError(t, err)
	// Oldest cell drains first, the second covers the rest.
	assert.Equal(t, int64(0), repo.quantity(testTenant, variant.ID, locA, models.BalanceStateOnHand))
	assert.Equal(t, int64(3), repo.quantity(testTenant, variant.ID, locA, models.BalanceStateCommitted))
	assert.Equal(t, int64(3), repo.quantity(testTenant, variant.ID, locB, models.BalanceStateOnHand))
	assert.Equal(t, int64(2), repo.quantity(testTenant, variant.ID, locB, models.BalanceStateCommitted))
}

func TestReserve_ShortfallRejectsWholeOperation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	warehouse := uuid.New()
	loc := uuid.New()
	repo.addLocation(loc, warehouse, true)
	repo.seed(testTenant, variant.ID, loc, models.BalanceStateOnHand, 2)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	err := service.Reserve(ctx, testTenant, variant.ID, warehouse, 5, models.TxnRefs{})

	assert.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInsufficientStock))
	assert.Equal(t, int64(2), repo.quantity(testTenant, variant.ID, loc, models.BalanceStateOnHand))
	assert.Equal(t, int64(0), repo.quantity(testTenant, variant.ID, loc, models.BalanceStateCommitted))
}

func TestReserve_IgnoresNonPickableLocations(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	warehouse := uuid.New()
	reserveLoc := uuid.New()
	repo.addLocation(reserveLoc, warehouse, false)
	repo.seed(testTenant, variant.ID, reserveLoc, models.BalanceStateOnHand, 50)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	err := service.Reserve(ctx, testTenant, variant.ID, warehouse, 1, models.TxnRefs{})

	assert.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInsufficientStock))
}

// ===========================================
// Ship Tests
// ===========================================

func TestShipOrder_MovesPickedToShippedAsOneBatch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	warehouse := uuid.New()
	locA, locB := uuid.New(), uuid.New()
	repo.addLocation(locA, warehouse, true)
	repo.addLocation(locB, warehouse, true)
	repo.seed(testTenant, variant.ID, locA, models.BalanceStatePicked, 3)
	repo.seed(testTenant, variant.ID, locB, models.BalanceStatePicked, 5)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	orderID, lineID := uuid.New(), uuid.New()
	batchID, err := service.ShipOrder(ctx, testTenant, warehouse, []ShipLine{
		{OrderLineID: lineID, VariantID: variant.ID, Quantity: 5},
	}, models.TxnRefs{OrderID: &orderID})

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, batchID)
	// Oldest picked cell drains first, the second covers the rest.
	assert.Equal(t, int64(0), repo.quantity(testTenant, variant.ID, locA, models.BalanceStatePicked))
	assert.Equal(t, int64(3), repo.quantity(testTenant, variant.ID, locA, models.BalanceStateShipped))
	assert.Equal(t, int64(3), repo.quantity(testTenant, variant.ID, locB, models.BalanceStatePicked))
	assert.Equal(t, int64(2), repo.quantity(testTenant, variant.ID, locB, models.BalanceStateShipped))
	// Every row carries the ship type, the shared batch and the line refs.
	assert.Len(t, repo.txns, 4)
	for _, txn := range repo.txns {
		assert.Equal(t, models.TransactionTypeShip, txn.Type)
		assert.Equal(t, models.BalanceStatePicked, txn.SourceState)
		assert.Equal(t, models.BalanceStateShipped, txn.TargetState)
		assert.Equal(t, batchID, *txn.BatchID)
		assert.Equal(t, orderID, *txn.OrderID)
		assert.Equal(t, lineID, *txn.OrderLineID)
	}
}

func TestShipOrder_ShortLineRejectsWholeOrder(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	variant := testVariant(1)
	warehouse := uuid.New()
	loc := uuid.New()
	repo.addLocation(loc, warehouse, true)
	repo.seed(testTenant, variant.ID, loc, models.BalanceStatePicked, 2)
	catalog.On("GetVariantByID", ctx, testTenant, variant.ID).Return(variant, nil)

	_, err := service.ShipOrder(ctx, testTenant, warehouse, []ShipLine{
		{OrderLineID: uuid.New(), VariantID: variant.ID, Quantity: 3},
	}, models.TxnRefs{})

	assert.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInsufficientStock))
	assert.Equal(t, int64(2), repo.quantity(testTenant, variant.ID, loc, models.BalanceStatePicked))
	assert.Equal(t, int64(0), repo.quantity(testTenant, variant.ID, loc, models.BalanceStateShipped))
	assert.Empty(t, repo.txns)
}

func TestShipOrder_EmptyRejected(t *testing.T) {
	ctx := context.Background()
	service := newTestLedger(newFakeLedgerRepo(), new(MockCatalogRepository))

	_, err := service.ShipOrder(ctx, testTenant, uuid.New(), nil, models.TxnRefs{})

	assert.Error(t, err)
	assert.Equal(t, "EMPTY_SHIPMENT", apperrors.CodeOf(err))
}

// ===========================================
// Batch Tests
// ===========================================

func TestExecuteBatch_CaseBreakWritesBothVariants(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo()
	catalog := new(MockCatalogRepository)
	service := newTestLedger(repo, catalog)

	caseVariant := testVariant(12)
	eachVariant := &models.ProductVariant{ID: uuid.New(), TenantID: testTenant, SKU: "WIDGET", UnitsPerVariant: 1}
	reserveLoc, pickLoc := uuid.New(), uuid.New()
	repo.seed(testTenant, caseVariant.ID, reserveLoc, models.BalanceStateOnHand, 4)
	catalog.On("GetVariantByID", ctx, testTenant, caseVariant.ID).Return(caseVariant, nil)
	catalog.On("GetVariantByID", ctx, testTenant, eachVariant.ID).Return(eachVariant, nil)

	// Break two cases into 24 eaches at the pick face.
	batchID, err := service.ExecuteBatch(ctx, testTenant, []BatchMove{
		{VariantID: caseVariant.ID, FromLocationID: reserveLoc, Quantity: 2, Type: models.TransactionTypeReplenish},
		{VariantID: eachVariant.ID, ToLocationID: pickLoc, Quantity: 24, Type: models.TransactionTypeReplenish},
	}, models.TxnRefs{})

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, batchID)
	assert.Equal(t, int64(2), repo.quantity(testTenant, caseVariant.ID, reserveLoc, models.BalanceStateOnHand))
	assert.Equal(t, int64(24), repo.quantity(testTenant, eachVariant.ID, pickLoc, models.BalanceStateOnHand))
	for _, txn := range repo.txns {
		assert.Equal(t, batchID, *txn.BatchID)
	}
}

func TestExecuteBatch_EmptyRejected(t *testing.T) {
	ctx := context.Background()
	service := newTestLedger(newFakeLedgerRepo(), new(MockCatalogRepository))

	_, err := service.ExecuteBatch(ctx, testTenant, nil, models.TxnRefs{})

	assert.Error(t, err)
	assert.Equal(t, "EMPTY_BATCH", apperrors.CodeOf(err))
}
