package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// MockReplenRepository is a mock implementation of ReplenRepositoryInterface
type MockReplenRepository struct {
	mock.Mock
}

var _ repository.ReplenRepositoryInterface = (*MockReplenRepository)(nil)

func (m *MockReplenRepository) WithTransaction(ctx context.Context, fn repository.TxFn) error {
	m.Called(ctx)
	return fn(nil)
}

func (m *MockReplenRepository) CreateRule(ctx context.Context, rule *models.ReplenRule) error {
	args := m.Called(ctx, rule)
	if args.Error(0) == nil {
		rule.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockReplenRepository) GetRuleByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReplenRule, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReplenRule), args.Error(1)
}

func (m *MockReplenRepository) ListRules(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]models.ReplenRule, int64, error) {
	args := m.Called(ctx, tenantID, activeOnly, limit, offset)
	return args.Get(0).([]models.ReplenRule), args.Get(1).(int64), args.Error(2)
}

func (m *MockReplenRepository) ListActiveRulesByWarehouse(ctx context.Context, tenantID string, warehouseID uuid.UUID) ([]models.ReplenRule, error) {
	args := m.Called(ctx, tenantID, warehouseID)
	return args.Get(0).([]models.ReplenRule), args.Error(1)
}

func (m *MockReplenRepository) SaveRule(ctx context.Context, rule *models.ReplenRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockReplenRepository) DeleteRule(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockReplenRepository) CreateTask(tx *gorm.DB, task *models.ReplenTask) error {
	args := m.Called(tx, task)
	if args.Error(0) == nil {
		task.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockReplenRepository) GetTaskByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReplenTask, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReplenTask), args.Error(1)
}

func (m *MockReplenRepository) LockTask(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.ReplenTask, error) {
	args := m.Called(tx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReplenTask), args.Error(1)
}

func (m *MockReplenRepository) ListTasks(ctx context.Context, tenantID string, status *models.ReplenTaskStatus, limit, offset int) ([]models.ReplenTask, int64, error) {
	args := m.Called(ctx, tenantID, status, limit, offset)
	return args.Get(0).([]models.ReplenTask), args.Get(1).(int64), args.Error(2)
}

func (m *MockReplenRepository) SaveTaskTx(tx *gorm.DB, task *models.ReplenTask) error {
	args := m.Called(tx, task)
	return args.Error(0)
}

func (m *MockReplenRepository) HasOpenTask(tx *gorm.DB, tenantID string, pickVariantID, toLocationID uuid.UUID) (bool, error) {
	args := m.Called(tx, tenantID, pickVariantID, toLocationID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReplenRepository) ListSourceCells(tx *gorm.DB, tenantID string, variantID, warehouseID uuid.UUID, locType models.LocationType, smallestFirst bool) ([]models.InventoryBalance, error) {
	args := m.Called(tx, tenantID, variantID, warehouseID, locType, smallestFirst)
	return args.Get(0).([]models.InventoryBalance), args.Error(1)
}

// MockLocationRepository is a mock implementation of LocationRepositoryInterface
type MockLocationRepository struct {
	mock.Mock
}

var _ repository.LocationRepositoryInterface = (*MockLocationRepository)(nil)

func (m *MockLocationRepository) CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	args := m.Called(ctx, warehouse)
	return args.Error(0)
}

func (m *MockLocationRepository) GetWarehouseByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Warehouse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Warehouse), args.Error(1)
}

func (m *MockLocationRepository) GetDefaultWarehouse(ctx context.Context, tenantID string) (*models.Warehouse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Warehouse), args.Error(1)
}

func (m *MockLocationRepository) ListWarehouses(ctx context.Context, tenantID string) ([]models.Warehouse, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.Warehouse), args.Error(1)
}

func (m *MockLocationRepository) UpdateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	args := m.Called(ctx, warehouse)
	return args.Error(0)
}

func (m *MockLocationRepository) ClearDefaultWarehouse(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockLocationRepository) CreateLocation(ctx context.Context, location *models.Location) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) GetLocationByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Location, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockLocationRepository) GetLocationByCode(ctx context.Context, tenantID string, warehouseID uuid.UUID, code string) (*models.Location, error) {
	args := m.Called(ctx, tenantID, warehouseID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockLocationRepository) ListLocations(ctx context.Context, tenantID string, warehouseID uuid.UUID, locType *models.LocationType, limit, offset int) ([]models.Location, int64, error) {
	args := m.Called(ctx, tenantID, warehouseID, locType, limit, offset)
	return args.Get(0).([]models.Location), args.Get(1).(int64), args.Error(2)
}

func (m *MockLocationRepository) UpdateLocation(ctx context.Context, location *models.Location) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) DeleteLocation(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// --- fixtures ---

type replenFixture struct {
	repo      *MockReplenRepository
	catalog   *MockCatalogRepository
	locations *MockLocationRepository
	ledgerDB  *fakeLedgerRepo
	service   *ReplenService
}

func newReplenFixture() *replenFixture {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	repo := new(MockReplenRepository)
	catalog := new(MockCatalogRepository)
	locations := new(MockLocationRepository)
	ledgerDB := newFakeLedgerRepo()
	ledger := NewLedgerService(ledgerDB, catalog, logger)
	return &replenFixture{
		repo:      repo,
		catalog:   catalog,
		locations: locations,
		ledgerDB:  ledgerDB,
		service:   NewReplenService(repo, catalog, locations, ledgerDB, ledger, logger),
	}
}

// seedPickFace plants an on_hand balance whose location qualifies as the
// rule's refill destination.
func (f *replenFixture) seedPickFace(variantID, locationID, warehouseID uuid.UUID, qty int64) {
	f.ledgerDB.addLocation(locationID, warehouseID, true)
	f.ledgerDB.seed(testTenant, variantID, locationID, models.BalanceStateOnHand, qty)
	key := cellKey(testTenant, variantID, locationID, models.BalanceStateOnHand)
	b := f.ledgerDB.balances[key]
	b.Location = &models.Location{ID: locationID, WarehouseID: warehouseID, LocationType: models.LocationTypeForwardPick}
	f.ledgerDB.balances[key] = b
}

func replenVariant(productID uuid.UUID, sku string, units int64) *models.ProductVariant {
	return &models.ProductVariant{
		ID:              uuid.New(),
		TenantID:        testTenant,
		ProductID:       productID,
		SKU:             sku,
		Name:            sku,
		UnitsPerVariant: units,
	}
}

// ===========================================
// Rule Validation Tests
// ===========================================

func TestCreateRule_VariantProductMismatch(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	productID := uuid.New()
	pick := replenVariant(productID, "WIDGET", 1)
	source := replenVariant(uuid.New(), "OTHER-C12", 12) // different product
	f.catalog.On("GetVariantByID", ctx, testTenant, pick.ID).Return(pick, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, source.ID).Return(source, nil)

	_, err := f.service.CreateRule(ctx, testTenant, models.CreateReplenRuleRequest{
		ProductID:          productID,
		WarehouseID:        uuid.New(),
		PickVariantID:      pick.ID,
		SourceVariantID:    source.ID,
		PickLocationType:   models.LocationTypeForwardPick,
		SourceLocationType: models.LocationTypeBulkStorage,
		MinQty:             10,
	})

	assert.Error(t, err)
	assert.Equal(t, "VARIANT_PRODUCT_MISMATCH", apperrors.CodeOf(err))
}

func TestCreateRule_SourceSmallerThanPick(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	productID := uuid.New()
	pick := replenVariant(productID, "WIDGET-C12", 12)
	source := replenVariant(productID, "WIDGET", 1)
	f.catalog.On("GetVariantByID", ctx, testTenant, pick.ID).Return(pick, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, source.ID).Return(source, nil)

	_, err := f.service.CreateRule(ctx, testTenant, models.CreateReplenRuleRequest{
		ProductID:          productID,
		WarehouseID:        uuid.New(),
		PickVariantID:      pick.ID,
		SourceVariantID:    source.ID,
		PickLocationType:   models.LocationTypeForwardPick,
		SourceLocationType: models.LocationTypeBulkStorage,
		MinQty:             10,
	})

	assert.Error(t, err)
	assert.Equal(t, "SOURCE_SMALLER_THAN_PICK", apperrors.CodeOf(err))
}

func TestCreateRule_MaxMustExceedMin(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	productID := uuid.New()
	pick := replenVariant(productID, "WIDGET", 1)
	source := replenVariant(productID, "WIDGET-C12", 12)
	f.catalog.On("GetVariantByID", ctx, testTenant, pick.ID).Return(pick, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, source.ID).Return(source, nil)

	_, err := f.service.CreateRule(ctx, testTenant, models.CreateReplenRuleRequest{
		ProductID:          productID,
		WarehouseID:        uuid.New(),
		PickVariantID:      pick.ID,
		SourceVariantID:    source.ID,
		PickLocationType:   models.LocationTypeForwardPick,
		SourceLocationType: models.LocationTypeBulkStorage,
		MinQty:             10,
		MaxQty:             int64Ptr(10),
	})

	assert.Error(t, err)
	assert.Equal(t, "INVALID_MINMAX", apperrors.CodeOf(err))
}

// ===========================================
// Sweep Sizing Tests
// ===========================================

func sweepRule(productID uuid.UUID, warehouseID uuid.UUID, pick, source *models.ProductVariant, minQty int64, maxQty *int64) models.ReplenRule {
	return models.ReplenRule{
		ID:                 uuid.New(),
		TenantID:           testTenant,
		ProductID:          productID,
		WarehouseID:        warehouseID,
		PickVariantID:      pick.ID,
		SourceVariantID:    source.ID,
		PickLocationType:   models.LocationTypeForwardPick,
		SourceLocationType: models.LocationTypeBulkStorage,
		SourcePriority:     models.SourcePriorityFIFO,
		ReplenMethod:       models.ReplenMethodFullCase,
		MinQty:             minQty,
		MaxQty:             maxQty,
		Priority:           1,
		IsActive:           true,
	}
}

func TestSweep_SizesTaskInWholeSourceUnits(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	productID, warehouseID := uuid.New(), uuid.New()
	pick := replenVariant(productID, "WIDGET", 1)
	source := replenVariant(productID, "WIDGET-C12", 12)
	rule := sweepRule(productID, warehouseID, pick, source, 10, int64Ptr(50))

	pickBin := uuid.New()
	bulkBin := uuid.New()

	// 8 units on the pick face, below the minimum of 10.
	f.ledgerDB.pickUnits[pick.ID] = 8
	f.seedPickFace(pick.ID, pickBin, warehouseID, 8)

	f.repo.On("ListActiveRulesByWarehouse", ctx, testTenant, warehouseID).Return([]models.ReplenRule{rule}, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, pick.ID).Return(pick, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, source.ID).Return(source, nil)
	f.repo.On("WithTransaction", ctx).Return(nil)
	f.repo.On("HasOpenTask", mock.Anything, testTenant, pick.ID, pickBin).Return(false, nil)
	f.repo.On("ListSourceCells", mock.Anything, testTenant, source.ID, warehouseID, models.LocationTypeBulkStorage, false).
		Return([]models.InventoryBalance{{LocationID: bulkBin, Quantity: 10}}, nil)
	f.repo.On("CreateTask", mock.Anything, mock.AnythingOfType("*models.ReplenTask")).Return(nil)

	tasks, err := f.service.Sweep(ctx, testTenant, warehouseID, models.ReplenTriggerManual)

	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	task := tasks[0]
	// Need 42 units to reach max 50; four cases of 12 cover it.
	assert.Equal(t, int64(4), task.QtySourceUnits)
	assert.Equal(t, int64(48), task.QtyTargetUnits)
	assert.Equal(t, bulkBin, task.FromLocationID)
	assert.Equal(t, pickBin, task.ToLocationID)
	assert.Equal(t, models.ReplenTaskStatusPending, task.Status)
	f.repo.AssertExpectations(t)
}

func TestSweep_CaseBreakOpensOneSourceUnit(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	productID, warehouseID := uuid.New(), uuid.New()
	pick := replenVariant(productID, "WIDGET", 1)
	source := replenVariant(productID, "WIDGET-C12", 12)
	rule := sweepRule(productID, warehouseID, pick, source, 10, int64Ptr(50))
	rule.ReplenMethod = models.ReplenMethodCaseBreak

	pickBin := uuid.New()
	bulkBin := uuid.New()
	f.ledgerDB.pickUnits[pick.ID] = 8
	f.seedPickFace(pick.ID, pickBin, warehouseID, 8)

	f.repo.On("ListActiveRulesByWarehouse", ctx, testTenant, warehouseID).Return([]models.ReplenRule{rule}, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, pick.ID).Return(pick, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, source.ID).Return(source, nil)
	f.repo.On("WithTransaction", ctx).Return(nil)
	f.repo.On("HasOpenTask", mock.Anything, testTenant, pick.ID, pickBin).Return(false, nil)
	f.repo.On("ListSourceCells", mock.Anything, testTenant, source.ID, warehouseID, models.LocationTypeBulkStorage, false).
		Return([]models.InventoryBalance{{LocationID: bulkBin, Quantity: 10}}, nil)
	f.repo.On("CreateTask", mock.Anything, mock.AnythingOfType("*models.ReplenTask")).Return(nil)

	tasks, err := f.service.Sweep(ctx, testTenant, warehouseID, models.ReplenTriggerManual)

	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	// A case break opens exactly one case regardless of how far below max
	// the pick face sits.
	assert.Equal(t, int64(1), tasks[0].QtySourceUnits)
	assert.Equal(t, int64(12), tasks[0].QtyTargetUnits)
}

func TestSweep_PalletDropTakesWholeSourceCell(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	productID, warehouseID := uuid.New(), uuid.New()
	pick := replenVariant(productID, "WIDGET", 1)
	source := replenVariant(productID, "WIDGET-C12", 12)
	rule := sweepRule(productID, warehouseID, pick, source, 10, int64Ptr(50))
	rule.ReplenMethod = models.ReplenMethodPalletDrop

	pickBin := uuid.New()
	bulkBin := uuid.New()
	f.ledgerDB.pickUnits[pick.ID] = 8
	f.seedPickFace(pick.ID, pickBin, warehouseID, 8)

	f.repo.On("ListActiveRulesByWarehouse", ctx, testTenant, warehouseID).Return([]models.ReplenRule{rule}, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, pick.ID).Return(pick, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, source.ID).Return(source, nil)
	f.repo.On("WithTransaction", ctx).Return(nil)
	f.repo.On("HasOpenTask", mock.Anything, testTenant, pick.ID, pickBin).Return(false, nil)
	f.repo.On("ListSourceCells", mock.Anything, testTenant, source.ID, warehouseID, models.LocationTypeBulkStorage, false).
		Return([]models.InventoryBalance{{LocationID: bulkBin, Quantity: 10}}, nil)
	f.repo.On("CreateTask", mock.Anything, mock.AnythingOfType("*models.ReplenTask")).Return(nil)

	tasks, err := f.service.Sweep(ctx, testTenant, warehouseID, models.ReplenTriggerManual)

	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, int64(10), tasks[0].QtySourceUnits)
	assert.Equal(t, int64(120), tasks[0].QtyTargetUnits)
}

func TestSweep_AboveMinGeneratesNothing(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	productID, warehouseID := uuid.New(), uuid.New()
	pick := replenVariant(productID, "WIDGET", 1)
	source := replenVariant(productID, "WIDGET-C12", 12)
	rule := sweepRule(productID, warehouseID, pick, source, 10, int64Ptr(50))

	f.ledgerDB.pickUnits[pick.ID] = 11 // above min
	f.repo.On("ListActiveRulesByWarehouse", ctx, testTenant, warehouseID).Return([]models.ReplenRule{rule}, nil)

	tasks, err := f.service.Sweep(ctx, testTenant, warehouseID, models.ReplenTriggerManual)

	assert.NoError(t, err)
	assert.Empty(t, tasks)
	f.repo.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestSweep_OpenTaskSuppressesDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	productID, warehouseID := uuid.New(), uuid.New()
	pick := replenVariant(productID, "WIDGET", 1)
	source := replenVariant(productID, "WIDGET-C12", 12)
	rule := sweepRule(productID, warehouseID, pick, source, 10, int64Ptr(50))

	pickBin := uuid.New()
	f.ledgerDB.pickUnits[pick.ID] = 2
	f.locationsListReturns(pickBin, warehouseID)

	f.repo.On("ListActiveRulesByWarehouse", ctx, testTenant, warehouseID).Return([]models.ReplenRule{rule}, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, pick.ID).Return(pick, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, source.ID).Return(source, nil)
	f.repo.On("WithTransaction", ctx).Return(nil)
	f.repo.On("HasOpenTask", mock.Anything, testTenant, pick.ID, pickBin).Return(true, nil)

	tasks, err := f.service.Sweep(ctx, testTenant, warehouseID, models.ReplenTriggerManual)

	assert.NoError(t, err)
	assert.Empty(t, tasks)
	f.repo.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

// locationsListReturns stubs the fallback pick-bin lookup.
func (f *replenFixture) locationsListReturns(locationID, warehouseID uuid.UUID) {
	f.locations.On("ListLocations", mock.Anything, testTenant, warehouseID, mock.Anything, 1, 0).
		Return([]models.Location{{ID: locationID, WarehouseID: warehouseID, LocationType: models.LocationTypeForwardPick}}, int64(1), nil)
}

// ===========================================
// CSV Import Tests
// ===========================================

func TestImportRulesCSV_GoodRowsLandBadRowsWarn(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	warehouseID := uuid.New()
	productID := uuid.New()
	pick := replenVariant(productID, "WIDGET", 1)
	source := replenVariant(productID, "WIDGET-C12", 12)

	f.locations.On("GetWarehouseByID", ctx, testTenant, warehouseID).
		Return(&models.Warehouse{ID: warehouseID, TenantID: testTenant}, nil)
	f.catalog.On("GetVariantBySKU", ctx, testTenant, "WIDGET").Return(pick, nil)
	f.catalog.On("GetVariantBySKU", ctx, testTenant, "WIDGET-C12").Return(source, nil)
	f.catalog.On("GetVariantBySKU", ctx, testTenant, "NOPE").Return(nil, repository.ErrNotFound)
	f.catalog.On("GetVariantByID", ctx, testTenant, pick.ID).Return(pick, nil)
	f.catalog.On("GetVariantByID", ctx, testTenant, source.ID).Return(source, nil)
	f.repo.On("CreateRule", ctx, mock.AnythingOfType("*models.ReplenRule")).Return(nil)

	csvBody := strings.Join([]string{
		"pick_sku,source_sku,min_qty,max_qty",
		"WIDGET,WIDGET-C12,10,50",
		"NOPE,WIDGET-C12,10,50",
		"WIDGET,WIDGET-C12,ten,50",
	}, "\n") + "\n"

	result, err := f.service.ImportRulesCSV(ctx, testTenant, warehouseID, strings.NewReader(csvBody))

	assert.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Len(t, result.Warnings, 2)
	assert.False(t, result.Success)
	// Row numbers count from the file top; the header is row 1.
	assert.Equal(t, 3, result.Warnings[0].Row)
	assert.Equal(t, 4, result.Warnings[1].Row)
}

func TestImportRulesCSV_MissingColumnRejected(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	warehouseID := uuid.New()
	f.locations.On("GetWarehouseByID", ctx, testTenant, warehouseID).
		Return(&models.Warehouse{ID: warehouseID, TenantID: testTenant}, nil)

	_, err := f.service.ImportRulesCSV(ctx, testTenant, warehouseID, strings.NewReader("pick_sku,min_qty\nWIDGET,10\n"))

	assert.Error(t, err)
	assert.Equal(t, "INVALID_CSV", apperrors.CodeOf(err))
}

func TestImportRulesCSV_UnknownWarehouse(t *testing.T) {
	ctx := context.Background()
	f := newReplenFixture()

	warehouseID := uuid.New()
	f.locations.On("GetWarehouseByID", ctx, testTenant, warehouseID).Return(nil, repository.ErrNotFound)

	_, err := f.service.ImportRulesCSV(ctx, testTenant, warehouseID, strings.NewReader("pick_sku,source_sku,min_qty\n"))

	assert.Error(t, err)
	assert.Equal(t, "WAREHOUSE_NOT_FOUND", apperrors.CodeOf(err))
}

func TestImportTemplate_HeaderRow(t *testing.T) {
	f := newReplenFixture()
	template := f.service.ImportTemplate()

	assert.True(t, strings.HasPrefix(template, "pick_sku,source_sku,min_qty"))
	assert.True(t, strings.HasSuffix(template, "\n"))
}
