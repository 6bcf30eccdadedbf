package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// MockPurchasingRepository is a mock implementation of PurchasingRepositoryInterface
type MockPurchasingRepository struct {
	mock.Mock
}

var _ repository.PurchasingRepositoryInterface = (*MockPurchasingRepository)(nil)

func (m *MockPurchasingRepository) CreateVendor(ctx context.Context, vendor *models.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockPurchasingRepository) GetVendorByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Vendor, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockPurchasingRepository) ListVendors(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]models.Vendor, int64, error) {
	args := m.Called(ctx, tenantID, activeOnly, limit, offset)
	return args.Get(0).([]models.Vendor), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchasingRepository) UpdateVendor(ctx context.Context, vendor *models.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockPurchasingRepository) UpsertVendorProduct(ctx context.Context, vp *models.VendorProduct) error {
	args := m.Called(ctx, vp)
	return args.Error(0)
}

func (m *MockPurchasingRepository) GetPreferredVendorProduct(ctx context.Context, tenantID string, variantID uuid.UUID) (*models.VendorProduct, error) {
	args := m.Called(ctx, tenantID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VendorProduct), args.Error(1)
}

func (m *MockPurchasingRepository) ListVendorProducts(ctx context.Context, tenantID string, vendorID uuid.UUID) ([]models.VendorProduct, error) {
	args := m.Called(ctx, tenantID, vendorID)
	return args.Get(0).([]models.VendorProduct), args.Error(1)
}

func (m *MockPurchasingRepository) ListApprovalTiers(ctx context.Context, tenantID string) ([]models.ApprovalTier, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.ApprovalTier), args.Error(1)
}

func (m *MockPurchasingRepository) CreateApprovalTier(ctx context.Context, tier *models.ApprovalTier) error {
	args := m.Called(ctx, tier)
	return args.Error(0)
}

func (m *MockPurchasingRepository) WithTransaction(ctx context.Context, fn repository.TxFn) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockPurchasingRepository) CreatePO(ctx context.Context, po *models.PurchaseOrder) error {
	args := m.Called(ctx, po)
	return args.Error(0)
}

func (m *MockPurchasingRepository) CreatePOTx(tx *gorm.DB, po *models.PurchaseOrder) error {
	args := m.Called(tx, po)
	return args.Error(0)
}

func (m *MockPurchasingRepository) GetPOByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchasingRepository) LockPO(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	args := m.Called(tx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockPurchasingRepository) ListPOs(ctx context.Context, tenantID string, status *models.PurchaseOrderStatus, vendorID *uuid.UUID, limit, offset int) ([]models.PurchaseOrder, int64, error) {
	args := m.Called(ctx, tenantID, status, vendorID, limit, offset)
	return args.Get(0).([]models.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchasingRepository) SavePO(ctx context.Context, po *models.PurchaseOrder) error {
	args := m.Called(ctx, po)
	return args.Error(0)
}

func (m *MockPurchasingRepository) SavePOTx(tx *gorm.DB, po *models.PurchaseOrder) error {
	args := m.Called(tx, po)
	return args.Error(0)
}

func (m *MockPurchasingRepository) SavePOLineTx(tx *gorm.DB, line *models.PurchaseOrderLine) error {
	args := m.Called(tx, line)
	return args.Error(0)
}

func (m *MockPurchasingRepository) GetPOLineByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrderLine, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrderLine), args.Error(1)
}

func (m *MockPurchasingRepository) ReplacePOLines(ctx context.Context, po *models.PurchaseOrder, lines []models.PurchaseOrderLine) error {
	args := m.Called(ctx, po, lines)
	return args.Error(0)
}

func (m *MockPurchasingRepository) CreateRevision(tx *gorm.DB, revision *models.PoRevision) error {
	args := m.Called(tx, revision)
	return args.Error(0)
}

func (m *MockPurchasingRepository) ListRevisions(ctx context.Context, tenantID string, poID uuid.UUID) ([]models.PoRevision, error) {
	args := m.Called(ctx, tenantID, poID)
	return args.Get(0).([]models.PoRevision), args.Error(1)
}

func (m *MockPurchasingRepository) OnOrderByVariant(ctx context.Context, tenantID string, variantIDs []uuid.UUID) ([]models.OnOrderSummary, error) {
	args := m.Called(ctx, tenantID, variantIDs)
	return args.Get(0).([]models.OnOrderSummary), args.Error(1)
}

func int64Ptr(v int64) *int64 { return &v }

func TestPctOf_RoundsHalfUp(t *testing.T) {
	testCases := []struct {
		name   string
		amount int64
		pct    float64
		want   int64
	}{
		{"exact", 10000, 10, 1000},
		{"rounds_up", 999, 5, 50},   // 49.95 -> 50
		{"rounds_down", 999, 4, 40}, // 39.96 -> 40
		{"zero_pct", 10000, 0, 0},
		{"half_cent_up", 50, 1, 1}, // 0.5 -> 1
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pctOf(tc.amount, tc.pct))
		})
	}
}

func TestComputeLineTotal(t *testing.T) {
	// 10 x $25.00 with 10% discount then 8% tax on the discounted amount.
	line := models.PurchaseOrderLine{
		OrderQty:      10,
		UnitCostCents: 2500,
		DiscountPct:   10,
		TaxPct:        8,
	}
	ComputeLineTotal(&line)

	// 25000 - 2500 + 1800 = 24300
	assert.Equal(t, int64(24300), line.LineTotalCents)
}

func TestRecomputeTotals_CancelledLineContributesNothing(t *testing.T) {
	po := models.PurchaseOrder{
		HeaderDiscountCents: 500,
		HeaderTaxCents:      300,
		HeaderShippingCents: 2000,
		Lines: []models.PurchaseOrderLine{
			{OrderQty: 2, UnitCostCents: 1000, Status: models.POLineStatusOpen},
			{OrderQty: 5, UnitCostCents: 4000, Status: models.POLineStatusCancelled},
			{OrderQty: 1, UnitCostCents: 3000, Status: models.POLineStatusOpen},
		},
	}
	RecomputeTotals(&po)

	assert.Equal(t, int64(5000), po.SubtotalCents)
	assert.Equal(t, int64(0), po.Lines[1].LineTotalCents)
	// 5000 - 500 + 300 + 2000
	assert.Equal(t, int64(6800), po.GrandTotalCents)
}

func TestMatchTier(t *testing.T) {
	tiers := []models.ApprovalTier{
		{ID: uuid.New(), Name: "manager", MinTotalCents: 100000, MaxTotalCents: int64Ptr(500000)},
		{ID: uuid.New(), Name: "director", MinTotalCents: 500001},
	}

	testCases := []struct {
		name  string
		total int64
		want  *string
	}{
		{"below_all_tiers", 99999, nil},
		{"lower_bound_inclusive", 100000, strPtr("manager")},
		{"inside_first_tier", 250000, strPtr("manager")},
		{"upper_bound_inclusive", 500000, strPtr("manager")},
		{"open_ended_tier", 500001, strPtr("director")},
		{"far_above", 99999999, strPtr("director")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := matchTier(tiers, tc.total)
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
				assert.Equal(t, *tc.want, got.Name)
			}
		})
	}
}

// ========== Receiving Roll-up Tests ==========

func newRollupService(repo *MockPurchasingRepository) *PurchasingService {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewPurchasingService(repo, new(MockCatalogRepository), nil, logger)
}

func TestOnReceivingOrderClosed_RollsUpAcrossReceipts(t *testing.T) {
	repo := new(MockPurchasingRepository)
	service := newRollupService(repo)

	lineID := uuid.New()
	po := &models.PurchaseOrder{
		ID:       uuid.New(),
		TenantID: testTenant,
		Status:   models.POStatusSent,
		Lines: []models.PurchaseOrderLine{
			{ID: lineID, OrderQty: 10, Status: models.POLineStatusOpen},
		},
	}
	repo.On("LockPO", mock.Anything, testTenant, po.ID).Return(po, nil)
	repo.On("SavePOLineTx", mock.Anything, mock.AnythingOfType("*models.PurchaseOrderLine")).Return(nil)
	repo.On("SavePOTx", mock.Anything, mock.AnythingOfType("*models.PurchaseOrder")).Return(nil)

	// First receipt covers 4 of the 10 ordered.
	err := service.OnReceivingOrderClosed(nil, testTenant, po.ID, []ReceiptLineUpdate{
		{POLineID: lineID, ReceivedQty: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), po.Lines[0].ReceivedQty)
	assert.Equal(t, models.POLineStatusPartiallyReceived, po.Lines[0].Status)
	assert.Equal(t, models.POStatusPartiallyReceived, po.Status)
	assert.Nil(t, po.ActualDeliveryDate)

	// Second receipt completes the line, which completes the order.
	err = service.OnReceivingOrderClosed(nil, testTenant, po.ID, []ReceiptLineUpdate{
		{POLineID: lineID, ReceivedQty: 6, DamagedQty: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), po.Lines[0].ReceivedQty)
	assert.Equal(t, int64(1), po.Lines[0].DamagedQty)
	assert.Equal(t, models.POLineStatusReceived, po.Lines[0].Status)
	assert.Equal(t, models.POStatusReceived, po.Status)
	assert.NotNil(t, po.ActualDeliveryDate)
}

func TestOnReceivingOrderClosed_UnknownLineIgnored(t *testing.T) {
	repo := new(MockPurchasingRepository)
	service := newRollupService(repo)

	po := &models.PurchaseOrder{
		ID:       uuid.New(),
		TenantID: testTenant,
		Status:   models.POStatusSent,
		Lines: []models.PurchaseOrderLine{
			{ID: uuid.New(), OrderQty: 5, Status: models.POLineStatusOpen},
		},
	}
	repo.On("LockPO", mock.Anything, testTenant, po.ID).Return(po, nil)
	repo.On("SavePOTx", mock.Anything, mock.AnythingOfType("*models.PurchaseOrder")).Return(nil)

	// An update naming a line from another PO changes nothing.
	err := service.OnReceivingOrderClosed(nil, testTenant, po.ID, []ReceiptLineUpdate{
		{POLineID: uuid.New(), ReceivedQty: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), po.Lines[0].ReceivedQty)
	assert.Equal(t, models.POStatusSent, po.Status)
	repo.AssertNotCalled(t, "SavePOLineTx", mock.Anything, mock.Anything)
}
