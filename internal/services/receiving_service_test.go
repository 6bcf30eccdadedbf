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

// MockReceivingRepository is a mock implementation of ReceivingRepositoryInterface
type MockReceivingRepository struct {
	mock.Mock
}

var _ repository.ReceivingRepositoryInterface = (*MockReceivingRepository)(nil)

func (m *MockReceivingRepository) WithTransaction(ctx context.Context, fn repository.TxFn) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockReceivingRepository) CreateOrder(ctx context.Context, order *models.ReceivingOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockReceivingRepository) GetOrderByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReceivingOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReceivingOrder), args.Error(1)
}

func (m *MockReceivingRepository) LockOrder(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.ReceivingOrder, error) {
	args := m.Called(tx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReceivingOrder), args.Error(1)
}

func (m *MockReceivingRepository) ListOrders(ctx context.Context, tenantID string, status *models.ReceivingOrderStatus, limit, offset int) ([]models.ReceivingOrder, int64, error) {
	args := m.Called(ctx, tenantID, status, limit, offset)
	return args.Get(0).([]models.ReceivingOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockReceivingRepository) SaveOrder(ctx context.Context, order *models.ReceivingOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockReceivingRepository) SaveOrderTx(tx *gorm.DB, order *models.ReceivingOrder) error {
	args := m.Called(tx, order)
	return args.Error(0)
}

func (m *MockReceivingRepository) CreateLine(ctx context.Context, line *models.ReceivingLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockReceivingRepository) CreateLines(ctx context.Context, lines []models.ReceivingLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockReceivingRepository) GetLineByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReceivingLine, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReceivingLine), args.Error(1)
}

func (m *MockReceivingRepository) SaveLine(ctx context.Context, line *models.ReceivingLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockReceivingRepository) SaveLineTx(tx *gorm.DB, line *models.ReceivingLine) error {
	args := m.Called(tx, line)
	return args.Error(0)
}

func (m *MockReceivingRepository) DeleteLine(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// ========== Close Tests ==========

func TestClose_AlreadyClosedIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := new(MockReceivingRepository)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	service := NewReceivingService(repo, new(MockLocationRepository), nil, nil, nil, nil, nil, logger)

	closed := &models.ReceivingOrder{
		ID:       uuid.New(),
		TenantID: testTenant,
		Status:   models.ReceivingStatusClosed,
	}
	repo.On("GetOrderByID", ctx, testTenant, closed.ID).Return(closed, nil)

	got, err := service.Close(ctx, testTenant, closed.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, closed, got)
	// A second close posts nothing: no transaction, no ledger rows, no PO roll-up.
	repo.AssertNotCalled(t, "WithTransaction", mock.Anything, mock.Anything)
}
