package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wms-service/internal/models"
)

// ReceivingRepositoryInterface defines receiving order persistence
type ReceivingRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn TxFn) error
	CreateOrder(ctx context.Context, order *models.ReceivingOrder) error
	GetOrderByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReceivingOrder, error)
	LockOrder(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.ReceivingOrder, error)
	ListOrders(ctx context.Context, tenantID string, status *models.ReceivingOrderStatus, limit, offset int) ([]models.ReceivingOrder, int64, error)
	SaveOrder(ctx context.Context, order *models.ReceivingOrder) error
	SaveOrderTx(tx *gorm.DB, order *models.ReceivingOrder) error

	CreateLine(ctx context.Context, line *models.ReceivingLine) error
	CreateLines(ctx context.Context, lines []models.ReceivingLine) error
	GetLineByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReceivingLine, error)
	SaveLine(ctx context.Context, line *models.ReceivingLine) error
	SaveLineTx(tx *gorm.DB, line *models.ReceivingLine) error
	DeleteLine(ctx context.Context, tenantID string, id uuid.UUID) error
}

// ReceivingRepository handles database operations for receiving
type ReceivingRepository struct {
	db *gorm.DB
}

// NewReceivingRepository creates a new ReceivingRepository
func NewReceivingRepository(db *gorm.DB) *ReceivingRepository {
	return &ReceivingRepository{db: db}
}

// WithTransaction runs fn inside one database transaction
func (r *ReceivingRepository) WithTransaction(ctx context.Context, fn TxFn) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// --- Order Methods ---

func (r *ReceivingRepository) CreateOrder(ctx context.Context, order *models.ReceivingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *ReceivingRepository) GetOrderByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReceivingOrder, error) {
	var order models.ReceivingOrder
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder loads a receiving order with its lines under a header row lock.
// Close runs under this lock so two concurrent closes serialize.
func (r *ReceivingRepository) LockOrder(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.ReceivingOrder, error) {
	var order models.ReceivingOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Where("receiving_order_id = ?", id).
		Order("created_at ASC").
		Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *ReceivingRepository) ListOrders(ctx context.Context, tenantID string, status *models.ReceivingOrderStatus, limit, offset int) ([]models.ReceivingOrder, int64, error) {
	var orders []models.ReceivingOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ReceivingOrder{}).
		Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error

	return orders, total, err
}

func (r *ReceivingRepository) SaveOrder(ctx context.Context, order *models.ReceivingOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *ReceivingRepository) SaveOrderTx(tx *gorm.DB, order *models.ReceivingOrder) error {
	return tx.Save(order).Error
}

// --- Line Methods ---

func (r *ReceivingRepository) CreateLine(ctx context.Context, line *models.ReceivingLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *ReceivingRepository) CreateLines(ctx context.Context, lines []models.ReceivingLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *ReceivingRepository) GetLineByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReceivingLine, error) {
	var line models.ReceivingLine
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *ReceivingRepository) SaveLine(ctx context.Context, line *models.ReceivingLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *ReceivingRepository) SaveLineTx(tx *gorm.DB, line *models.ReceivingLine) error {
	return tx.Save(line).Error
}

func (r *ReceivingRepository) DeleteLine(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.ReceivingLine{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
