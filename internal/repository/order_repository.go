package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wms-service/internal/models"
)

// OrderRepositoryInterface defines sales order persistence
type OrderRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn TxFn) error
	CreateOrder(ctx context.Context, order *models.SalesOrder) error
	GetOrderByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.SalesOrder, error)
	LockOrder(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.SalesOrder, error)
	LockOrders(tx *gorm.DB, tenantID string, ids []uuid.UUID) ([]models.SalesOrder, error)
	ListOrders(ctx context.Context, tenantID string, filter OrderFilter, limit, offset int) ([]models.SalesOrder, int64, error)
	ListByCombinedGroup(ctx context.Context, tenantID string, groupID uuid.UUID) ([]models.SalesOrder, error)
	SaveOrder(ctx context.Context, order *models.SalesOrder) error
	SaveOrderTx(tx *gorm.DB, order *models.SalesOrder) error
	SaveLineTx(tx *gorm.DB, line *models.SalesOrderLine) error

	GetSettings(ctx context.Context, tenantID string) (*models.OMSSettings, error)
	SaveSettings(ctx context.Context, settings *models.OMSSettings) error
}

// OrderFilter narrows the sales order listing.
type OrderFilter struct {
	Status    *models.SalesOrderStatus
	Priority  *models.OrderPriority
	ChannelID *uuid.UUID
	OnHold    *bool
	Search    string
}

// OrderRepository handles database operations for sales orders
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTransaction runs fn inside one database transaction
func (r *OrderRepository) WithTransaction(ctx context.Context, fn TxFn) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.SalesOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.SalesOrder, error) {
	var order models.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
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

// LockOrder loads one order with lines under a header row lock
func (r *OrderRepository) LockOrder(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.SalesOrder, error) {
	var order models.SalesOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Where("order_id = ?", id).Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrders loads several orders under row locks in a stable ID order so
// concurrent combiners cannot deadlock against each other.
func (r *OrderRepository) LockOrders(tx *gorm.DB, tenantID string, ids []uuid.UUID) ([]models.SalesOrder, error) {
	var orders []models.SalesOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := tx.Where("order_id = ?", orders[i].ID).Find(&orders[i].Lines).Error; err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, tenantID string, filter OrderFilter, limit, offset int) ([]models.SalesOrder, int64, error) {
	var orders []models.SalesOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SalesOrder{}).
		Where("tenant_id = ?", tenantID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.ChannelID != nil {
		query = query.Where("channel_id = ?", *filter.ChannelID)
	}
	if filter.OnHold != nil {
		query = query.Where("on_hold = ?", *filter.OnHold)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR customer_name ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Lines").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error

	return orders, total, err
}

// ListByCombinedGroup retrieves all members of a combined group
func (r *OrderRepository) ListByCombinedGroup(ctx context.Context, tenantID string, groupID uuid.UUID) ([]models.SalesOrder, error) {
	var orders []models.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND combined_group_id = ?", tenantID, groupID).
		Order("combined_role ASC").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) SaveOrder(ctx context.Context, order *models.SalesOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *OrderRepository) SaveOrderTx(tx *gorm.DB, order *models.SalesOrder) error {
	return tx.Save(order).Error
}

func (r *OrderRepository) SaveLineTx(tx *gorm.DB, line *models.SalesOrderLine) error {
	return tx.Save(line).Error
}

// --- Settings Methods ---

func (r *OrderRepository) GetSettings(ctx context.Context, tenantID string) (*models.OMSSettings, error) {
	var settings models.OMSSettings
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *OrderRepository) SaveSettings(ctx context.Context, settings *models.OMSSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
