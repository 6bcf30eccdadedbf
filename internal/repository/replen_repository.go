package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wms-service/internal/models"
)

// ReplenRepositoryInterface defines replenishment rule and task persistence
type ReplenRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn TxFn) error
	CreateRule(ctx context.Context, rule *models.ReplenRule) error
	GetRuleByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReplenRule, error)
	ListRules(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]models.ReplenRule, int64, error)
	ListActiveRulesByWarehouse(ctx context.Context, tenantID string, warehouseID uuid.UUID) ([]models.ReplenRule, error)
	SaveRule(ctx context.Context, rule *models.ReplenRule) error
	DeleteRule(ctx context.Context, tenantID string, id uuid.UUID) error

	CreateTask(tx *gorm.DB, task *models.ReplenTask) error
	GetTaskByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReplenTask, error)
	LockTask(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.ReplenTask, error)
	ListTasks(ctx context.Context, tenantID string, status *models.ReplenTaskStatus, limit, offset int) ([]models.ReplenTask, int64, error)
	SaveTaskTx(tx *gorm.DB, task *models.ReplenTask) error
	HasOpenTask(tx *gorm.DB, tenantID string, pickVariantID, toLocationID uuid.UUID) (bool, error)
	ListSourceCells(tx *gorm.DB, tenantID string, variantID, warehouseID uuid.UUID, locType models.LocationType, smallestFirst bool) ([]models.InventoryBalance, error)
}

// ReplenRepository handles database operations for replenishment
type ReplenRepository struct {
	db *gorm.DB
}

// NewReplenRepository creates a new ReplenRepository
func NewReplenRepository(db *gorm.DB) *ReplenRepository {
	return &ReplenRepository{db: db}
}

// WithTransaction runs fn inside one database transaction
func (r *ReplenRepository) WithTransaction(ctx context.Context, fn TxFn) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// --- Rule Methods ---

func (r *ReplenRepository) CreateRule(ctx context.Context, rule *models.ReplenRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ReplenRepository) GetRuleByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReplenRule, error) {
	var rule models.ReplenRule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ReplenRepository) ListRules(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]models.ReplenRule, int64, error) {
	var rules []models.ReplenRule
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ReplenRule{}).
		Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = true")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("priority ASC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rules).Error

	return rules, total, err
}

// ListActiveRulesByWarehouse returns active rules ordered by priority for the
// min/max sweep.
func (r *ReplenRepository) ListActiveRulesByWarehouse(ctx context.Context, tenantID string, warehouseID uuid.UUID) ([]models.ReplenRule, error) {
	var rules []models.ReplenRule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND is_active = true", tenantID, warehouseID).
		Order("priority ASC, created_at ASC").
		Find(&rules).Error
	return rules, err
}

func (r *ReplenRepository) SaveRule(ctx context.Context, rule *models.ReplenRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *ReplenRepository) DeleteRule(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.ReplenRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Task Methods ---

func (r *ReplenRepository) CreateTask(tx *gorm.DB, task *models.ReplenTask) error {
	return tx.Create(task).Error
}

func (r *ReplenRepository) GetTaskByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReplenTask, error) {
	var task models.ReplenTask
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *ReplenRepository) LockTask(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.ReplenTask, error) {
	var task models.ReplenTask
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *ReplenRepository) ListTasks(ctx context.Context, tenantID string, status *models.ReplenTaskStatus, limit, offset int) ([]models.ReplenTask, int64, error) {
	var tasks []models.ReplenTask
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ReplenTask{}).
		Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("priority ASC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&tasks).Error

	return tasks, total, err
}

func (r *ReplenRepository) SaveTaskTx(tx *gorm.DB, task *models.ReplenTask) error {
	return tx.Save(task).Error
}

// ListSourceCells returns non-empty on-hand cells of the source variant in
// locations of the rule's source type, locked for update. FIFO order by
// default; smallest_first empties fragmented bins first.
func (r *ReplenRepository) ListSourceCells(tx *gorm.DB, tenantID string, variantID, warehouseID uuid.UUID, locType models.LocationType, smallestFirst bool) ([]models.InventoryBalance, error) {
	order := "b.created_at ASC, l.code ASC"
	if smallestFirst {
		order = "b.quantity ASC, b.created_at ASC"
	}
	var balances []models.InventoryBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "b"}}).
		Table("inventory_balances b").
		Joins("JOIN locations l ON l.id = b.location_id").
		Where("b.tenant_id = ? AND b.variant_id = ? AND l.warehouse_id = ? AND l.location_type = ? AND b.state = ? AND b.quantity > 0",
			tenantID, variantID, warehouseID, locType, models.BalanceStateOnHand).
		Order(order).
		Select("b.*").
		Find(&balances).Error
	return balances, err
}

// HasOpenTask reports whether an unresolved task already targets the same
// pick variant and destination, used to suppress duplicate generation.
func (r *ReplenRepository) HasOpenTask(tx *gorm.DB, tenantID string, pickVariantID, toLocationID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.ReplenTask{}).
		Where("tenant_id = ? AND pick_variant_id = ? AND to_location_id = ? AND status IN ?",
			tenantID, pickVariantID, toLocationID,
			[]models.ReplenTaskStatus{
				models.ReplenTaskStatusPending,
				models.ReplenTaskStatusAssigned,
				models.ReplenTaskStatusInProgress,
			}).
		Count(&count).Error
	return count > 0, err
}
