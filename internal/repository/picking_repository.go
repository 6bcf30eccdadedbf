package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wms-service/internal/models"
)

// PickingRepositoryInterface defines wave and pick task persistence
type PickingRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn TxFn) error
	CreateWave(tx *gorm.DB, wave *models.PickWave) error
	GetWaveByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PickWave, error)
	LockWave(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.PickWave, error)
	ListWaves(ctx context.Context, tenantID string, status *models.PickWaveStatus, limit, offset int) ([]models.PickWave, int64, error)
	SaveWaveTx(tx *gorm.DB, wave *models.PickWave) error

	GetTaskByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PickTask, error)
	LockTask(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.PickTask, error)
	ListTasksByWave(ctx context.Context, tenantID string, waveID uuid.UUID) ([]models.PickTask, error)
	SaveTaskTx(tx *gorm.DB, task *models.PickTask) error
	CountOpenTasks(tx *gorm.DB, tenantID string, waveID uuid.UUID) (int64, error)
}

// PickingRepository handles database operations for waves and pick tasks
type PickingRepository struct {
	db *gorm.DB
}

// NewPickingRepository creates a new PickingRepository
func NewPickingRepository(db *gorm.DB) *PickingRepository {
	return &PickingRepository{db: db}
}

// WithTransaction runs fn inside one database transaction
func (r *PickingRepository) WithTransaction(ctx context.Context, fn TxFn) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// --- Wave Methods ---

func (r *PickingRepository) CreateWave(tx *gorm.DB, wave *models.PickWave) error {
	return tx.Create(wave).Error
}

func (r *PickingRepository) GetWaveByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PickWave, error) {
	var wave models.PickWave
	err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&wave).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wave, nil
}

func (r *PickingRepository) LockWave(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.PickWave, error) {
	var wave models.PickWave
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&wave).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wave, nil
}

func (r *PickingRepository) ListWaves(ctx context.Context, tenantID string, status *models.PickWaveStatus, limit, offset int) ([]models.PickWave, int64, error) {
	var waves []models.PickWave
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PickWave{}).
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
		Find(&waves).Error

	return waves, total, err
}

func (r *PickingRepository) SaveWaveTx(tx *gorm.DB, wave *models.PickWave) error {
	return tx.Save(wave).Error
}

// --- Task Methods ---

func (r *PickingRepository) GetTaskByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PickTask, error) {
	var task models.PickTask
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

func (r *PickingRepository) LockTask(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.PickTask, error) {
	var task models.PickTask
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

func (r *PickingRepository) ListTasksByWave(ctx context.Context, tenantID string, waveID uuid.UUID) ([]models.PickTask, error) {
	var tasks []models.PickTask
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND wave_id = ?", tenantID, waveID).
		Order("sequence ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *PickingRepository) SaveTaskTx(tx *gorm.DB, task *models.PickTask) error {
	return tx.Save(task).Error
}

// CountOpenTasks counts tasks in the wave that are not yet resolved
func (r *PickingRepository) CountOpenTasks(tx *gorm.DB, tenantID string, waveID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&models.PickTask{}).
		Where("tenant_id = ? AND wave_id = ? AND status IN ?",
			tenantID, waveID,
			[]models.PickTaskStatus{models.PickTaskStatusPending, models.PickTaskStatusAssigned}).
		Count(&count).Error
	return count, err
}
