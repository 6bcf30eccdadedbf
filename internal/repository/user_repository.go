package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wms-service/internal/models"
)

// UserRepositoryInterface defines user, role and permission persistence
type UserRepositoryInterface interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, tenantID, email string) (*models.User, error)
	ListUsers(ctx context.Context, tenantID string, limit, offset int) ([]models.User, int64, error)
	SaveUser(ctx context.Context, user *models.User) error

	CreateRole(ctx context.Context, role *models.Role) error
	GetRoleByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Role, error)
	ListRoles(ctx context.Context, tenantID string) ([]models.Role, error)
	SetRolePermissions(ctx context.Context, role *models.Role, permissionIDs []uuid.UUID) error
	ListPermissions(ctx context.Context) ([]models.Permission, error)
}

// UserRepository handles database operations for users and roles
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// --- User Methods ---

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetUserByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Role.Permissions").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, tenantID, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Role.Permissions").
		Where("tenant_id = ? AND email = ?", tenantID, email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ListUsers(ctx context.Context, tenantID string, limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{}).
		Where("tenant_id = ?", tenantID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Role").
		Order("email ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error

	return users, total, err
}

func (r *UserRepository) SaveUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// --- Role Methods ---

func (r *UserRepository) CreateRole(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *UserRepository) GetRoleByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *UserRepository) ListRoles(ctx context.Context, tenantID string) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&roles).Error
	return roles, err
}

// SetRolePermissions replaces the role's permission set
func (r *UserRepository) SetRolePermissions(ctx context.Context, role *models.Role, permissionIDs []uuid.UUID) error {
	var permissions []models.Permission
	if len(permissionIDs) > 0 {
		if err := r.db.WithContext(ctx).
			Where("id IN ?", permissionIDs).
			Find(&permissions).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Model(role).Association("Permissions").Replace(permissions)
}

func (r *UserRepository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	err := r.db.WithContext(ctx).
		Order("resource ASC, action ASC").
		Find(&permissions).Error
	return permissions, err
}
