package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStatus is the account state.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusLocked   UserStatus = "locked"
)

// User is an operator account scoped to a tenant.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string     `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Email        string     `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_tenant_user_email"`
	Name         string     `json:"name" gorm:"type:varchar(255);not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`

	RoleID uuid.UUID `json:"roleId" gorm:"type:uuid;not null;index"`
	Role   *Role     `json:"role,omitempty" gorm:"foreignKey:RoleID"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// Role is a named permission bundle.
type Role struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_tenant_role_name"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	IsSystem    bool      `json:"isSystem" gorm:"default:false"`

	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Permission is a resource:action pair such as "purchase_orders:approve".
type Permission struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Resource string    `json:"resource" gorm:"type:varchar(100);not null;uniqueIndex:idx_perm_resource_action"`
	Action   string    `json:"action" gorm:"type:varchar(50);not null;uniqueIndex:idx_perm_resource_action"`

	CreatedAt time.Time `json:"createdAt"`
}

/// Key returns the canonical "resource:action" form used in guards.
func (p Permission) Key() string { return p.Resource + ":" + p.Action }

func (User) TableName() string       { return "users" }
func (Role) TableName() string       { return "roles" }
func (Permission) TableName() string { return "permissions" }

// Request/Response models

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

type CreateUserRequest struct {
	Email    string    `json:"email" binding:"required,email"`
	Name     string    `json:"name" binding:"required"`
	Password string    `json:"password" binding:"required,min=8"`
	RoleID   uuid.UUID `json:"roleId" binding:"required"`
}

type UpdateUserRequest struct {
	Name   *string     `json:"name,omitempty"`
	Status *UserStatus `json:"status,omitempty"`
	RoleID *uuid.UUID  `json:"roleId,omitempty"`
}

type CreateRoleRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   *string  `json:"description,omitempty"`
	PermissionIDs []string `json:"permissionIds,omitempty"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permissionIds" binding:"required"`
}

type UserResponse struct {
	Success bool    `json:"success"`
	Data    *User   `json:"data,omitempty"`
	Message *string `json:"message,omitempty"`
}

type UserListResponse struct {
	Success    bool            `json:"success"`
	Data       []User          `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type RoleResponse struct {
	Success bool    `json:"success"`
	Data    *Role   `json:"data,omitempty"`
	Message *string `json:"message,omitempty"`
}

type RoleListResponse struct {
	Success bool   `json:"success"`
	Data    []Role `json:"data"`
}
