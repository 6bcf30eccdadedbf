package models

import (
	"time"

	"github.com/google/uuid"
)

// PickWaveStatus is the lifecycle state of a wave.
type PickWaveStatus string

const (
	WaveStatusOpen       PickWaveStatus = "open"
	WaveStatusInProgress PickWaveStatus = "in_progress"
	WaveStatusCompleted  PickWaveStatus = "completed"
	WaveStatusCancelled  PickWaveStatus = "cancelled"
)

// PickTaskStatus is the lifecycle state of one pick.
type PickTaskStatus string

const (
	PickTaskStatusPending   PickTaskStatus = "pending"
	PickTaskStatusAssigned  PickTaskStatus = "assigned"
	PickTaskStatusPicked    PickTaskStatus = "picked"
	PickTaskStatusShort     PickTaskStatus = "short"
	PickTaskStatusException PickTaskStatus = "exception"
	PickTaskStatusCancelled PickTaskStatus = "cancelled"
)

// PickMode is a per-operator setting.
type PickMode string

const (
	PickModeSingle PickMode = "single"
	PickModeBatch  PickMode = "batch"
)

// PickWave groups released orders for simultaneous picking.
type PickWave struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string         `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	WaveNumber  string         `json:"waveNumber" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_wave_number"`
	WarehouseID uuid.UUID      `json:"warehouseId" gorm:"type:uuid;not null;index"`
	Status      PickWaveStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	Mode        PickMode       `json:"mode" gorm:"type:varchar(10);not null;default:'single'"`

	OrderCount int `json:"orderCount" gorm:"not null;default:0"`
	TaskCount  int `json:"taskCount" gorm:"not null;default:0"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Tasks []PickTask `json:"tasks,omitempty" gorm:"foreignKey:WaveID"`
}

// PickTask is one (variant, source location, qty, target order) pick. For
// combined groups the task references the group parent.
type PickTask struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	WaveID   uuid.UUID `json:"waveId" gorm:"type:uuid;not null;index"`
	Sequence int       `json:"sequence" gorm:"not null"`

	VariantID   uuid.UUID `json:"variantId" gorm:"type:uuid;not null;index"`
	SKU         string    `json:"sku" gorm:"type:varchar(100);not null"`
	LocationID  uuid.UUID `json:"locationId" gorm:"type:uuid;not null;index"`
	OrderID     uuid.UUID `json:"orderId" gorm:"type:uuid;not null;index"`
	OrderLineID uuid.UUID `json:"orderLineId" gorm:"type:uuid;not null;index"`

	RequestedQty int64 `json:"requestedQty" gorm:"not null"`
	PickedQty    int64 `json:"pickedQty" gorm:"not null;default:0"`

	Status     PickTaskStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	AssignedTo *string        `json:"assignedTo,omitempty" gorm:"type:varchar(255)"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (PickWave) TableName() string { return "pick_waves" }
func (PickTask) TableName() string { return "pick_tasks" }

// Request/Response models

type GenerateWaveRequest struct {
	WarehouseID uuid.UUID   `json:"warehouseId" binding:"required"`
	OrderIDs    []uuid.UUID `json:"orderIds" binding:"required,min=1"`
	Mode        *PickMode   `json:"mode,omitempty"`
}

type ConfirmPickRequest struct {
	PickedQty int64   `json:"pickedQty" binding:"gte=0"`
	PickedBy  *string `json:"pickedBy,omitempty"`
}

type PickWaveResponse struct {
	Success bool      `json:"success"`
	Data    *PickWave `json:"data,omitempty"`
	Message *string   `json:"message,omitempty"`
}

type PickWaveListResponse struct {
	Success    bool            `json:"success"`
	Data       []PickWave      `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
