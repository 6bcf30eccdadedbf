package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourcePriority orders candidate source bins.
type SourcePriority string

const (
	SourcePriorityFIFO          SourcePriority = "fifo"
	SourcePrioritySmallestFirst SourcePriority = "smallest_first"
)

// ReplenMethod sizes the generated tasks.
type ReplenMethod string

const (
	ReplenMethodCaseBreak  ReplenMethod = "case_break"
	ReplenMethodFullCase   ReplenMethod = "full_case"
	ReplenMethodPalletDrop ReplenMethod = "pallet_drop"
)

// ReplenTaskStatus is the lifecycle state of a replenishment task.
type ReplenTaskStatus string

const (
	ReplenTaskStatusPending    ReplenTaskStatus = "pending"
	ReplenTaskStatusAssigned   ReplenTaskStatus = "assigned"
	ReplenTaskStatusInProgress ReplenTaskStatus = "in_progress"
	ReplenTaskStatusCompleted  ReplenTaskStatus = "completed"
	ReplenTaskStatusCancelled  ReplenTaskStatus = "cancelled"
)

// ReplenTrigger records what caused a task to be generated.
type ReplenTrigger string

const (
	ReplenTriggerMinMax   ReplenTrigger = "min_max"
	ReplenTriggerManual   ReplenTrigger = "manual"
	ReplenTriggerStockout ReplenTrigger = "stockout"
	ReplenTriggerWave     ReplenTrigger = "wave"
)

// ReplenRule fires when summed on_hand of the pick variant across matching
// pick locations drops to or below MinQty.
type ReplenRule struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ProductID   uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID `json:"warehouseId" gorm:"type:uuid;not null;index"`

	PickVariantID   uuid.UUID `json:"pickVariantId" gorm:"type:uuid;not null;index"`
	SourceVariantID uuid.UUID `json:"sourceVariantId" gorm:"type:uuid;not null;index"`

	PickLocationType   LocationType `json:"pickLocationType" gorm:"type:varchar(20);not null"`
	SourceLocationType LocationType `json:"sourceLocationType" gorm:"type:varchar(20);not null"`

	SourcePriority SourcePriority `json:"sourcePriority" gorm:"type:varchar(20);not null;default:'fifo'"`
	ReplenMethod   ReplenMethod   `json:"replenMethod" gorm:"type:varchar(20);not null;default:'full_case'"`

	// Quantities are in pick-variant base units.
	MinQty int64  `json:"minQty" gorm:"not null"`
	MaxQty *int64 `json:"maxQty,omitempty"`

	Priority int  `json:"priority" gorm:"not null;default:1"`
	IsActive bool `json:"isActive" gorm:"default:true"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// ReplenTask is one planned movement from a source bin to a pick bin.
type ReplenTask struct {
	ID       uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string     `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	RuleID   *uuid.UUID `json:"ruleId,omitempty" gorm:"type:uuid;index"`

	FromLocationID uuid.UUID `json:"fromLocationId" gorm:"type:uuid;not null;index"`
	ToLocationID   uuid.UUID `json:"toLocationId" gorm:"type:uuid;not null;index"`

	// Source-variant units moved and the pick-variant units they become.
	SourceVariantID uuid.UUID `json:"sourceVariantId" gorm:"type:uuid;not null;index"`
	PickVariantID   uuid.UUID `json:"pickVariantId" gorm:"type:uuid;not null;index"`
	QtySourceUnits  int64     `json:"qtySourceUnits" gorm:"not null"`
	QtyTargetUnits  int64     `json:"qtyTargetUnits" gorm:"not null"`
	QtyCompleted    int64     `json:"qtyCompleted" gorm:"not null;default:0"`

	Status      ReplenTaskStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	TriggeredBy ReplenTrigger    `json:"triggeredBy" gorm:"type:varchar(20);not null;default:'min_max'"`
	Priority    int              `json:"priority" gorm:"not null;default:1"`
	AssignedTo  *string          `json:"assignedTo,omitempty" gorm:"type:varchar(255)"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (ReplenRule) TableName() string { return "replen_rules" }
func (ReplenTask) TableName() string { return "replen_tasks" }

// Request/Response models

type CreateReplenRuleRequest struct {
	ProductID          uuid.UUID       `json:"productId" binding:"required"`
	WarehouseID        uuid.UUID       `json:"warehouseId" binding:"required"`
	PickVariantID      uuid.UUID       `json:"pickVariantId" binding:"required"`
	SourceVariantID    uuid.UUID       `json:"sourceVariantId" binding:"required"`
	PickLocationType   LocationType    `json:"pickLocationType" binding:"required"`
	SourceLocationType LocationType    `json:"sourceLocationType" binding:"required"`
	SourcePriority     *SourcePriority `json:"sourcePriority,omitempty"`
	ReplenMethod       *ReplenMethod   `json:"replenMethod,omitempty"`
	MinQty             int64           `json:"minQty" binding:"gte=0"`
	MaxQty             *int64          `json:"maxQty,omitempty"`
	Priority           *int            `json:"priority,omitempty"`
}

type UpdateReplenTaskRequest struct {
	Status       *ReplenTaskStatus `json:"status,omitempty"`
	AssignedTo   *string           `json:"assignedTo,omitempty"`
	QtyCompleted *int64            `json:"qtyCompleted,omitempty"`
}

// ReplenImportWarning is a non-fatal problem in a bulk rule import row.
type ReplenImportWarning struct {
	Row     int    `json:"row"`
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

type ReplenImportResult struct {
	Success      bool                  `json:"success"`
	TotalRows    int                   `json:"totalRows"`
	CreatedCount int                   `json:"createdCount"`
	Warnings     []ReplenImportWarning `json:"warnings,omitempty"`
}

type ReplenRuleResponse struct {
	Success bool        `json:"success"`
	Data    *ReplenRule `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type ReplenRuleListResponse struct {
	Success    bool            `json:"success"`
	Data       []ReplenRule    `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type ReplenTaskListResponse struct {
	Success    bool            `json:"success"`
	Data       []ReplenTask    `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
