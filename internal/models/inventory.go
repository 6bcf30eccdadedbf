package models

import (
	"time"

	"github.com/google/uuid"
)

// BalanceState is the lifecycle state of located inventory.
type BalanceState string

const (
	BalanceStateOnHand    BalanceState = "on_hand"
	BalanceStateCommitted BalanceState = "committed"
	BalanceStatePicked    BalanceState = "picked"
	BalanceStateShipped   BalanceState = "shipped"
	BalanceStateExternal  BalanceState = "external"
)

// TransactionType classifies a ledger mutation.
type TransactionType string

const (
	TransactionTypeReceipt    TransactionType = "receipt"
	TransactionTypePick       TransactionType = "pick"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeShip       TransactionType = "ship"
	TransactionTypeReturn     TransactionType = "return"
	TransactionTypeReplenish  TransactionType = "replenish"
	TransactionTypeReserve    TransactionType = "reserve"
	TransactionTypeUnreserve  TransactionType = "unreserve"
	TransactionTypeCSVUpload  TransactionType = "csv_upload"
)

// InventoryBalance is one (variant, location, state) cell. Quantity is in
// variant units and never goes negative. Rows are created on first movement
// and never deleted; the row is the synchronization unit for writers.
type InventoryBalance struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string       `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	VariantID  uuid.UUID    `json:"variantId" gorm:"type:uuid;not null;uniqueIndex:idx_balance_cell"`
	LocationID uuid.UUID    `json:"locationId" gorm:"type:uuid;not null;uniqueIndex:idx_balance_cell"`
	State      BalanceState `json:"state" gorm:"type:varchar(20);not null;uniqueIndex:idx_balance_cell"`

	Quantity int64 `json:"quantity" gorm:"not null;default:0"`

	Variant  *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
	Location *Location       `json:"location,omitempty" gorm:"foreignKey:LocationID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InventoryTransaction is the append-only record of every ledger mutation.
// Rows are written once and never updated or deleted.
type InventoryTransaction struct {
	ID       uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string          `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Type     TransactionType `json:"type" gorm:"type:varchar(20);not null;index"`

	VariantID      uuid.UUID  `json:"variantId" gorm:"type:uuid;not null;index"`
	FromLocationID *uuid.UUID `json:"fromLocationId,omitempty" gorm:"type:uuid;index"`
	ToLocationID   *uuid.UUID `json:"toLocationId,omitempty" gorm:"type:uuid;index"`

	SourceState BalanceState `json:"sourceState" gorm:"type:varchar(20);not null"`
	TargetState BalanceState `json:"targetState" gorm:"type:varchar(20);not null"`

	// Signed deltas. BaseQtyDelta = VariantQtyDelta * UnitsPerVariant.
	VariantQtyDelta int64 `json:"variantQtyDelta" gorm:"not null"`
	BaseQtyDelta    int64 `json:"baseQtyDelta" gorm:"not null"`

	// BatchID groups the legs of a transfer (and its undo).
	BatchID *uuid.UUID `json:"batchId,omitempty" gorm:"type:uuid;index"`

	// References
	OrderID          *uuid.UUID `json:"orderId,omitempty" gorm:"type:uuid;index"`
	OrderLineID      *uuid.UUID `json:"orderLineId,omitempty" gorm:"type:uuid;index"`
	ReceivingOrderID *uuid.UUID `json:"receivingOrderId,omitempty" gorm:"type:uuid;index"`
	CycleCountID     *uuid.UUID `json:"cycleCountId,omitempty" gorm:"type:uuid"`
	Reference        *string    `json:"reference,omitempty" gorm:"type:varchar(255)"`

	Reason *string `json:"reason,omitempty" gorm:"type:varchar(100)"`
	UserID *string `json:"userId,omitempty" gorm:"type:varchar(255)"`
	Notes  *string `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (InventoryBalance) TableName() string {
	return "inventory_balances"
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// TxnRefs carries the optional references attached to a ledger operation.
type TxnRefs struct {
	OrderID          *uuid.UUID
	OrderLineID      *uuid.UUID
	ReceivingOrderID *uuid.UUID
	CycleCountID     *uuid.UUID
	Reference        *string
	UserID           *string
	Notes            *string
}

// ATPFigure is the projected availability of one variant at one warehouse.
type ATPFigure struct {
	VariantID       uuid.UUID `json:"variantId"`
	SKU             string    `json:"sku"`
	WarehouseID     uuid.UUID `json:"warehouseId"`
	UnitsPerVariant int64     `json:"unitsPerVariant"`
	ATPBase         int64     `json:"atpBase"`
	ATPUnits        int64     `json:"atpUnits"`
}

// Request/Response models

type TransferRequest struct {
	VariantID      uuid.UUID `json:"variantId" binding:"required"`
	FromLocationID uuid.UUID `json:"fromLocationId" binding:"required"`
	ToLocationID   uuid.UUID `json:"toLocationId" binding:"required"`
	Quantity       int64     `json:"quantity" binding:"required,gt=0"`
	Reference      *string   `json:"reference,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
}

type TransferResponse struct {
	Success       bool      `json:"success"`
	TransactionID uuid.UUID `json:"transactionId"`
	BatchID       uuid.UUID `json:"batchId"`
	UndoToken     string    `json:"undoToken"`
}

type AdjustRequest struct {
	VariantID  uuid.UUID    `json:"variantId" binding:"required"`
	LocationID uuid.UUID    `json:"locationId" binding:"required"`
	State      BalanceState `json:"state" binding:"required"`
	Delta      int64        `json:"delta" binding:"required"`
	Reason     string       `json:"reason" binding:"required"`
	Notes      *string      `json:"notes,omitempty"`
}

type ReceiveRequest struct {
	VariantID    uuid.UUID `json:"variantId" binding:"required"`
	ToLocationID uuid.UUID `json:"toLocationId" binding:"required"`
	Quantity     int64     `json:"quantity" binding:"required,gt=0"`
	Reference    *string   `json:"reference,omitempty"`
}

type TransactionListResponse struct {
	Success    bool                   `json:"success"`
	Data       []InventoryTransaction `json:"data"`
	Pagination *PaginationMeta        `json:"pagination,omitempty"`
}

type BalanceListResponse struct {
	Success    bool               `json:"success"`
	Data       []InventoryBalance `json:"data"`
	Pagination *PaginationMeta    `json:"pagination,omitempty"`
}

type ATPResponse struct {
	Success bool        `json:"success"`
	Data    []ATPFigure `json:"data"`
}

// SKUSearchResult is one row of the inventory SKU quick-search.
type SKUSearchResult struct {
	VariantID uuid.UUID `json:"variantId"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Barcode   *string   `json:"barcode,omitempty"`
	OnHand    int64     `json:"onHand"`
}
