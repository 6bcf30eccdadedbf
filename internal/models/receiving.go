package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceivingSourceType tells the receiving flow where expectations come from.
type ReceivingSourceType string

const (
	ReceivingSourceBlind       ReceivingSourceType = "blind"
	ReceivingSourcePO          ReceivingSourceType = "po"
	ReceivingSourceASN         ReceivingSourceType = "asn"
	ReceivingSourceInitialLoad ReceivingSourceType = "initial_load"
)

// ReceivingOrderStatus is the lifecycle state of a receipt.
type ReceivingOrderStatus string

const (
	ReceivingStatusDraft     ReceivingOrderStatus = "draft"
	ReceivingStatusOpen      ReceivingOrderStatus = "open"
	ReceivingStatusReceiving ReceivingOrderStatus = "receiving"
	ReceivingStatusClosed    ReceivingOrderStatus = "closed"
)

// ReceivingLineStatus derives from expected vs received quantities.
type ReceivingLineStatus string

const (
	ReceivingLineStatusPending  ReceivingLineStatus = "pending"
	ReceivingLineStatusPartial  ReceivingLineStatus = "partial"
	ReceivingLineStatusComplete ReceivingLineStatus = "complete"
	ReceivingLineStatusOverage  ReceivingLineStatus = "overage"
)

// ReceivingOrder is one receipt against a PO, an ASN, or blind intake.
// Closing a receipt commits ledger transactions and cannot be undone.
type ReceivingOrder struct {
	ID            uuid.UUID            `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string               `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ReceiptNumber string               `json:"receiptNumber" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_receipt_number"`
	SourceType    ReceivingSourceType  `json:"sourceType" gorm:"type:varchar(20);not null"`
	Status        ReceivingOrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`

	VendorID        *uuid.UUID `json:"vendorId,omitempty" gorm:"type:uuid;index"`
	WarehouseID     *uuid.UUID `json:"warehouseId,omitempty" gorm:"type:uuid;index"`
	PurchaseOrderID *uuid.UUID `json:"purchaseOrderId,omitempty" gorm:"type:uuid;index"`

	ExpectedLineCount int64 `json:"expectedLineCount" gorm:"not null;default:0"`
	ExpectedUnitCount int64 `json:"expectedUnitCount" gorm:"not null;default:0"`
	ReceivedLineCount int64 `json:"receivedLineCount" gorm:"not null;default:0"`
	ReceivedUnitCount int64 `json:"receivedUnitCount" gorm:"not null;default:0"`

	Notes *string `json:"notes,omitempty" gorm:"type:text"`

	ClosedBy *string    `json:"closedBy,omitempty"`
	ClosedAt *time.Time `json:"closedAt,omitempty"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy *string         `json:"createdBy,omitempty"`

	Lines []ReceivingLine `json:"lines,omitempty" gorm:"foreignKey:ReceivingOrderID"`
}

// ReceivingLine is one SKU on a receipt.
type ReceivingLine struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID         string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ReceivingOrderID uuid.UUID `json:"receivingOrderId" gorm:"type:uuid;not null;index"`

	VariantID *uuid.UUID `json:"variantId,omitempty" gorm:"type:uuid;index"`
	POLineID  *uuid.UUID `json:"poLineId,omitempty" gorm:"type:uuid;index"`
	SKU       string     `json:"sku" gorm:"type:varchar(100);not null"`
	Name      *string    `json:"name,omitempty" gorm:"type:varchar(255)"`

	ExpectedQty int64 `json:"expectedQty" gorm:"not null;default:0"`
	ReceivedQty int64 `json:"receivedQty" gorm:"not null;default:0"`
	DamagedQty  int64 `json:"damagedQty" gorm:"not null;default:0"`

	UnitCostCents *int64     `json:"unitCostCents,omitempty"`
	PutawayLocID  *uuid.UUID `json:"putawayLocationId,omitempty" gorm:"type:uuid;index"`

	Status ReceivingLineStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`

	Notes *string `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeriveStatus computes the line status from its quantities.
func (l *ReceivingLine) DeriveStatus() ReceivingLineStatus {
	switch {
	case l.ExpectedQty > 0 && l.ReceivedQty > l.ExpectedQty:
		return ReceivingLineStatusOverage
	case l.ExpectedQty > 0 && l.ReceivedQty >= l.ExpectedQty:
		return ReceivingLineStatusComplete
	case l.ReceivedQty > 0:
		if l.ExpectedQty == 0 {
			return ReceivingLineStatusComplete
		}
		return ReceivingLineStatusPartial
	default:
		return ReceivingLineStatusPending
	}
}

func (ReceivingOrder) TableName() string { return "receiving_orders" }
func (ReceivingLine) TableName() string  { return "receiving_lines" }

// Request/Response models

type CreateReceivingOrderRequest struct {
	SourceType      ReceivingSourceType `json:"sourceType" binding:"required"`
	VendorID        *uuid.UUID          `json:"vendorId,omitempty"`
	WarehouseID     *uuid.UUID          `json:"warehouseId,omitempty"`
	PurchaseOrderID *uuid.UUID          `json:"purchaseOrderId,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
}

type CreateReceivingLineRequest struct {
	SKU           string     `json:"sku" binding:"required"`
	Name          *string    `json:"name,omitempty"`
	ExpectedQty   int64      `json:"expectedQty" binding:"gte=0"`
	ReceivedQty   int64      `json:"receivedQty" binding:"gte=0"`
	DamagedQty    int64      `json:"damagedQty" binding:"gte=0"`
	UnitCostCents *int64     `json:"unitCostCents,omitempty"`
	PutawayLocID  *uuid.UUID `json:"putawayLocationId,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

type UpdateReceivingLineRequest struct {
	ReceivedQty  *int64     `json:"receivedQty,omitempty"`
	DamagedQty   *int64     `json:"damagedQty,omitempty"`
	PutawayLocID *uuid.UUID `json:"putawayLocationId,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// ReceivingImportRowError reports one failed row of a bulk line import.
type ReceivingImportRowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ReceivingImportResult struct {
	Success      bool                      `json:"success"`
	TotalRows    int                       `json:"totalRows"`
	SuccessCount int                       `json:"successCount"`
	FailedCount  int                       `json:"failedCount"`
	Errors       []ReceivingImportRowError `json:"errors,omitempty"`
}

type ReceivingOrderResponse struct {
	Success bool            `json:"success"`
	Data    *ReceivingOrder `json:"data,omitempty"`
	Message *string         `json:"message,omitempty"`
}

type ReceivingOrderListResponse struct {
	Success    bool             `json:"success"`
	Data       []ReceivingOrder `json:"data"`
	Pagination *PaginationMeta  `json:"pagination,omitempty"`
}
