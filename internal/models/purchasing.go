package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseOrderStatus is the lifecycle state of a PO.
type PurchaseOrderStatus string

const (
	POStatusDraft             PurchaseOrderStatus = "draft"
	POStatusPendingApproval   PurchaseOrderStatus = "pending_approval"
	POStatusApproved          PurchaseOrderStatus = "approved"
	POStatusSent              PurchaseOrderStatus = "sent"
	POStatusAcknowledged      PurchaseOrderStatus = "acknowledged"
	POStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	POStatusReceived          PurchaseOrderStatus = "received"
	POStatusClosed            PurchaseOrderStatus = "closed"
	POStatusCancelled         PurchaseOrderStatus = "cancelled"
	POStatusVoid              PurchaseOrderStatus = "void"
)

// POLineStatus derives from the line quantities.
type POLineStatus string

const (
	POLineStatusOpen              POLineStatus = "open"
	POLineStatusPartiallyReceived POLineStatus = "partially_received"
	POLineStatusReceived          POLineStatus = "received"
	POLineStatusClosed            POLineStatus = "closed"
	POLineStatusCancelled         POLineStatus = "cancelled"
)

// POPriority mirrors order priority.
type POPriority string

const (
	POPriorityNormal POPriority = "normal"
	POPriorityHigh   POPriority = "high"
	POPriorityRush   POPriority = "rush"
)

// Vendor is a supplier of purchased goods.
type Vendor struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Code     string    `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_vendor_code"`
	Name     string    `json:"name" gorm:"type:varchar(255);not null"`

	ContactName  *string `json:"contactName,omitempty" gorm:"type:varchar(255)"`
	Email        *string `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone        *string `json:"phone,omitempty" gorm:"type:varchar(50)"`
	CurrencyCode string  `json:"currencyCode" gorm:"type:varchar(3);not null;default:'USD'"`
	PaymentTerms *string `json:"paymentTerms,omitempty" gorm:"type:varchar(255)"`
	IsActive     bool    `json:"isActive" gorm:"default:true"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// VendorProduct links a vendor to a variant it supplies, with the vendor's
// unit cost. Preferred vendors drive reorder → PO grouping.
type VendorProduct struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	VendorID  uuid.UUID `json:"vendorId" gorm:"type:uuid;not null;index;uniqueIndex:idx_vendor_variant"`
	VariantID uuid.UUID `json:"variantId" gorm:"type:uuid;not null;index;uniqueIndex:idx_vendor_variant"`

	VendorSKU     *string `json:"vendorSku,omitempty" gorm:"type:varchar(100)"`
	UnitCostCents int64   `json:"unitCostCents" gorm:"not null;default:0"`
	IsPreferred   bool    `json:"isPreferred" gorm:"default:false"`
	LeadTimeDays  *int    `json:"leadTimeDays,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApprovalTier gates PO submission by grand total. The lowest matching tier
// (by MinTotalCents) wins; a PO below every tier auto-approves.
type ApprovalTier struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Name     string    `json:"name" gorm:"type:varchar(255);not null"`

	MinTotalCents int64  `json:"minTotalCents" gorm:"not null"`
	MaxTotalCents *int64 `json:"maxTotalCents,omitempty"`
	ApproverRole  string `json:"approverRole" gorm:"type:varchar(100);not null"`
	IsActive      bool   `json:"isActive" gorm:"default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PurchaseOrder is an order to a vendor. All money is in integer cents.
type PurchaseOrder struct {
	ID       uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string              `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	PONumber string              `json:"poNumber" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_po_number"`
	Status   PurchaseOrderStatus `json:"status" gorm:"type:varchar(30);not null;default:'draft';index"`
	Priority POPriority          `json:"priority" gorm:"type:varchar(10);not null;default:'normal'"`

	VendorID    uuid.UUID  `json:"vendorId" gorm:"type:uuid;not null;index"`
	Vendor      *Vendor    `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	WarehouseID *uuid.UUID `json:"warehouseId,omitempty" gorm:"type:uuid;index"`
	Warehouse   *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`

	CurrencyCode string `json:"currencyCode" gorm:"type:varchar(3);not null;default:'USD'"`

	ExpectedDeliveryDate  *time.Time `json:"expectedDeliveryDate,omitempty"`
	ConfirmedDeliveryDate *time.Time `json:"confirmedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time `json:"actualDeliveryDate,omitempty"`

	// Totals in cents. Header amounts are flat; line totals roll up.
	SubtotalCents       int64 `json:"subtotalCents" gorm:"not null;default:0"`
	HeaderDiscountCents int64 `json:"headerDiscountCents" gorm:"not null;default:0"`
	HeaderTaxCents      int64 `json:"headerTaxCents" gorm:"not null;default:0"`
	HeaderShippingCents int64 `json:"headerShippingCents" gorm:"not null;default:0"`
	GrandTotalCents     int64 `json:"grandTotalCents" gorm:"not null;default:0"`

	ApprovalTierID *uuid.UUID `json:"approvalTierId,omitempty" gorm:"type:uuid"`
	RevisionNumber int        `json:"revisionNumber" gorm:"not null;default:0"`

	Notes *string `json:"notes,omitempty" gorm:"type:text"`

	// Audit trail of status transitions
	SubmittedBy    *string    `json:"submittedBy,omitempty"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
	ApprovedBy     *string    `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	SentBy         *string    `json:"sentBy,omitempty"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ClosedBy       *string    `json:"closedBy,omitempty"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	CancelledBy    *string    `json:"cancelledBy,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy *string         `json:"createdBy,omitempty"`
	UpdatedBy *string         `json:"updatedBy,omitempty"`

	Lines []PurchaseOrderLine `json:"lines,omitempty" gorm:"foreignKey:PurchaseOrderID"`
}

// PurchaseOrderLine is one variant on a PO.
// Invariant: ReceivedQty + CancelledQty <= OrderQty.
type PurchaseOrderLine struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	PurchaseOrderID uuid.UUID `json:"purchaseOrderId" gorm:"type:uuid;not null;index"`
	LineNumber      int       `json:"lineNumber" gorm:"not null"`

	ProductID       uuid.UUID  `json:"productId" gorm:"type:uuid;not null;index"`
	VariantID       uuid.UUID  `json:"variantId" gorm:"type:uuid;not null;index"`
	VendorProductID *uuid.UUID `json:"vendorProductId,omitempty" gorm:"type:uuid"`
	SKU             string     `json:"sku" gorm:"type:varchar(100);not null"`

	UnitCostCents int64 `json:"unitCostCents" gorm:"not null"`
	OrderQty      int64 `json:"orderQty" gorm:"not null"`
	ReceivedQty   int64 `json:"receivedQty" gorm:"not null;default:0"`
	CancelledQty  int64 `json:"cancelledQty" gorm:"not null;default:0"`
	DamagedQty    int64 `json:"damagedQty" gorm:"not null;default:0"`

	DiscountPct float64 `json:"discountPct" gorm:"type:decimal(5,2);not null;default:0"`
	TaxPct      float64 `json:"taxPct" gorm:"type:decimal(5,2);not null;default:0"`

	LineTotalCents int64        `json:"lineTotalCents" gorm:"not null;default:0"`
	Status         POLineStatus `json:"status" gorm:"type:varchar(30);not null;default:'open'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeriveStatus computes the line status from its quantities.
func (l *PurchaseOrderLine) DeriveStatus() POLineStatus {
	switch {
	case l.CancelledQty >= l.OrderQty:
		return POLineStatusCancelled
	case l.ReceivedQty+l.CancelledQty >= l.OrderQty:
		return POLineStatusReceived
	case l.ReceivedQty > 0:
		return POLineStatusPartiallyReceived
	default:
		return POLineStatusOpen
	}
}

// OpenQty is the quantity still expected on the line.
func (l *PurchaseOrderLine) OpenQty() int64 {
	open := l.OrderQty - l.ReceivedQty - l.CancelledQty
	if open < 0 {
		return 0
	}
	return open
}

// PoRevision snapshots line-level fields around a post-sent modification.
type PoRevision struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	PurchaseOrderID uuid.UUID `json:"purchaseOrderId" gorm:"type:uuid;not null;index"`
	RevisionNumber  int       `json:"revisionNumber" gorm:"not null"`

	Before datatypes.JSON `json:"before" gorm:"type:jsonb"`
	After  datatypes.JSON `json:"after" gorm:"type:jsonb"`

	ChangedBy *string   `json:"changedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Vendor) TableName() string            { return "vendors" }
func (VendorProduct) TableName() string     { return "vendor_products" }
func (ApprovalTier) TableName() string      { return "approval_tiers" }
func (PurchaseOrder) TableName() string     { return "purchase_orders" }
func (PurchaseOrderLine) TableName() string { return "purchase_order_lines" }
func (PoRevision) TableName() string        { return "po_revisions" }

// OnOrderSummary is the open on-order quantity for a variant.
type OnOrderSummary struct {
	VariantID            uuid.UUID  `json:"variantId"`
	OnOrderQty           int64      `json:"onOrderQty"`
	EarliestExpectedDate *time.Time `json:"earliestExpectedDate,omitempty"`
}

// Request/Response models

type CreateVendorRequest struct {
	Code         string  `json:"code" binding:"required,min=1,max=50"`
	Name         string  `json:"name" binding:"required,min=1,max=255"`
	ContactName  *string `json:"contactName,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	CurrencyCode *string `json:"currencyCode,omitempty"`
	PaymentTerms *string `json:"paymentTerms,omitempty"`
}

type CreatePurchaseOrderRequest struct {
	VendorID             uuid.UUID                        `json:"vendorId" binding:"required"`
	WarehouseID          *uuid.UUID                       `json:"warehouseId,omitempty"`
	Priority             *POPriority                      `json:"priority,omitempty"`
	CurrencyCode         *string                          `json:"currencyCode,omitempty"`
	ExpectedDeliveryDate *time.Time                       `json:"expectedDeliveryDate,omitempty"`
	HeaderDiscountCents  *int64                           `json:"headerDiscountCents,omitempty"`
	HeaderTaxCents       *int64                           `json:"headerTaxCents,omitempty"`
	HeaderShippingCents  *int64                           `json:"headerShippingCents,omitempty"`
	Notes                *string                          `json:"notes,omitempty"`
	Lines                []CreatePurchaseOrderLineRequest `json:"lines,omitempty"`
}

type CreatePurchaseOrderLineRequest struct {
	VariantID     uuid.UUID `json:"variantId" binding:"required"`
	OrderQty      int64     `json:"orderQty" binding:"required,gt=0"`
	UnitCostCents int64     `json:"unitCostCents" binding:"gte=0"`
	DiscountPct   *float64  `json:"discountPct,omitempty"`
	TaxPct        *float64  `json:"taxPct,omitempty"`
}

// ReorderItem is one row of a reorder-to-PO request.
type ReorderItem struct {
	ProductID    uuid.UUID `json:"productId" binding:"required"`
	VariantID    uuid.UUID `json:"variantId" binding:"required"`
	SuggestedQty int64     `json:"suggestedQty" binding:"required,gt=0"`
}

type ReorderRequest struct {
	Items []ReorderItem `json:"items" binding:"required,min=1"`
}

type PurchaseOrderResponse struct {
	Success bool           `json:"success"`
	Data    *PurchaseOrder `json:"data,omitempty"`
	Message *string        `json:"message,omitempty"`
}

type PurchaseOrderListResponse struct {
	Success    bool            `json:"success"`
	Data       []PurchaseOrder `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type VendorResponse struct {
	Success bool    `json:"success"`
	Data    *Vendor `json:"data,omitempty"`
	Message *string `json:"message,omitempty"`
}

type VendorListResponse struct {
	Success    bool            `json:"success"`
	Data       []Vendor        `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
