package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SalesOrderStatus is the operational status of a sales order.
type SalesOrderStatus string

const (
	OrderStatusReady      SalesOrderStatus = "ready"
	OrderStatusInProgress SalesOrderStatus = "in_progress"
	OrderStatusException  SalesOrderStatus = "exception"
	OrderStatusCompleted  SalesOrderStatus = "completed"
	OrderStatusShipped    SalesOrderStatus = "shipped"
	OrderStatusCancelled  SalesOrderStatus = "cancelled"
)

// OrderPriority orders picking queues.
type OrderPriority string

const (
	OrderPriorityNormal OrderPriority = "normal"
	OrderPriorityHigh   OrderPriority = "high"
	OrderPriorityRush   OrderPriority = "rush"
)

// CombinedRole marks an order's position inside a combined group.
type CombinedRole string

const (
	CombinedRoleParent CombinedRole = "parent"
	CombinedRoleChild  CombinedRole = "child"
)

// SalesOrderLineStatus tracks per-line fulfillment.
type SalesOrderLineStatus string

const (
	OrderLineStatusOpen      SalesOrderLineStatus = "open"
	OrderLineStatusAllocated SalesOrderLineStatus = "allocated"
	OrderLineStatusPicking   SalesOrderLineStatus = "picking"
	OrderLineStatusPicked    SalesOrderLineStatus = "picked"
	OrderLineStatusShipped   SalesOrderLineStatus = "shipped"
	OrderLineStatusException SalesOrderLineStatus = "exception"
	OrderLineStatusCancelled SalesOrderLineStatus = "cancelled"
)

// AutoReleaseInterval governs when allocated orders enter the picking queue.
type AutoReleaseInterval string

const (
	AutoReleaseImmediate AutoReleaseInterval = "immediate"
	AutoReleaseEvery5m   AutoReleaseInterval = "every_5m"
	AutoReleaseEvery15m  AutoReleaseInterval = "every_15m"
	AutoReleaseHourly    AutoReleaseInterval = "hourly"
)

// ShippingAddress is the destination; its normalized hash drives combining.
type ShippingAddress struct {
	Name       string `json:"name"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// SalesOrder is an order sourced from a channel or entered manually.
type SalesOrder struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string           `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	OrderNumber string           `json:"orderNumber" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_order_number"`
	ChannelID   *uuid.UUID       `json:"channelId,omitempty" gorm:"type:uuid;index"`
	Status      SalesOrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'ready';index"`
	Priority    OrderPriority    `json:"priority" gorm:"type:varchar(10);not null;default:'normal'"`
	OnHold      bool             `json:"onHold" gorm:"default:false"`

	CustomerName  string  `json:"customerName" gorm:"type:varchar(255);not null"`
	CustomerEmail *string `json:"customerEmail,omitempty" gorm:"type:varchar(255)"`

	ShipName       string `json:"shipName" gorm:"type:varchar(255);not null"`
	ShipStreet1    string `json:"shipStreet1" gorm:"type:varchar(255);not null"`
	ShipStreet2    string `json:"shipStreet2" gorm:"type:varchar(255)"`
	ShipCity       string `json:"shipCity" gorm:"type:varchar(100);not null"`
	ShipState      string `json:"shipState" gorm:"type:varchar(100);not null"`
	ShipPostalCode string `json:"shipPostalCode" gorm:"type:varchar(20);not null"`
	ShipCountry    string `json:"shipCountry" gorm:"type:varchar(100);not null"`

	// Combined-group membership; an order joins at most one group.
	CombinedGroupID *uuid.UUID    `json:"combinedGroupId,omitempty" gorm:"type:uuid;index"`
	CombinedRole    *CombinedRole `json:"combinedRole,omitempty" gorm:"type:varchar(10)"`

	ReleasedAt *time.Time `json:"releasedAt,omitempty"`
	ShippedAt  *time.Time `json:"shippedAt,omitempty"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Lines []SalesOrderLine `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
}

// Address assembles the shipping address value from the stored columns.
func (o *SalesOrder) Address() ShippingAddress {
	return ShippingAddress{
		Name:       o.ShipName,
		Street1:    o.ShipStreet1,
		Street2:    o.ShipStreet2,
		City:       o.ShipCity,
		State:      o.ShipState,
		PostalCode: o.ShipPostalCode,
		Country:    o.ShipCountry,
	}
}

// SalesOrderLine is one variant demand on an order.
type SalesOrderLine struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	OrderID  uuid.UUID `json:"orderId" gorm:"type:uuid;not null;index"`

	VariantID  uuid.UUID            `json:"variantId" gorm:"type:uuid;not null;index"`
	SKU        string               `json:"sku" gorm:"type:varchar(100);not null"`
	OrderedQty int64                `json:"orderedQty" gorm:"not null"`
	PickedQty  int64                `json:"pickedQty" gorm:"not null;default:0"`
	Status     SalesOrderLineStatus `json:"status" gorm:"type:varchar(20);not null;default:'open'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OMSSettings holds tenant-level order-management configuration.
type OMSSettings struct {
	ID          uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string              `json:"tenantId" gorm:"type:varchar(255);not null;uniqueIndex"`
	AutoRelease AutoReleaseInterval `json:"autoRelease" gorm:"type:varchar(20);not null;default:'immediate'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SalesOrder) TableName() string     { return "sales_orders" }
func (SalesOrderLine) TableName() string { return "sales_order_lines" }
func (OMSSettings) TableName() string    { return "oms_settings" }

// Request/Response models

type CreateSalesOrderRequest struct {
	ChannelID     *uuid.UUID                    `json:"channelId,omitempty"`
	Priority      *OrderPriority                `json:"priority,omitempty"`
	CustomerName  string                        `json:"customerName" binding:"required"`
	CustomerEmail *string                       `json:"customerEmail,omitempty"`
	Address       ShippingAddress               `json:"address" binding:"required"`
	Lines         []CreateSalesOrderLineRequest `json:"lines" binding:"required,min=1"`
}

type CreateSalesOrderLineRequest struct {
	VariantID  uuid.UUID `json:"variantId" binding:"required"`
	OrderedQty int64     `json:"orderedQty" binding:"required,gt=0"`
}

type CombineOrdersRequest struct {
	OrderIDs []uuid.UUID `json:"orderIds" binding:"required,min=2"`
}

type CombineOrdersResponse struct {
	Success         bool      `json:"success"`
	CombinedGroupID uuid.UUID `json:"combinedGroupId"`
	ParentOrderID   uuid.UUID `json:"parentOrderId"`
}

type SalesOrderResponse struct {
	Success bool        `json:"success"`
	Data    *SalesOrder `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type SalesOrderListResponse struct {
	Success    bool            `json:"success"`
	Data       []SalesOrder    `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
