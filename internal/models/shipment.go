package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShipmentMode is the freight mode; it selects the default allocation method.
type ShipmentMode string

const (
	ShipmentModeSeaFCL  ShipmentMode = "sea_fcl"
	ShipmentModeSeaLCL  ShipmentMode = "sea_lcl"
	ShipmentModeAir     ShipmentMode = "air"
	ShipmentModeGround  ShipmentMode = "ground"
	ShipmentModeLTL     ShipmentMode = "ltl"
	ShipmentModeFTL     ShipmentMode = "ftl"
	ShipmentModeParcel  ShipmentMode = "parcel"
	ShipmentModeCourier ShipmentMode = "courier"
)

// InboundShipmentStatus is the lifecycle state of an inbound shipment.
type InboundShipmentStatus string

const (
	ShipmentStatusDraft            InboundShipmentStatus = "draft"
	ShipmentStatusBooked           InboundShipmentStatus = "booked"
	ShipmentStatusInTransit        InboundShipmentStatus = "in_transit"
	ShipmentStatusAtPort           InboundShipmentStatus = "at_port"
	ShipmentStatusCustomsClearance InboundShipmentStatus = "customs_clearance"
	ShipmentStatusDelivered        InboundShipmentStatus = "delivered"
	ShipmentStatusCosting          InboundShipmentStatus = "costing"
	ShipmentStatusClosed           InboundShipmentStatus = "closed"
	ShipmentStatusCancelled        InboundShipmentStatus = "cancelled"
)

// AllocationMethod distributes a shipment cost across lines.
type AllocationMethod string

const (
	AllocateByVolume           AllocationMethod = "by_volume"
	AllocateByChargeableWeight AllocationMethod = "by_chargeable_weight"
	AllocateByWeight           AllocationMethod = "by_weight"
	AllocateByValue            AllocationMethod = "by_value"
	AllocateByLineCount        AllocationMethod = "by_line_count"
)

// CostType classifies a shipment cost row.
type CostType string

const (
	CostTypeFreight      CostType = "freight"
	CostTypeDuty         CostType = "duty"
	CostTypeInsurance    CostType = "insurance"
	CostTypeDrayage      CostType = "drayage"
	CostTypePortHandling CostType = "port_handling"
	CostTypeBrokerage    CostType = "brokerage"
	CostTypeInspection   CostType = "inspection"
	CostTypeOther        CostType = "other"
)

// InboundShipment is a booked consignment from origin to warehouse.
type InboundShipment struct {
	ID             uuid.UUID             `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string                `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ShipmentNumber string                `json:"shipmentNumber" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_shipment_number"`
	Status         InboundShipmentStatus `json:"status" gorm:"type:varchar(30);not null;default:'draft';index"`
	Mode           ShipmentMode          `json:"mode" gorm:"type:varchar(20);not null"`

	CarrierName     *string `json:"carrierName,omitempty" gorm:"type:varchar(255)"`
	ForwarderName   *string `json:"forwarderName,omitempty" gorm:"type:varchar(255)"`
	OriginPort      *string `json:"originPort,omitempty" gorm:"type:varchar(100)"`
	DestinationPort *string `json:"destinationPort,omitempty" gorm:"type:varchar(100)"`
	ContainerNumber *string `json:"containerNumber,omitempty" gorm:"type:varchar(50)"`
	BOLNumber       *string `json:"bolNumber,omitempty" gorm:"type:varchar(50)"`
	TrackingNumber  *string `json:"trackingNumber,omitempty" gorm:"type:varchar(100)"`

	ETD *time.Time `json:"etd,omitempty"`
	ETA *time.Time `json:"eta,omitempty"`

	AllocationMethodDefault *AllocationMethod `json:"allocationMethodDefault,omitempty" gorm:"type:varchar(30)"`

	// Aggregates maintained from lines
	TotalWeightKG           float64 `json:"totalWeightKg" gorm:"type:decimal(12,3);not null;default:0"`
	TotalVolumeCBM          float64 `json:"totalVolumeCbm" gorm:"type:decimal(12,4);not null;default:0"`
	TotalPieces             int64   `json:"totalPieces" gorm:"not null;default:0"`
	TotalCartons            int64   `json:"totalCartons" gorm:"not null;default:0"`
	EstimatedTotalCostCents int64   `json:"estimatedTotalCostCents" gorm:"not null;default:0"`
	ActualTotalCostCents    int64   `json:"actualTotalCostCents" gorm:"not null;default:0"`

	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`

	Notes *string `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy *string         `json:"createdBy,omitempty"`

	Lines []InboundShipmentLine `json:"lines,omitempty" gorm:"foreignKey:ShipmentID"`
	Costs []ShipmentCost        `json:"costs,omitempty" gorm:"foreignKey:ShipmentID"`
}

// InboundShipmentLine is one variant on a shipment, optionally tied to a PO
// line. Derived weight/volume figures feed the allocation engine.
type InboundShipmentLine struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string     `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ShipmentID uuid.UUID  `json:"shipmentId" gorm:"type:uuid;not null;index"`
	POLineID   *uuid.UUID `json:"poLineId,omitempty" gorm:"type:uuid;index"`
	VariantID  uuid.UUID  `json:"variantId" gorm:"type:uuid;not null;index"`

	QtyShipped int64 `json:"qtyShipped" gorm:"not null"`

	// Per-unit dimensions
	UnitWeightKG float64 `json:"unitWeightKg" gorm:"type:decimal(10,3);not null;default:0"`
	UnitLengthCM float64 `json:"unitLengthCm" gorm:"type:decimal(10,2);not null;default:0"`
	UnitWidthCM  float64 `json:"unitWidthCm" gorm:"type:decimal(10,2);not null;default:0"`
	UnitHeightCM float64 `json:"unitHeightCm" gorm:"type:decimal(10,2);not null;default:0"`

	// Optional measured gross volume; preferred over the derived figure.
	GrossVolumeCBM *float64 `json:"grossVolumeCbm,omitempty" gorm:"type:decimal(12,4)"`

	// Derived
	TotalWeightKG      float64 `json:"totalWeightKg" gorm:"type:decimal(12,3);not null;default:0"`
	TotalVolumeCBM     float64 `json:"totalVolumeCbm" gorm:"type:decimal(12,4);not null;default:0"`
	ChargeableWeightKG float64 `json:"chargeableWeightKg" gorm:"type:decimal(12,3);not null;default:0"`

	AllocatedCostCents  int64 `json:"allocatedCostCents" gorm:"not null;default:0"`
	LandedUnitCostCents int64 `json:"landedUnitCostCents" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ShipmentCost is one itemized cost on a shipment. EffectiveCents prefers the
// actual amount over the estimate.
type ShipmentCost struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ShipmentID uuid.UUID `json:"shipmentId" gorm:"type:uuid;not null;index"`

	CostType       CostType `json:"costType" gorm:"type:varchar(30);not null"`
	Description    *string  `json:"description,omitempty" gorm:"type:varchar(255)"`
	EstimatedCents int64    `json:"estimatedCents" gorm:"not null;default:0"`
	ActualCents    *int64   `json:"actualCents,omitempty"`

	AllocationMethod *AllocationMethod `json:"allocationMethod,omitempty" gorm:"type:varchar(30)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectiveCents is the amount the allocation engine distributes.
func (c *ShipmentCost) EffectiveCents() int64 {
	if c.ActualCents != nil {
		return *c.ActualCents
	}
	return c.EstimatedCents
}

// ShipmentCostAllocation is the per-(cost, line) split of one allocation run.
// Rows are deleted and recomputed on each run.
type ShipmentCostAllocation struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ShipmentCostID uuid.UUID `json:"shipmentCostId" gorm:"type:uuid;not null;index"`
	ShipmentLineID uuid.UUID `json:"shipmentLineId" gorm:"type:uuid;not null;index"`

	AllocatedCents int64   `json:"allocatedCents" gorm:"not null"`
	BasisValue     float64 `json:"basisValue" gorm:"type:decimal(14,4);not null"`
	BasisTotal     float64 `json:"basisTotal" gorm:"type:decimal(14,4);not null"`
	SharePct       float64 `json:"sharePct" gorm:"type:decimal(7,4);not null"`

	CreatedAt time.Time `json:"createdAt"`
}

// LandedCostSnapshot is the immutable per-line cost record written at
// finalization.
type LandedCostSnapshot struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ShipmentID     uuid.UUID `json:"shipmentId" gorm:"type:uuid;not null;index"`
	ShipmentLineID uuid.UUID `json:"shipmentLineId" gorm:"type:uuid;not null;uniqueIndex"`

	POUnitCostCents      int64 `json:"poUnitCostCents" gorm:"not null"`
	FreightCents         int64 `json:"freightCents" gorm:"not null;default:0"`
	DutyCents            int64 `json:"dutyCents" gorm:"not null;default:0"`
	InsuranceCents       int64 `json:"insuranceCents" gorm:"not null;default:0"`
	OtherCents           int64 `json:"otherCents" gorm:"not null;default:0"`
	TotalLandedCostCents int64 `json:"totalLandedCostCents" gorm:"not null"`
	LandedUnitCostCents  int64 `json:"landedUnitCostCents" gorm:"not null"`
	Qty                  int64 `json:"qty" gorm:"not null"`

	FinalizedAt time.Time `json:"finalizedAt"`
}

// InventoryLot is a provisional cost lot created at receipt; finalization of
// the shipment replaces its provisional unit cost with the landed figure.
type InventoryLot struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string     `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	VariantID uuid.UUID  `json:"variantId" gorm:"type:uuid;not null;index"`
	POLineID  *uuid.UUID `json:"poLineId,omitempty" gorm:"type:uuid;index"`

	Qty           int64 `json:"qty" gorm:"not null"`
	UnitCostCents int64 `json:"unitCostCents" gorm:"not null"`
	IsProvisional bool  `json:"isProvisional" gorm:"default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (InboundShipment) TableName() string        { return "inbound_shipments" }
func (InboundShipmentLine) TableName() string    { return "inbound_shipment_lines" }
func (ShipmentCost) TableName() string           { return "shipment_costs" }
func (ShipmentCostAllocation) TableName() string { return "shipment_cost_allocations" }
func (LandedCostSnapshot) TableName() string     { return "landed_cost_snapshots" }
func (InventoryLot) TableName() string           { return "inventory_lots" }

// Request/Response models

type CreateShipmentRequest struct {
	Mode                    ShipmentMode      `json:"mode" binding:"required"`
	CarrierName             *string           `json:"carrierName,omitempty"`
	ForwarderName           *string           `json:"forwarderName,omitempty"`
	OriginPort              *string           `json:"originPort,omitempty"`
	DestinationPort         *string           `json:"destinationPort,omitempty"`
	ContainerNumber         *string           `json:"containerNumber,omitempty"`
	BOLNumber               *string           `json:"bolNumber,omitempty"`
	TrackingNumber          *string           `json:"trackingNumber,omitempty"`
	ETD                     *time.Time        `json:"etd,omitempty"`
	ETA                     *time.Time        `json:"eta,omitempty"`
	AllocationMethodDefault *AllocationMethod `json:"allocationMethodDefault,omitempty"`
	Notes                   *string           `json:"notes,omitempty"`
}

type CreateShipmentLineRequest struct {
	POLineID       *uuid.UUID `json:"poLineId,omitempty"`
	VariantID      uuid.UUID  `json:"variantId" binding:"required"`
	QtyShipped     int64      `json:"qtyShipped" binding:"required,gt=0"`
	UnitWeightKG   float64    `json:"unitWeightKg"`
	UnitLengthCM   float64    `json:"unitLengthCm"`
	UnitWidthCM    float64    `json:"unitWidthCm"`
	UnitHeightCM   float64    `json:"unitHeightCm"`
	GrossVolumeCBM *float64   `json:"grossVolumeCbm,omitempty"`
}

type CreateShipmentCostRequest struct {
	CostType         CostType          `json:"costType" binding:"required"`
	Description      *string           `json:"description,omitempty"`
	EstimatedCents   int64             `json:"estimatedCents" binding:"gte=0"`
	ActualCents      *int64            `json:"actualCents,omitempty"`
	AllocationMethod *AllocationMethod `json:"allocationMethod,omitempty"`
}

type ShipmentResponse struct {
	Success bool             `json:"success"`
	Data    *InboundShipment `json:"data,omitempty"`
	Message *string          `json:"message,omitempty"`
}

type ShipmentListResponse struct {
	Success    bool              `json:"success"`
	Data       []InboundShipment `json:"data"`
	Pagination *PaginationMeta   `json:"pagination,omitempty"`
}
