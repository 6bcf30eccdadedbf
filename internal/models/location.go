package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventorySourceType tells the channel sync whether this warehouse's ATP is
// owned by the ledger or mirrored from an external system.
type InventorySourceType string

const (
	InventorySourceInternal InventorySourceType = "internal"
	InventorySourceExternal InventorySourceType = "external"
)

// LocationType constrains which picks and replenishment rules may use a bin.
type LocationType string

const (
	LocationTypeForwardPick LocationType = "forward_pick"
	LocationTypeBulkStorage LocationType = "bulk_storage"
	LocationTypeOverflow    LocationType = "overflow"
	LocationTypeReceiving   LocationType = "receiving"
	LocationTypeStaging     LocationType = "staging"
)

// ValidLocationTypes enumerates every accepted location type.
var ValidLocationTypes = []LocationType{
	LocationTypeForwardPick,
	LocationTypeBulkStorage,
	LocationTypeOverflow,
	LocationTypeReceiving,
	LocationTypeStaging,
}

func (t LocationType) Valid() bool {
	for _, v := range ValidLocationTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Warehouse represents a physical facility. At most one default per tenant.
type Warehouse struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Code     string    `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_warehouse_code"`
	Name     string    `json:"name" gorm:"type:varchar(255);not null"`

	IsDefault bool `json:"isDefault" gorm:"default:false"`
	IsActive  bool `json:"isActive" gorm:"default:true"`

	// Channel-side location reference used by per-warehouse ATP pushes.
	ExternalLocationID  *string             `json:"externalLocationId,omitempty" gorm:"type:varchar(100);index"`
	InventorySourceType InventorySourceType `json:"inventorySourceType" gorm:"type:varchar(20);not null;default:'internal'"`

	// Zone sequence drives pick-path ordering inside wave generation.
	ZoneSequence *string `json:"zoneSequence,omitempty" gorm:"type:text"`

	Metadata *JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy *string         `json:"createdBy,omitempty"`
	UpdatedBy *string         `json:"updatedBy,omitempty"`
}

// Location is a bin within a warehouse. Code is unique per warehouse.
type Location struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string     `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	WarehouseID uuid.UUID  `json:"warehouseId" gorm:"type:uuid;not null;index;uniqueIndex:idx_warehouse_location_code"`
	Warehouse   *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`

	Code         string       `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:idx_warehouse_location_code"`
	LocationType LocationType `json:"locationType" gorm:"type:varchar(20);not null;default:'bulk_storage'"`
	IsPickable   bool         `json:"isPickable" gorm:"default:true"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

func (Warehouse) TableName() string {
	return "warehouses"
}

func (Location) TableName() string {
	return "locations"
}

// Request/Response models

type CreateWarehouseRequest struct {
	Code                string               `json:"code" binding:"required,min=1,max=50"`
	Name                string               `json:"name" binding:"required,min=1,max=255"`
	IsDefault           *bool                `json:"isDefault,omitempty"`
	IsActive            *bool                `json:"isActive,omitempty"`
	ExternalLocationID  *string              `json:"externalLocationId,omitempty"`
	InventorySourceType *InventorySourceType `json:"inventorySourceType,omitempty"`
	ZoneSequence        *string              `json:"zoneSequence,omitempty"`
	Metadata            *JSON                `json:"metadata,omitempty"`
}

type UpdateWarehouseRequest struct {
	Name                *string              `json:"name,omitempty"`
	IsDefault           *bool                `json:"isDefault,omitempty"`
	IsActive            *bool                `json:"isActive,omitempty"`
	ExternalLocationID  *string              `json:"externalLocationId,omitempty"`
	InventorySourceType *InventorySourceType `json:"inventorySourceType,omitempty"`
	ZoneSequence        *string              `json:"zoneSequence,omitempty"`
	Metadata            *JSON                `json:"metadata,omitempty"`
}

type CreateLocationRequest struct {
	WarehouseID  uuid.UUID    `json:"warehouseId" binding:"required"`
	Code         string       `json:"code" binding:"required,min=1,max=50"`
	LocationType LocationType `json:"locationType" binding:"required"`
	IsPickable   *bool        `json:"isPickable,omitempty"`
}

// WarehouseImportWarning is a non-fatal problem in a bulk warehouse import row.
type WarehouseImportWarning struct {
	Row     int    `json:"row"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type WarehouseImportResult struct {
	Success      bool                     `json:"success"`
	TotalRows    int                      `json:"totalRows"`
	CreatedCount int                      `json:"createdCount"`
	Warnings     []WarehouseImportWarning `json:"warnings,omitempty"`
}

type WarehouseResponse struct {
	Success bool       `json:"success"`
	Data    *Warehouse `json:"data,omitempty"`
	Message *string    `json:"message,omitempty"`
}

type WarehouseListResponse struct {
	Success    bool            `json:"success"`
	Data       []Warehouse     `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type LocationResponse struct {
	Success bool      `json:"success"`
	Data    *Location `json:"data,omitempty"`
	Message *string   `json:"message,omitempty"`
}

type LocationListResponse struct {
	Success    bool            `json:"success"`
	Data       []Location      `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
