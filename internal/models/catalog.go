package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HierarchyLevel identifies the UOM tier of a variant.
// Level 1 is the base unit; all ledger math converts into it.
type HierarchyLevel int

const (
	HierarchyEach HierarchyLevel = 1
	HierarchyPack HierarchyLevel = 2
	HierarchyBox  HierarchyLevel = 3
	HierarchyCase HierarchyLevel = 4
)

func (h HierarchyLevel) DisplayName() string {
	switch h {
	case HierarchyEach:
		return "Each"
	case HierarchyPack:
		return "Pack"
	case HierarchyBox:
		return "Box"
	case HierarchyCase:
		return "Case"
	default:
		return "Unknown"
	}
}

// Product groups a family of UOM variants that share one pool of base units.
type Product struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	BaseSKU  string    `json:"baseSku" gorm:"type:varchar(100);not null;uniqueIndex:idx_tenant_base_sku"`
	Name     string    `json:"name" gorm:"type:varchar(255);not null"`
	Category *string   `json:"category,omitempty" gorm:"type:varchar(100)"`
	Brand    *string   `json:"brand,omitempty" gorm:"type:varchar(100)"`

	// External catalog reference (channel-side product id)
	ExternalProductID *string `json:"externalProductId,omitempty" gorm:"type:varchar(100);index"`

	Metadata *JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy *string         `json:"createdBy,omitempty"`
	UpdatedBy *string         `json:"updatedBy,omitempty"`

	Variants []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
}

// ProductVariant is a sellable UOM of a product. UnitsPerVariant converts a
// variant quantity into base units; level 1 implies UnitsPerVariant == 1.
type ProductVariant struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`

	SKU             string         `json:"sku" gorm:"type:varchar(100);not null;uniqueIndex:idx_tenant_variant_sku"`
	Name            string         `json:"name" gorm:"type:varchar(255);not null"`
	UnitsPerVariant int64          `json:"unitsPerVariant" gorm:"not null;default:1"`
	HierarchyLevel  HierarchyLevel `json:"hierarchyLevel" gorm:"not null;default:1"`
	Barcode         *string        `json:"barcode,omitempty" gorm:"type:varchar(100);index"`

	// Channel-side references
	ExternalVariantID       *string `json:"externalVariantId,omitempty" gorm:"type:varchar(100);index"`
	ExternalInventoryItemID *string `json:"externalInventoryItemId,omitempty" gorm:"type:varchar(100);index"`

	// Dimensions
	WeightGrams *int64 `json:"weightGrams,omitempty"`
	LengthMM    *int64 `json:"lengthMm,omitempty"`
	WidthMM     *int64 `json:"widthMm,omitempty"`
	HeightMM    *int64 `json:"heightMm,omitempty"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// Request/Response models

type CreateProductRequest struct {
	BaseSKU           string  `json:"baseSku" binding:"required,min=1,max=100"`
	Name              string  `json:"name" binding:"required,min=1,max=255"`
	Category          *string `json:"category,omitempty"`
	Brand             *string `json:"brand,omitempty"`
	ExternalProductID *string `json:"externalProductId,omitempty"`
	Metadata          *JSON   `json:"metadata,omitempty"`
}

type UpdateProductRequest struct {
	Name              *string `json:"name,omitempty"`
	Category          *string `json:"category,omitempty"`
	Brand             *string `json:"brand,omitempty"`
	ExternalProductID *string `json:"externalProductId,omitempty"`
	Metadata          *JSON   `json:"metadata,omitempty"`
}

type CreateVariantRequest struct {
	SKU                     string          `json:"sku" binding:"required,min=1,max=100"`
	Name                    string          `json:"name" binding:"required,min=1,max=255"`
	UnitsPerVariant         int64           `json:"unitsPerVariant" binding:"required,gte=1"`
	HierarchyLevel          *HierarchyLevel `json:"hierarchyLevel,omitempty"`
	Barcode                 *string         `json:"barcode,omitempty"`
	ExternalVariantID       *string         `json:"externalVariantId,omitempty"`
	ExternalInventoryItemID *string         `json:"externalInventoryItemId,omitempty"`
	WeightGrams             *int64          `json:"weightGrams,omitempty"`
	LengthMM                *int64          `json:"lengthMm,omitempty"`
	WidthMM                 *int64          `json:"widthMm,omitempty"`
	HeightMM                *int64          `json:"heightMm,omitempty"`
}

// ProductImportWarning is a non-fatal problem in a bulk product import row.
type ProductImportWarning struct {
	Row     int    `json:"row"`
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

type ProductImportResult struct {
	Success      bool                   `json:"success"`
	TotalRows    int                    `json:"totalRows"`
	CreatedCount int                    `json:"createdCount"`
	Warnings     []ProductImportWarning `json:"warnings,omitempty"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data,omitempty"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type VariantResponse struct {
	Success bool            `json:"success"`
	Data    *ProductVariant `json:"data,omitempty"`
	Message *string         `json:"message,omitempty"`
}
