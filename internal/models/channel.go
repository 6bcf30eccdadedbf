package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChannelType identifies the external sales platform.
type ChannelType string

const (
	ChannelTypeShopify ChannelType = "shopify"
	ChannelTypeAmazon  ChannelType = "amazon"
)

// ChannelStatus is the connection state of a channel.
type ChannelStatus string

const (
	ChannelStatusActive   ChannelStatus = "active"
	ChannelStatusPaused   ChannelStatus = "paused"
	ChannelStatusError    ChannelStatus = "error"
	ChannelStatusDisabled ChannelStatus = "disabled"
)

// SyncMode controls when inventory pushes fire for a channel.
type SyncMode string

const (
	SyncModeReactive SyncMode = "reactive"
	SyncModeManual   SyncMode = "manual"
)

// Channel is a connected sales platform that receives inventory pushes.
type Channel struct {
	ID       uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string        `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Name     string        `json:"name" gorm:"type:varchar(255);not null"`
	Type     ChannelType   `json:"type" gorm:"type:varchar(20);not null"`
	Status   ChannelStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	SyncMode SyncMode      `json:"syncMode" gorm:"type:varchar(20);not null;default:'reactive'"`

	// Platform credentials and endpoint configuration.
	StoreDomain string  `json:"storeDomain" gorm:"type:varchar(255)"`
	APIKey      string  `json:"-" gorm:"type:varchar(255)"`
	APISecret   string  `json:"-" gorm:"type:varchar(255)"`
	AccessToken string  `json:"-" gorm:"type:varchar(512)"`
	Region      *string `json:"region,omitempty" gorm:"type:varchar(50)"`

	// Which warehouse's availability is pushed, mapped to the
	// platform's own location identifier.
	WarehouseID        *uuid.UUID `json:"warehouseId,omitempty" gorm:"type:uuid;index"`
	ExternalLocationID *string    `json:"externalLocationId,omitempty" gorm:"type:varchar(100)"`

	LastSyncAt    *time.Time `json:"lastSyncAt,omitempty"`
	LastSyncError *string    `json:"lastSyncError,omitempty" gorm:"type:text"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// ChannelFeed links one variant to its listing on one channel and caches the
// last quantity pushed so unchanged figures are skipped.
type ChannelFeed struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ChannelID uuid.UUID `json:"channelId" gorm:"type:uuid;not null;uniqueIndex:idx_channel_variant"`
	VariantID uuid.UUID `json:"variantId" gorm:"type:uuid;not null;uniqueIndex:idx_channel_variant"`

	ExternalProductID       *string `json:"externalProductId,omitempty" gorm:"type:varchar(100)"`
	ExternalVariantID       *string `json:"externalVariantId,omitempty" gorm:"type:varchar(100)"`
	ExternalInventoryItemID *string `json:"externalInventoryItemId,omitempty" gorm:"type:varchar(100)"`

	IsActive bool `json:"isActive" gorm:"default:true"`

	LastSyncedQty *int64     `json:"lastSyncedQty,omitempty"`
	LastSyncedAt  *time.Time `json:"lastSyncedAt,omitempty"`
	LastError     *string    `json:"lastError,omitempty" gorm:"type:text"`
	FailureCount  int        `json:"failureCount" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Channel) TableName() string     { return "channels" }
func (ChannelFeed) TableName() string { return "channel_feeds" }

// Request/Response models

type CreateChannelRequest struct {
	Name               string      `json:"name" binding:"required"`
	Type               ChannelType `json:"type" binding:"required"`
	SyncMode           *SyncMode   `json:"syncMode,omitempty"`
	StoreDomain        string      `json:"storeDomain"`
	APIKey             string      `json:"apiKey"`
	APISecret          string      `json:"apiSecret"`
	AccessToken        string      `json:"accessToken"`
	Region             *string     `json:"region,omitempty"`
	WarehouseID        *uuid.UUID  `json:"warehouseId,omitempty"`
	ExternalLocationID *string     `json:"externalLocationId,omitempty"`
}

type UpdateChannelRequest struct {
	Name               *string        `json:"name,omitempty"`
	Status             *ChannelStatus `json:"status,omitempty"`
	SyncMode           *SyncMode      `json:"syncMode,omitempty"`
	StoreDomain        *string        `json:"storeDomain,omitempty"`
	AccessToken        *string        `json:"accessToken,omitempty"`
	WarehouseID        *uuid.UUID     `json:"warehouseId,omitempty"`
	ExternalLocationID *string        `json:"externalLocationId,omitempty"`
}

type CreateChannelFeedRequest struct {
	VariantID               uuid.UUID `json:"variantId" binding:"required"`
	ExternalProductID       *string   `json:"externalProductId,omitempty"`
	ExternalVariantID       *string   `json:"externalVariantId,omitempty"`
	ExternalInventoryItemID *string   `json:"externalInventoryItemId,omitempty"`
}

// SyncPushResult summarizes one manual sync run.
type SyncPushResult struct {
	ChannelID    uuid.UUID `json:"channelId"`
	FeedsTotal   int       `json:"feedsTotal"`
	FeedsPushed  int       `json:"feedsPushed"`
	FeedsSkipped int       `json:"feedsSkipped"`
	FeedsFailed  int       `json:"feedsFailed"`
	DurationMS   int64     `json:"durationMs"`
}

type ChannelResponse struct {
	Success bool     `json:"success"`
	Data    *Channel `json:"data,omitempty"`
	Message *string  `json:"message,omitempty"`
}

type ChannelListResponse struct {
	Success    bool            `json:"success"`
	Data       []Channel       `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type ChannelFeedListResponse struct {
	Success    bool            `json:"success"`
	Data       []ChannelFeed   `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type SyncPushResponse struct {
	Success bool            `json:"success"`
	Data    *SyncPushResult `json:"data,omitempty"`
	Message *string         `json:"message,omitempty"`
}
