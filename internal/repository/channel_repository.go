package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wms-service/internal/models"
)

// ChannelRepositoryInterface defines channel and feed persistence
type ChannelRepositoryInterface interface {
	CreateChannel(ctx context.Context, channel *models.Channel) error
	GetChannelByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Channel, error)
	ListChannels(ctx context.Context, tenantID string, activeOnly bool) ([]models.Channel, error)
	SaveChannel(ctx context.Context, channel *models.Channel) error

	CreateFeed(ctx context.Context, feed *models.ChannelFeed) error
	GetFeed(ctx context.Context, tenantID string, channelID, variantID uuid.UUID) (*models.ChannelFeed, error)
	ListFeedsByChannel(ctx context.Context, tenantID string, channelID uuid.UUID, activeOnly bool) ([]models.ChannelFeed, error)
	ListFeedsByVariant(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.ChannelFeed, error)
	ListFeedsByProduct(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ChannelFeed, error)
	SaveFeed(ctx context.Context, feed *models.ChannelFeed) error
	RecordPush(ctx context.Context, feedID uuid.UUID, qty int64) error
	RecordFailure(ctx context.Context, feedID uuid.UUID, message string) error
}

// ChannelRepository handles database operations for channels
type ChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new ChannelRepository
func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// --- Channel Methods ---

func (r *ChannelRepository) CreateChannel(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *ChannelRepository) GetChannelByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&channel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *ChannelRepository) ListChannels(ctx context.Context, tenantID string, activeOnly bool) ([]models.Channel, error) {
	var channels []models.Channel
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("status = ?", models.ChannelStatusActive)
	}
	err := query.Order("name ASC").Find(&channels).Error
	return channels, err
}

func (r *ChannelRepository) SaveChannel(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Save(channel).Error
}

// --- Feed Methods ---

func (r *ChannelRepository) CreateFeed(ctx context.Context, feed *models.ChannelFeed) error {
	return r.db.WithContext(ctx).Create(feed).Error
}

func (r *ChannelRepository) GetFeed(ctx context.Context, tenantID string, channelID, variantID uuid.UUID) (*models.ChannelFeed, error) {
	var feed models.ChannelFeed
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND channel_id = ? AND variant_id = ?", tenantID, channelID, variantID).
		First(&feed).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *ChannelRepository) ListFeedsByChannel(ctx context.Context, tenantID string, channelID uuid.UUID, activeOnly bool) ([]models.ChannelFeed, error) {
	var feeds []models.ChannelFeed
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND channel_id = ?", tenantID, channelID)
	if activeOnly {
		query = query.Where("is_active = true")
	}
	err := query.Find(&feeds).Error
	return feeds, err
}

func (r *ChannelRepository) ListFeedsByVariant(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.ChannelFeed, error) {
	var feeds []models.ChannelFeed
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND variant_id = ? AND is_active = true", tenantID, variantID).
		Find(&feeds).Error
	return feeds, err
}

// ListFeedsByProduct retrieves active feeds for every variant of a product
func (r *ChannelRepository) ListFeedsByProduct(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ChannelFeed, error) {
	var feeds []models.ChannelFeed
	err := r.db.WithContext(ctx).
		Table("channel_feeds f").
		Joins("JOIN product_variants v ON v.id = f.variant_id").
		Where("f.tenant_id = ? AND v.product_id = ? AND f.is_active = true", tenantID, productID).
		Select("f.*").
		Scan(&feeds).Error
	return feeds, err
}

func (r *ChannelRepository) SaveFeed(ctx context.Context, feed *models.ChannelFeed) error {
	return r.db.WithContext(ctx).Save(feed).Error
}

// RecordPush caches the last pushed quantity and clears the failure state
func (r *ChannelRepository) RecordPush(ctx context.Context, feedID uuid.UUID, qty int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.ChannelFeed{}).
		Where("id = ?", feedID).
		Updates(map[string]interface{}{
			"last_synced_qty": qty,
			"last_synced_at":  now,
			"last_error":      nil,
			"failure_count":   0,
		}).Error
}

// RecordFailure stores the push error and bumps the failure counter
func (r *ChannelRepository) RecordFailure(ctx context.Context, feedID uuid.UUID, message string) error {
	return r.db.WithContext(ctx).Model(&models.ChannelFeed{}).
		Where("id = ?", feedID).
		Updates(map[string]interface{}{
			"last_error":    message,
			"failure_count": gorm.Expr("failure_count + 1"),
		}).Error
}
