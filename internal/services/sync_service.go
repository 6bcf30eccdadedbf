package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"wms-service/internal/apperrors"
	"wms-service/internal/clients"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// SyncService pushes availability to connected channels. It implements the
// ledger's InventoryNotifier so reactive channels follow stock movements.
type SyncService struct {
	repo            repository.ChannelRepositoryInterface
	catalog         repository.CatalogRepositoryInterface
	locations       repository.LocationRepositoryInterface
	atp             *ATPService
	drivers         *clients.Registry
	limiter         *rate.Limiter
	timeout         time.Duration
	defaultLocation string
	logger          *logrus.Logger
}

// NewSyncService creates a new SyncService. pushInterval paces outbound
// calls so full syncs stay inside platform rate limits; defaultLocation is
// the platform location used when nothing else carries a mapping.
func NewSyncService(repo repository.ChannelRepositoryInterface, catalog repository.CatalogRepositoryInterface, locations repository.LocationRepositoryInterface, atp *ATPService, drivers *clients.Registry, pushInterval, timeout time.Duration, defaultLocation string, logger *logrus.Logger) *SyncService {
	return &SyncService{
		repo:            repo,
		catalog:         catalog,
		locations:       locations,
		atp:             atp,
		drivers:         drivers,
		limiter:         rate.NewLimiter(rate.Every(pushInterval), 1),
		timeout:         timeout,
		defaultLocation: defaultLocation,
		logger:          logger,
	}
}

// ========== Channel management ==========

func (s *SyncService) CreateChannel(ctx context.Context, tenantID string, req models.CreateChannelRequest) (*models.Channel, error) {
	switch req.Type {
	case models.ChannelTypeShopify, models.ChannelTypeAmazon:
	default:
		return nil, apperrors.Validation("INVALID_CHANNEL_TYPE", "unknown channel type")
	}
	channel := &models.Channel{
		TenantID:           tenantID,
		Name:               req.Name,
		Type:               req.Type,
		Status:             models.ChannelStatusActive,
		SyncMode:           models.SyncModeReactive,
		StoreDomain:        req.StoreDomain,
		APIKey:             req.APIKey,
		APISecret:          req.APISecret,
		AccessToken:        req.AccessToken,
		Region:             req.Region,
		WarehouseID:        req.WarehouseID,
		ExternalLocationID: req.ExternalLocationID,
	}
	if req.SyncMode != nil {
		channel.SyncMode = *req.SyncMode
	}
	if err := s.repo.CreateChannel(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

func (s *SyncService) GetChannel(ctx context.Context, tenantID string, id uuid.UUID) (*models.Channel, error) {
	channel, err := s.repo.GetChannelByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("CHANNEL_NOT_FOUND", "channel not found")
	}
	return channel, err
}

func (s *SyncService) ListChannels(ctx context.Context, tenantID string, activeOnly bool) ([]models.Channel, error) {
	return s.repo.ListChannels(ctx, tenantID, activeOnly)
}

func (s *SyncService) UpdateChannel(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateChannelRequest) (*models.Channel, error) {
	channel, err := s.GetChannel(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		channel.Name = *req.Name
	}
	if req.Status != nil {
		channel.Status = *req.Status
	}
	if req.SyncMode != nil {
		channel.SyncMode = *req.SyncMode
	}
	if req.StoreDomain != nil {
		channel.StoreDomain = *req.StoreDomain
	}
	if req.AccessToken != nil {
		channel.AccessToken = *req.AccessToken
	}
	if req.WarehouseID != nil {
		channel.WarehouseID = req.WarehouseID
	}
	if req.ExternalLocationID != nil {
		channel.ExternalLocationID = req.ExternalLocationID
	}
	if err := s.repo.SaveChannel(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// AddFeed links a variant to its listing on a channel.
func (s *SyncService) AddFeed(ctx context.Context, tenantID string, channelID uuid.UUID, req models.CreateChannelFeedRequest) (*models.ChannelFeed, error) {
	if _, err := s.GetChannel(ctx, tenantID, channelID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetVariantByID(ctx, tenantID, req.VariantID); err != nil {
		return nil, variantLookupError(req.VariantID, err)
	}
	if _, err := s.repo.GetFeed(ctx, tenantID, channelID, req.VariantID); err == nil {
		return nil, apperrors.Conflict("DUPLICATE_FEED", "this variant is already listed on the channel")
	} else if err != repository.ErrNotFound {
		return nil, err
	}
	feed := &models.ChannelFeed{
		TenantID:                tenantID,
		ChannelID:               channelID,
		VariantID:               req.VariantID,
		ExternalProductID:       req.ExternalProductID,
		ExternalVariantID:       req.ExternalVariantID,
		ExternalInventoryItemID: req.ExternalInventoryItemID,
		IsActive:                true,
	}
	if err := s.repo.CreateFeed(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

func (s *SyncService) ListFeeds(ctx context.Context, tenantID string, channelID uuid.UUID) ([]models.ChannelFeed, error) {
	return s.repo.ListFeedsByChannel(ctx, tenantID, channelID, false)
}

// ========== Pushing ==========

// channelWarehouse resolves the warehouse a channel advertises from.
func (s *SyncService) channelWarehouse(ctx context.Context, tenantID string, channel *models.Channel) (uuid.UUID, error) {
	if channel.WarehouseID != nil {
		return *channel.WarehouseID, nil
	}
	warehouse, err := s.locations.GetDefaultWarehouse(ctx, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return uuid.Nil, apperrors.NotFound("NO_DEFAULT_WAREHOUSE", "channel has no warehouse and no default is configured")
		}
		return uuid.Nil, err
	}
	return warehouse.ID, nil
}

// pushTarget pairs a warehouse with the platform location its figure lands
// on.
type pushTarget struct {
	WarehouseID      uuid.UUID
	ExternalLocation string
}

// pushTargets resolves where availability comes from and where it lands.
// Internally sourced warehouses carrying their own external location mapping
// each push their own figure; without any, the channel's single warehouse
// pushes to the channel mapping, falling back to the configured default
// location.
func (s *SyncService) pushTargets(ctx context.Context, tenantID string, channel *models.Channel) ([]pushTarget, error) {
	warehouses, err := s.locations.ListWarehouses(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var targets []pushTarget
	for i := range warehouses {
		w := &warehouses[i]
		if w.ExternalLocationID == nil || *w.ExternalLocationID == "" {
			continue
		}
		if w.InventorySourceType != models.InventorySourceInternal {
			continue
		}
		targets = append(targets, pushTarget{WarehouseID: w.ID, ExternalLocation: *w.ExternalLocationID})
	}
	if len(targets) > 0 {
		return targets, nil
	}

	warehouseID, err := s.channelWarehouse(ctx, tenantID, channel)
	if err != nil {
		return nil, err
	}
	external := s.defaultLocation
	if channel.ExternalLocationID != nil && *channel.ExternalLocationID != "" {
		external = *channel.ExternalLocationID
	}
	return []pushTarget{{WarehouseID: warehouseID, ExternalLocation: external}}, nil
}

// pushFeed computes ATP for one feed at every target and pushes when the
// combined figure differs from the last pushed one. Returns true when a push
// went out.
func (s *SyncService) pushFeed(ctx context.Context, tenantID string, channel *models.Channel, feed *models.ChannelFeed, targets []pushTarget) (bool, error) {
	quantities := make([]int64, len(targets))
	var total int64
	for i, target := range targets {
		figure, err := s.atp.VariantATP(ctx, tenantID, feed.VariantID, target.WarehouseID)
		if err != nil {
			return false, err
		}
		quantities[i] = figure.ATPUnits
		total += figure.ATPUnits
	}
	if feed.LastSyncedQty != nil && *feed.LastSyncedQty == total {
		return false, nil
	}

	driver, ok := s.drivers.Driver(channel.Type)
	if !ok {
		return false, apperrors.Newf(apperrors.KindInternal, "NO_DRIVER", "no driver for channel type %s", channel.Type)
	}
	for i, target := range targets {
		if err := s.limiter.Wait(ctx); err != nil {
			return false, err
		}
		if err := driver.PushInventory(ctx, channel, feed, target.ExternalLocation, quantities[i]); err != nil {
			if ferr := s.repo.RecordFailure(ctx, feed.ID, apperrors.MessageOf(err)); ferr != nil {
				s.logger.WithError(ferr).Warn("could not record feed failure")
			}
			return false, err
		}
	}
	return true, s.repo.RecordPush(ctx, feed.ID, total)
}

// SyncChannel pushes every active feed of one channel.
func (s *SyncService) SyncChannel(ctx context.Context, tenantID string, channelID uuid.UUID) (*models.SyncPushResult, error) {
	channel, err := s.GetChannel(ctx, tenantID, channelID)
	if err != nil {
		return nil, err
	}
	if channel.Status != models.ChannelStatusActive {
		return nil, apperrors.Conflict("CHANNEL_NOT_ACTIVE", "channel is not active")
	}
	targets, err := s.pushTargets(ctx, tenantID, channel)
	if err != nil {
		return nil, err
	}
	feeds, err := s.repo.ListFeedsByChannel(ctx, tenantID, channelID, true)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &models.SyncPushResult{ChannelID: channelID, FeedsTotal: len(feeds)}
	var lastErr *string
	for i := range feeds {
		pushed, err := s.pushFeed(ctx, tenantID, channel, &feeds[i], targets)
		switch {
		case err != nil:
			result.FeedsFailed++
			msg := apperrors.MessageOf(err)
			lastErr = &msg
		case pushed:
			result.FeedsPushed++
		default:
			result.FeedsSkipped++
		}
	}
	result.DurationMS = time.Since(start).Milliseconds()

	now := time.Now()
	channel.LastSyncAt = &now
	channel.LastSyncError = lastErr
	if lastErr != nil && result.FeedsPushed == 0 && result.FeedsFailed == result.FeedsTotal {
		channel.Status = models.ChannelStatusError
	}
	if err := s.repo.SaveChannel(ctx, channel); err != nil {
		return nil, err
	}
	return result, nil
}

// syncVariants pushes the given variants to every active reactive channel
// that lists them.
func (s *SyncService) syncVariants(ctx context.Context, tenantID string, variantIDs []uuid.UUID) {
	channelCache := make(map[uuid.UUID]*models.Channel)
	targetCache := make(map[uuid.UUID][]pushTarget)

	for _, variantID := range variantIDs {
		feeds, err := s.repo.ListFeedsByVariant(ctx, tenantID, variantID)
		if err != nil {
			s.logger.WithError(err).Warn("reactive sync: feed lookup failed")
			continue
		}
		for i := range feeds {
			feed := &feeds[i]
			channel, ok := channelCache[feed.ChannelID]
			if !ok {
				channel, err = s.repo.GetChannelByID(ctx, tenantID, feed.ChannelID)
				if err != nil {
					continue
				}
				channelCache[feed.ChannelID] = channel
			}
			if channel.Status != models.ChannelStatusActive || channel.SyncMode != models.SyncModeReactive {
				continue
			}
			targets, ok := targetCache[channel.ID]
			if !ok {
				targets, err = s.pushTargets(ctx, tenantID, channel)
				if err != nil {
					continue
				}
				targetCache[channel.ID] = targets
			}
			if _, err := s.pushFeed(ctx, tenantID, channel, feed, targets); err != nil {
				s.logger.WithFields(logrus.Fields{
					"channel_id": channel.ID,
					"variant_id": variantID,
					"error":      apperrors.MessageOf(err),
				}).Warn("reactive inventory push failed")
			}
		}
	}
}

// InventoryChanged satisfies the ledger notifier. The push runs off the
// caller's goroutine so ledger writers never wait on platform APIs.
func (s *SyncService) InventoryChanged(tenantID string, variantIDs []uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout*time.Duration(len(variantIDs)+1))
		defer cancel()
		s.syncVariants(ctx, tenantID, variantIDs)
	}()
}
