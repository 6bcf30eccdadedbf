package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
)

const shopifyAPIVersion = "2024-01"

// ShopifyDriver pushes inventory levels through the Shopify Admin API.
type ShopifyDriver struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewShopifyDriver creates a ShopifyDriver with the given request timeout.
func NewShopifyDriver(timeout time.Duration, logger *logrus.Logger) *ShopifyDriver {
	return &ShopifyDriver{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (d *ShopifyDriver) Type() models.ChannelType {
	return models.ChannelTypeShopify
}

type shopifyInventorySetRequest struct {
	LocationID        int64 `json:"location_id"`
	InventoryItemID   int64 `json:"inventory_item_id"`
	Available         int64 `json:"available"`
	DisconnectIfStale bool  `json:"disconnect_if_necessary,omitempty"`
}

// PushInventory sets the available quantity of one inventory item at the
// resolved platform location. Transient failures retry twice.
func (d *ShopifyDriver) PushInventory(ctx context.Context, channel *models.Channel, feed *models.ChannelFeed, externalLocationID string, qty int64) error {
	if channel.AccessToken == "" {
		return apperrors.Validation("CHANNEL_UNCONFIGURED", "channel has no access token")
	}
	if externalLocationID == "" {
		return apperrors.Validation("CHANNEL_UNCONFIGURED", "no external location mapping resolved")
	}
	if feed.ExternalInventoryItemID == nil {
		return apperrors.Validation("FEED_UNCONFIGURED", "feed has no inventory item mapping")
	}
	locationID, err := strconv.ParseInt(externalLocationID, 10, 64)
	if err != nil {
		return apperrors.Validation("CHANNEL_UNCONFIGURED", "external location id is not numeric")
	}
	itemID, err := strconv.ParseInt(*feed.ExternalInventoryItemID, 10, 64)
	if err != nil {
		return apperrors.Validation("FEED_UNCONFIGURED", "inventory item id is not numeric")
	}

	body, err := json.Marshal(shopifyInventorySetRequest{
		LocationID:      locationID,
		InventoryItemID: itemID,
		Available:       qty,
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("https://%s/admin/api/%s/inventory_levels/set.json", channel.StoreDomain, shopifyAPIVersion)

	return retry(ctx, 3, 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Access-Token", channel.AccessToken)

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return apperrors.Wrap(apperrors.KindExternal, "SHOPIFY_UNREACHABLE", "shopify request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		d.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"domain": channel.StoreDomain,
		}).Warn("shopify inventory push rejected")
		return apperrors.Newf(apperrors.KindExternal, "SHOPIFY_PUSH_FAILED",
			"shopify returned %d: %s", resp.StatusCode, string(payload))
	})
}
