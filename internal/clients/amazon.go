package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
)

// amazon endpoints per region; default is North America.
var amazonEndpoints = map[string]string{
	"na": "https://sellingpartnerapi-na.amazon.com",
	"eu": "https://sellingpartnerapi-eu.amazon.com",
	"fe": "https://sellingpartnerapi-fe.amazon.com",
}

// AmazonDriver pushes inventory through the Selling Partner listings API.
type AmazonDriver struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewAmazonDriver creates an AmazonDriver with the given request timeout.
func NewAmazonDriver(timeout time.Duration, logger *logrus.Logger) *AmazonDriver {
	return &AmazonDriver{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (d *AmazonDriver) Type() models.ChannelType {
	return models.ChannelTypeAmazon
}

type amazonPatchOperation struct {
	Op    string                   `json:"op"`
	Path  string                   `json:"path"`
	Value []map[string]interface{} `json:"value"`
}

type amazonPatchRequest struct {
	ProductType string                 `json:"productType"`
	Patches     []amazonPatchOperation `json:"patches"`
}

// PushInventory patches the fulfillment availability of one listing. The
// listings API has no location concept, so the resolved external location is
// ignored.
func (d *AmazonDriver) PushInventory(ctx context.Context, channel *models.Channel, feed *models.ChannelFeed, _ string, qty int64) error {
	if channel.AccessToken == "" {
		return apperrors.Validation("CHANNEL_UNCONFIGURED", "channel has no access token")
	}
	if feed.ExternalVariantID == nil {
		return apperrors.Validation("FEED_UNCONFIGURED", "feed has no listing SKU mapping")
	}

	endpoint := amazonEndpoints["na"]
	if channel.Region != nil {
		if e, ok := amazonEndpoints[*channel.Region]; ok {
			endpoint = e
		}
	}

	payload := amazonPatchRequest{
		ProductType: "PRODUCT",
		Patches: []amazonPatchOperation{{
			Op:   "replace",
			Path: "/attributes/fulfillment_availability",
			Value: []map[string]interface{}{{
				"fulfillment_channel_code": "DEFAULT",
				"quantity":                 qty,
			}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/listings/2021-08-01/items/%s/%s",
		endpoint, channel.APIKey, *feed.ExternalVariantID)

	return retry(ctx, 3, 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-amz-access-token", channel.AccessToken)

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return apperrors.Wrap(apperrors.KindExternal, "AMAZON_UNREACHABLE", "amazon request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		d.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"sku":    *feed.ExternalVariantID,
		}).Warn("amazon inventory push rejected")
		return apperrors.Newf(apperrors.KindExternal, "AMAZON_PUSH_FAILED",
			"amazon returned %d: %s", resp.StatusCode, string(detail))
	})
}
