// Package events provides NATS event publishing for warehouse activity.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

// Subjects published on the warehouse stream.
const (
	SubjectInventoryChanged = "wms.inventory.changed"
	SubjectReceiptClosed    = "wms.receiving.closed"
	SubjectOrderCompleted   = "wms.order.completed"
	SubjectOrderException   = "wms.order.exception"
	SubjectWaveCompleted    = "wms.wave.completed"
	SubjectShipmentClosed   = "wms.shipment.closed"
)

// Event is the envelope every published message carries.
type Event struct {
	EventType string                 `json:"eventType"`
	TenantID  string                 `json:"tenantId"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Publisher writes warehouse events to a JetStream stream. A nil Publisher
// is safe to call; every publish becomes a no-op so callers never guard.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the warehouse stream exists.
func NewPublisher(natsURL, streamName string, logger *logrus.Logger) (*Publisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("wms-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"wms.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour * 7,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		logger.WithError(err).Warn("could not ensure warehouse event stream")
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		stream: streamName,
		logger: logger.WithField("component", "events"),
	}, nil
}

func (p *Publisher) publish(ctx context.Context, subject string, event Event) {
	if p == nil {
		return
	}
	event.EventType = subject
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("could not marshal event")
		return
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.WithFields(logrus.Fields{
			"subject":  subject,
			"tenantId": event.TenantID,
		}).WithError(err).Warn("event publish failed")
		return
	}
	p.logger.WithField("subject", subject).Debug("event published")
}

// PublishInventoryChanged announces that balances moved for a set of variants.
func (p *Publisher) PublishInventoryChanged(ctx context.Context, tenantID string, variantIDs []uuid.UUID) {
	ids := make([]string, len(variantIDs))
	for i, id := range variantIDs {
		ids[i] = id.String()
	}
	p.publish(ctx, SubjectInventoryChanged, Event{
		TenantID: tenantID,
		Payload:  map[string]interface{}{"variantIds": ids},
	})
}

// PublishReceiptClosed announces a closed receiving order.
func (p *Publisher) PublishReceiptClosed(ctx context.Context, tenantID string, receiptID uuid.UUID, receiptNumber string) {
	p.publish(ctx, SubjectReceiptClosed, Event{
		TenantID: tenantID,
		Payload: map[string]interface{}{
			"receivingOrderId": receiptID.String(),
			"receiptNumber":    receiptNumber,
		},
	})
}

// PublishOrderCompleted announces a fully picked sales order.
func (p *Publisher) PublishOrderCompleted(ctx context.Context, tenantID string, orderID uuid.UUID, orderNumber string) {
	p.publish(ctx, SubjectOrderCompleted, Event{
		TenantID: tenantID,
		Payload: map[string]interface{}{
			"orderId":     orderID.String(),
			"orderNumber": orderNumber,
		},
	})
}

// PublishOrderException announces an order that needs operator attention.
func (p *Publisher) PublishOrderException(ctx context.Context, tenantID string, orderID uuid.UUID, reason string) {
	p.publish(ctx, SubjectOrderException, Event{
		TenantID: tenantID,
		Payload: map[string]interface{}{
			"orderId": orderID.String(),
			"reason":  reason,
		},
	})
}

// PublishWaveCompleted announces a finished pick wave.
func (p *Publisher) PublishWaveCompleted(ctx context.Context, tenantID string, waveID uuid.UUID, waveNumber string) {
	p.publish(ctx, SubjectWaveCompleted, Event{
		TenantID: tenantID,
		Payload: map[string]interface{}{
			"waveId":     waveID.String(),
			"waveNumber": waveNumber,
		},
	})
}

// PublishShipmentClosed announces a shipment with finalized landed costs.
func (p *Publisher) PublishShipmentClosed(ctx context.Context, tenantID string, shipmentID uuid.UUID, shipmentNumber string) {
	p.publish(ctx, SubjectShipmentClosed, Event{
		TenantID: tenantID,
		Payload: map[string]interface{}{
			"shipmentId":     shipmentID.String(),
			"shipmentNumber": shipmentNumber,
		},
	})
}

// IsConnected reports whether the NATS connection is up.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.nc != nil && p.nc.IsConnected()
}

// Close drains the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Close()
	}
}
