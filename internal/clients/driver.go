// Package clients holds the outbound platform drivers used by channel sync.
package clients

import (
	"context"
	"time"

	"wms-service/internal/models"
)

// ChannelDriver pushes inventory figures to one platform type. Drivers are
// stateless; credentials travel with the channel. externalLocationID is the
// already-resolved platform location the figure lands on; drivers whose
// platform has no location concept ignore it.
type ChannelDriver interface {
	Type() models.ChannelType
	PushInventory(ctx context.Context, channel *models.Channel, feed *models.ChannelFeed, externalLocationID string, qty int64) error
}

// Registry maps channel types to their drivers.
type Registry struct {
	drivers map[models.ChannelType]ChannelDriver
}

// NewRegistry builds a registry from the given drivers.
func NewRegistry(drivers ...ChannelDriver) *Registry {
	m := make(map[models.ChannelType]ChannelDriver, len(drivers))
	for _, d := range drivers {
		m[d.Type()] = d
	}
	return &Registry{drivers: m}
}

// Driver resolves the driver for a channel type.
func (r *Registry) Driver(t models.ChannelType) (ChannelDriver, bool) {
	d, ok := r.drivers[t]
	return d, ok
}

// retry runs fn up to attempts times with doubling backoff. Context
// cancellation wins over the remaining attempts.
func retry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
