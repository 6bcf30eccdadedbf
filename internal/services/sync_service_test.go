package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wms-service/internal/models"
)

func newSyncService(locations *MockLocationRepository, defaultLocation string) *SyncService {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewSyncService(nil, nil, locations, nil, nil, time.Millisecond, time.Second, defaultLocation, logger)
}

func TestPushTargets_MappedInternalWarehousesEachPush(t *testing.T) {
	ctx := context.Background()
	locations := new(MockLocationRepository)
	service := newSyncService(locations, "fallback-loc")

	east := models.Warehouse{
		ID: uuid.New(), TenantID: testTenant, Code: "EAST",
		InventorySourceType: models.InventorySourceInternal,
		ExternalLocationID:  strPtr("loc-east"),
	}
	west := models.Warehouse{
		ID: uuid.New(), TenantID: testTenant, Code: "WEST",
		InventorySourceType: models.InventorySourceInternal,
		ExternalLocationID:  strPtr("loc-west"),
	}
	unmapped := models.Warehouse{
		ID: uuid.New(), TenantID: testTenant, Code: "BULK",
		InventorySourceType: models.InventorySourceInternal,
	}
	threePL := models.Warehouse{
		ID: uuid.New(), TenantID: testTenant, Code: "3PL",
		InventorySourceType: models.InventorySourceExternal,
		ExternalLocationID:  strPtr("loc-3pl"),
	}
	locations.On("ListWarehouses", ctx, testTenant).
		Return([]models.Warehouse{east, unmapped, threePL, west}, nil)

	targets, err := service.pushTargets(ctx, testTenant, &models.Channel{TenantID: testTenant})
	require.NoError(t, err)

	// Only internally sourced warehouses with their own platform location
	// push; the unmapped and the externally sourced ones stay out.
	require.Len(t, targets, 2)
	assert.Equal(t, pushTarget{WarehouseID: east.ID, ExternalLocation: "loc-east"}, targets[0])
	assert.Equal(t, pushTarget{WarehouseID: west.ID, ExternalLocation: "loc-west"}, targets[1])
}

func TestPushTargets_FallsBackToChannelMapping(t *testing.T) {
	ctx := context.Background()
	locations := new(MockLocationRepository)
	service := newSyncService(locations, "fallback-loc")

	warehouseID := uuid.New()
	locations.On("ListWarehouses", ctx, testTenant).Return([]models.Warehouse{}, nil)

	channel := &models.Channel{
		TenantID:           testTenant,
		WarehouseID:        &warehouseID,
		ExternalLocationID: strPtr("chan-loc"),
	}
	targets, err := service.pushTargets(ctx, testTenant, channel)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, pushTarget{WarehouseID: warehouseID, ExternalLocation: "chan-loc"}, targets[0])
}

func TestPushTargets_FallsBackToConfiguredDefault(t *testing.T) {
	ctx := context.Background()
	locations := new(MockLocationRepository)
	service := newSyncService(locations, "fallback-loc")

	warehouseID := uuid.New()
	locations.On("ListWarehouses", ctx, testTenant).Return([]models.Warehouse{}, nil)

	// No warehouse mapping and no channel mapping leaves the configured
	// platform default.
	channel := &models.Channel{TenantID: testTenant, WarehouseID: &warehouseID}
	targets, err := service.pushTargets(ctx, testTenant, channel)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, pushTarget{WarehouseID: warehouseID, ExternalLocation: "fallback-loc"}, targets[0])
}
