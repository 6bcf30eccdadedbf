package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wms-service/internal/models"
)

func methodPtr(m models.AllocationMethod) *models.AllocationMethod { return &m }

func TestSplitCents_ProportionalWithLargestBasisRemainder(t *testing.T) {
	// 100 cents across 3:3:3 weight cannot split evenly; the extra cent goes
	// to the first of the tied-largest bases.
	shares := splitCents(100, []float64{3, 3, 3})

	var total int64
	for _, s := range shares {
		total += s
	}
	assert.Equal(t, int64(100), total)
	assert.Equal(t, []int64{34, 33, 33}, shares)
}

func TestSplitCents_RemainderGoesToLargestBasis(t *testing.T) {
	// 10 cents over 5:3 floors to 6+3; the odd cent lands on the larger
	// basis, not the larger fractional part.
	assert.Equal(t, []int64{7, 3}, splitCents(10, []float64{5, 3}))

	// Same bases, reversed order.
	assert.Equal(t, []int64{3, 7}, splitCents(10, []float64{3, 5}))
}

func TestSplitCents_SumAlwaysExact(t *testing.T) {
	testCases := []struct {
		name   string
		amount int64
		bases  []float64
	}{
		{"odd_cents", 1001, []float64{1.5, 2.5, 7.3}},
		{"single_line", 999, []float64{42}},
		{"tiny_amount", 2, []float64{10, 20, 30, 40}},
		{"large_amount", 12345678, []float64{0.1, 99.9}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			shares := splitCents(tc.amount, tc.bases)
			var total int64
			for _, s := range shares {
				total += s
			}
			assert.Equal(t, tc.amount, total)
			assert.Len(t, shares, len(tc.bases))
		})
	}
}

func TestSplitCents_ZeroBasisFallsBackToEvenSplit(t *testing.T) {
	shares := splitCents(10, []float64{0, 0, 0})

	assert.Equal(t, []int64{4, 3, 3}, shares)
}

func TestSplitCents_Empty(t *testing.T) {
	assert.Empty(t, splitCents(100, nil))
	assert.Equal(t, []int64{0, 0}, splitCents(0, []float64{1, 2}))
}

func TestResolveMethod(t *testing.T) {
	testCases := []struct {
		name     string
		cost     models.ShipmentCost
		shipment models.InboundShipment
		want     models.AllocationMethod
	}{
		{
			name:     "duty_always_by_value",
			cost:     models.ShipmentCost{CostType: models.CostTypeDuty, AllocationMethod: methodPtr(models.AllocateByWeight)},
			shipment: models.InboundShipment{Mode: models.ShipmentModeAir},
			want:     models.AllocateByValue,
		},
		{
			name:     "brokerage_per_line",
			cost:     models.ShipmentCost{CostType: models.CostTypeBrokerage},
			shipment: models.InboundShipment{Mode: models.ShipmentModeSeaFCL},
			want:     models.AllocateByLineCount,
		},
		{
			name:     "inspection_per_line",
			cost:     models.ShipmentCost{CostType: models.CostTypeInspection},
			shipment: models.InboundShipment{Mode: models.ShipmentModeGround},
			want:     models.AllocateByLineCount,
		},
		{
			name:     "cost_override_wins",
			cost:     models.ShipmentCost{CostType: models.CostTypeFreight, AllocationMethod: methodPtr(models.AllocateByVolume)},
			shipment: models.InboundShipment{Mode: models.ShipmentModeAir, AllocationMethodDefault: methodPtr(models.AllocateByWeight)},
			want:     models.AllocateByVolume,
		},
		{
			name:     "shipment_default_next",
			cost:     models.ShipmentCost{CostType: models.CostTypeFreight},
			shipment: models.InboundShipment{Mode: models.ShipmentModeAir, AllocationMethodDefault: methodPtr(models.AllocateByWeight)},
			want:     models.AllocateByWeight,
		},
		{
			name:     "sea_fcl_by_volume",
			cost:     models.ShipmentCost{CostType: models.CostTypeFreight},
			shipment: models.InboundShipment{Mode: models.ShipmentModeSeaFCL},
			want:     models.AllocateByVolume,
		},
		{
			name:     "sea_lcl_by_volume",
			cost:     models.ShipmentCost{CostType: models.CostTypeOther},
			shipment: models.InboundShipment{Mode: models.ShipmentModeSeaLCL},
			want:     models.AllocateByVolume,
		},
		{
			name:     "air_by_chargeable_weight",
			cost:     models.ShipmentCost{CostType: models.CostTypeFreight},
			shipment: models.InboundShipment{Mode: models.ShipmentModeAir},
			want:     models.AllocateByChargeableWeight,
		},
		{
			name:     "ground_by_weight",
			cost:     models.ShipmentCost{CostType: models.CostTypeFreight},
			shipment: models.InboundShipment{Mode: models.ShipmentModeGround},
			want:     models.AllocateByWeight,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveMethod(&tc.cost, &tc.shipment)
			assert.Equal(t, tc.want, got)
		})
	}
}
