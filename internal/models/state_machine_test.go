package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionPOStatus(t *testing.T) {
	testCases := []struct {
		name string
		from PurchaseOrderStatus
		to   PurchaseOrderStatus
		want bool
	}{
		{"draft_to_pending", POStatusDraft, POStatusPendingApproval, true},
		{"draft_skips_approval", POStatusDraft, POStatusApproved, true},
		{"draft_to_void", POStatusDraft, POStatusVoid, true},
		{"rejection_back_to_draft", POStatusPendingApproval, POStatusDraft, true},
		{"approved_reopens_draft", POStatusApproved, POStatusDraft, true},
		{"sent_to_received", POStatusSent, POStatusReceived, true},
		{"partial_cannot_cancel", POStatusPartiallyReceived, POStatusCancelled, false},
		{"received_to_closed", POStatusReceived, POStatusClosed, true},
		{"closed_is_final", POStatusClosed, POStatusDraft, false},
		{"cancelled_is_final", POStatusCancelled, POStatusDraft, false},
		{"void_only_from_draft", POStatusApproved, POStatusVoid, false},
		{"no_skip_to_closed", POStatusDraft, POStatusClosed, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransitionPOStatus(tc.from, tc.to))
			err := ValidatePOStatusTransition(tc.from, tc.to)
			if tc.want {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestIsTerminalPOStatus(t *testing.T) {
	assert.True(t, IsTerminalPOStatus(POStatusClosed))
	assert.True(t, IsTerminalPOStatus(POStatusCancelled))
	assert.True(t, IsTerminalPOStatus(POStatusVoid))
	assert.False(t, IsTerminalPOStatus(POStatusDraft))
	assert.False(t, IsTerminalPOStatus(POStatusReceived))
}

func TestIsEditablePOStatus(t *testing.T) {
	assert.True(t, IsEditablePOStatus(POStatusDraft))
	assert.True(t, IsEditablePOStatus(POStatusPendingApproval))
	assert.False(t, IsEditablePOStatus(POStatusApproved))
	assert.False(t, IsEditablePOStatus(POStatusSent))
}

func TestCanTransitionShipmentStatus(t *testing.T) {
	testCases := []struct {
		name string
		from InboundShipmentStatus
		to   InboundShipmentStatus
		want bool
	}{
		{"draft_to_booked", ShipmentStatusDraft, ShipmentStatusBooked, true},
		{"ground_skips_port", ShipmentStatusInTransit, ShipmentStatusDelivered, true},
		{"port_to_customs", ShipmentStatusAtPort, ShipmentStatusCustomsClearance, true},
		{"delivered_to_costing", ShipmentStatusDelivered, ShipmentStatusCosting, true},
		{"costing_to_closed", ShipmentStatusCosting, ShipmentStatusClosed, true},
		{"no_cancel_after_arrival", ShipmentStatusAtPort, ShipmentStatusCancelled, false},
		{"no_reopen_closed", ShipmentStatusClosed, ShipmentStatusCosting, false},
		{"no_skip_costing", ShipmentStatusDelivered, ShipmentStatusClosed, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransitionShipmentStatus(tc.from, tc.to))
		})
	}
}

func TestCanTransitionReceivingStatus(t *testing.T) {
	assert.True(t, CanTransitionReceivingStatus(ReceivingStatusDraft, ReceivingStatusOpen))
	assert.True(t, CanTransitionReceivingStatus(ReceivingStatusOpen, ReceivingStatusReceiving))
	// Closing an open order with nothing counted is allowed.
	assert.True(t, CanTransitionReceivingStatus(ReceivingStatusOpen, ReceivingStatusClosed))
	assert.False(t, CanTransitionReceivingStatus(ReceivingStatusClosed, ReceivingStatusOpen))
	assert.False(t, CanTransitionReceivingStatus(ReceivingStatusDraft, ReceivingStatusReceiving))
}

func TestCanTransitionSalesOrderStatus(t *testing.T) {
	testCases := []struct {
		name string
		from SalesOrderStatus
		to   SalesOrderStatus
		want bool
	}{
		{"ready_to_in_progress", OrderStatusReady, OrderStatusInProgress, true},
		{"exception_resumes", OrderStatusException, OrderStatusReady, true},
		{"completed_to_shipped", OrderStatusCompleted, OrderStatusShipped, true},
		{"no_cancel_after_complete", OrderStatusCompleted, OrderStatusCancelled, false},
		{"shipped_is_final", OrderStatusShipped, OrderStatusReady, false},
		{"no_ship_from_ready", OrderStatusReady, OrderStatusShipped, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransitionSalesOrderStatus(tc.from, tc.to))
		})
	}
}

func TestCanTransitionReplenTaskStatus(t *testing.T) {
	assert.True(t, CanTransitionReplenTaskStatus(ReplenTaskStatusPending, ReplenTaskStatusAssigned))
	// Unassigning returns the task to the pool.
	assert.True(t, CanTransitionReplenTaskStatus(ReplenTaskStatusAssigned, ReplenTaskStatusPending))
	assert.True(t, CanTransitionReplenTaskStatus(ReplenTaskStatusInProgress, ReplenTaskStatusCompleted))
	assert.False(t, CanTransitionReplenTaskStatus(ReplenTaskStatusPending, ReplenTaskStatusCompleted))
	assert.False(t, CanTransitionReplenTaskStatus(ReplenTaskStatusCompleted, ReplenTaskStatusPending))
}

func TestCanTransitionWaveStatus(t *testing.T) {
	assert.True(t, CanTransitionWaveStatus(WaveStatusOpen, WaveStatusInProgress))
	assert.True(t, CanTransitionWaveStatus(WaveStatusInProgress, WaveStatusCompleted))
	assert.True(t, CanTransitionWaveStatus(WaveStatusOpen, WaveStatusCancelled))
	assert.False(t, CanTransitionWaveStatus(WaveStatusCompleted, WaveStatusOpen))
	assert.False(t, CanTransitionWaveStatus(WaveStatusOpen, WaveStatusCompleted))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Pending Approval", POStatusPendingApproval.DisplayName())
	assert.Equal(t, "Sent to Vendor", POStatusSent.DisplayName())
	assert.Equal(t, "Customs Clearance", ShipmentStatusCustomsClearance.DisplayName())
	// Unknown values fall through to the raw string.
	assert.Equal(t, "mystery", PurchaseOrderStatus("mystery").DisplayName())
}
