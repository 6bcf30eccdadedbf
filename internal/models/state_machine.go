package models

import "fmt"

// ValidPOTransitions defines valid state transitions for PurchaseOrderStatus
// Flow: DRAFT → PENDING_APPROVAL → APPROVED → SENT → ACKNOWLEDGED →
// PARTIALLY_RECEIVED → RECEIVED → CLOSED
// CANCELLED can be reached from any pre-receiving state; VOID only from DRAFT.
var ValidPOTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	POStatusDraft:             {POStatusPendingApproval, POStatusApproved, POStatusCancelled, POStatusVoid}, // Small orders skip approval
	POStatusPendingApproval:   {POStatusApproved, POStatusDraft, POStatusCancelled},                         // Rejection returns to draft
	POStatusApproved:          {POStatusSent, POStatusDraft, POStatusCancelled},                             // Editing reopens the draft
	POStatusSent:              {POStatusAcknowledged, POStatusPartiallyReceived, POStatusReceived, POStatusCancelled},
	POStatusAcknowledged:      {POStatusPartiallyReceived, POStatusReceived, POStatusCancelled},
	POStatusPartiallyReceived: {POStatusReceived, POStatusClosed},
	POStatusReceived:          {POStatusClosed},
	POStatusClosed:            {}, // Terminal state
	POStatusCancelled:         {}, // Terminal state
	POStatusVoid:              {}, // Terminal state
}

// ValidShipmentTransitions defines valid state transitions for InboundShipmentStatus
var ValidShipmentTransitions = map[InboundShipmentStatus][]InboundShipmentStatus{
	ShipmentStatusDraft:            {ShipmentStatusBooked, ShipmentStatusCancelled},
	ShipmentStatusBooked:           {ShipmentStatusInTransit, ShipmentStatusCancelled},
	ShipmentStatusInTransit:        {ShipmentStatusAtPort, ShipmentStatusDelivered, ShipmentStatusCancelled}, // Ground freight skips the port
	ShipmentStatusAtPort:           {ShipmentStatusCustomsClearance, ShipmentStatusDelivered},
	ShipmentStatusCustomsClearance: {ShipmentStatusDelivered},
	ShipmentStatusDelivered:        {ShipmentStatusCosting},
	ShipmentStatusCosting:          {ShipmentStatusClosed},
	ShipmentStatusClosed:           {}, // Terminal state
	ShipmentStatusCancelled:        {}, // Terminal state
}

// ValidReceivingTransitions defines valid state transitions for ReceivingOrderStatus
var ValidReceivingTransitions = map[ReceivingOrderStatus][]ReceivingOrderStatus{
	ReceivingStatusDraft:     {ReceivingStatusOpen},
	ReceivingStatusOpen:      {ReceivingStatusReceiving, ReceivingStatusClosed}, // Close with nothing counted is allowed
	ReceivingStatusReceiving: {ReceivingStatusClosed},
	ReceivingStatusClosed:    {}, // Terminal state
}

// ValidSalesOrderTransitions defines valid state transitions for SalesOrderStatus
var ValidSalesOrderTransitions = map[SalesOrderStatus][]SalesOrderStatus{
	OrderStatusReady:      {OrderStatusInProgress, OrderStatusException, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusException, OrderStatusCancelled},
	OrderStatusException:  {OrderStatusReady, OrderStatusInProgress, OrderStatusCancelled}, // Resume after resolution
	OrderStatusCompleted:  {OrderStatusShipped},
	OrderStatusShipped:    {}, // Terminal state
	OrderStatusCancelled:  {}, // Terminal state
}

// ValidReplenTaskTransitions defines valid state transitions for ReplenTaskStatus
var ValidReplenTaskTransitions = map[ReplenTaskStatus][]ReplenTaskStatus{
	ReplenTaskStatusPending:    {ReplenTaskStatusAssigned, ReplenTaskStatusInProgress, ReplenTaskStatusCancelled},
	ReplenTaskStatusAssigned:   {ReplenTaskStatusInProgress, ReplenTaskStatusPending, ReplenTaskStatusCancelled}, // Unassign allowed
	ReplenTaskStatusInProgress: {ReplenTaskStatusCompleted, ReplenTaskStatusCancelled},
	ReplenTaskStatusCompleted:  {}, // Terminal state
	ReplenTaskStatusCancelled:  {}, // Terminal state
}

// ValidWaveTransitions defines valid state transitions for PickWaveStatus
var ValidWaveTransitions = map[PickWaveStatus][]PickWaveStatus{
	WaveStatusOpen:       {WaveStatusInProgress, WaveStatusCancelled},
	WaveStatusInProgress: {WaveStatusCompleted, WaveStatusCancelled},
	WaveStatusCompleted:  {}, // Terminal state
	WaveStatusCancelled:  {}, // Terminal state
}

// CanTransitionPOStatus checks if a transition from one PO status to another is valid
func CanTransitionPOStatus(from, to PurchaseOrderStatus) bool {
	validTransitions, exists := ValidPOTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// CanTransitionShipmentStatus checks if a transition from one shipment status to another is valid
func CanTransitionShipmentStatus(from, to InboundShipmentStatus) bool {
	validTransitions, exists := ValidShipmentTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// CanTransitionReceivingStatus checks if a transition from one receiving status to another is valid
func CanTransitionReceivingStatus(from, to ReceivingOrderStatus) bool {
	validTransitions, exists := ValidReceivingTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// CanTransitionSalesOrderStatus checks if a transition from one order status to another is valid
func CanTransitionSalesOrderStatus(from, to SalesOrderStatus) bool {
	validTransitions, exists := ValidSalesOrderTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// CanTransitionReplenTaskStatus checks if a transition from one replen task status to another is valid
func CanTransitionReplenTaskStatus(from, to ReplenTaskStatus) bool {
	validTransitions, exists := ValidReplenTaskTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// CanTransitionWaveStatus checks if a transition from one wave status to another is valid
func CanTransitionWaveStatus(from, to PickWaveStatus) bool {
	validTransitions, exists := ValidWaveTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// ValidatePOStatusTransition returns an error if the transition is invalid
func ValidatePOStatusTransition(from, to PurchaseOrderStatus) error {
	if !CanTransitionPOStatus(from, to) {
		return fmt.Errorf("invalid purchase order status transition from %s to %s", from, to)
	}
	return nil
}

// ValidateShipmentStatusTransition returns an error if the transition is invalid
func ValidateShipmentStatusTransition(from, to InboundShipmentStatus) error {
	if !CanTransitionShipmentStatus(from, to) {
		return fmt.Errorf("invalid shipment status transition from %s to %s", from, to)
	}
	return nil
}

// ValidateReceivingStatusTransition returns an error if the transition is invalid
func ValidateReceivingStatusTransition(from, to ReceivingOrderStatus) error {
	if !CanTransitionReceivingStatus(from, to) {
		return fmt.Errorf("invalid receiving status transition from %s to %s", from, to)
	}
	return nil
}

// ValidateSalesOrderStatusTransition returns an error if the transition is invalid
func ValidateSalesOrderStatusTransition(from, to SalesOrderStatus) error {
	if !CanTransitionSalesOrderStatus(from, to) {
		return fmt.Errorf("invalid sales order status transition from %s to %s", from, to)
	}
	return nil
}

// ValidateReplenTaskStatusTransition returns an error if the transition is invalid
func ValidateReplenTaskStatusTransition(from, to ReplenTaskStatus) error {
	if !CanTransitionReplenTaskStatus(from, to) {
		return fmt.Errorf("invalid replenishment task status transition from %s to %s", from, to)
	}
	return nil
}

// ValidateWaveStatusTransition returns an error if the transition is invalid
func ValidateWaveStatusTransition(from, to PickWaveStatus) error {
	if !CanTransitionWaveStatus(from, to) {
		return fmt.Errorf("invalid pick wave status transition from %s to %s", from, to)
	}
	return nil
}

// GetNextValidPOStatuses returns the list of valid next statuses for a purchase order
func GetNextValidPOStatuses(current PurchaseOrderStatus) []PurchaseOrderStatus {
	return ValidPOTransitions[current]
}

// GetNextValidShipmentStatuses returns the list of valid next statuses for a shipment
func GetNextValidShipmentStatuses(current InboundShipmentStatus) []InboundShipmentStatus {
	return ValidShipmentTransitions[current]
}

// GetNextValidSalesOrderStatuses returns the list of valid next statuses for a sales order
func GetNextValidSalesOrderStatuses(current SalesOrderStatus) []SalesOrderStatus {
	return ValidSalesOrderTransitions[current]
}

// IsTerminalPOStatus checks if the PO status is a terminal state
func IsTerminalPOStatus(status PurchaseOrderStatus) bool {
	return len(ValidPOTransitions[status]) == 0
}

// IsTerminalShipmentStatus checks if the shipment status is a terminal state
func IsTerminalShipmentStatus(status InboundShipmentStatus) bool {
	return len(ValidShipmentTransitions[status]) == 0
}

// IsTerminalSalesOrderStatus checks if the order status is a terminal state
func IsTerminalSalesOrderStatus(status SalesOrderStatus) bool {
	return len(ValidSalesOrderTransitions[status]) == 0
}

// IsEditablePOStatus reports whether line edits are allowed without a revision
func IsEditablePOStatus(status PurchaseOrderStatus) bool {
	return status == POStatusDraft || status == POStatusPendingApproval
}

// POStatusDisplayName returns a human-readable name for the PO status
func (s PurchaseOrderStatus) DisplayName() string {
	switch s {
	case POStatusDraft:
		return "Draft"
	case POStatusPendingApproval:
		return "Pending Approval"
	case POStatusApproved:
		return "Approved"
	case POStatusSent:
		return "Sent to Vendor"
	case POStatusAcknowledged:
		return "Acknowledged"
	case POStatusPartiallyReceived:
		return "Partially Received"
	case POStatusReceived:
		return "Received"
	case POStatusClosed:
		return "Closed"
	case POStatusCancelled:
		return "Cancelled"
	case POStatusVoid:
		return "Void"
	default:
		return string(s)
	}
}

// ShipmentStatusDisplayName returns a human-readable name for the shipment status
func (s InboundShipmentStatus) DisplayName() string {
	switch s {
	case ShipmentStatusDraft:
		return "Draft"
	case ShipmentStatusBooked:
		return "Booked"
	case ShipmentStatusInTransit:
		return "In Transit"
	case ShipmentStatusAtPort:
		return "At Port"
	case ShipmentStatusCustomsClearance:
		return "Customs Clearance"
	case ShipmentStatusDelivered:
		return "Delivered"
	case ShipmentStatusCosting:
		return "Costing"
	case ShipmentStatusClosed:
		return "Closed"
	case ShipmentStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}
