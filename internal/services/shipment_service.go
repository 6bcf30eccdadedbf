package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// ShipmentService handles inbound shipment business logic
type ShipmentService struct {
	repo       repository.ShipmentRepositoryInterface
	purchasing repository.PurchasingRepositoryInterface
	catalog    repository.CatalogRepositoryInterface
	sequences  repository.SequenceRepositoryInterface
	landedCost *LandedCostService
	logger     *logrus.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(repo repository.ShipmentRepositoryInterface, purchasing repository.PurchasingRepositoryInterface, catalog repository.CatalogRepositoryInterface, sequences repository.SequenceRepositoryInterface, landedCost *LandedCostService, logger *logrus.Logger) *ShipmentService {
	return &ShipmentService{
		repo:       repo,
		purchasing: purchasing,
		catalog:    catalog,
		sequences:  sequences,
		landedCost: landedCost,
		logger:     logger,
	}
}

// CreateShipment creates a draft shipment with an allocated number.
func (s *ShipmentService) CreateShipment(ctx context.Context, tenantID string, req models.CreateShipmentRequest, createdBy *string) (*models.InboundShipment, error) {
	shipment := &models.InboundShipment{
		TenantID:                tenantID,
		Status:                  models.ShipmentStatusDraft,
		Mode:                    req.Mode,
		CarrierName:             req.CarrierName,
		ForwarderName:           req.ForwarderName,
		OriginPort:              req.OriginPort,
		DestinationPort:         req.DestinationPort,
		ContainerNumber:         req.ContainerNumber,
		BOLNumber:               req.BOLNumber,
		TrackingNumber:          req.TrackingNumber,
		ETD:                     req.ETD,
		ETA:                     req.ETA,
		AllocationMethodDefault: req.AllocationMethodDefault,
		Notes:                   req.Notes,
		CreatedBy:               createdBy,
	}
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		number, err := s.sequences.NextNumberTx(tx, tenantID, "shipment", "SHP")
		if err != nil {
			return err
		}
		shipment.ShipmentNumber = number
		return tx.Create(shipment).Error
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

func (s *ShipmentService) GetShipment(ctx context.Context, tenantID string, id uuid.UUID) (*models.InboundShipment, error) {
	shipment, err := s.repo.GetShipmentByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("SHIPMENT_NOT_FOUND", "shipment not found")
	}
	return shipment, err
}

func (s *ShipmentService) ListShipments(ctx context.Context, tenantID string, status *models.InboundShipmentStatus, limit, offset int) ([]models.InboundShipment, int64, error) {
	return s.repo.ListShipments(ctx, tenantID, status, limit, offset)
}

// deriveLineFigures fills the weight/volume figures the allocation engine
// reads. Chargeable weight uses the IATA divisor of 5000 on cm dimensions.
func deriveLineFigures(line *models.InboundShipmentLine) {
	line.TotalWeightKG = float64(line.QtyShipped) * line.UnitWeightKG

	unitVolumeCBM := line.UnitLengthCM * line.UnitWidthCM * line.UnitHeightCM / 1e6
	if line.GrossVolumeCBM != nil {
		line.TotalVolumeCBM = *line.GrossVolumeCBM
	} else {
		line.TotalVolumeCBM = float64(line.QtyShipped) * unitVolumeCBM
	}

	volumetricKG := line.UnitLengthCM * line.UnitWidthCM * line.UnitHeightCM / 5000
	unitChargeable := line.UnitWeightKG
	if volumetricKG > unitChargeable {
		unitChargeable = volumetricKG
	}
	line.ChargeableWeightKG = float64(line.QtyShipped) * unitChargeable
}

// AddLine attaches a variant to the shipment; dimensions default from the
// variant master when the request leaves them zero.
func (s *ShipmentService) AddLine(ctx context.Context, tenantID string, shipmentID uuid.UUID, req models.CreateShipmentLineRequest) (*models.InboundShipmentLine, error) {
	shipment, err := s.GetShipment(ctx, tenantID, shipmentID)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalShipmentStatus(shipment.Status) || shipment.Status == models.ShipmentStatusCosting {
		return nil, apperrors.New(apperrors.KindInvalidTransition, "SHIPMENT_NOT_EDITABLE",
			"lines cannot change once costing has started")
	}
	variant, err := s.catalog.GetVariantByID(ctx, tenantID, req.VariantID)
	if err != nil {
		return nil, variantLookupError(req.VariantID, err)
	}

	line := &models.InboundShipmentLine{
		TenantID:       tenantID,
		ShipmentID:     shipment.ID,
		POLineID:       req.POLineID,
		VariantID:      variant.ID,
		QtyShipped:     req.QtyShipped,
		UnitWeightKG:   req.UnitWeightKG,
		UnitLengthCM:   req.UnitLengthCM,
		UnitWidthCM:    req.UnitWidthCM,
		UnitHeightCM:   req.UnitHeightCM,
		GrossVolumeCBM: req.GrossVolumeCBM,
	}
	if line.UnitWeightKG == 0 && variant.WeightGrams != nil {
		line.UnitWeightKG = float64(*variant.WeightGrams) / 1000
	}
	if line.UnitLengthCM == 0 && variant.LengthMM != nil {
		line.UnitLengthCM = float64(*variant.LengthMM) / 10
	}
	if line.UnitWidthCM == 0 && variant.WidthMM != nil {
		line.UnitWidthCM = float64(*variant.WidthMM) / 10
	}
	if line.UnitHeightCM == 0 && variant.HeightMM != nil {
		line.UnitHeightCM = float64(*variant.HeightMM) / 10
	}
	deriveLineFigures(line)

	if err := s.repo.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	if err := s.refreshAggregates(ctx, tenantID, shipmentID); err != nil {
		return nil, err
	}
	return line, nil
}

// RemoveLine deletes a shipment line while the shipment is still editable.
func (s *ShipmentService) RemoveLine(ctx context.Context, tenantID string, shipmentID, lineID uuid.UUID) error {
	shipment, err := s.GetShipment(ctx, tenantID, shipmentID)
	if err != nil {
		return err
	}
	if models.IsTerminalShipmentStatus(shipment.Status) || shipment.Status == models.ShipmentStatusCosting {
		return apperrors.New(apperrors.KindInvalidTransition, "SHIPMENT_NOT_EDITABLE",
			"lines cannot change once costing has started")
	}
	if err := s.repo.DeleteLine(ctx, tenantID, lineID); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("SHIPMENT_LINE_NOT_FOUND", "shipment line not found")
		}
		return err
	}
	return s.refreshAggregates(ctx, tenantID, shipmentID)
}

// AddCost itemizes one cost on the shipment.
func (s *ShipmentService) AddCost(ctx context.Context, tenantID string, shipmentID uuid.UUID, req models.CreateShipmentCostRequest) (*models.ShipmentCost, error) {
	shipment, err := s.GetShipment(ctx, tenantID, shipmentID)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalShipmentStatus(shipment.Status) {
		return nil, apperrors.New(apperrors.KindInvalidTransition, "SHIPMENT_NOT_EDITABLE",
			"costs cannot change on a closed shipment")
	}
	cost := &models.ShipmentCost{
		TenantID:         tenantID,
		ShipmentID:       shipment.ID,
		CostType:         req.CostType,
		Description:      req.Description,
		EstimatedCents:   req.EstimatedCents,
		ActualCents:      req.ActualCents,
		AllocationMethod: req.AllocationMethod,
	}
	if err := s.repo.CreateCost(ctx, cost); err != nil {
		return nil, err
	}
	if err := s.refreshAggregates(ctx, tenantID, shipmentID); err != nil {
		return nil, err
	}
	return cost, nil
}

// UpdateCost records the actual amount once an invoice arrives.
func (s *ShipmentService) UpdateCost(ctx context.Context, tenantID string, shipmentID, costID uuid.UUID, actualCents *int64, method *models.AllocationMethod) (*models.ShipmentCost, error) {
	costs, err := s.repo.ListCosts(ctx, tenantID, shipmentID)
	if err != nil {
		return nil, err
	}
	var cost *models.ShipmentCost
	for i := range costs {
		if costs[i].ID == costID {
			cost = &costs[i]
			break
		}
	}
	if cost == nil {
		return nil, apperrors.NotFound("SHIPMENT_COST_NOT_FOUND", "shipment cost not found")
	}
	if actualCents != nil {
		cost.ActualCents = actualCents
	}
	if method != nil {
		cost.AllocationMethod = method
	}
	if err := s.repo.SaveCost(ctx, cost); err != nil {
		return nil, err
	}
	if err := s.refreshAggregates(ctx, tenantID, shipmentID); err != nil {
		return nil, err
	}
	return cost, nil
}

func (s *ShipmentService) refreshAggregates(ctx context.Context, tenantID string, shipmentID uuid.UUID) error {
	shipment, err := s.repo.GetShipmentByID(ctx, tenantID, shipmentID)
	if err != nil {
		return err
	}
	var weight, volume float64
	var pieces int64
	for i := range shipment.Lines {
		weight += shipment.Lines[i].TotalWeightKG
		volume += shipment.Lines[i].TotalVolumeCBM
		pieces += shipment.Lines[i].QtyShipped
	}
	var estimated, actual int64
	for i := range shipment.Costs {
		estimated += shipment.Costs[i].EstimatedCents
		actual += shipment.Costs[i].EffectiveCents()
	}
	shipment.TotalWeightKG = weight
	shipment.TotalVolumeCBM = volume
	shipment.TotalPieces = pieces
	shipment.EstimatedTotalCostCents = estimated
	shipment.ActualTotalCostCents = actual
	return s.repo.SaveShipment(ctx, shipment)
}

// Transition moves the shipment along its lifecycle. Booking requires at
// least one line; closing runs landed cost finalization.
func (s *ShipmentService) Transition(ctx context.Context, tenantID string, id uuid.UUID, target models.InboundShipmentStatus) (*models.InboundShipment, error) {
	shipment, err := s.GetShipment(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateShipmentStatusTransition(shipment.Status, target); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
	}
	if target == models.ShipmentStatusBooked && len(shipment.Lines) == 0 {
		return nil, apperrors.Validation("EMPTY_SHIPMENT", "a shipment needs at least one line before booking")
	}
	if target == models.ShipmentStatusClosed {
		return s.landedCost.Finalize(ctx, tenantID, id)
	}

	shipment.Status = target
	if err := s.repo.SaveShipment(ctx, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// Allocate reruns the cost allocation and returns the refreshed shipment.
func (s *ShipmentService) Allocate(ctx context.Context, tenantID string, id uuid.UUID) (*models.InboundShipment, error) {
	if err := s.landedCost.Allocate(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.GetShipment(ctx, tenantID, id)
}

// ListAllocations exposes the latest allocation run.
func (s *ShipmentService) ListAllocations(ctx context.Context, tenantID string, id uuid.UUID) ([]models.ShipmentCostAllocation, error) {
	return s.repo.ListAllocations(ctx, tenantID, id)
}

// ListSnapshots exposes the finalized landed cost records.
func (s *ShipmentService) ListSnapshots(ctx context.Context, tenantID string, id uuid.UUID) ([]models.LandedCostSnapshot, error) {
	return s.repo.ListSnapshots(ctx, tenantID, id)
}
