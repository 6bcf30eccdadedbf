package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// LandedCostService runs cost allocation and finalization for inbound
// shipments.
type LandedCostService struct {
	repo       repository.ShipmentRepositoryInterface
	purchasing repository.PurchasingRepositoryInterface
	logger     *logrus.Logger
}

// NewLandedCostService creates a new LandedCostService
func NewLandedCostService(repo repository.ShipmentRepositoryInterface, purchasing repository.PurchasingRepositoryInterface, logger *logrus.Logger) *LandedCostService {
	return &LandedCostService{repo: repo, purchasing: purchasing, logger: logger}
}

// resolveMethod picks the allocation method for one cost row. Duty always
// follows merchandise value and per-document fees split per line; otherwise
// the cost row, then the shipment default, then the freight mode decides.
func resolveMethod(cost *models.ShipmentCost, shipment *models.InboundShipment) models.AllocationMethod {
	switch cost.CostType {
	case models.CostTypeDuty:
		return models.AllocateByValue
	case models.CostTypeBrokerage, models.CostTypeInspection:
		return models.AllocateByLineCount
	}
	if cost.AllocationMethod != nil {
		return *cost.AllocationMethod
	}
	if shipment.AllocationMethodDefault != nil {
		return *shipment.AllocationMethodDefault
	}
	switch shipment.Mode {
	case models.ShipmentModeSeaFCL, models.ShipmentModeSeaLCL:
		return models.AllocateByVolume
	case models.ShipmentModeAir:
		return models.AllocateByChargeableWeight
	default:
		return models.AllocateByWeight
	}
}

// lineBasis returns the allocation basis of one line under a method. The
// value basis is the PO merchandise value in cents; lines without a PO link
// contribute zero value.
func (s *LandedCostService) lineBasis(ctx context.Context, tenantID string, line *models.InboundShipmentLine, method models.AllocationMethod) (float64, error) {
	switch method {
	case models.AllocateByVolume:
		return line.TotalVolumeCBM, nil
	case models.AllocateByChargeableWeight:
		return line.ChargeableWeightKG, nil
	case models.AllocateByWeight:
		return line.TotalWeightKG, nil
	case models.AllocateByLineCount:
		return 1, nil
	case models.AllocateByValue:
		if line.POLineID == nil {
			return 0, nil
		}
		poLine, err := s.purchasing.GetPOLineByID(ctx, tenantID, *line.POLineID)
		if err != nil {
			if err == repository.ErrNotFound {
				return 0, nil
			}
			return 0, err
		}
		return float64(poLine.UnitCostCents * line.QtyShipped), nil
	default:
		return line.TotalWeightKG, nil
	}
}

// splitCents distributes amount proportionally across the bases in whole
// cents; the rounding leftover goes to the largest basis. A zero basis total
// falls back to an even split. The sum of the returned shares always equals
// amount exactly.
func splitCents(amount int64, bases []float64) []int64 {
	n := len(bases)
	shares := make([]int64, n)
	if n == 0 || amount == 0 {
		return shares
	}

	var total float64
	for _, b := range bases {
		total += b
	}
	if total == 0 {
		even := amount / int64(n)
		for i := range shares {
			shares[i] = even
		}
		// Leftover cents go to the first lines.
		for i := int64(0); i < amount-even*int64(n); i++ {
			shares[i]++
		}
		return shares
	}

	type weighted struct {
		idx   int
		basis float64
	}
	order := make([]weighted, n)
	var assigned int64
	for i, b := range bases {
		raw := float64(amount) * b / total
		floor := math.Floor(raw)
		shares[i] = int64(floor)
		assigned += int64(floor)
		order[i] = weighted{idx: i, basis: b}
	}
	// Leftover cents land on the largest bases; ties keep line order.
	sort.SliceStable(order, func(a, b int) bool {
		return order[a].basis > order[b].basis
	})
	for i := int64(0); i < amount-assigned; i++ {
		shares[order[i].idx]++
	}
	return shares
}

// Allocate recomputes the cost split of every cost row across the shipment
// lines, replacing any previous run, and stores the per-line totals.
func (s *LandedCostService) Allocate(ctx context.Context, tenantID string, shipmentID uuid.UUID) error {
	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		_, err := s.allocateTx(ctx, tx, tenantID, shipmentID)
		return err
	})
}

func (s *LandedCostService) allocateTx(ctx context.Context, tx *gorm.DB, tenantID string, shipmentID uuid.UUID) (*models.InboundShipment, error) {
	shipment, err := s.repo.LockShipment(tx, tenantID, shipmentID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("SHIPMENT_NOT_FOUND", "shipment not found")
		}
		return nil, err
	}
	if len(shipment.Lines) == 0 {
		return nil, apperrors.Validation("EMPTY_SHIPMENT", "nothing to allocate on a shipment without lines")
	}

	costIDs := make([]uuid.UUID, 0, len(shipment.Costs))
	allocations := make([]models.ShipmentCostAllocation, 0, len(shipment.Costs)*len(shipment.Lines))
	perLine := make(map[uuid.UUID]int64, len(shipment.Lines))

	for ci := range shipment.Costs {
		cost := &shipment.Costs[ci]
		costIDs = append(costIDs, cost.ID)
		amount := cost.EffectiveCents()
		if amount == 0 {
			continue
		}
		method := resolveMethod(cost, shipment)

		bases := make([]float64, len(shipment.Lines))
		var basisTotal float64
		for li := range shipment.Lines {
			basis, err := s.lineBasis(ctx, tenantID, &shipment.Lines[li], method)
			if err != nil {
				return nil, err
			}
			bases[li] = basis
			basisTotal += basis
		}

		shares := splitCents(amount, bases)
		for li := range shipment.Lines {
			line := &shipment.Lines[li]
			sharePct := 0.0
			if basisTotal > 0 {
				sharePct = bases[li] / basisTotal * 100
			} else {
				sharePct = 100 / float64(len(shipment.Lines))
			}
			allocations = append(allocations, models.ShipmentCostAllocation{
				TenantID:       tenantID,
				ShipmentCostID: cost.ID,
				ShipmentLineID: line.ID,
				AllocatedCents: shares[li],
				BasisValue:     bases[li],
				BasisTotal:     basisTotal,
				SharePct:       sharePct,
			})
			perLine[line.ID] += shares[li]
		}
	}

	if err := s.repo.ReplaceAllocations(tx, shipmentID, costIDs, allocations); err != nil {
		return nil, err
	}
	for li := range shipment.Lines {
		line := &shipment.Lines[li]
		line.AllocatedCostCents = perLine[line.ID]
		if err := s.repo.SaveLineTx(tx, line); err != nil {
			return nil, err
		}
	}
	return shipment, nil
}

// Finalize runs a last allocation, writes immutable landed cost snapshots,
// pushes the landed unit cost onto provisional lots, and closes the shipment.
func (s *LandedCostService) Finalize(ctx context.Context, tenantID string, shipmentID uuid.UUID) (*models.InboundShipment, error) {
	var closed *models.InboundShipment
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		shipment, err := s.allocateTx(ctx, tx, tenantID, shipmentID)
		if err != nil {
			return err
		}
		if err := models.ValidateShipmentStatusTransition(shipment.Status, models.ShipmentStatusClosed); err != nil {
			return apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
		}

		byCostID := make(map[uuid.UUID]models.CostType, len(shipment.Costs))
		for i := range shipment.Costs {
			byCostID[shipment.Costs[i].ID] = shipment.Costs[i].CostType
		}
		allocations, err := s.listAllocationsTx(tx, tenantID, shipmentID)
		if err != nil {
			return err
		}

		now := time.Now()
		snapshots := make([]models.LandedCostSnapshot, 0, len(shipment.Lines))
		for li := range shipment.Lines {
			line := &shipment.Lines[li]

			snap := models.LandedCostSnapshot{
				TenantID:       tenantID,
				ShipmentID:     shipment.ID,
				ShipmentLineID: line.ID,
				Qty:            line.QtyShipped,
				FinalizedAt:    now,
			}
			if line.POLineID != nil {
				poLine, err := s.purchasing.GetPOLineByID(ctx, tenantID, *line.POLineID)
				if err == nil {
					snap.POUnitCostCents = poLine.UnitCostCents
				} else if err != repository.ErrNotFound {
					return err
				}
			}
			for _, a := range allocations {
				if a.ShipmentLineID != line.ID {
					continue
				}
				switch byCostID[a.ShipmentCostID] {
				case models.CostTypeFreight, models.CostTypeDrayage, models.CostTypePortHandling:
					snap.FreightCents += a.AllocatedCents
				case models.CostTypeDuty:
					snap.DutyCents += a.AllocatedCents
				case models.CostTypeInsurance:
					snap.InsuranceCents += a.AllocatedCents
				default:
					snap.OtherCents += a.AllocatedCents
				}
			}
			snap.TotalLandedCostCents = snap.POUnitCostCents*snap.Qty +
				snap.FreightCents + snap.DutyCents + snap.InsuranceCents + snap.OtherCents
			if snap.Qty > 0 {
				snap.LandedUnitCostCents = int64(math.Floor(float64(snap.TotalLandedCostCents)/float64(snap.Qty) + 0.5))
			}
			snapshots = append(snapshots, snap)

			line.LandedUnitCostCents = snap.LandedUnitCostCents
			if err := s.repo.SaveLineTx(tx, line); err != nil {
				return err
			}
			if line.POLineID != nil {
				if err := s.repo.FinalizeLots(tx, tenantID, *line.POLineID, snap.LandedUnitCostCents); err != nil {
					return err
				}
			}
		}
		if err := s.repo.CreateSnapshots(tx, snapshots); err != nil {
			return err
		}

		shipment.Status = models.ShipmentStatusClosed
		shipment.FinalizedAt = &now
		if err := s.repo.SaveShipmentTx(tx, shipment); err != nil {
			return err
		}
		closed = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *LandedCostService) listAllocationsTx(tx *gorm.DB, tenantID string, shipmentID uuid.UUID) ([]models.ShipmentCostAllocation, error) {
	var allocations []models.ShipmentCostAllocation
	err := tx.
		Table("shipment_cost_allocations a").
		Joins("JOIN shipment_costs c ON c.id = a.shipment_cost_id").
		Where("a.tenant_id = ? AND c.shipment_id = ?", tenantID, shipmentID).
		Select("a.*").
		Scan(&allocations).Error
	return allocations, err
}
