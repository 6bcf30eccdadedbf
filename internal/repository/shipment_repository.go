package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wms-service/internal/models"
)

// ShipmentRepositoryInterface defines inbound shipment persistence
type ShipmentRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn TxFn) error
	CreateShipment(ctx context.Context, shipment *models.InboundShipment) error
	GetShipmentByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.InboundShipment, error)
	LockShipment(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.InboundShipment, error)
	ListShipments(ctx context.Context, tenantID string, status *models.InboundShipmentStatus, limit, offset int) ([]models.InboundShipment, int64, error)
	SaveShipment(ctx context.Context, shipment *models.InboundShipment) error
	SaveShipmentTx(tx *gorm.DB, shipment *models.InboundShipment) error

	CreateLine(ctx context.Context, line *models.InboundShipmentLine) error
	SaveLineTx(tx *gorm.DB, line *models.InboundShipmentLine) error
	DeleteLine(ctx context.Context, tenantID string, id uuid.UUID) error
	ListLines(ctx context.Context, tenantID string, shipmentID uuid.UUID) ([]models.InboundShipmentLine, error)

	CreateCost(ctx context.Context, cost *models.ShipmentCost) error
	SaveCost(ctx context.Context, cost *models.ShipmentCost) error
	DeleteCost(ctx context.Context, tenantID string, id uuid.UUID) error
	ListCosts(ctx context.Context, tenantID string, shipmentID uuid.UUID) ([]models.ShipmentCost, error)

	ReplaceAllocations(tx *gorm.DB, shipmentID uuid.UUID, costIDs []uuid.UUID, allocations []models.ShipmentCostAllocation) error
	ListAllocations(ctx context.Context, tenantID string, shipmentID uuid.UUID) ([]models.ShipmentCostAllocation, error)

	CreateSnapshots(tx *gorm.DB, snapshots []models.LandedCostSnapshot) error
	ListSnapshots(ctx context.Context, tenantID string, shipmentID uuid.UUID) ([]models.LandedCostSnapshot, error)

	CreateLot(tx *gorm.DB, lot *models.InventoryLot) error
	FinalizeLots(tx *gorm.DB, tenantID string, poLineID uuid.UUID, landedUnitCostCents int64) error
}

// ShipmentRepository handles database operations for inbound shipments
type ShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository creates a new ShipmentRepository
func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// WithTransaction runs fn inside one database transaction
func (r *ShipmentRepository) WithTransaction(ctx context.Context, fn TxFn) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// --- Shipment Methods ---

func (r *ShipmentRepository) CreateShipment(ctx context.Context, shipment *models.InboundShipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *ShipmentRepository) GetShipmentByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.InboundShipment, error) {
	var shipment models.InboundShipment
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Costs").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&shipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// LockShipment loads a shipment with lines and costs under a header row lock
func (r *ShipmentRepository) LockShipment(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.InboundShipment, error) {
	var shipment models.InboundShipment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&shipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Where("shipment_id = ?", id).Find(&shipment.Lines).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("shipment_id = ?", id).Find(&shipment.Costs).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *ShipmentRepository) ListShipments(ctx context.Context, tenantID string, status *models.InboundShipmentStatus, limit, offset int) ([]models.InboundShipment, int64, error) {
	var shipments []models.InboundShipment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.InboundShipment{}).
		Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&shipments).Error

	return shipments, total, err
}

func (r *ShipmentRepository) SaveShipment(ctx context.Context, shipment *models.InboundShipment) error {
	return r.db.WithContext(ctx).Save(shipment).Error
}

func (r *ShipmentRepository) SaveShipmentTx(tx *gorm.DB, shipment *models.InboundShipment) error {
	return tx.Save(shipment).Error
}

// --- Line Methods ---

func (r *ShipmentRepository) CreateLine(ctx context.Context, line *models.InboundShipmentLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *ShipmentRepository) SaveLineTx(tx *gorm.DB, line *models.InboundShipmentLine) error {
	return tx.Save(line).Error
}

func (r *ShipmentRepository) DeleteLine(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.InboundShipmentLine{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ShipmentRepository) ListLines(ctx context.Context, tenantID string, shipmentID uuid.UUID) ([]models.InboundShipmentLine, error) {
	var lines []models.InboundShipmentLine
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shipment_id = ?", tenantID, shipmentID).
		Find(&lines).Error
	return lines, err
}

// --- Cost Methods ---

func (r *ShipmentRepository) CreateCost(ctx context.Context, cost *models.ShipmentCost) error {
	return r.db.WithContext(ctx).Create(cost).Error
}

func (r *ShipmentRepository) SaveCost(ctx context.Context, cost *models.ShipmentCost) error {
	return r.db.WithContext(ctx).Save(cost).Error
}

func (r *ShipmentRepository) DeleteCost(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.ShipmentCost{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ShipmentRepository) ListCosts(ctx context.Context, tenantID string, shipmentID uuid.UUID) ([]models.ShipmentCost, error) {
	var costs []models.ShipmentCost
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shipment_id = ?", tenantID, shipmentID).
		Find(&costs).Error
	return costs, err
}

// --- Allocation Methods ---

// ReplaceAllocations drops the previous allocation run and writes the new one
func (r *ShipmentRepository) ReplaceAllocations(tx *gorm.DB, shipmentID uuid.UUID, costIDs []uuid.UUID, allocations []models.ShipmentCostAllocation) error {
	if len(costIDs) > 0 {
		if err := tx.Where("shipment_cost_id IN ?", costIDs).
			Delete(&models.ShipmentCostAllocation{}).Error; err != nil {
			return err
		}
	}
	if len(allocations) == 0 {
		return nil
	}
	return tx.Create(&allocations).Error
}

func (r *ShipmentRepository) ListAllocations(ctx context.Context, tenantID string, shipmentID uuid.UUID) ([]models.ShipmentCostAllocation, error) {
	var allocations []models.ShipmentCostAllocation
	err := r.db.WithContext(ctx).
		Table("shipment_cost_allocations a").
		Joins("JOIN shipment_costs c ON c.id = a.shipment_cost_id").
		Where("a.tenant_id = ? AND c.shipment_id = ?", tenantID, shipmentID).
		Select("a.*").
		Scan(&allocations).Error
	return allocations, err
}

// --- Snapshot and Lot Methods ---

func (r *ShipmentRepository) CreateSnapshots(tx *gorm.DB, snapshots []models.LandedCostSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return tx.Create(&snapshots).Error
}

func (r *ShipmentRepository) ListSnapshots(ctx context.Context, tenantID string, shipmentID uuid.UUID) ([]models.LandedCostSnapshot, error) {
	var snapshots []models.LandedCostSnapshot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shipment_id = ?", tenantID, shipmentID).
		Find(&snapshots).Error
	return snapshots, err
}

func (r *ShipmentRepository) CreateLot(tx *gorm.DB, lot *models.InventoryLot) error {
	return tx.Create(lot).Error
}

// FinalizeLots replaces the provisional unit cost on lots tied to a PO line
func (r *ShipmentRepository) FinalizeLots(tx *gorm.DB, tenantID string, poLineID uuid.UUID, landedUnitCostCents int64) error {
	return tx.Model(&models.InventoryLot{}).
		Where("tenant_id = ? AND po_line_id = ? AND is_provisional = true", tenantID, poLineID).
		Updates(map[string]interface{}{
			"unit_cost_cents": landedUnitCostCents,
			"is_provisional":  false,
		}).Error
}
