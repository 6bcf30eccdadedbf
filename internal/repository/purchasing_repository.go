package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wms-service/internal/models"
)

// PurchasingRepositoryInterface defines vendor and purchase order persistence
type PurchasingRepositoryInterface interface {
	CreateVendor(ctx context.Context, vendor *models.Vendor) error
	GetVendorByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Vendor, error)
	ListVendors(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]models.Vendor, int64, error)
	UpdateVendor(ctx context.Context, vendor *models.Vendor) error

	UpsertVendorProduct(ctx context.Context, vp *models.VendorProduct) error
	GetPreferredVendorProduct(ctx context.Context, tenantID string, variantID uuid.UUID) (*models.VendorProduct, error)
	ListVendorProducts(ctx context.Context, tenantID string, vendorID uuid.UUID) ([]models.VendorProduct, error)

	ListApprovalTiers(ctx context.Context, tenantID string) ([]models.ApprovalTier, error)
	CreateApprovalTier(ctx context.Context, tier *models.ApprovalTier) error

	WithTransaction(ctx context.Context, fn TxFn) error
	CreatePO(ctx context.Context, po *models.PurchaseOrder) error
	CreatePOTx(tx *gorm.DB, po *models.PurchaseOrder) error
	GetPOByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error)
	LockPO(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error)
	ListPOs(ctx context.Context, tenantID string, status *models.PurchaseOrderStatus, vendorID *uuid.UUID, limit, offset int) ([]models.PurchaseOrder, int64, error)
	SavePO(ctx context.Context, po *models.PurchaseOrder) error
	SavePOTx(tx *gorm.DB, po *models.PurchaseOrder) error
	SavePOLineTx(tx *gorm.DB, line *models.PurchaseOrderLine) error
	GetPOLineByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrderLine, error)
	ReplacePOLines(ctx context.Context, po *models.PurchaseOrder, lines []models.PurchaseOrderLine) error
	CreateRevision(tx *gorm.DB, revision *models.PoRevision) error
	ListRevisions(ctx context.Context, tenantID string, poID uuid.UUID) ([]models.PoRevision, error)
	OnOrderByVariant(ctx context.Context, tenantID string, variantIDs []uuid.UUID) ([]models.OnOrderSummary, error)
}

// PurchasingRepository handles database operations for purchasing
type PurchasingRepository struct {
	db *gorm.DB
}

// NewPurchasingRepository creates a new PurchasingRepository
func NewPurchasingRepository(db *gorm.DB) *PurchasingRepository {
	return &PurchasingRepository{db: db}
}

// --- Vendor Methods ---

func (r *PurchasingRepository) CreateVendor(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *PurchasingRepository) GetVendorByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&vendor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *PurchasingRepository) ListVendors(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]models.Vendor, int64, error) {
	var vendors []models.Vendor
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Vendor{}).
		Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = true")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("code ASC").
		Limit(limit).
		Offset(offset).
		Find(&vendors).Error

	return vendors, total, err
}

func (r *PurchasingRepository) UpdateVendor(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

// --- Vendor Product Methods ---

// UpsertVendorProduct creates or updates the (vendor, variant) cost link
func (r *PurchasingRepository) UpsertVendorProduct(ctx context.Context, vp *models.VendorProduct) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}, {Name: "variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vendor_sku", "unit_cost_cents", "is_preferred", "lead_time_days", "updated_at"}),
		}).
		Create(vp).Error
}

// GetPreferredVendorProduct returns the preferred vendor link for a variant,
// falling back to the cheapest active link when none is marked preferred.
func (r *PurchasingRepository) GetPreferredVendorProduct(ctx context.Context, tenantID string, variantID uuid.UUID) (*models.VendorProduct, error) {
	var vp models.VendorProduct
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).
		Order("is_preferred DESC, unit_cost_cents ASC").
		First(&vp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vp, nil
}

func (r *PurchasingRepository) ListVendorProducts(ctx context.Context, tenantID string, vendorID uuid.UUID) ([]models.VendorProduct, error) {
	var vps []models.VendorProduct
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID).
		Find(&vps).Error
	return vps, err
}

// --- Approval Tier Methods ---

// ListApprovalTiers returns active tiers ordered by ascending threshold
func (r *PurchasingRepository) ListApprovalTiers(ctx context.Context, tenantID string) ([]models.ApprovalTier, error) {
	var tiers []models.ApprovalTier
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = true", tenantID).
		Order("min_total_cents ASC").
		Find(&tiers).Error
	return tiers, err
}

func (r *PurchasingRepository) CreateApprovalTier(ctx context.Context, tier *models.ApprovalTier) error {
	return r.db.WithContext(ctx).Create(tier).Error
}

// --- Purchase Order Methods ---

// WithTransaction runs fn inside one database transaction
func (r *PurchasingRepository) WithTransaction(ctx context.Context, fn TxFn) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *PurchasingRepository) CreatePO(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *PurchasingRepository) CreatePOTx(tx *gorm.DB, po *models.PurchaseOrder) error {
	return tx.Create(po).Error
}

func (r *PurchasingRepository) GetPOByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// LockPO loads a PO with its lines under a row lock on the header
func (r *PurchasingRepository) LockPO(tx *gorm.DB, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Where("purchase_order_id = ?", id).
		Order("line_number ASC").
		Find(&po.Lines).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PurchasingRepository) ListPOs(ctx context.Context, tenantID string, status *models.PurchaseOrderStatus, vendorID *uuid.UUID, limit, offset int) ([]models.PurchaseOrder, int64, error) {
	var pos []models.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Vendor").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&pos).Error

	return pos, total, err
}

func (r *PurchasingRepository) SavePO(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

func (r *PurchasingRepository) SavePOTx(tx *gorm.DB, po *models.PurchaseOrder) error {
	return tx.Save(po).Error
}

func (r *PurchasingRepository) SavePOLineTx(tx *gorm.DB, line *models.PurchaseOrderLine) error {
	return tx.Save(line).Error
}

func (r *PurchasingRepository) GetPOLineByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrderLine, error) {
	var line models.PurchaseOrderLine
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ReplacePOLines swaps the full line set of a draft PO
func (r *PurchasingRepository) ReplacePOLines(ctx context.Context, po *models.PurchaseOrder, lines []models.PurchaseOrderLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", po.ID).
			Delete(&models.PurchaseOrderLine{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].PurchaseOrderID = po.ID
			lines[i].TenantID = po.TenantID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		po.Lines = lines
		return tx.Save(po).Error
	})
}

func (r *PurchasingRepository) CreateRevision(tx *gorm.DB, revision *models.PoRevision) error {
	return tx.Create(revision).Error
}

func (r *PurchasingRepository) ListRevisions(ctx context.Context, tenantID string, poID uuid.UUID) ([]models.PoRevision, error) {
	var revisions []models.PoRevision
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND purchase_order_id = ?", tenantID, poID).
		Order("revision_number ASC").
		Find(&revisions).Error
	return revisions, err
}

// OnOrderByVariant sums open PO quantities per variant across active POs
func (r *PurchasingRepository) OnOrderByVariant(ctx context.Context, tenantID string, variantIDs []uuid.UUID) ([]models.OnOrderSummary, error) {
	var summaries []models.OnOrderSummary
	err := r.db.WithContext(ctx).
		Table("purchase_order_lines pol").
		Joins("JOIN purchase_orders po ON po.id = pol.purchase_order_id").
		Where("pol.tenant_id = ? AND pol.variant_id IN ?", tenantID, variantIDs).
		Where("po.status IN ?", []models.PurchaseOrderStatus{
			models.POStatusApproved,
			models.POStatusSent,
			models.POStatusAcknowledged,
			models.POStatusPartiallyReceived,
		}).
		Select("pol.variant_id, SUM(pol.order_qty - pol.received_qty - pol.cancelled_qty) AS on_order_qty, MIN(po.expected_delivery_date) AS earliest_expected_date").
		Group("pol.variant_id").
		Scan(&summaries).Error
	return summaries, err
}
