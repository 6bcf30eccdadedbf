package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// PurchasingService handles vendor and purchase order business logic
type PurchasingService struct {
	repo      repository.PurchasingRepositoryInterface
	catalog   repository.CatalogRepositoryInterface
	sequences repository.SequenceRepositoryInterface
	logger    *logrus.Logger
}

// NewPurchasingService creates a new PurchasingService
func NewPurchasingService(repo repository.PurchasingRepositoryInterface, catalog repository.CatalogRepositoryInterface, sequences repository.SequenceRepositoryInterface, logger *logrus.Logger) *PurchasingService {
	return &PurchasingService{
		repo:      repo,
		catalog:   catalog,
		sequences: sequences,
		logger:    logger,
	}
}

// ========== Totals ==========

// pctOf rounds amount × pct / 100 half-up to whole cents.
func pctOf(amountCents int64, pct float64) int64 {
	return int64(math.Floor(float64(amountCents)*pct/100 + 0.5))
}

// ComputeLineTotal fills LineTotalCents from the line's own figures.
func ComputeLineTotal(line *models.PurchaseOrderLine) {
	subtotal := line.OrderQty * line.UnitCostCents
	discount := pctOf(subtotal, line.DiscountPct)
	tax := pctOf(subtotal-discount, line.TaxPct)
	line.LineTotalCents = subtotal - discount + tax
}

// RecomputeTotals recalculates every line total and the header roll-up.
// Cancelled lines contribute nothing.
func RecomputeTotals(po *models.PurchaseOrder) {
	var subtotal int64
	for i := range po.Lines {
		line := &po.Lines[i]
		if line.Status == models.POLineStatusCancelled {
			line.LineTotalCents = 0
			continue
		}
		ComputeLineTotal(line)
		subtotal += line.LineTotalCents
	}
	po.SubtotalCents = subtotal
	po.GrandTotalCents = subtotal - po.HeaderDiscountCents + po.HeaderTaxCents + po.HeaderShippingCents
}

// ========== Vendors ==========

func (s *PurchasingService) CreateVendor(ctx context.Context, tenantID string, req models.CreateVendorRequest) (*models.Vendor, error) {
	vendor := &models.Vendor{
		TenantID:     tenantID,
		Code:         req.Code,
		Name:         req.Name,
		ContactName:  req.ContactName,
		Email:        req.Email,
		Phone:        req.Phone,
		CurrencyCode: "USD",
		PaymentTerms: req.PaymentTerms,
		IsActive:     true,
	}
	if req.CurrencyCode != nil {
		vendor.CurrencyCode = *req.CurrencyCode
	}
	if err := s.repo.CreateVendor(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *PurchasingService) GetVendor(ctx context.Context, tenantID string, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.GetVendorByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("VENDOR_NOT_FOUND", "vendor not found")
	}
	return vendor, err
}

func (s *PurchasingService) ListVendors(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]models.Vendor, int64, error) {
	return s.repo.ListVendors(ctx, tenantID, activeOnly, limit, offset)
}

// SetVendorProduct links a vendor to a variant it supplies.
func (s *PurchasingService) SetVendorProduct(ctx context.Context, tenantID string, vp *models.VendorProduct) error {
	if _, err := s.GetVendor(ctx, tenantID, vp.VendorID); err != nil {
		return err
	}
	if _, err := s.catalog.GetVariantByID(ctx, tenantID, vp.VariantID); err != nil {
		return variantLookupError(vp.VariantID, err)
	}
	vp.TenantID = tenantID
	return s.repo.UpsertVendorProduct(ctx, vp)
}

// ========== Purchase Orders ==========

// CreatePO creates a draft purchase order with an allocated PO number.
func (s *PurchasingService) CreatePO(ctx context.Context, tenantID string, req models.CreatePurchaseOrderRequest, createdBy *string) (*models.PurchaseOrder, error) {
	vendor, err := s.GetVendor(ctx, tenantID, req.VendorID)
	if err != nil {
		return nil, err
	}

	po := &models.PurchaseOrder{
		TenantID:             tenantID,
		Status:               models.POStatusDraft,
		Priority:             models.POPriorityNormal,
		VendorID:             vendor.ID,
		WarehouseID:          req.WarehouseID,
		CurrencyCode:         vendor.CurrencyCode,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Notes:                req.Notes,
		CreatedBy:            createdBy,
	}
	if req.Priority != nil {
		po.Priority = *req.Priority
	}
	if req.CurrencyCode != nil {
		po.CurrencyCode = *req.CurrencyCode
	}
	if req.HeaderDiscountCents != nil {
		po.HeaderDiscountCents = *req.HeaderDiscountCents
	}
	if req.HeaderTaxCents != nil {
		po.HeaderTaxCents = *req.HeaderTaxCents
	}
	if req.HeaderShippingCents != nil {
		po.HeaderShippingCents = *req.HeaderShippingCents
	}

	lines, err := s.buildLines(ctx, tenantID, req.Lines)
	if err != nil {
		return nil, err
	}
	po.Lines = lines
	RecomputeTotals(po)

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		number, err := s.sequences.NextNumberTx(tx, tenantID, "po", "PO")
		if err != nil {
			return err
		}
		po.PONumber = number
		return s.repo.CreatePOTx(tx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (s *PurchasingService) buildLines(ctx context.Context, tenantID string, reqs []models.CreatePurchaseOrderLineRequest) ([]models.PurchaseOrderLine, error) {
	lines := make([]models.PurchaseOrderLine, 0, len(reqs))
	for i, lr := range reqs {
		variant, err := s.catalog.GetVariantByID(ctx, tenantID, lr.VariantID)
		if err != nil {
			return nil, variantLookupError(lr.VariantID, err)
		}
		line := models.PurchaseOrderLine{
			TenantID:      tenantID,
			LineNumber:    i + 1,
			ProductID:     variant.ProductID,
			VariantID:     variant.ID,
			SKU:           variant.SKU,
			UnitCostCents: lr.UnitCostCents,
			OrderQty:      lr.OrderQty,
			Status:        models.POLineStatusOpen,
		}
		if lr.DiscountPct != nil {
			line.DiscountPct = *lr.DiscountPct
		}
		if lr.TaxPct != nil {
			line.TaxPct = *lr.TaxPct
		}
		ComputeLineTotal(&line)
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *PurchasingService) GetPO(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	po, err := s.repo.GetPOByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("PO_NOT_FOUND", "purchase order not found")
	}
	return po, err
}

func (s *PurchasingService) ListPOs(ctx context.Context, tenantID string, status *models.PurchaseOrderStatus, vendorID *uuid.UUID, limit, offset int) ([]models.PurchaseOrder, int64, error) {
	return s.repo.ListPOs(ctx, tenantID, status, vendorID, limit, offset)
}

// UpdateDraftLines replaces the lines of a draft PO and recomputes totals.
// After the PO is sent the edit goes through ReviseLines instead.
func (s *PurchasingService) UpdateDraftLines(ctx context.Context, tenantID string, id uuid.UUID, reqs []models.CreatePurchaseOrderLineRequest) (*models.PurchaseOrder, error) {
	po, err := s.GetPO(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !models.IsEditablePOStatus(po.Status) {
		return nil, apperrors.New(apperrors.KindInvalidTransition, "PO_NOT_EDITABLE",
			"purchase order lines can only be edited in draft")
	}
	lines, err := s.buildLines(ctx, tenantID, reqs)
	if err != nil {
		return nil, err
	}
	po.Lines = lines
	RecomputeTotals(po)
	if err := s.repo.ReplacePOLines(ctx, po, lines); err != nil {
		return nil, err
	}
	return s.GetPO(ctx, tenantID, id)
}

// Submit recomputes totals and routes the PO through approval tiers. The
// lowest tier whose range contains the grand total wins; no match
// auto-approves.
func (s *PurchasingService) Submit(ctx context.Context, tenantID string, id uuid.UUID, submittedBy *string) (*models.PurchaseOrder, error) {
	po, err := s.GetPO(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if len(po.Lines) == 0 {
		return nil, apperrors.Validation("EMPTY_PO", "purchase order has no lines")
	}
	RecomputeTotals(po)

	tiers, err := s.repo.ListApprovalTiers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	tier := matchTier(tiers, po.GrandTotalCents)

	now := time.Now()
	po.SubmittedBy = submittedBy
	po.SubmittedAt = &now

	target := models.POStatusApproved
	if tier != nil {
		target = models.POStatusPendingApproval
		po.ApprovalTierID = &tier.ID
	} else {
		po.ApprovedAt = &now
		note := "auto-approved: below approval thresholds"
		if po.Notes != nil {
			note = *po.Notes + "\n" + note
		}
		po.Notes = &note
	}
	if err := models.ValidatePOStatusTransition(po.Status, target); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
	}
	po.Status = target
	if err := s.repo.SavePO(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// matchTier returns the lowest tier containing the amount, or nil.
func matchTier(tiers []models.ApprovalTier, grandTotalCents int64) *models.ApprovalTier {
	for i := range tiers {
		t := &tiers[i]
		if grandTotalCents >= t.MinTotalCents &&
			(t.MaxTotalCents == nil || grandTotalCents <= *t.MaxTotalCents) {
			return t
		}
	}
	return nil
}

// Transition moves the PO to the requested status with audit stamps.
func (s *PurchasingService) Transition(ctx context.Context, tenantID string, id uuid.UUID, target models.PurchaseOrderStatus, actor *string) (*models.PurchaseOrder, error) {
	po, err := s.GetPO(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidatePOStatusTransition(po.Status, target); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
	}

	now := time.Now()
	switch target {
	case models.POStatusApproved:
		po.ApprovedBy = actor
		po.ApprovedAt = &now
	case models.POStatusSent:
		po.SentBy = actor
		po.SentAt = &now
	case models.POStatusAcknowledged:
		po.AcknowledgedAt = &now
	case models.POStatusClosed:
		po.ClosedBy = actor
		po.ClosedAt = &now
	case models.POStatusCancelled, models.POStatusVoid:
		po.CancelledBy = actor
		po.CancelledAt = &now
	}
	po.Status = target
	if err := s.repo.SavePO(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// ReviseLines modifies a sent PO, snapshotting before/after into a revision.
func (s *PurchasingService) ReviseLines(ctx context.Context, tenantID string, id uuid.UUID, reqs []models.CreatePurchaseOrderLineRequest, changedBy *string) (*models.PurchaseOrder, error) {
	var revised *models.PurchaseOrder
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		po, err := s.repo.LockPO(tx, tenantID, id)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("PO_NOT_FOUND", "purchase order not found")
			}
			return err
		}
		switch po.Status {
		case models.POStatusSent, models.POStatusAcknowledged, models.POStatusPartiallyReceived:
		default:
			return apperrors.New(apperrors.KindInvalidTransition, "PO_NOT_REVISABLE",
				"revisions apply only after the purchase order was sent")
		}

		before, err := json.Marshal(po.Lines)
		if err != nil {
			return err
		}

		lines, err := s.buildLines(ctx, tenantID, reqs)
		if err != nil {
			return err
		}
		if err := tx.Where("purchase_order_id = ?", po.ID).
			Delete(&models.PurchaseOrderLine{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].PurchaseOrderID = po.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		po.Lines = lines
		RecomputeTotals(po)
		po.RevisionNumber++
		po.UpdatedBy = changedBy

		after, err := json.Marshal(lines)
		if err != nil {
			return err
		}
		if err := s.repo.CreateRevision(tx, &models.PoRevision{
			TenantID:        tenantID,
			PurchaseOrderID: po.ID,
			RevisionNumber:  po.RevisionNumber,
			Before:          before,
			After:           after,
			ChangedBy:       changedBy,
		}); err != nil {
			return err
		}
		if err := s.repo.SavePOTx(tx, po); err != nil {
			return err
		}
		revised = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revised, nil
}

// ListRevisions returns the revision history of a PO.
func (s *PurchasingService) ListRevisions(ctx context.Context, tenantID string, poID uuid.UUID) ([]models.PoRevision, error) {
	return s.repo.ListRevisions(ctx, tenantID, poID)
}

// ========== Reorder ==========

// Reorder groups suggested quantities by preferred vendor and creates one
// draft PO per vendor. Any variant without a vendor link fails the batch.
func (s *PurchasingService) Reorder(ctx context.Context, tenantID string, req models.ReorderRequest, createdBy *string) ([]models.PurchaseOrder, error) {
	type vendorGroup struct {
		vendorID uuid.UUID
		lines    []models.CreatePurchaseOrderLineRequest
	}
	groups := make(map[uuid.UUID]*vendorGroup)
	order := make([]uuid.UUID, 0)

	for _, item := range req.Items {
		vp, err := s.repo.GetPreferredVendorProduct(ctx, tenantID, item.VariantID)
		if err != nil {
			if err == repository.ErrNotFound {
				variant, verr := s.catalog.GetVariantByID(ctx, tenantID, item.VariantID)
				sku := item.VariantID.String()
				if verr == nil {
					sku = variant.SKU
				}
				return nil, apperrors.New(apperrors.KindValidation, "NO_PREFERRED_VENDOR",
					fmt.Sprintf("no vendor configured for %s", sku))
			}
			return nil, err
		}
		group, ok := groups[vp.VendorID]
		if !ok {
			group = &vendorGroup{vendorID: vp.VendorID}
			groups[vp.VendorID] = group
			order = append(order, vp.VendorID)
		}
		group.lines = append(group.lines, models.CreatePurchaseOrderLineRequest{
			VariantID:     item.VariantID,
			OrderQty:      item.SuggestedQty,
			UnitCostCents: vp.UnitCostCents,
		})
	}

	pos := make([]models.PurchaseOrder, 0, len(order))
	for _, vendorID := range order {
		po, err := s.CreatePO(ctx, tenantID, models.CreatePurchaseOrderRequest{
			VendorID: vendorID,
			Lines:    groups[vendorID].lines,
		}, createdBy)
		if err != nil {
			return nil, err
		}
		pos = append(pos, *po)
	}
	return pos, nil
}

// OnOrder sums open PO quantity per variant.
func (s *PurchasingService) OnOrder(ctx context.Context, tenantID string, variantIDs []uuid.UUID) ([]models.OnOrderSummary, error) {
	return s.repo.OnOrderByVariant(ctx, tenantID, variantIDs)
}

// ========== Receiving callback ==========

// ReceiptLineUpdate reports received/damaged counts for one PO line.
type ReceiptLineUpdate struct {
	POLineID    uuid.UUID
	ReceivedQty int64
	DamagedQty  int64
}

// OnReceivingOrderClosed rolls receiving counts into the PO inside the
// caller's transaction and auto-advances the PO status.
func (s *PurchasingService) OnReceivingOrderClosed(tx *gorm.DB, tenantID string, poID uuid.UUID, updates []ReceiptLineUpdate) error {
	po, err := s.repo.LockPO(tx, tenantID, poID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("PO_NOT_FOUND", "purchase order not found")
		}
		return err
	}

	byLine := make(map[uuid.UUID]*models.PurchaseOrderLine, len(po.Lines))
	for i := range po.Lines {
		byLine[po.Lines[i].ID] = &po.Lines[i]
	}
	for _, u := range updates {
		line, ok := byLine[u.POLineID]
		if !ok {
			continue
		}
		line.ReceivedQty += u.ReceivedQty
		line.DamagedQty += u.DamagedQty
		line.Status = line.DeriveStatus()
		if err := s.repo.SavePOLineTx(tx, line); err != nil {
			return err
		}
	}

	allDone := true
	anyReceived := false
	for i := range po.Lines {
		line := &po.Lines[i]
		if line.ReceivedQty > 0 {
			anyReceived = true
		}
		if line.Status != models.POLineStatusReceived && line.Status != models.POLineStatusCancelled {
			allDone = false
		}
	}

	target := po.Status
	switch {
	case allDone:
		target = models.POStatusReceived
	case anyReceived:
		target = models.POStatusPartiallyReceived
	}
	if target != po.Status && models.CanTransitionPOStatus(po.Status, target) {
		po.Status = target
		if target == models.POStatusReceived {
			now := time.Now()
			po.ActualDeliveryDate = &now
		}
	}
	return s.repo.SavePOTx(tx, po)
}
