package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// receivingImportHeader is the column order of the receiving CSV template.
var receivingImportHeader = []string{"sku", "qty", "location", "damaged_qty", "unit_cost", "barcode", "notes"}

// ReceivingService handles receiving order business logic
type ReceivingService struct {
	repo       repository.ReceivingRepositoryInterface
	locations  repository.LocationRepositoryInterface
	shipments  repository.ShipmentRepositoryInterface
	catalog    *CatalogService
	ledger     *LedgerService
	purchasing *PurchasingService
	sequences  repository.SequenceRepositoryInterface
	logger     *logrus.Logger
}

// NewReceivingService creates a new ReceivingService
func NewReceivingService(repo repository.ReceivingRepositoryInterface, locations repository.LocationRepositoryInterface, shipments repository.ShipmentRepositoryInterface, catalog *CatalogService, ledger *LedgerService, purchasing *PurchasingService, sequences repository.SequenceRepositoryInterface, logger *logrus.Logger) *ReceivingService {
	return &ReceivingService{
		repo:       repo,
		locations:  locations,
		shipments:  shipments,
		catalog:    catalog,
		ledger:     ledger,
		purchasing: purchasing,
		sequences:  sequences,
		logger:     logger,
	}
}

// CreateOrder creates a receiving order. PO-sourced orders copy the still
// open PO lines as expectations.
func (s *ReceivingService) CreateOrder(ctx context.Context, tenantID string, req models.CreateReceivingOrderRequest, createdBy *string) (*models.ReceivingOrder, error) {
	order := &models.ReceivingOrder{
		TenantID:        tenantID,
		SourceType:      req.SourceType,
		Status:          models.ReceivingStatusDraft,
		VendorID:        req.VendorID,
		WarehouseID:     req.WarehouseID,
		PurchaseOrderID: req.PurchaseOrderID,
		Notes:           req.Notes,
		CreatedBy:       createdBy,
	}

	if req.SourceType == models.ReceivingSourcePO {
		if req.PurchaseOrderID == nil {
			return nil, apperrors.Validation("PO_REQUIRED", "PO-sourced receipts need a purchase order")
		}
		po, err := s.purchasing.GetPO(ctx, tenantID, *req.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		order.VendorID = &po.VendorID
		if order.WarehouseID == nil {
			order.WarehouseID = po.WarehouseID
		}
		for i := range po.Lines {
			poLine := &po.Lines[i]
			open := poLine.OpenQty()
			if open <= 0 {
				continue
			}
			unitCost := poLine.UnitCostCents
			order.Lines = append(order.Lines, models.ReceivingLine{
				TenantID:      tenantID,
				VariantID:     &poLine.VariantID,
				POLineID:      &poLine.ID,
				SKU:           poLine.SKU,
				ExpectedQty:   open,
				UnitCostCents: &unitCost,
				Status:        models.ReceivingLineStatusPending,
			})
			order.ExpectedLineCount++
			order.ExpectedUnitCount += open
		}
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		number, err := s.sequences.NextNumberTx(tx, tenantID, "receipt", "RCV")
		if err != nil {
			return err
		}
		order.ReceiptNumber = number
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *ReceivingService) GetOrder(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReceivingOrder, error) {
	order, err := s.repo.GetOrderByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("RECEIVING_ORDER_NOT_FOUND", "receiving order not found")
	}
	return order, err
}

func (s *ReceivingService) ListOrders(ctx context.Context, tenantID string, status *models.ReceivingOrderStatus, limit, offset int) ([]models.ReceivingOrder, int64, error) {
	return s.repo.ListOrders(ctx, tenantID, status, limit, offset)
}

// Transition moves the receipt between draft, open and receiving. Closing
// goes through Close.
func (s *ReceivingService) Transition(ctx context.Context, tenantID string, id uuid.UUID, target models.ReceivingOrderStatus) (*models.ReceivingOrder, error) {
	if target == models.ReceivingStatusClosed {
		return nil, apperrors.Validation("USE_CLOSE", "closing a receipt goes through the close operation")
	}
	order, err := s.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateReceivingStatusTransition(order.Status, target); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
	}
	order.Status = target
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// resolveLineVariant maps scanner input to a variant. Blind and initial-load
// receipts may introduce SKUs the catalog has never seen.
func (s *ReceivingService) resolveLineVariant(ctx context.Context, tenantID, sku string, name *string, source models.ReceivingSourceType) (*models.ProductVariant, error) {
	variant, err := s.catalog.ResolveSKU(ctx, tenantID, sku)
	if err == nil {
		return variant, nil
	}
	if apperrors.IsKind(err, apperrors.KindNotFound) &&
		(source == models.ReceivingSourceBlind || source == models.ReceivingSourceInitialLoad) {
		displayName := sku
		if name != nil && *name != "" {
			displayName = *name
		}
		return s.catalog.ImportVariant(ctx, tenantID, sku, displayName)
	}
	return nil, err
}

// AddLine adds one SKU to an open receipt.
func (s *ReceivingService) AddLine(ctx context.Context, tenantID string, orderID uuid.UUID, req models.CreateReceivingLineRequest) (*models.ReceivingLine, error) {
	order, err := s.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.ReceivingStatusClosed {
		return nil, apperrors.New(apperrors.KindInvalidTransition, "RECEIPT_CLOSED", "receipt is already closed")
	}
	variant, err := s.resolveLineVariant(ctx, tenantID, req.SKU, req.Name, order.SourceType)
	if err != nil {
		return nil, err
	}
	line := &models.ReceivingLine{
		TenantID:         tenantID,
		ReceivingOrderID: order.ID,
		VariantID:        &variant.ID,
		SKU:              variant.SKU,
		Name:             req.Name,
		ExpectedQty:      req.ExpectedQty,
		ReceivedQty:      req.ReceivedQty,
		DamagedQty:       req.DamagedQty,
		UnitCostCents:    req.UnitCostCents,
		PutawayLocID:     req.PutawayLocID,
		Notes:            req.Notes,
	}
	line.Status = line.DeriveStatus()
	if err := s.repo.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	if err := s.refreshCounts(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLine records counted quantities on one line.
func (s *ReceivingService) UpdateLine(ctx context.Context, tenantID string, orderID, lineID uuid.UUID, req models.UpdateReceivingLineRequest) (*models.ReceivingLine, error) {
	order, err := s.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.ReceivingStatusClosed {
		return nil, apperrors.New(apperrors.KindInvalidTransition, "RECEIPT_CLOSED", "receipt is already closed")
	}
	line, err := s.repo.GetLineByID(ctx, tenantID, lineID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("RECEIVING_LINE_NOT_FOUND", "receiving line not found")
		}
		return nil, err
	}
	if req.ReceivedQty != nil {
		if *req.ReceivedQty < 0 {
			return nil, apperrors.Validation("INVALID_QUANTITY", "received quantity cannot be negative")
		}
		line.ReceivedQty = *req.ReceivedQty
	}
	if req.DamagedQty != nil {
		if *req.DamagedQty < 0 {
			return nil, apperrors.Validation("INVALID_QUANTITY", "damaged quantity cannot be negative")
		}
		line.DamagedQty = *req.DamagedQty
	}
	if req.PutawayLocID != nil {
		line.PutawayLocID = req.PutawayLocID
	}
	if req.Notes != nil {
		line.Notes = req.Notes
	}
	line.Status = line.DeriveStatus()
	if err := s.repo.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	if err := s.refreshCounts(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	return line, nil
}

// DeleteLine removes a line from an unclosed receipt.
func (s *ReceivingService) DeleteLine(ctx context.Context, tenantID string, orderID, lineID uuid.UUID) error {
	order, err := s.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if order.Status == models.ReceivingStatusClosed {
		return apperrors.New(apperrors.KindInvalidTransition, "RECEIPT_CLOSED", "receipt is already closed")
	}
	if err := s.repo.DeleteLine(ctx, tenantID, lineID); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("RECEIVING_LINE_NOT_FOUND", "receiving line not found")
		}
		return err
	}
	return s.refreshCounts(ctx, tenantID, orderID)
}

func (s *ReceivingService) refreshCounts(ctx context.Context, tenantID string, orderID uuid.UUID) error {
	order, err := s.repo.GetOrderByID(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	order.ExpectedLineCount = 0
	order.ExpectedUnitCount = 0
	order.ReceivedLineCount = 0
	order.ReceivedUnitCount = 0
	for i := range order.Lines {
		line := &order.Lines[i]
		order.ExpectedLineCount++
		order.ExpectedUnitCount += line.ExpectedQty
		if line.ReceivedQty > 0 {
			order.ReceivedLineCount++
			order.ReceivedUnitCount += line.ReceivedQty
		}
	}
	return s.repo.SaveOrder(ctx, order)
}

// putawayLocation resolves where a line's stock lands: the line's own bin,
// else the warehouse receiving dock, else any bin of the warehouse.
func (s *ReceivingService) putawayLocation(ctx context.Context, tenantID string, order *models.ReceivingOrder, line *models.ReceivingLine) (uuid.UUID, error) {
	if line.PutawayLocID != nil {
		return *line.PutawayLocID, nil
	}
	if order.WarehouseID == nil {
		return uuid.Nil, apperrors.Validation("NO_PUTAWAY_LOCATION",
			"line "+line.SKU+" has no putaway location and the receipt has no warehouse")
	}
	locType := models.LocationTypeReceiving
	locs, _, err := s.locations.ListLocations(ctx, tenantID, *order.WarehouseID, &locType, 1, 0)
	if err != nil {
		return uuid.Nil, err
	}
	if len(locs) == 0 {
		locs, _, err = s.locations.ListLocations(ctx, tenantID, *order.WarehouseID, nil, 1, 0)
		if err != nil {
			return uuid.Nil, err
		}
	}
	if len(locs) == 0 {
		return uuid.Nil, apperrors.Validation("NO_PUTAWAY_LOCATION",
			"warehouse has no location to receive "+line.SKU+" into")
	}
	return locs[0].ID, nil
}

// Close commits the receipt: every counted line posts a ledger receipt, lots
// are opened at provisional cost, and the source PO rolls up, all in one
// transaction. Closing an already closed receipt is a no-op.
func (s *ReceivingService) Close(ctx context.Context, tenantID string, id uuid.UUID, closedBy *string) (*models.ReceivingOrder, error) {
	type pendingReceipt struct {
		variant    *models.ProductVariant
		locationID uuid.UUID
		line       *models.ReceivingLine
	}

	order, err := s.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.ReceivingStatusClosed {
		return order, nil
	}
	if err := models.ValidateReceivingStatusTransition(order.Status, models.ReceivingStatusClosed); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
	}

	// Resolve variants and destinations before taking locks.
	receipts := make([]pendingReceipt, 0, len(order.Lines))
	for i := range order.Lines {
		line := &order.Lines[i]
		if line.ReceivedQty <= 0 {
			continue
		}
		if line.VariantID == nil {
			return nil, apperrors.Validation("UNRESOLVED_LINE", "line "+line.SKU+" is not linked to a variant")
		}
		variant, err := s.catalog.repo.GetVariantByID(ctx, tenantID, *line.VariantID)
		if err != nil {
			return nil, variantLookupError(*line.VariantID, err)
		}
		locationID, err := s.putawayLocation(ctx, tenantID, order, line)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, pendingReceipt{variant: variant, locationID: locationID, line: line})
	}

	batchID := uuid.New()
	touched := make([]uuid.UUID, 0, len(receipts))
	var closed *models.ReceivingOrder

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.repo.LockOrder(tx, tenantID, id)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("RECEIVING_ORDER_NOT_FOUND", "receiving order not found")
			}
			return err
		}
		if locked.Status == models.ReceivingStatusClosed {
			closed = locked
			return nil
		}

		refs := models.TxnRefs{
			ReceivingOrderID: &locked.ID,
			Reference:        &locked.ReceiptNumber,
			UserID:           closedBy,
		}
		for _, r := range receipts {
			if err := s.ledger.ApplyReceiptTx(tx, tenantID, r.variant, r.locationID, r.line.ReceivedQty, &batchID, refs); err != nil {
				return err
			}
			touched = append(touched, r.variant.ID)

			if r.line.UnitCostCents != nil {
				if err := s.shipments.CreateLot(tx, &models.InventoryLot{
					TenantID:      tenantID,
					VariantID:     r.variant.ID,
					POLineID:      r.line.POLineID,
					Qty:           r.line.ReceivedQty,
					UnitCostCents: *r.line.UnitCostCents,
					IsProvisional: true,
				}); err != nil {
					return err
				}
			}
		}

		if locked.PurchaseOrderID != nil {
			updates := make([]ReceiptLineUpdate, 0, len(locked.Lines))
			for i := range locked.Lines {
				line := &locked.Lines[i]
				if line.POLineID == nil || line.ReceivedQty <= 0 {
					continue
				}
				updates = append(updates, ReceiptLineUpdate{
					POLineID:    *line.POLineID,
					ReceivedQty: line.ReceivedQty,
					DamagedQty:  line.DamagedQty,
				})
			}
			if len(updates) > 0 {
				if err := s.purchasing.OnReceivingOrderClosed(tx, tenantID, *locked.PurchaseOrderID, updates); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		locked.Status = models.ReceivingStatusClosed
		locked.ClosedBy = closedBy
		locked.ClosedAt = &now
		locked.ReceivedLineCount = 0
		locked.ReceivedUnitCount = 0
		for i := range locked.Lines {
			if locked.Lines[i].ReceivedQty > 0 {
				locked.ReceivedLineCount++
				locked.ReceivedUnitCount += locked.Lines[i].ReceivedQty
			}
		}
		if err := s.repo.SaveOrderTx(tx, locked); err != nil {
			return err
		}
		closed = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(touched) > 0 {
		s.ledger.NotifyChanged(tenantID, touched...)
	}
	return closed, nil
}

// ImportTemplate returns the CSV header row for bulk line import.
func (s *ReceivingService) ImportTemplate() string {
	return strings.Join(receivingImportHeader, ",") + "\n"
}

// ImportLinesCSV bulk-loads lines from a CSV stream. Rows fail individually;
// good rows still land.
func (s *ReceivingService) ImportLinesCSV(ctx context.Context, tenantID string, orderID uuid.UUID, r io.Reader) (*models.ReceivingImportResult, error) {
	order, err := s.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.ReceivingStatusClosed {
		return nil, apperrors.New(apperrors.KindInvalidTransition, "RECEIPT_CLOSED", "receipt is already closed")
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Validation("INVALID_CSV", "could not read CSV header")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["sku"]; !ok {
		return nil, apperrors.Validation("INVALID_CSV", "CSV is missing the sku column")
	}
	if _, ok := col["qty"]; !ok {
		return nil, apperrors.Validation("INVALID_CSV", "CSV is missing the qty column")
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	result := &models.ReceivingImportResult{Success: true}
	lines := make([]models.ReceivingLine, 0)

	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.FailedCount++
			result.Errors = append(result.Errors, models.ReceivingImportRowError{
				Row: row, Code: "PARSE_ERROR", Message: err.Error(),
			})
			continue
		}
		result.TotalRows++

		rowErr := func(code, message string) {
			result.FailedCount++
			result.Errors = append(result.Errors, models.ReceivingImportRowError{Row: row, Code: code, Message: message})
		}

		sku := field(record, "sku")
		if sku == "" {
			rowErr("MISSING_SKU", "sku is required")
			continue
		}
		qty, err := strconv.ParseInt(field(record, "qty"), 10, 64)
		if err != nil || qty < 0 {
			rowErr("INVALID_QTY", "qty must be a non-negative integer")
			continue
		}

		line := models.ReceivingLine{
			TenantID:         tenantID,
			ReceivingOrderID: order.ID,
			SKU:              sku,
			ReceivedQty:      qty,
		}

		if v := field(record, "damaged_qty"); v != "" {
			damaged, err := strconv.ParseInt(v, 10, 64)
			if err != nil || damaged < 0 {
				rowErr("INVALID_DAMAGED_QTY", "damaged_qty must be a non-negative integer")
				continue
			}
			line.DamagedQty = damaged
		}
		if v := field(record, "unit_cost"); v != "" {
			cost, err := strconv.ParseFloat(v, 64)
			if err != nil || cost < 0 {
				rowErr("INVALID_UNIT_COST", "unit_cost must be a non-negative number")
				continue
			}
			cents := int64(cost*100 + 0.5)
			line.UnitCostCents = &cents
		}
		if code := field(record, "location"); code != "" {
			if order.WarehouseID == nil {
				rowErr("NO_WAREHOUSE", "location column needs a warehouse on the receipt")
				continue
			}
			loc, err := s.locations.GetLocationByCode(ctx, tenantID, *order.WarehouseID, code)
			if err != nil {
				if err == repository.ErrNotFound {
					rowErr("UNKNOWN_LOCATION", fmt.Sprintf("location %s not found", code))
					continue
				}
				return nil, err
			}
			line.PutawayLocID = &loc.ID
		}
		if notes := field(record, "notes"); notes != "" {
			line.Notes = &notes
		}

		variant, err := s.resolveLineVariant(ctx, tenantID, sku, nil, order.SourceType)
		if err != nil {
			// Barcode column gives the lookup a second chance.
			if barcode := field(record, "barcode"); barcode != "" {
				variant, err = s.catalog.ResolveSKU(ctx, tenantID, barcode)
			}
			if err != nil {
				rowErr("UNKNOWN_SKU", fmt.Sprintf("no variant matches %s", sku))
				continue
			}
		}
		line.VariantID = &variant.ID
		line.SKU = variant.SKU
		line.Status = line.DeriveStatus()

		lines = append(lines, line)
		result.SuccessCount++
	}

	if err := s.repo.CreateLines(ctx, lines); err != nil {
		return nil, err
	}
	if err := s.refreshCounts(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	result.Success = result.FailedCount == 0
	return result, nil
}
