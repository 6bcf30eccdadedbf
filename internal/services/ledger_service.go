package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

const (
	ledgerMaxRetries   = 3
	ledgerRetryBackoff = 50 * time.Millisecond
)

// InventoryNotifier is invoked after a ledger transaction commits, with the
// variants whose availability may have changed. Implementations must not
// block; the ledger fires them on the request goroutine.
type InventoryNotifier interface {
	InventoryChanged(tenantID string, variantIDs []uuid.UUID)
}

// LedgerService owns every inventory mutation. All writes go through one
// database transaction per operation; balance rows are locked in a stable
// order and the append-only transaction log is written alongside.
type LedgerService struct {
	repo     repository.LedgerRepositoryInterface
	catalog  repository.CatalogRepositoryInterface
	notifier InventoryNotifier
	logger   *logrus.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repo repository.LedgerRepositoryInterface, catalog repository.CatalogRepositoryInterface, logger *logrus.Logger) *LedgerService {
	return &LedgerService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// SetNotifier registers the post-commit availability listener.
func (s *LedgerService) SetNotifier(n InventoryNotifier) {
	s.notifier = n
}

// cellRef identifies one balance cell for lock ordering.
type cellRef struct {
	VariantID  uuid.UUID
	LocationID uuid.UUID
	State      models.BalanceState
}

func (c cellRef) key() string {
	return c.VariantID.String() + "|" + c.LocationID.String() + "|" + string(c.State)
}

// cellDelta is one signed mutation of one cell, with its ledger row metadata.
type cellDelta struct {
	Cell  cellRef
	Delta int64

	Type        models.TransactionType
	SourceState models.BalanceState
	TargetState models.BalanceState
	FromLoc     *uuid.UUID
	ToLoc       *uuid.UUID
}

// applyDeltas locks every touched cell in sorted key order, verifies no cell
// goes negative, applies the deltas, and appends one ledger row per delta.
func (s *LedgerService) applyDeltas(tx *gorm.DB, tenantID string, variant *models.ProductVariant, deltas []cellDelta, batchID *uuid.UUID, refs models.TxnRefs, reason *string) error {
	ordered := make([]cellDelta, len(deltas))
	copy(ordered, deltas)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Cell.key() < ordered[j].Cell.key()
	})

	balances := make(map[string]*models.InventoryBalance, len(ordered))
	for _, d := range ordered {
		if _, ok := balances[d.Cell.key()]; ok {
			continue
		}
		balance, err := s.repo.LockBalance(tx, tenantID, d.Cell.VariantID, d.Cell.LocationID, d.Cell.State)
		if err != nil {
			return err
		}
		balances[d.Cell.key()] = balance
	}

	for _, d := range ordered {
		balance := balances[d.Cell.key()]
		if balance.Quantity+d.Delta < 0 {
			return apperrors.Newf(apperrors.KindInsufficientStock, "INSUFFICIENT_STOCK",
				"insufficient %s quantity for %s: have %d, need %d",
				d.Cell.State, variant.SKU, balance.Quantity, -d.Delta)
		}
		balance.Quantity += d.Delta
	}

	for _, balance := range balances {
		if err := s.repo.SaveBalance(tx, balance); err != nil {
			return err
		}
	}

	for _, d := range deltas {
		txn := &models.InventoryTransaction{
			TenantID:         tenantID,
			Type:             d.Type,
			VariantID:        d.Cell.VariantID,
			FromLocationID:   d.FromLoc,
			ToLocationID:     d.ToLoc,
			SourceState:      d.SourceState,
			TargetState:      d.TargetState,
			VariantQtyDelta:  d.Delta,
			BaseQtyDelta:     d.Delta * variant.UnitsPerVariant,
			BatchID:          batchID,
			OrderID:          refs.OrderID,
			OrderLineID:      refs.OrderLineID,
			ReceivingOrderID: refs.ReceivingOrderID,
			CycleCountID:     refs.CycleCountID,
			Reference:        refs.Reference,
			Reason:           reason,
			UserID:           refs.UserID,
			Notes:            refs.Notes,
		}
		if err := s.repo.AppendTransaction(tx, txn); err != nil {
			return err
		}
	}
	return nil
}

// runLedgerTx runs fn in a transaction, retrying serialization conflicts
// with exponential backoff up to ledgerMaxRetries attempts.
func (s *LedgerService) runLedgerTx(ctx context.Context, fn repository.TxFn) error {
	backoff := ledgerRetryBackoff
	var err error
	for attempt := 1; attempt <= ledgerMaxRetries; attempt++ {
		err = s.repo.WithTransaction(ctx, fn)
		if err == nil || !repository.IsSerializationError(err) {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("ledger transaction conflict, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return apperrors.Wrap(apperrors.KindSerialization, "SERIALIZATION_RETRY",
		"ledger operation aborted after repeated conflicts", err)
}

func (s *LedgerService) notify(tenantID string, variantIDs ...uuid.UUID) {
	if s.notifier != nil {
		s.notifier.InventoryChanged(tenantID, variantIDs)
	}
}

// Receive adds quantity to on_hand at the target location.
func (s *LedgerService) Receive(ctx context.Context, tenantID string, req models.ReceiveRequest, refs models.TxnRefs) error {
	variant, err := s.catalog.GetVariantByID(ctx, tenantID, req.VariantID)
	if err != nil {
		return variantLookupError(req.VariantID, err)
	}
	err = s.runLedgerTx(ctx, func(tx *gorm.DB) error {
		return s.applyDeltas(tx, tenantID, variant, []cellDelta{{
			Cell:        cellRef{variant.ID, req.ToLocationID, models.BalanceStateOnHand},
			Delta:       req.Quantity,
			Type:        models.TransactionTypeReceipt,
			SourceState: models.BalanceStateExternal,
			TargetState: models.BalanceStateOnHand,
			ToLoc:       &req.ToLocationID,
		}}, nil, refs, nil)
	})
	if err != nil {
		return err
	}
	s.notify(tenantID, variant.ID)
	return nil
}

// Adjust applies a signed correction to one cell. A reason is mandatory and
// the resulting quantity may not go negative.
func (s *LedgerService) Adjust(ctx context.Context, tenantID string, req models.AdjustRequest, refs models.TxnRefs) error {
	if req.Reason == "" {
		return apperrors.Validation("REASON_REQUIRED", "adjustment reason is required")
	}
	if req.Delta == 0 {
		return apperrors.Validation("ZERO_DELTA", "adjustment delta must be non-zero")
	}
	variant, err := s.catalog.GetVariantByID(ctx, tenantID, req.VariantID)
	if err != nil {
		return variantLookupError(req.VariantID, err)
	}

	d := cellDelta{
		Cell:        cellRef{variant.ID, req.LocationID, req.State},
		Delta:       req.Delta,
		Type:        models.TransactionTypeAdjustment,
		SourceState: req.State,
		TargetState: req.State,
	}
	if req.Delta > 0 {
		d.ToLoc = &req.LocationID
	} else {
		d.FromLoc = &req.LocationID
	}

	err = s.runLedgerTx(ctx, func(tx *gorm.DB) error {
		return s.applyDeltas(tx, tenantID, variant, []cellDelta{d}, nil, refs, &req.Reason)
	})
	if err != nil {
		return err
	}
	s.notify(tenantID, variant.ID)
	return nil
}

// Transfer moves on_hand quantity between two locations as one atomic batch
// and returns an undo token valid until either cell is touched again.
func (s *LedgerService) Transfer(ctx context.Context, tenantID string, req models.TransferRequest, refs models.TxnRefs) (*models.TransferResponse, error) {
	if req.FromLocationID == req.ToLocationID {
		return nil, apperrors.Validation("SAME_LOCATION", "source and destination locations must differ")
	}
	variant, err := s.catalog.GetVariantByID(ctx, tenantID, req.VariantID)
	if err != nil {
		return nil, variantLookupError(req.VariantID, err)
	}

	batchID := uuid.New()
	refs.Reference = firstNonNil(req.Reference, refs.Reference)
	refs.Notes = firstNonNil(req.Notes, refs.Notes)

	err = s.runLedgerTx(ctx, func(tx *gorm.DB) error {
		return s.applyDeltas(tx, tenantID, variant, transferLegs(variant.ID, req.FromLocationID, req.ToLocationID, req.Quantity, models.TransactionTypeTransfer), &batchID, refs, nil)
	})
	if err != nil {
		return nil, err
	}
	s.notify(tenantID, variant.ID)
	return &models.TransferResponse{
		Success:       true,
		TransactionID: batchID,
		BatchID:       batchID,
		UndoToken:     batchID.String(),
	}, nil
}

// UndoTransfer reverses a transfer batch. The undo is accepted only while the
// newest ledger row on both affected cells still belongs to the batch.
func (s *LedgerService) UndoTransfer(ctx context.Context, tenantID string, undoToken string, refs models.TxnRefs) error {
	batchID, err := uuid.Parse(undoToken)
	if err != nil {
		return apperrors.Validation("INVALID_UNDO_TOKEN", "undo token is not valid")
	}

	legs, err := s.repo.ListTransactionsByBatch(ctx, tenantID, batchID)
	if err != nil {
		return err
	}
	if len(legs) != 2 || legs[0].Type != models.TransactionTypeTransfer {
		return apperrors.New(apperrors.KindNotUndoable, "NOT_UNDOABLE", "no undoable transfer for this token")
	}

	var outLeg, inLeg *models.InventoryTransaction
	for i := range legs {
		if legs[i].VariantQtyDelta < 0 {
			outLeg = &legs[i]
		} else {
			inLeg = &legs[i]
		}
	}
	if outLeg == nil || inLeg == nil || outLeg.FromLocationID == nil || inLeg.ToLocationID == nil {
		return apperrors.New(apperrors.KindNotUndoable, "NOT_UNDOABLE", "transfer batch is malformed")
	}

	variant, err := s.catalog.GetVariantByID(ctx, tenantID, outLeg.VariantID)
	if err != nil {
		return variantLookupError(outLeg.VariantID, err)
	}
	qty := inLeg.VariantQtyDelta

	err = s.runLedgerTx(ctx, func(tx *gorm.DB) error {
		// Both cells must not have moved since the transfer.
		for _, loc := range []uuid.UUID{*outLeg.FromLocationID, *inLeg.ToLocationID} {
			last, err := s.repo.LastTransactionForCell(tx, tenantID, variant.ID, loc)
			if err != nil {
				return err
			}
			if last.BatchID == nil || *last.BatchID != batchID {
				return apperrors.New(apperrors.KindNotUndoable, "NOT_UNDOABLE",
					"inventory moved after the transfer; undo is no longer possible")
			}
		}
		undoBatch := uuid.New()
		return s.applyDeltas(tx, tenantID, variant,
			transferLegs(variant.ID, *inLeg.ToLocationID, *outLeg.FromLocationID, qty, models.TransactionTypeTransfer),
			&undoBatch, refs, strPtr("undo_transfer"))
	})
	if err != nil {
		return err
	}
	s.notify(tenantID, variant.ID)
	return nil
}

// MoveState shifts quantity between two states of the same variant at the
// same location (reserve, pick, unreserve).
func (s *LedgerService) MoveState(ctx context.Context, tenantID string, variantID, locationID uuid.UUID, qty int64, from, to models.BalanceState, txnType models.TransactionType, refs models.TxnRefs) error {
	if qty <= 0 {
		return apperrors.Validation("INVALID_QUANTITY", "quantity must be positive")
	}
	variant, err := s.catalog.GetVariantByID(ctx, tenantID, variantID)
	if err != nil {
		return variantLookupError(variantID, err)
	}

	batchID := uuid.New()
	deltas := []cellDelta{
		{
			Cell:        cellRef{variantID, locationID, from},
			Delta:       -qty,
			Type:        txnType,
			SourceState: from,
			TargetState: to,
			FromLoc:     &locationID,
		},
		{
			Cell:        cellRef{variantID, locationID, to},
			Delta:       qty,
			Type:        txnType,
			SourceState: from,
			TargetState: to,
			ToLoc:       &locationID,
		},
	}
	err = s.runLedgerTx(ctx, func(tx *gorm.DB) error {
		return s.applyDeltas(tx, tenantID, variant, deltas, &batchID, refs, nil)
	})
	if err != nil {
		return err
	}
	s.notify(tenantID, variant.ID)
	return nil
}

// Reserve moves on_hand to committed across pickable locations of the
// warehouse, consuming cells FIFO until the quantity is covered.
func (s *LedgerService) Reserve(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, qty int64, refs models.TxnRefs) error {
	return s.shiftAcrossCells(ctx, tenantID, variantID, warehouseID, qty,
		models.BalanceStateOnHand, models.BalanceStateCommitted, models.TransactionTypeReserve, refs)
}

// Unreserve returns committed quantity to on_hand.
func (s *LedgerService) Unreserve(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, qty int64, refs models.TxnRefs) error {
	return s.shiftAcrossCells(ctx, tenantID, variantID, warehouseID, qty,
		models.BalanceStateCommitted, models.BalanceStateOnHand, models.TransactionTypeUnreserve, refs)
}

func (s *LedgerService) shiftAcrossCells(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, qty int64, from, to models.BalanceState, txnType models.TransactionType, refs models.TxnRefs) error {
	if qty <= 0 {
		return apperrors.Validation("INVALID_QUANTITY", "quantity must be positive")
	}
	variant, err := s.catalog.GetVariantByID(ctx, tenantID, variantID)
	if err != nil {
		return variantLookupError(variantID, err)
	}
	batchID := uuid.New()
	err = s.runLedgerTx(ctx, func(tx *gorm.DB) error {
		cells, err := s.repo.ListCandidateCells(tx, tenantID, variantID, warehouseID, from)
		if err != nil {
			return err
		}
		remaining := qty
		var deltas []cellDelta
		for _, cell := range cells {
			if remaining == 0 {
				break
			}
			take := cell.Quantity
			if take > remaining {
				take = remaining
			}
			loc := cell.LocationID
			deltas = append(deltas,
				cellDelta{
					Cell:        cellRef{variantID, loc, from},
					Delta:       -take,
					Type:        txnType,
					SourceState: from,
					TargetState: to,
					FromLoc:     &loc,
				},
				cellDelta{
					Cell:        cellRef{variantID, loc, to},
					Delta:       take,
					Type:        txnType,
					SourceState: from,
					TargetState: to,
					ToLoc:       &loc,
				},
			)
			remaining -= take
		}
		if remaining > 0 {
			return apperrors.Newf(apperrors.KindInsufficientStock, "INSUFFICIENT_STOCK",
				"insufficient %s quantity for %s: short by %d", from, variant.SKU, remaining)
		}
		return s.applyDeltas(tx, tenantID, variant, deltas, &batchID, refs, nil)
	})
	if err != nil {
		return err
	}
	s.notify(tenantID, variantID)
	return nil
}

// ShipLine is one order line's departing quantity.
type ShipLine struct {
	OrderLineID uuid.UUID
	VariantID   uuid.UUID
	Quantity    int64
}

// ShipOrder moves every line's picked quantity to shipped at the locations
// holding it, draining picked cells FIFO. The whole order departs as one
// atomic batch; any short line aborts it.
func (s *LedgerService) ShipOrder(ctx context.Context, tenantID string, warehouseID uuid.UUID, lines []ShipLine, refs models.TxnRefs) (uuid.UUID, error) {
	if len(lines) == 0 {
		return uuid.Nil, apperrors.Validation("EMPTY_SHIPMENT", "nothing to ship")
	}
	variants := make(map[uuid.UUID]*models.ProductVariant, len(lines))
	touched := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return uuid.Nil, apperrors.Validation("INVALID_QUANTITY", "quantity must be positive")
		}
		if _, ok := variants[line.VariantID]; ok {
			continue
		}
		variant, err := s.catalog.GetVariantByID(ctx, tenantID, line.VariantID)
		if err != nil {
			return uuid.Nil, variantLookupError(line.VariantID, err)
		}
		variants[line.VariantID] = variant
		touched = append(touched, line.VariantID)
	}

	batchID := uuid.New()
	err := s.runLedgerTx(ctx, func(tx *gorm.DB) error {
		for _, line := range lines {
			variant := variants[line.VariantID]
			cells, err := s.repo.ListCandidateCells(tx, tenantID, line.VariantID, warehouseID, models.BalanceStatePicked)
			if err != nil {
				return err
			}
			remaining := line.Quantity
			var deltas []cellDelta
			for _, cell := range cells {
				if remaining == 0 {
					break
				}
				take := cell.Quantity
				if take > remaining {
					take = remaining
				}
				loc := cell.LocationID
				deltas = append(deltas,
					cellDelta{
						Cell:        cellRef{line.VariantID, loc, models.BalanceStatePicked},
						Delta:       -take,
						Type:        models.TransactionTypeShip,
						SourceState: models.BalanceStatePicked,
						TargetState: models.BalanceStateShipped,
						FromLoc:     &loc,
					},
					cellDelta{
						Cell:        cellRef{line.VariantID, loc, models.BalanceStateShipped},
						Delta:       take,
						Type:        models.TransactionTypeShip,
						SourceState: models.BalanceStatePicked,
						TargetState: models.BalanceStateShipped,
						ToLoc:       &loc,
					},
				)
				remaining -= take
			}
			if remaining > 0 {
				return apperrors.Newf(apperrors.KindInsufficientStock, "INSUFFICIENT_STOCK",
					"insufficient picked quantity for %s: short by %d", variant.SKU, remaining)
			}
			lineRefs := refs
			lineID := line.OrderLineID
			lineRefs.OrderLineID = &lineID
			if err := s.applyDeltas(tx, tenantID, variant, deltas, &batchID, lineRefs, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.notify(tenantID, touched...)
	return batchID, nil
}

// TransferBatch runs several single-variant movements as one atomic batch,
// used by replenishment completion (case break writes both variants).
type BatchMove struct {
	VariantID      uuid.UUID
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Quantity       int64
	Type           models.TransactionType
}

// ExecuteBatch applies every move in one transaction; all succeed or none do.
func (s *LedgerService) ExecuteBatch(ctx context.Context, tenantID string, moves []BatchMove, refs models.TxnRefs) (uuid.UUID, error) {
	if len(moves) == 0 {
		return uuid.Nil, apperrors.Validation("EMPTY_BATCH", "batch contains no movements")
	}
	batchID := uuid.New()

	variants := make(map[uuid.UUID]*models.ProductVariant, len(moves))
	touched := make([]uuid.UUID, 0, len(moves))
	for _, m := range moves {
		if _, ok := variants[m.VariantID]; ok {
			continue
		}
		variant, err := s.catalog.GetVariantByID(ctx, tenantID, m.VariantID)
		if err != nil {
			return uuid.Nil, variantLookupError(m.VariantID, err)
		}
		variants[m.VariantID] = variant
		touched = append(touched, m.VariantID)
	}

	err := s.runLedgerTx(ctx, func(tx *gorm.DB) error {
		for _, m := range moves {
			variant := variants[m.VariantID]
			var deltas []cellDelta
			switch {
			case m.FromLocationID == uuid.Nil:
				deltas = []cellDelta{{
					Cell:        cellRef{m.VariantID, m.ToLocationID, models.BalanceStateOnHand},
					Delta:       m.Quantity,
					Type:        m.Type,
					SourceState: models.BalanceStateOnHand,
					TargetState: models.BalanceStateOnHand,
					ToLoc:       &m.ToLocationID,
				}}
			case m.ToLocationID == uuid.Nil:
				deltas = []cellDelta{{
					Cell:        cellRef{m.VariantID, m.FromLocationID, models.BalanceStateOnHand},
					Delta:       -m.Quantity,
					Type:        m.Type,
					SourceState: models.BalanceStateOnHand,
					TargetState: models.BalanceStateOnHand,
					FromLoc:     &m.FromLocationID,
				}}
			default:
				deltas = transferLegs(m.VariantID, m.FromLocationID, m.ToLocationID, m.Quantity, m.Type)
			}
			if err := s.applyDeltas(tx, tenantID, variant, deltas, &batchID, refs, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.notify(tenantID, touched...)
	return batchID, nil
}

// ApplyReceiptTx posts one inbound receipt row inside the caller's
// transaction. Receiving close uses this so ledger rows, lot rows and the
// purchase order rollup commit together.
func (s *LedgerService) ApplyReceiptTx(tx *gorm.DB, tenantID string, variant *models.ProductVariant, locationID uuid.UUID, qty int64, batchID *uuid.UUID, refs models.TxnRefs) error {
	if qty <= 0 {
		return apperrors.Validation("INVALID_QUANTITY", "quantity must be positive")
	}
	deltas := []cellDelta{{
		Cell:        cellRef{variant.ID, locationID, models.BalanceStateOnHand},
		Delta:       qty,
		Type:        models.TransactionTypeReceipt,
		SourceState: models.BalanceStateExternal,
		TargetState: models.BalanceStateOnHand,
		ToLoc:       &locationID,
	}}
	return s.applyDeltas(tx, tenantID, variant, deltas, batchID, refs, nil)
}

// ApplyStateMoveTx moves quantity between states at one location inside the
// caller's transaction. Pick confirmation uses this so the task update and
// the ledger rows commit together.
func (s *LedgerService) ApplyStateMoveTx(tx *gorm.DB, tenantID string, variant *models.ProductVariant, locationID uuid.UUID, qty int64, from, to models.BalanceState, txnType models.TransactionType, batchID *uuid.UUID, refs models.TxnRefs) error {
	if qty <= 0 {
		return apperrors.Validation("INVALID_QUANTITY", "quantity must be positive")
	}
	deltas := []cellDelta{
		{
			Cell:        cellRef{variant.ID, locationID, from},
			Delta:       -qty,
			Type:        txnType,
			SourceState: from,
			TargetState: to,
			FromLoc:     &locationID,
		},
		{
			Cell:        cellRef{variant.ID, locationID, to},
			Delta:       qty,
			Type:        txnType,
			SourceState: from,
			TargetState: to,
			ToLoc:       &locationID,
		},
	}
	return s.applyDeltas(tx, tenantID, variant, deltas, batchID, refs, nil)
}

// NotifyChanged re-announces variants after an externally managed commit.
func (s *LedgerService) NotifyChanged(tenantID string, variantIDs ...uuid.UUID) {
	s.notify(tenantID, variantIDs...)
}

// --- Read Methods ---

// ListBalances returns the non-empty cells of one variant.
func (s *LedgerService) ListBalances(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.InventoryBalance, error) {
	return s.repo.ListBalancesByVariant(ctx, tenantID, variantID)
}

// ListLocationBalances returns the non-empty cells at one location.
func (s *LedgerService) ListLocationBalances(ctx context.Context, tenantID string, locationID uuid.UUID, limit, offset int) ([]models.InventoryBalance, int64, error) {
	return s.repo.ListBalancesByLocation(ctx, tenantID, locationID, limit, offset)
}

// History returns filtered ledger rows, newest first.
func (s *LedgerService) History(ctx context.Context, tenantID string, filter repository.TransactionFilter, limit, offset int) ([]models.InventoryTransaction, int64, error) {
	return s.repo.ListTransactions(ctx, tenantID, filter, limit, offset)
}

// --- helpers ---

func transferLegs(variantID, from, to uuid.UUID, qty int64, txnType models.TransactionType) []cellDelta {
	return []cellDelta{
		{
			Cell:        cellRef{variantID, from, models.BalanceStateOnHand},
			Delta:       -qty,
			Type:        txnType,
			SourceState: models.BalanceStateOnHand,
			TargetState: models.BalanceStateOnHand,
			FromLoc:     &from,
			ToLoc:       &to,
		},
		{
			Cell:        cellRef{variantID, to, models.BalanceStateOnHand},
			Delta:       qty,
			Type:        txnType,
			SourceState: models.BalanceStateOnHand,
			TargetState: models.BalanceStateOnHand,
			FromLoc:     &from,
			ToLoc:       &to,
		},
	}
}

func variantLookupError(id uuid.UUID, err error) error {
	if err == repository.ErrNotFound {
		return apperrors.NotFound("VARIANT_NOT_FOUND", "variant "+id.String()+" not found")
	}
	return err
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }
