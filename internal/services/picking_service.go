package services

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// PickingService handles wave generation and pick execution
type PickingService struct {
	repo      repository.PickingRepositoryInterface
	orders    repository.OrderRepositoryInterface
	locations repository.LocationRepositoryInterface
	catalog   repository.CatalogRepositoryInterface
	ledgerDB  repository.LedgerRepositoryInterface
	ledger    *LedgerService
	sequences repository.SequenceRepositoryInterface
	logger    *logrus.Logger
}

// NewPickingService creates a new PickingService
func NewPickingService(repo repository.PickingRepositoryInterface, orders repository.OrderRepositoryInterface, locations repository.LocationRepositoryInterface, catalog repository.CatalogRepositoryInterface, ledgerDB repository.LedgerRepositoryInterface, ledger *LedgerService, sequences repository.SequenceRepositoryInterface, logger *logrus.Logger) *PickingService {
	return &PickingService{
		repo:      repo,
		orders:    orders,
		locations: locations,
		catalog:   catalog,
		ledgerDB:  ledgerDB,
		ledger:    ledger,
		sequences: sequences,
		logger:    logger,
	}
}

// naturalLess compares location codes so A-2 sorts before A-10.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if unicode.IsDigit(rune(a[0])) && unicode.IsDigit(rune(b[0])) {
			ia, ib := 0, 0
			for ia < len(a) && unicode.IsDigit(rune(a[ia])) {
				ia++
			}
			for ib < len(b) && unicode.IsDigit(rune(b[ib])) {
				ib++
			}
			na := strings.TrimLeft(a[:ia], "0")
			nb := strings.TrimLeft(b[:ib], "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			a, b = a[ia:], b[ib:]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

// zoneOf takes the code segment before the first dash as the zone.
func zoneOf(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// zoneRank resolves a zone's position inside the warehouse walk sequence.
// Unlisted zones sort after listed ones, alphabetically.
func zoneRank(sequence *string, zone string) int {
	if sequence == nil {
		return 1 << 20
	}
	for i, z := range strings.Split(*sequence, ",") {
		if strings.EqualFold(strings.TrimSpace(z), zone) {
			return i
		}
	}
	return 1 << 20
}

func priorityRank(p models.OrderPriority) int {
	switch p {
	case models.OrderPriorityRush:
		return 0
	case models.OrderPriorityHigh:
		return 1
	default:
		return 2
	}
}

// plannedPick is one task before sequencing.
type plannedPick struct {
	task         models.PickTask
	zone         string
	locationCode string
	priority     models.OrderPriority
	orderIndex   int
}

// waveTaskLess puts planned picks into walk order: zone sequence, then
// natural location code, then priority as the tie breaker within one bin.
// Single mode keeps each order's picks together ahead of everything else.
func waveTaskLess(mode models.PickMode, zoneSequence *string, pa, pb *plannedPick) bool {
	if mode == models.PickModeSingle && pa.orderIndex != pb.orderIndex {
		return pa.orderIndex < pb.orderIndex
	}
	if za, zb := zoneRank(zoneSequence, pa.zone), zoneRank(zoneSequence, pb.zone); za != zb {
		return za < zb
	}
	if pa.zone != pb.zone {
		return pa.zone < pb.zone
	}
	if pa.locationCode != pb.locationCode {
		return naturalLess(pa.locationCode, pb.locationCode)
	}
	return priorityRank(pa.priority) < priorityRank(pb.priority)
}

// GenerateWave builds pick tasks from the committed stock of the given
// orders and sequences them along the warehouse walk path. Combined children
// appear under their group parent. Batch mode interleaves orders into one
// walk; single mode keeps each order's picks together.
func (s *PickingService) GenerateWave(ctx context.Context, tenantID string, req models.GenerateWaveRequest) (*models.PickWave, error) {
	warehouse, err := s.locations.GetWarehouseByID(ctx, tenantID, req.WarehouseID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("WAREHOUSE_NOT_FOUND", "warehouse not found")
		}
		return nil, err
	}
	mode := models.PickModeSingle
	if req.Mode != nil {
		mode = *req.Mode
	}

	// Combined-group parents carry the tasks of their whole group.
	parentOf := make(map[uuid.UUID]uuid.UUID)

	var wave *models.PickWave
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		orders, err := s.orders.LockOrders(tx, tenantID, req.OrderIDs)
		if err != nil {
			return err
		}
		if len(orders) != len(req.OrderIDs) {
			return apperrors.NotFound("ORDER_NOT_FOUND", "one or more orders do not exist")
		}
		for i := range orders {
			o := &orders[i]
			if o.OnHold {
				return apperrors.Conflict("ORDER_ON_HOLD", "order "+o.OrderNumber+" is on hold")
			}
			if o.Status != models.OrderStatusReady {
				return apperrors.Conflict("ORDER_NOT_READY", "order "+o.OrderNumber+" is not ready for picking")
			}
			if o.CombinedGroupID != nil && o.CombinedRole != nil && *o.CombinedRole == models.CombinedRoleChild {
				members, err := s.orders.ListByCombinedGroup(ctx, tenantID, *o.CombinedGroupID)
				if err != nil {
					return err
				}
				for j := range members {
					if members[j].CombinedRole != nil && *members[j].CombinedRole == models.CombinedRoleParent {
						parentOf[o.ID] = members[j].ID
					}
				}
			}
		}

		// Remaining committed stock per cell, consumed as lines are planned.
		cellRemaining := make(map[string]int64)
		cellLocation := make(map[string]uuid.UUID)
		locationCodes := make(map[uuid.UUID]string)

		planned := make([]plannedPick, 0)
		for oi := range orders {
			order := &orders[oi]
			taskOrderID := order.ID
			if parent, ok := parentOf[order.ID]; ok {
				taskOrderID = parent
			}
			for li := range order.Lines {
				line := &order.Lines[li]
				if line.Status != models.OrderLineStatusAllocated {
					continue
				}
				variant, err := s.catalog.GetVariantByID(ctx, tenantID, line.VariantID)
				if err != nil {
					return variantLookupError(line.VariantID, err)
				}
				cells, err := s.ledgerDB.ListCandidateCells(tx, tenantID, line.VariantID, warehouse.ID, models.BalanceStateCommitted)
				if err != nil {
					return err
				}
				remaining := line.OrderedQty - line.PickedQty
				for ci := range cells {
					if remaining <= 0 {
						break
					}
					cell := &cells[ci]
					key := cell.VariantID.String() + "|" + cell.LocationID.String()
					if _, seen := cellRemaining[key]; !seen {
						cellRemaining[key] = cell.Quantity
						cellLocation[key] = cell.LocationID
					}
					available := cellRemaining[key]
					if available <= 0 {
						continue
					}
					take := available
					if take > remaining {
						take = remaining
					}
					cellRemaining[key] -= take
					remaining -= take

					if _, ok := locationCodes[cell.LocationID]; !ok {
						loc, err := s.locations.GetLocationByID(ctx, tenantID, cell.LocationID)
						if err != nil {
							return err
						}
						locationCodes[cell.LocationID] = loc.Code
					}
					code := locationCodes[cell.LocationID]
					planned = append(planned, plannedPick{
						task: models.PickTask{
							TenantID:     tenantID,
							VariantID:    variant.ID,
							SKU:          variant.SKU,
							LocationID:   cell.LocationID,
							OrderID:      taskOrderID,
							OrderLineID:  line.ID,
							RequestedQty: take,
							Status:       models.PickTaskStatusPending,
						},
						zone:         zoneOf(code),
						locationCode: code,
						priority:     order.Priority,
						orderIndex:   oi,
					})
				}
				if remaining > 0 {
					return apperrors.Newf(apperrors.KindInsufficientStock, "INSUFFICIENT_STOCK",
						"order %s has no committed stock for %s", order.OrderNumber, line.SKU)
				}
				line.Status = models.OrderLineStatusPicking
				if err := s.orders.SaveLineTx(tx, line); err != nil {
					return err
				}
			}
		}
		if len(planned) == 0 {
			return apperrors.Validation("NOTHING_TO_PICK", "no allocated lines on the given orders")
		}

		sort.SliceStable(planned, func(a, b int) bool {
			return waveTaskLess(mode, warehouse.ZoneSequence, &planned[a], &planned[b])
		})

		number, err := s.sequences.NextNumberTx(tx, tenantID, "wave", "WAVE")
		if err != nil {
			return err
		}
		wave = &models.PickWave{
			TenantID:    tenantID,
			WaveNumber:  number,
			WarehouseID: warehouse.ID,
			Status:      models.WaveStatusOpen,
			Mode:        mode,
			OrderCount:  len(orders),
			TaskCount:   len(planned),
		}
		for i := range planned {
			planned[i].task.Sequence = i + 1
			wave.Tasks = append(wave.Tasks, planned[i].task)
		}
		if err := s.repo.CreateWave(tx, wave); err != nil {
			return err
		}

		now := time.Now()
		for i := range orders {
			orders[i].Status = models.OrderStatusInProgress
			orders[i].ReleasedAt = &now
			if err := s.orders.SaveOrderTx(tx, &orders[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wave, nil
}

func (s *PickingService) GetWave(ctx context.Context, tenantID string, id uuid.UUID) (*models.PickWave, error) {
	wave, err := s.repo.GetWaveByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("WAVE_NOT_FOUND", "pick wave not found")
	}
	return wave, err
}

func (s *PickingService) ListWaves(ctx context.Context, tenantID string, status *models.PickWaveStatus, limit, offset int) ([]models.PickWave, int64, error) {
	return s.repo.ListWaves(ctx, tenantID, status, limit, offset)
}

// AssignTask hands a pending task to an operator.
func (s *PickingService) AssignTask(ctx context.Context, tenantID string, taskID uuid.UUID, assignee string) (*models.PickTask, error) {
	var assigned *models.PickTask
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		task, err := s.repo.LockTask(tx, tenantID, taskID)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("TASK_NOT_FOUND", "pick task not found")
			}
			return err
		}
		if task.Status != models.PickTaskStatusPending && task.Status != models.PickTaskStatusAssigned {
			return apperrors.Conflict("TASK_NOT_OPEN", "task is already resolved")
		}
		task.Status = models.PickTaskStatusAssigned
		task.AssignedTo = &assignee
		if err := s.repo.SaveTaskTx(tx, task); err != nil {
			return err
		}
		assigned = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

// ConfirmPick records the picked quantity of one task, moving stock from
// committed to picked. A shortfall retries from other committed cells; when
// none remain the line and its order flag as exceptions.
func (s *PickingService) ConfirmPick(ctx context.Context, tenantID string, waveID, taskID uuid.UUID, req models.ConfirmPickRequest) (*models.PickWave, error) {
	touched := make([]uuid.UUID, 0, 1)
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		wave, err := s.repo.LockWave(tx, tenantID, waveID)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("WAVE_NOT_FOUND", "pick wave not found")
			}
			return err
		}
		if wave.Status == models.WaveStatusCompleted || wave.Status == models.WaveStatusCancelled {
			return apperrors.Conflict("WAVE_FINISHED", "wave is already finished")
		}
		task, err := s.repo.LockTask(tx, tenantID, taskID)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("TASK_NOT_FOUND", "pick task not found")
			}
			return err
		}
		if task.WaveID != wave.ID {
			return apperrors.Validation("TASK_WAVE_MISMATCH", "task does not belong to this wave")
		}
		if task.Status != models.PickTaskStatusPending && task.Status != models.PickTaskStatusAssigned {
			return apperrors.Conflict("TASK_NOT_OPEN", "task is already resolved")
		}
		if req.PickedQty > task.RequestedQty {
			return apperrors.Validation("OVERPICK", "picked quantity exceeds the requested quantity")
		}

		variant, err := s.catalog.GetVariantByID(ctx, tenantID, task.VariantID)
		if err != nil {
			return variantLookupError(task.VariantID, err)
		}

		now := time.Now()
		refs := models.TxnRefs{OrderID: &task.OrderID, OrderLineID: &task.OrderLineID, UserID: req.PickedBy}
		if req.PickedQty > 0 {
			if err := s.ledger.ApplyStateMoveTx(tx, tenantID, variant, task.LocationID, req.PickedQty,
				models.BalanceStateCommitted, models.BalanceStatePicked, models.TransactionTypePick, nil, refs); err != nil {
				return err
			}
			touched = append(touched, variant.ID)
		}

		task.PickedQty = req.PickedQty
		task.AssignedTo = firstNonNil(req.PickedBy, task.AssignedTo)
		task.CompletedAt = &now
		shortfall := task.RequestedQty - req.PickedQty
		if shortfall == 0 {
			task.Status = models.PickTaskStatusPicked
		} else {
			task.Status = models.PickTaskStatusShort
		}
		if err := s.repo.SaveTaskTx(tx, task); err != nil {
			return err
		}

		var line models.SalesOrderLine
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, task.OrderLineID).
			First(&line).Error; err != nil {
			return err
		}
		line.PickedQty += req.PickedQty

		if shortfall > 0 {
			// Retry from other committed cells before declaring an exception.
			retried, err := s.retryShortfall(ctx, tx, wave, task, variant, shortfall)
			if err != nil {
				return err
			}
			if !retried {
				line.Status = models.OrderLineStatusException
				if err := tx.Model(&models.SalesOrder{}).
					Where("tenant_id = ? AND id = ?", tenantID, line.OrderID).
					Update("status", models.OrderStatusException).Error; err != nil {
					return err
				}
			}
		} else if line.PickedQty >= line.OrderedQty {
			line.Status = models.OrderLineStatusPicked
		}
		if err := s.orders.SaveLineTx(tx, &line); err != nil {
			return err
		}

		open, err := s.repo.CountOpenTasks(tx, tenantID, wave.ID)
		if err != nil {
			return err
		}
		if open == 0 {
			wave.Status = models.WaveStatusCompleted
			wave.CompletedAt = &now
			if err := s.completeOrders(tx, tenantID, wave.ID); err != nil {
				return err
			}
		} else if wave.Status == models.WaveStatusOpen {
			wave.Status = models.WaveStatusInProgress
		}
		return s.repo.SaveWaveTx(tx, wave)
	})
	if err != nil {
		return nil, err
	}
	if len(touched) > 0 {
		s.ledger.NotifyChanged(tenantID, touched...)
	}
	return s.GetWave(ctx, tenantID, waveID)
}

// retryShortfall appends a follow-up task from other committed cells of the
// variant. Returns false when no other cell can cover any of the shortfall.
func (s *PickingService) retryShortfall(ctx context.Context, tx *gorm.DB, wave *models.PickWave, short *models.PickTask, variant *models.ProductVariant, shortfall int64) (bool, error) {
	cells, err := s.ledgerDB.ListCandidateCells(tx, wave.TenantID, variant.ID, wave.WarehouseID, models.BalanceStateCommitted)
	if err != nil {
		return false, err
	}
	retried := false
	for ci := range cells {
		if shortfall <= 0 {
			break
		}
		cell := &cells[ci]
		if cell.LocationID == short.LocationID || cell.Quantity <= 0 {
			continue
		}
		take := cell.Quantity
		if take > shortfall {
			take = shortfall
		}
		wave.TaskCount++
		follow := &models.PickTask{
			TenantID:     wave.TenantID,
			WaveID:       wave.ID,
			Sequence:     wave.TaskCount,
			VariantID:    short.VariantID,
			SKU:          short.SKU,
			LocationID:   cell.LocationID,
			OrderID:      short.OrderID,
			OrderLineID:  short.OrderLineID,
			RequestedQty: take,
			Status:       models.PickTaskStatusPending,
		}
		if err := tx.Create(follow).Error; err != nil {
			return false, err
		}
		shortfall -= take
		retried = true
	}
	return retried, nil
}

// completeOrders finishes the orders whose lines are all picked once a wave
// completes. Exception orders stay as they are.
func (s *PickingService) completeOrders(tx *gorm.DB, tenantID string, waveID uuid.UUID) error {
	var orderIDs []uuid.UUID
	if err := tx.Model(&models.PickTask{}).
		Where("tenant_id = ? AND wave_id = ?", tenantID, waveID).
		Distinct("order_id").
		Pluck("order_id", &orderIDs).Error; err != nil {
		return err
	}
	for _, id := range orderIDs {
		order, err := s.orders.LockOrder(tx, tenantID, id)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusInProgress {
			continue
		}
		done := true
		for i := range order.Lines {
			line := &order.Lines[i]
			if line.Status == models.OrderLineStatusCancelled {
				continue
			}
			if line.PickedQty < line.OrderedQty {
				done = false
				break
			}
		}
		if !done {
			continue
		}
		order.Status = models.OrderStatusCompleted
		for i := range order.Lines {
			if order.Lines[i].Status == models.OrderLineStatusPicking {
				order.Lines[i].Status = models.OrderLineStatusPicked
				if err := s.orders.SaveLineTx(tx, &order.Lines[i]); err != nil {
					return err
				}
			}
		}
		if err := s.orders.SaveOrderTx(tx, order); err != nil {
			return err
		}
	}
	return nil
}

// CancelWave cancels the remaining open tasks and the wave itself.
func (s *PickingService) CancelWave(ctx context.Context, tenantID string, id uuid.UUID) (*models.PickWave, error) {
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		wave, err := s.repo.LockWave(tx, tenantID, id)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("WAVE_NOT_FOUND", "pick wave not found")
			}
			return err
		}
		if err := models.ValidateWaveStatusTransition(wave.Status, models.WaveStatusCancelled); err != nil {
			return apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
		}
		if err := tx.Model(&models.PickTask{}).
			Where("tenant_id = ? AND wave_id = ? AND status IN ?", tenantID, id,
				[]models.PickTaskStatus{models.PickTaskStatusPending, models.PickTaskStatusAssigned}).
			Update("status", models.PickTaskStatusCancelled).Error; err != nil {
			return err
		}
		wave.Status = models.WaveStatusCancelled
		return s.repo.SaveWaveTx(tx, wave)
	})
	if err != nil {
		return nil, err
	}
	return s.GetWave(ctx, tenantID, id)
}
