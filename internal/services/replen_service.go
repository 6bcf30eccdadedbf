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

// ReplenService handles replenishment rules, the min/max sweep and task
// execution.
type ReplenService struct {
	repo      repository.ReplenRepositoryInterface
	catalog   repository.CatalogRepositoryInterface
	locations repository.LocationRepositoryInterface
	ledgerDB  repository.LedgerRepositoryInterface
	ledger    *LedgerService
	logger    *logrus.Logger
}

// NewReplenService creates a new ReplenService
func NewReplenService(repo repository.ReplenRepositoryInterface, catalog repository.CatalogRepositoryInterface, locations repository.LocationRepositoryInterface, ledgerDB repository.LedgerRepositoryInterface, ledger *LedgerService, logger *logrus.Logger) *ReplenService {
	return &ReplenService{
		repo:      repo,
		catalog:   catalog,
		locations: locations,
		ledgerDB:  ledgerDB,
		ledger:    ledger,
		logger:    logger,
	}
}

// ========== Rules ==========

// CreateRule validates and stores a replenishment rule. Both variants must
// belong to the rule's product.
func (s *ReplenService) CreateRule(ctx context.Context, tenantID string, req models.CreateReplenRuleRequest) (*models.ReplenRule, error) {
	pick, err := s.catalog.GetVariantByID(ctx, tenantID, req.PickVariantID)
	if err != nil {
		return nil, variantLookupError(req.PickVariantID, err)
	}
	source, err := s.catalog.GetVariantByID(ctx, tenantID, req.SourceVariantID)
	if err != nil {
		return nil, variantLookupError(req.SourceVariantID, err)
	}
	if pick.ProductID != req.ProductID || source.ProductID != req.ProductID {
		return nil, apperrors.Validation("VARIANT_PRODUCT_MISMATCH", "pick and source variants must belong to the rule's product")
	}
	if source.UnitsPerVariant < pick.UnitsPerVariant {
		return nil, apperrors.Validation("SOURCE_SMALLER_THAN_PICK", "source variant must be at least as large as the pick variant")
	}
	if !req.PickLocationType.Valid() || !req.SourceLocationType.Valid() {
		return nil, apperrors.Validation("INVALID_LOCATION_TYPE", "unknown location type")
	}
	if req.MaxQty != nil && *req.MaxQty <= req.MinQty {
		return nil, apperrors.Validation("INVALID_MINMAX", "max quantity must exceed min quantity")
	}

	rule := &models.ReplenRule{
		TenantID:           tenantID,
		ProductID:          req.ProductID,
		WarehouseID:        req.WarehouseID,
		PickVariantID:      pick.ID,
		SourceVariantID:    source.ID,
		PickLocationType:   req.PickLocationType,
		SourceLocationType: req.SourceLocationType,
		SourcePriority:     models.SourcePriorityFIFO,
		ReplenMethod:       models.ReplenMethodFullCase,
		MinQty:             req.MinQty,
		MaxQty:             req.MaxQty,
		Priority:           1,
		IsActive:           true,
	}
	if req.SourcePriority != nil {
		rule.SourcePriority = *req.SourcePriority
	}
	if req.ReplenMethod != nil {
		rule.ReplenMethod = *req.ReplenMethod
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *ReplenService) GetRule(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReplenRule, error) {
	rule, err := s.repo.GetRuleByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("RULE_NOT_FOUND", "replenishment rule not found")
	}
	return rule, err
}

func (s *ReplenService) ListRules(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]models.ReplenRule, int64, error) {
	return s.repo.ListRules(ctx, tenantID, activeOnly, limit, offset)
}

func (s *ReplenService) DeleteRule(ctx context.Context, tenantID string, id uuid.UUID) error {
	err := s.repo.DeleteRule(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("RULE_NOT_FOUND", "replenishment rule not found")
	}
	return err
}

// ========== Sweep ==========

// Sweep evaluates every active rule of a warehouse and generates tasks for
// rules at or below their minimum. An open task to the same destination
// suppresses a duplicate.
func (s *ReplenService) Sweep(ctx context.Context, tenantID string, warehouseID uuid.UUID, trigger models.ReplenTrigger) ([]models.ReplenTask, error) {
	rules, err := s.repo.ListActiveRulesByWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}

	created := make([]models.ReplenTask, 0)
	for i := range rules {
		rule := &rules[i]
		task, err := s.evaluateRule(ctx, tenantID, rule, trigger)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"rule_id": rule.ID,
				"error":   err.Error(),
			}).Warn("replenishment rule evaluation failed")
			continue
		}
		if task != nil {
			created = append(created, *task)
		}
	}
	return created, nil
}

// evaluateRule generates at most one task for one rule.
func (s *ReplenService) evaluateRule(ctx context.Context, tenantID string, rule *models.ReplenRule, trigger models.ReplenTrigger) (*models.ReplenTask, error) {
	current, err := s.ledgerDB.SumPickLocationUnits(ctx, tenantID, rule.PickVariantID, rule.WarehouseID, rule.PickLocationType)
	if err != nil {
		return nil, err
	}
	if current > rule.MinQty {
		return nil, nil
	}

	pick, err := s.catalog.GetVariantByID(ctx, tenantID, rule.PickVariantID)
	if err != nil {
		return nil, variantLookupError(rule.PickVariantID, err)
	}
	source, err := s.catalog.GetVariantByID(ctx, tenantID, rule.SourceVariantID)
	if err != nil {
		return nil, variantLookupError(rule.SourceVariantID, err)
	}
	ratio := source.UnitsPerVariant / pick.UnitsPerVariant
	if ratio < 1 {
		ratio = 1
	}

	target := current + ratio
	if rule.MaxQty != nil {
		target = *rule.MaxQty
	}
	need := target - current
	if need <= 0 {
		return nil, nil
	}
	// Whole source units; round the need up.
	qtySource := (need + ratio - 1) / ratio

	toLocation, err := s.pickDestination(ctx, tenantID, rule)
	if err != nil {
		return nil, err
	}

	var task *models.ReplenTask
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		open, err := s.repo.HasOpenTask(tx, tenantID, rule.PickVariantID, toLocation)
		if err != nil {
			return err
		}
		if open {
			return nil
		}
		cells, err := s.repo.ListSourceCells(tx, tenantID, rule.SourceVariantID, rule.WarehouseID,
			rule.SourceLocationType, rule.SourcePriority == models.SourcePrioritySmallestFirst)
		if err != nil {
			return err
		}
		if len(cells) == 0 {
			return nil
		}
		fromCell := &cells[0]
		if qtySource > fromCell.Quantity {
			qtySource = fromCell.Quantity
		}
		switch rule.ReplenMethod {
		case models.ReplenMethodCaseBreak:
			// Case break opens exactly one source unit.
			qtySource = 1
		case models.ReplenMethodPalletDrop:
			// Pallet drop takes the whole source cell.
			qtySource = fromCell.Quantity
		}
		task = &models.ReplenTask{
			TenantID:        tenantID,
			RuleID:          &rule.ID,
			FromLocationID:  fromCell.LocationID,
			ToLocationID:    toLocation,
			SourceVariantID: rule.SourceVariantID,
			PickVariantID:   rule.PickVariantID,
			QtySourceUnits:  qtySource,
			QtyTargetUnits:  qtySource * ratio,
			Status:          models.ReplenTaskStatusPending,
			TriggeredBy:     trigger,
			Priority:        rule.Priority,
		}
		return s.repo.CreateTask(tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// pickDestination finds the pick bin the rule refills: the bin already
// holding the pick variant, else the first bin of the pick location type.
func (s *ReplenService) pickDestination(ctx context.Context, tenantID string, rule *models.ReplenRule) (uuid.UUID, error) {
	balances, err := s.ledgerDB.ListBalancesByVariant(ctx, tenantID, rule.PickVariantID)
	if err != nil {
		return uuid.Nil, err
	}
	for i := range balances {
		b := &balances[i]
		if b.Location != nil && b.Location.WarehouseID == rule.WarehouseID &&
			b.Location.LocationType == rule.PickLocationType && b.State == models.BalanceStateOnHand {
			return b.LocationID, nil
		}
	}
	locs, _, err := s.locations.ListLocations(ctx, tenantID, rule.WarehouseID, &rule.PickLocationType, 1, 0)
	if err != nil {
		return uuid.Nil, err
	}
	if len(locs) == 0 {
		return uuid.Nil, apperrors.Validation("NO_PICK_LOCATION",
			fmt.Sprintf("warehouse has no %s location to replenish into", rule.PickLocationType))
	}
	return locs[0].ID, nil
}

// ========== Tasks ==========

func (s *ReplenService) GetTask(ctx context.Context, tenantID string, id uuid.UUID) (*models.ReplenTask, error) {
	task, err := s.repo.GetTaskByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("TASK_NOT_FOUND", "replenishment task not found")
	}
	return task, err
}

func (s *ReplenService) ListTasks(ctx context.Context, tenantID string, status *models.ReplenTaskStatus, limit, offset int) ([]models.ReplenTask, int64, error) {
	return s.repo.ListTasks(ctx, tenantID, status, limit, offset)
}

// UpdateTask moves a task between its open states or assigns it.
func (s *ReplenService) UpdateTask(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateReplenTaskRequest) (*models.ReplenTask, error) {
	var updated *models.ReplenTask
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		task, err := s.repo.LockTask(tx, tenantID, id)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("TASK_NOT_FOUND", "replenishment task not found")
			}
			return err
		}
		if req.Status != nil {
			if *req.Status == models.ReplenTaskStatusCompleted {
				return apperrors.Validation("USE_COMPLETE", "completing a task goes through the complete operation")
			}
			if err := models.ValidateReplenTaskStatusTransition(task.Status, *req.Status); err != nil {
				return apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
			}
			task.Status = *req.Status
		}
		if req.AssignedTo != nil {
			task.AssignedTo = req.AssignedTo
		}
		if err := s.repo.SaveTaskTx(tx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CompleteTask executes the movement: the source units travel to the pick
// bin and, when the variants differ, break into pick units there. All legs
// commit as one batch.
func (s *ReplenService) CompleteTask(ctx context.Context, tenantID string, id uuid.UUID, completedBy *string) (*models.ReplenTask, error) {
	task, err := s.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	switch task.Status {
	case models.ReplenTaskStatusPending, models.ReplenTaskStatusAssigned, models.ReplenTaskStatusInProgress:
	case models.ReplenTaskStatusCompleted:
		return task, nil
	default:
		return nil, apperrors.Conflict("TASK_NOT_OPEN", "task is already resolved")
	}

	moves := []BatchMove{{
		VariantID:      task.SourceVariantID,
		FromLocationID: task.FromLocationID,
		ToLocationID:   task.ToLocationID,
		Quantity:       task.QtySourceUnits,
		Type:           models.TransactionTypeReplenish,
	}}
	if task.SourceVariantID != task.PickVariantID {
		// Break the arrived source units into pick units in place.
		moves = append(moves,
			BatchMove{
				VariantID:      task.SourceVariantID,
				FromLocationID: task.ToLocationID,
				Quantity:       task.QtySourceUnits,
				Type:           models.TransactionTypeReplenish,
			},
			BatchMove{
				VariantID:    task.PickVariantID,
				ToLocationID: task.ToLocationID,
				Quantity:     task.QtyTargetUnits,
				Type:         models.TransactionTypeReplenish,
			},
		)
	}
	reference := "replen:" + task.ID.String()
	if _, err := s.ledger.ExecuteBatch(ctx, tenantID, moves, models.TxnRefs{
		Reference: &reference,
		UserID:    completedBy,
	}); err != nil {
		return nil, err
	}

	var completed *models.ReplenTask
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.repo.LockTask(tx, tenantID, id)
		if err != nil {
			return err
		}
		now := time.Now()
		locked.Status = models.ReplenTaskStatusCompleted
		locked.QtyCompleted = locked.QtyTargetUnits
		locked.AssignedTo = firstNonNil(completedBy, locked.AssignedTo)
		locked.CompletedAt = &now
		if err := s.repo.SaveTaskTx(tx, locked); err != nil {
			return err
		}
		completed = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// ========== Bulk rule import ==========

// replenImportHeader is the column order of the rule CSV template.
var replenImportHeader = []string{"pick_sku", "source_sku", "min_qty", "max_qty", "pick_location_type", "source_location_type", "method", "priority"}

// ImportTemplate returns the CSV header row for bulk rule import.
func (s *ReplenService) ImportTemplate() string {
	return strings.Join(replenImportHeader, ",") + "\n"
}

// ImportRulesCSV bulk-loads rules. Bad rows produce warnings; good rows
// still land.
func (s *ReplenService) ImportRulesCSV(ctx context.Context, tenantID string, warehouseID uuid.UUID, r io.Reader) (*models.ReplenImportResult, error) {
	if _, err := s.locations.GetWarehouseByID(ctx, tenantID, warehouseID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("WAREHOUSE_NOT_FOUND", "warehouse not found")
		}
		return nil, err
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
	for _, required := range []string{"pick_sku", "source_sku", "min_qty"} {
		if _, ok := col[required]; !ok {
			return nil, apperrors.Validation("INVALID_CSV", "CSV is missing the "+required+" column")
		}
	}
	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	result := &models.ReplenImportResult{Success: true}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.Warnings = append(result.Warnings, models.ReplenImportWarning{Row: row, Message: err.Error()})
			continue
		}
		result.TotalRows++

		warn := func(sku, message string) {
			result.Warnings = append(result.Warnings, models.ReplenImportWarning{Row: row, SKU: sku, Message: message})
		}

		pickSKU := field(record, "pick_sku")
		sourceSKU := field(record, "source_sku")
		pick, err := s.catalog.GetVariantBySKU(ctx, tenantID, pickSKU)
		if err != nil {
			warn(pickSKU, "unknown pick SKU")
			continue
		}
		source, err := s.catalog.GetVariantBySKU(ctx, tenantID, sourceSKU)
		if err != nil {
			warn(sourceSKU, "unknown source SKU")
			continue
		}
		minQty, err := strconv.ParseInt(field(record, "min_qty"), 10, 64)
		if err != nil || minQty < 0 {
			warn(pickSKU, "min_qty must be a non-negative integer")
			continue
		}

		req := models.CreateReplenRuleRequest{
			ProductID:          pick.ProductID,
			WarehouseID:        warehouseID,
			PickVariantID:      pick.ID,
			SourceVariantID:    source.ID,
			PickLocationType:   models.LocationTypeForwardPick,
			SourceLocationType: models.LocationTypeBulkStorage,
			MinQty:             minQty,
		}
		if v := field(record, "max_qty"); v != "" {
			maxQty, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				warn(pickSKU, "max_qty must be an integer")
				continue
			}
			req.MaxQty = &maxQty
		}
		if v := field(record, "pick_location_type"); v != "" {
			req.PickLocationType = models.LocationType(v)
		}
		if v := field(record, "source_location_type"); v != "" {
			req.SourceLocationType = models.LocationType(v)
		}
		if v := field(record, "method"); v != "" {
			method := models.ReplenMethod(v)
			req.ReplenMethod = &method
		}
		if v := field(record, "priority"); v != "" {
			priority, err := strconv.Atoi(v)
			if err != nil {
				warn(pickSKU, "priority must be an integer")
				continue
			}
			req.Priority = &priority
		}

		if _, err := s.CreateRule(ctx, tenantID, req); err != nil {
			warn(pickSKU, apperrors.MessageOf(err))
			continue
		}
		result.CreatedCount++
	}
	result.Success = len(result.Warnings) == 0
	return result, nil
}
