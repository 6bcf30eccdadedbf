package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// OrderService handles sales order business logic
type OrderService struct {
	repo      repository.OrderRepositoryInterface
	catalog   repository.CatalogRepositoryInterface
	locations repository.LocationRepositoryInterface
	ledger    *LedgerService
	sequences repository.SequenceRepositoryInterface
	logger    *logrus.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(repo repository.OrderRepositoryInterface, catalog repository.CatalogRepositoryInterface, locations repository.LocationRepositoryInterface, ledger *LedgerService, sequences repository.SequenceRepositoryInterface, logger *logrus.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		catalog:   catalog,
		locations: locations,
		ledger:    ledger,
		sequences: sequences,
		logger:    logger,
	}
}

// AddressHash normalizes the destination and hashes it. Orders with the same
// hash and customer are combinable. Street2 and name are left out so suite
// formatting noise does not split groups.
func AddressHash(addr models.ShippingAddress) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
	}
	payload := strings.Join([]string{
		norm(addr.Street1),
		norm(addr.City),
		norm(addr.State),
		norm(addr.PostalCode),
		norm(addr.Country),
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// CreateOrder creates a sales order and reserves stock for every line at the
// default warehouse.
func (s *OrderService) CreateOrder(ctx context.Context, tenantID string, req models.CreateSalesOrderRequest) (*models.SalesOrder, error) {
	warehouse, err := s.locations.GetDefaultWarehouse(ctx, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("NO_DEFAULT_WAREHOUSE", "no default warehouse configured")
		}
		return nil, err
	}

	order := &models.SalesOrder{
		TenantID:       tenantID,
		ChannelID:      req.ChannelID,
		Status:         models.OrderStatusReady,
		Priority:       models.OrderPriorityNormal,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		ShipName:       req.Address.Name,
		ShipStreet1:    req.Address.Street1,
		ShipStreet2:    req.Address.Street2,
		ShipCity:       req.Address.City,
		ShipState:      req.Address.State,
		ShipPostalCode: req.Address.PostalCode,
		ShipCountry:    req.Address.Country,
	}
	if req.Priority != nil {
		order.Priority = *req.Priority
	}

	for _, lr := range req.Lines {
		variant, err := s.catalog.GetVariantByID(ctx, tenantID, lr.VariantID)
		if err != nil {
			return nil, variantLookupError(lr.VariantID, err)
		}
		order.Lines = append(order.Lines, models.SalesOrderLine{
			TenantID:   tenantID,
			VariantID:  variant.ID,
			SKU:        variant.SKU,
			OrderedQty: lr.OrderedQty,
			Status:     models.OrderLineStatusOpen,
		})
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		number, err := s.sequences.NextNumberTx(tx, tenantID, "order", "SO")
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}

	// Reservation happens after the order exists; a short line flags the
	// order instead of rejecting it.
	for i := range order.Lines {
		line := &order.Lines[i]
		refs := models.TxnRefs{OrderID: &order.ID, OrderLineID: &line.ID, Reference: &order.OrderNumber}
		if err := s.ledger.Reserve(ctx, tenantID, line.VariantID, warehouse.ID, line.OrderedQty, refs); err != nil {
			if apperrors.IsKind(err, apperrors.KindInsufficientStock) {
				line.Status = models.OrderLineStatusException
				order.Status = models.OrderStatusException
				continue
			}
			return nil, err
		}
		line.Status = models.OrderLineStatusAllocated
	}
	if err := s.saveOrderWithLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) saveOrderWithLines(ctx context.Context, order *models.SalesOrder) error {
	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.SaveOrderTx(tx, order); err != nil {
			return err
		}
		for i := range order.Lines {
			if err := s.repo.SaveLineTx(tx, &order.Lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderService) GetOrder(ctx context.Context, tenantID string, id uuid.UUID) (*models.SalesOrder, error) {
	order, err := s.repo.GetOrderByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("ORDER_NOT_FOUND", "sales order not found")
	}
	return order, err
}

func (s *OrderService) ListOrders(ctx context.Context, tenantID string, filter repository.OrderFilter, limit, offset int) ([]models.SalesOrder, int64, error) {
	return s.repo.ListOrders(ctx, tenantID, filter, limit, offset)
}

// Transition moves the order along its lifecycle.
func (s *OrderService) Transition(ctx context.Context, tenantID string, id uuid.UUID, target models.SalesOrderStatus) (*models.SalesOrder, error) {
	order, err := s.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateSalesOrderStatusTransition(order.Status, target); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
	}
	now := time.Now()
	switch target {
	case models.OrderStatusInProgress:
		order.ReleasedAt = &now
	case models.OrderStatusShipped:
		if err := s.shipPickedLines(ctx, tenantID, order); err != nil {
			return nil, err
		}
		order.ShippedAt = &now
		order.Status = target
		if err := s.saveOrderWithLines(ctx, order); err != nil {
			return nil, err
		}
		return order, nil
	}
	order.Status = target
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// shipPickedLines posts the picked-to-shipped ledger movement for every
// picked line as one batch and marks those lines shipped.
func (s *OrderService) shipPickedLines(ctx context.Context, tenantID string, order *models.SalesOrder) error {
	warehouse, err := s.locations.GetDefaultWarehouse(ctx, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("NO_DEFAULT_WAREHOUSE", "no default warehouse configured")
		}
		return err
	}

	var shipLines []ShipLine
	for i := range order.Lines {
		line := &order.Lines[i]
		if line.PickedQty <= 0 {
			continue
		}
		shipLines = append(shipLines, ShipLine{
			OrderLineID: line.ID,
			VariantID:   line.VariantID,
			Quantity:    line.PickedQty,
		})
	}
	if len(shipLines) == 0 {
		return apperrors.Conflict("NOTHING_PICKED", "order has no picked quantity to ship")
	}

	refs := models.TxnRefs{OrderID: &order.ID, Reference: &order.OrderNumber}
	if _, err := s.ledger.ShipOrder(ctx, tenantID, warehouse.ID, shipLines, refs); err != nil {
		return err
	}
	for i := range order.Lines {
		if order.Lines[i].PickedQty > 0 {
			order.Lines[i].Status = models.OrderLineStatusShipped
		}
	}
	return nil
}

// Cancel releases reservations and cancels the order. Orders with picked
// stock cannot cancel.
func (s *OrderService) Cancel(ctx context.Context, tenantID string, id uuid.UUID) (*models.SalesOrder, error) {
	order, err := s.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateSalesOrderStatusTransition(order.Status, models.OrderStatusCancelled); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidTransition, "INVALID_TRANSITION", err.Error(), err)
	}
	for i := range order.Lines {
		if order.Lines[i].PickedQty > 0 {
			return nil, apperrors.Conflict("ORDER_PARTIALLY_PICKED", "picked lines must be returned before cancelling")
		}
	}
	warehouse, err := s.locations.GetDefaultWarehouse(ctx, tenantID)
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	for i := range order.Lines {
		line := &order.Lines[i]
		if line.Status != models.OrderLineStatusAllocated && line.Status != models.OrderLineStatusPicking {
			line.Status = models.OrderLineStatusCancelled
			continue
		}
		refs := models.TxnRefs{OrderID: &order.ID, OrderLineID: &line.ID, Reference: &order.OrderNumber}
		if warehouse != nil {
			if err := s.ledger.Unreserve(ctx, tenantID, line.VariantID, warehouse.ID, line.OrderedQty, refs); err != nil {
				return nil, err
			}
		}
		line.Status = models.OrderLineStatusCancelled
	}
	order.Status = models.OrderStatusCancelled
	if err := s.saveOrderWithLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Hold pauses an order so wave generation skips it.
func (s *OrderService) Hold(ctx context.Context, tenantID string, id uuid.UUID, hold bool) (*models.SalesOrder, error) {
	order, err := s.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalSalesOrderStatus(order.Status) {
		return nil, apperrors.New(apperrors.KindInvalidTransition, "ORDER_FINISHED", "order is already finished")
	}
	order.OnHold = hold
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Combine merges shippable orders heading to the same address into one
// group. The oldest order becomes the parent the pick wave references.
func (s *OrderService) Combine(ctx context.Context, tenantID string, orderIDs []uuid.UUID) (*models.CombineOrdersResponse, error) {
	if len(orderIDs) < 2 {
		return nil, apperrors.Validation("TOO_FEW_ORDERS", "combining needs at least two orders")
	}

	groupID := uuid.New()
	var parentID uuid.UUID

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		orders, err := s.repo.LockOrders(tx, tenantID, orderIDs)
		if err != nil {
			return err
		}
		if len(orders) != len(orderIDs) {
			return apperrors.NotFound("ORDER_NOT_FOUND", "one or more orders do not exist")
		}

		first := &orders[0]
		hash := AddressHash(first.Address())
		oldest := first
		for i := range orders {
			o := &orders[i]
			switch o.Status {
			case models.OrderStatusReady, models.OrderStatusInProgress:
			default:
				return apperrors.Conflict("ORDER_NOT_COMBINABLE", "order "+o.OrderNumber+" is not open")
			}
			if o.CombinedGroupID != nil {
				return apperrors.Conflict("ALREADY_COMBINED", "order "+o.OrderNumber+" already belongs to a group")
			}
			if !strings.EqualFold(o.CustomerName, first.CustomerName) {
				return apperrors.Validation("CUSTOMER_MISMATCH", "orders belong to different customers")
			}
			if AddressHash(o.Address()) != hash {
				return apperrors.Validation("ADDRESS_MISMATCH", "orders ship to different addresses")
			}
			if o.CreatedAt.Before(oldest.CreatedAt) {
				oldest = o
			}
		}

		parentID = oldest.ID
		for i := range orders {
			o := &orders[i]
			o.CombinedGroupID = &groupID
			role := models.CombinedRoleChild
			if o.ID == parentID {
				role = models.CombinedRoleParent
			}
			o.CombinedRole = &role
			if err := s.repo.SaveOrderTx(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.CombineOrdersResponse{Success: true, CombinedGroupID: groupID, ParentOrderID: parentID}, nil
}

// Uncombine dissolves a group while nothing has been picked yet.
func (s *OrderService) Uncombine(ctx context.Context, tenantID string, groupID uuid.UUID) error {
	orders, err := s.repo.ListByCombinedGroup(ctx, tenantID, groupID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return apperrors.NotFound("GROUP_NOT_FOUND", "combined group not found")
	}
	for i := range orders {
		for j := range orders[i].Lines {
			if orders[i].Lines[j].PickedQty > 0 {
				return apperrors.Conflict("GROUP_PICK_STARTED", "picking already started for this group")
			}
		}
	}
	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		for i := range orders {
			o := &orders[i]
			o.CombinedGroupID = nil
			o.CombinedRole = nil
			if err := s.repo.SaveOrderTx(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
}

// GroupMembers lists the orders of one combined group, parent first.
func (s *OrderService) GroupMembers(ctx context.Context, tenantID string, groupID uuid.UUID) ([]models.SalesOrder, error) {
	return s.repo.ListByCombinedGroup(ctx, tenantID, groupID)
}

// GetSettings returns tenant OMS settings, defaulting to immediate release.
func (s *OrderService) GetSettings(ctx context.Context, tenantID string) (*models.OMSSettings, error) {
	settings, err := s.repo.GetSettings(ctx, tenantID)
	if err == repository.ErrNotFound {
		return &models.OMSSettings{TenantID: tenantID, AutoRelease: models.AutoReleaseImmediate}, nil
	}
	return settings, err
}

// UpdateSettings upserts tenant OMS settings.
func (s *OrderService) UpdateSettings(ctx context.Context, tenantID string, autoRelease models.AutoReleaseInterval) (*models.OMSSettings, error) {
	switch autoRelease {
	case models.AutoReleaseImmediate, models.AutoReleaseEvery5m, models.AutoReleaseEvery15m, models.AutoReleaseHourly:
	default:
		return nil, apperrors.Validation("INVALID_INTERVAL", "unknown auto-release interval")
	}
	settings, err := s.repo.GetSettings(ctx, tenantID)
	if err == repository.ErrNotFound {
		settings = &models.OMSSettings{TenantID: tenantID}
	} else if err != nil {
		return nil, err
	}
	settings.AutoRelease = autoRelease
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
