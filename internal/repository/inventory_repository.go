package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wms-service/internal/models"
)

// LedgerRepositoryInterface defines balance and transaction persistence.
// Mutating methods take the transaction handle so a whole ledger operation
// commits or rolls back as one unit.
type LedgerRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn TxFn) error

	LockBalance(tx *gorm.DB, tenantID string, variantID, locationID uuid.UUID, state models.BalanceState) (*models.InventoryBalance, error)
	SaveBalance(tx *gorm.DB, balance *models.InventoryBalance) error
	AppendTransaction(tx *gorm.DB, txn *models.InventoryTransaction) error
	LastTransactionForCell(tx *gorm.DB, tenantID string, variantID, locationID uuid.UUID) (*models.InventoryTransaction, error)
	ListCandidateCells(tx *gorm.DB, tenantID string, variantID, warehouseID uuid.UUID, state models.BalanceState) ([]models.InventoryBalance, error)

	GetBalance(ctx context.Context, tenantID string, variantID, locationID uuid.UUID, state models.BalanceState) (*models.InventoryBalance, error)
	ListBalancesByVariant(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.InventoryBalance, error)
	ListBalancesByLocation(ctx context.Context, tenantID string, locationID uuid.UUID, limit, offset int) ([]models.InventoryBalance, int64, error)
	ListTransactions(ctx context.Context, tenantID string, filter TransactionFilter, limit, offset int) ([]models.InventoryTransaction, int64, error)
	ListTransactionsByBatch(ctx context.Context, tenantID string, batchID uuid.UUID) ([]models.InventoryTransaction, error)

	SumProductBaseUnits(ctx context.Context, tenantID string, productID, warehouseID uuid.UUID, state models.BalanceState, pickableOnly bool) (int64, error)
	SumVariantState(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, state models.BalanceState) (int64, error)
	SumPickLocationUnits(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, locType models.LocationType) (int64, error)
}

// TransactionFilter narrows the ledger history listing.
type TransactionFilter struct {
	VariantID  *uuid.UUID
	LocationID *uuid.UUID
	Type       *models.TransactionType
	OrderID    *uuid.UUID
}

// LedgerRepository handles database operations for the inventory ledger
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithTransaction runs fn inside one database transaction
func (r *LedgerRepository) WithTransaction(ctx context.Context, fn TxFn) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// LockBalance loads the (variant, location, state) cell with a row lock,
// creating a zero row if the cell has never been touched. Callers must hold
// an open transaction; lock order is the caller's responsibility.
func (r *LedgerRepository) LockBalance(tx *gorm.DB, tenantID string, variantID, locationID uuid.UUID, state models.BalanceState) (*models.InventoryBalance, error) {
	var balance models.InventoryBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND variant_id = ? AND location_id = ? AND state = ?",
			tenantID, variantID, locationID, state).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = models.InventoryBalance{
			TenantID:   tenantID,
			VariantID:  variantID,
			LocationID: locationID,
			State:      state,
			Quantity:   0,
		}
		if err := tx.Create(&balance).Error; err != nil {
			return nil, err
		}
		// Re-acquire under lock so concurrent creators serialize on the row.
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", balance.ID).
			First(&balance).Error
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// SaveBalance persists an updated balance row
func (r *LedgerRepository) SaveBalance(tx *gorm.DB, balance *models.InventoryBalance) error {
	return tx.Save(balance).Error
}

// AppendTransaction writes one immutable ledger row
func (r *LedgerRepository) AppendTransaction(tx *gorm.DB, txn *models.InventoryTransaction) error {
	return tx.Create(txn).Error
}

// LastTransactionForCell returns the newest ledger row touching the given
// variant at the given location, in either direction.
func (r *LedgerRepository) LastTransactionForCell(tx *gorm.DB, tenantID string, variantID, locationID uuid.UUID) (*models.InventoryTransaction, error) {
	var txn models.InventoryTransaction
	err := tx.
		Where("tenant_id = ? AND variant_id = ? AND (from_location_id = ? OR to_location_id = ?)",
			tenantID, variantID, locationID, locationID).
		Order("created_at DESC, id DESC").
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListCandidateCells returns non-empty pickable cells of one variant in one
// warehouse in FIFO order (oldest row first, then location code), locked for
// update. Reserve and pick planning walk this list.
func (r *LedgerRepository) ListCandidateCells(tx *gorm.DB, tenantID string, variantID, warehouseID uuid.UUID, state models.BalanceState) ([]models.InventoryBalance, error) {
	var balances []models.InventoryBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "b"}}).
		Table("inventory_balances b").
		Joins("JOIN locations l ON l.id = b.location_id").
		Where("b.tenant_id = ? AND b.variant_id = ? AND l.warehouse_id = ? AND b.state = ? AND b.quantity > 0 AND l.is_pickable = true",
			tenantID, variantID, warehouseID, state).
		Order("b.created_at ASC, l.code ASC").
		Select("b.*").
		Find(&balances).Error
	return balances, err
}

// --- Read Methods ---

func (r *LedgerRepository) GetBalance(ctx context.Context, tenantID string, variantID, locationID uuid.UUID, state models.BalanceState) (*models.InventoryBalance, error) {
	var balance models.InventoryBalance
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND variant_id = ? AND location_id = ? AND state = ?",
			tenantID, variantID, locationID, state).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *LedgerRepository) ListBalancesByVariant(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.InventoryBalance, error) {
	var balances []models.InventoryBalance
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("tenant_id = ? AND variant_id = ? AND quantity > 0", tenantID, variantID).
		Order("state ASC").
		Find(&balances).Error
	return balances, err
}

func (r *LedgerRepository) ListBalancesByLocation(ctx context.Context, tenantID string, locationID uuid.UUID, limit, offset int) ([]models.InventoryBalance, int64, error) {
	var balances []models.InventoryBalance
	var total int64

	query := r.db.WithContext(ctx).Model(&models.InventoryBalance{}).
		Where("tenant_id = ? AND location_id = ? AND quantity > 0", tenantID, locationID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Variant").
		Order("state ASC").
		Limit(limit).
		Offset(offset).
		Find(&balances).Error

	return balances, total, err
}

func (r *LedgerRepository) ListTransactions(ctx context.Context, tenantID string, filter TransactionFilter, limit, offset int) ([]models.InventoryTransaction, int64, error) {
	var txns []models.InventoryTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.InventoryTransaction{}).
		Where("tenant_id = ?", tenantID)

	if filter.VariantID != nil {
		query = query.Where("variant_id = ?", *filter.VariantID)
	}
	if filter.LocationID != nil {
		query = query.Where("from_location_id = ? OR to_location_id = ?", *filter.LocationID, *filter.LocationID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error

	return txns, total, err
}

func (r *LedgerRepository) ListTransactionsByBatch(ctx context.Context, tenantID string, batchID uuid.UUID) ([]models.InventoryTransaction, error) {
	var txns []models.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND batch_id = ?", tenantID, batchID).
		Order("created_at ASC").
		Find(&txns).Error
	return txns, err
}

// --- Aggregate Methods ---

// SumProductBaseUnits totals one product's inventory across all its variants
// in base units for one state, optionally restricted to pickable locations.
// Only warehouses holding their own stock are counted.
func (r *LedgerRepository) SumProductBaseUnits(ctx context.Context, tenantID string, productID, warehouseID uuid.UUID, state models.BalanceState, pickableOnly bool) (int64, error) {
	var total int64
	query := r.db.WithContext(ctx).
		Table("inventory_balances b").
		Joins("JOIN product_variants v ON v.id = b.variant_id").
		Joins("JOIN locations l ON l.id = b.location_id").
		Where("b.tenant_id = ? AND v.product_id = ? AND l.warehouse_id = ? AND b.state = ?",
			tenantID, productID, warehouseID, state)
	if pickableOnly {
		query = query.Where("l.is_pickable = true")
	}
	err := query.
		Select("COALESCE(SUM(b.quantity * v.units_per_variant), 0)").
		Scan(&total).Error
	return total, err
}

// SumVariantState totals one variant's quantity in one state across a warehouse
func (r *LedgerRepository) SumVariantState(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, state models.BalanceState) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("inventory_balances b").
		Joins("JOIN locations l ON l.id = b.location_id").
		Where("b.tenant_id = ? AND b.variant_id = ? AND l.warehouse_id = ? AND b.state = ?",
			tenantID, variantID, warehouseID, state).
		Select("COALESCE(SUM(b.quantity), 0)").
		Scan(&total).Error
	return total, err
}

// SumPickLocationUnits totals on-hand quantity of one variant across all
// locations of one type, used by min/max replenishment checks.
func (r *LedgerRepository) SumPickLocationUnits(ctx context.Context, tenantID string, variantID, warehouseID uuid.UUID, locType models.LocationType) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("inventory_balances b").
		Joins("JOIN locations l ON l.id = b.location_id").
		Where("b.tenant_id = ? AND b.variant_id = ? AND l.warehouse_id = ? AND l.location_type = ? AND b.state = ?",
			tenantID, variantID, warehouseID, locType, models.BalanceStateOnHand).
		Select("COALESCE(SUM(b.quantity), 0)").
		Scan(&total).Error
	return total, err
}
