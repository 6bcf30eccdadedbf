package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentSequence backs gap-free per-tenant document numbering.
type DocumentSequence struct {
	TenantID  string    `gorm:"type:varchar(255);primaryKey"`
	Name      string    `gorm:"type:varchar(50);primaryKey"`
	NextValue int64     `gorm:"not null;default:1"`
	UpdatedAt time.Time
}

func (DocumentSequence) TableName() string { return "document_sequences" }

// SequenceRepositoryInterface defines document number allocation
type SequenceRepositoryInterface interface {
	NextNumber(ctx context.Context, tenantID, name, prefix string) (string, error)
	NextNumberTx(tx *gorm.DB, tenantID, name, prefix string) (string, error)
}

// SequenceRepository allocates monotonically increasing document numbers
type SequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new SequenceRepository
func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// NextNumber allocates the next number for a named sequence in its own
// transaction, e.g. NextNumber(ctx, tenant, "po", "PO") returns "PO-000042".
func (r *SequenceRepository) NextNumber(ctx context.Context, tenantID, name, prefix string) (string, error) {
	var number string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = r.NextNumberTx(tx, tenantID, name, prefix)
		return err
	})
	return number, err
}

// NextNumberTx allocates the next number inside an existing transaction so
// the number is rolled back together with the document that consumed it.
func (r *SequenceRepository) NextNumberTx(tx *gorm.DB, tenantID, name, prefix string) (string, error) {
	var seq DocumentSequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&seq).Error
	if err == gorm.ErrRecordNotFound {
		seq = DocumentSequence{TenantID: tenantID, Name: name, NextValue: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	number := fmt.Sprintf("%s-%06d", prefix, seq.NextValue)
	seq.NextValue++
	if err := tx.Save(&seq).Error; err != nil {
		return "", err
	}
	return number, nil
}
