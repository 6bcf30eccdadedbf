package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict - record was modified by another request")
)

// TxFn runs inside a database transaction; the *gorm.DB it receives is the
// transaction handle and must be used for every statement in the unit of work.
type TxFn func(tx *gorm.DB) error

// WithTransaction wraps fn in a single database transaction.
func WithTransaction(ctx context.Context, db *gorm.DB, fn TxFn) error {
	return db.WithContext(ctx).Transaction(fn)
}

// IsSerializationError reports whether err is a retryable transaction
// conflict (Postgres serialization failure or deadlock).
func IsSerializationError(err error) bool {
	if err == nil {
		return false
	}
	type sqlState interface{ SQLState() string }
	var s sqlState
	if errors.As(err, &s) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return s.SQLState() == "40001" || s.SQLState() == "40P01"
	}
	return false
}
