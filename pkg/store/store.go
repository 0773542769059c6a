// Package store provides typed persistence for tenants, users, stages,
// templates, conversations, messages, LLM call traces, and audit logs.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// opTimeout bounds every single store operation. Derived from the incoming
// request context so cancellation propagates.
const opTimeout = 5 * time.Second

// Store wraps the database handle with a typed method per use case.
type Store struct {
	db *gorm.DB
}

// New creates a new Store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a single transaction. On error the transaction is
// rolled back and the error is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// translate maps driver errors to the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	case errors.Is(err, context.DeadlineExceeded):
		return ErrResourceExhausted
	default:
		return err
	}
}
