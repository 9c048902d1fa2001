// Package store holds what the location store backends share: the scoped
// transaction helper and the CSV bulk seed.
package store

import (
	"context"
	"fmt"
)

// Tx is a transactional handle. *sql.Tx and *bbolt.Tx both satisfy it.
type Tx interface {
	Commit() error
	Rollback() error
}

// Scoped acquires a transaction with begin, runs fn, and commits when fn returns nil.
// Any error from fn rolls the transaction back and is returned unchanged. The handle is
// released on every exit path, including a panic in fn.
func Scoped[T Tx](ctx context.Context, begin func(context.Context) (T, error), fn func(T) error) error {
	tx, err := begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	done = true
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
