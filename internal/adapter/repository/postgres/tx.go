package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// txKey is the key type for storing a transaction in context.
type txKey struct{}

// txFrom retrieves the transaction from context, or nil.
func txFrom(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// TxRunner implements domain.TxRunner on a Postgres connection.
type TxRunner struct {
	db *DB
}

// NewTxRunner creates a new TxRunner.
func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{db: db}
}

// WithinTx executes fn within a serializable database transaction. If fn
// returns an error the transaction is rolled back; otherwise it is committed.
// Nested calls join the outer transaction.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("transaction rollback failed", "err", rbErr)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
