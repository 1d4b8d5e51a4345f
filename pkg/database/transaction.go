package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

type txContextKey string

const txKey = txContextKey("tx")

// Tx is the transactional query surface. Commit and Rollback are idempotent;
// the usual shape is a deferred Rollback with an explicit Commit at the end
// of the happy path.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	IsOpen() bool
}

type transaction struct {
	*sqlx.Tx
	logger ectologger.Logger
	closed bool
}

func NewTx(tx *sqlx.Tx, logger ectologger.Logger) Tx {
	return &transaction{Tx: tx, logger: logger}
}

// GetTx returns the transaction already carried by ctx, or begins a new one
// and stores it. Nested calls within the same ctx share the outer
// transaction, which the outermost caller owns.
func GetTx(ctx context.Context, logger ectologger.Logger, db DB, opts *sql.TxOptions) (context.Context, Tx, error) {
	if existing, ok := ctx.Value(txKey).(Tx); ok && existing != nil && existing.IsOpen() {
		return ctx, existing, nil
	}

	sqlxTx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("Failed to begin transaction")
		return ctx, nil, fmt.Errorf("failed to begin transaction")
	}

	tx := NewTx(sqlxTx, logger)
	return context.WithValue(ctx, txKey, tx), tx, nil
}

func (t *transaction) IsOpen() bool {
	return !t.closed
}

func (t *transaction) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}

	if err := t.Tx.Rollback(); err != nil {
		t.logger.WithContext(ctx).WithError(err).Error("Failed to roll back transaction")
		return fmt.Errorf("failed to roll back transaction")
	}
	t.closed = true
	return nil
}

func (t *transaction) Commit(ctx context.Context) error {
	if t.closed {
		return nil
	}

	if err := t.Tx.Commit(); err != nil {
		t.logger.WithContext(ctx).WithError(err).Error("Failed to commit transaction")
		return fmt.Errorf("failed to commit transaction")
	}
	t.closed = true
	return nil
}
