package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"nimli/pkg/retry"
)

type txKey struct{}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// ErrNestedTx is returned when WithinTx is called inside a transaction.
var ErrNestedTx = errors.New("sqlite: nested transactions are not supported")

// TxRunner runs callbacks inside a transaction, retrying when the database
// is locked by another writer.
type TxRunner struct {
	DB    *sql.DB
	Retry retry.Config
}

func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{
		DB: db,
		Retry: retry.Config{
			MaxAttempts:    3,
			InitialDelay:   10 * time.Millisecond,
			MaxDelay:       500 * time.Millisecond,
			Multiplier:     2,
			JitterStrategy: retry.JitterNone,
		},
	}
}

// WithinTx commits when fn returns nil and rolls back otherwise. The
// transaction is reachable inside fn through Querier(ctx).
func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return ErrNestedTx
	}
	err := retry.DoWithRetryable(ctx, r.Retry, func(ctx context.Context) error {
		return r.once(ctx, fn)
	}, IsBusy)
	var ex *retry.ExhaustedError
	if errors.As(err, &ex) {
		return ex.LastError
	}
	return err
}

func (r *TxRunner) once(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Querier returns the transaction stored in ctx, or the pool.
func (r *TxRunner) Querier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.DB
}

// IsBusy reports whether err is SQLITE_BUSY or a table lock.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "database is locked") ||
		strings.Contains(s, "SQLITE_BUSY") ||
		strings.Contains(s, "database table is locked")
}
