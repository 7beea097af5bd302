package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "flightsurety/pkg/domain-errors"
	txcontext "flightsurety/pkg/platform/tx"
)

// TxRunner is the single write authority for SQL-backed stores. Every store
// sharing a database shares one runner, so writes from all modules are totally
// ordered by arrival at the runner's lock.
type TxRunner struct {
	db       *sql.DB
	mu       sync.Mutex
	timeout  time.Duration
	observer txcontext.Observer
}

// TxOption configures a TxRunner.
type TxOption func(*TxRunner)

func WithTxTimeout(d time.Duration) TxOption {
	return func(r *TxRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithTxObserver(o txcontext.Observer) TxOption {
	return func(r *TxRunner) {
		r.observer = o
	}
}

func NewTxRunner(db *sql.DB, opts ...TxOption) *TxRunner {
	r := &TxRunner{db: db, timeout: txcontext.DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes fn inside one SQL transaction. Nested calls join the outer
// transaction. Any error from fn, or a deadline hit before commit, rolls the
// whole transaction back.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(ctx, tx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		r.observe("rollback", start)
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.observe("rollback", start)
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := fn(txcontext.WithTx(ctx, tx), tx); err != nil {
		r.observe("rollback", start)
		return err
	}
	if err := ctx.Err(); err != nil {
		r.observe("rollback", start)
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
	}
	if err := tx.Commit(); err != nil {
		r.observe("rollback", start)
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	r.observe("commit", start)
	return nil
}

func (r *TxRunner) observe(outcome string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveTx("sqlite", outcome, time.Since(start))
	}
}

// RunInTx adapts Run to the StoreTx contract used by services.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.Run(ctx, func(ctx context.Context, _ *sql.Tx) error {
		return fn(ctx)
	})
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QuerierFrom returns the transaction carried by ctx, or db outside one.
func QuerierFrom(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}
