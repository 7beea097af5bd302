// Package txcontext carries transaction state through a context so nested
// RunInTx calls join the outer transaction instead of deadlocking on the
// single write authority.
package txcontext

import (
	"context"
	"database/sql"
)

type sqlTxKey struct{}
type journalKey struct{}

// WithTx returns a context carrying an open SQL transaction.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, sqlTxKey{}, tx)
}

// From returns the SQL transaction carried by ctx, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

func withJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom returns the in-memory journal carried by ctx, if any.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok && j != nil
}

// Active reports whether ctx carries an open transaction of either backend.
func Active(ctx context.Context) bool {
	if _, ok := From(ctx); ok {
		return true
	}
	_, ok := JournalFrom(ctx)
	return ok
}
