package txcontext

import (
	"context"
	"sync"
	"time"

	dErrors "flightsurety/pkg/domain-errors"
)

// DefaultTimeout bounds a transaction when the caller supplied no deadline.
const DefaultTimeout = 5 * time.Second

// Observer receives the outcome of every top-level transaction.
type Observer interface {
	ObserveTx(backend, outcome string, duration time.Duration)
}

// Journal collects undo steps for in-memory mutations made inside a transaction.
// Steps are replayed newest first when the transaction aborts.
type Journal struct {
	undo []func()
}

// Record registers the step that reverts a mutation already applied.
func (j *Journal) Record(undo func()) {
	if j == nil || undo == nil {
		return
	}
	j.undo = append(j.undo, undo)
}

func (j *Journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// Memory is the single write authority for in-memory stores. Writers run one
// at a time under an exclusive lock; readers share the lock through View.
type Memory struct {
	mu       sync.RWMutex
	timeout  time.Duration
	observer Observer
}

// MemoryOption configures a Memory runner.
type MemoryOption func(*Memory)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) MemoryOption {
	return func(m *Memory) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithObserver reports commit/rollback outcomes.
func WithObserver(o Observer) MemoryOption {
	return func(m *Memory) {
		m.observer = o
	}
}

// NewMemory creates an in-memory transaction runner.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes fn under the exclusive lock. If fn returns an error, panics, or
// the context expires before fn returns, every step recorded in the journal is
// undone and no change remains visible.
func (m *Memory) Run(ctx context.Context, fn func(ctx context.Context, j *Journal) error) (err error) {
	if j, ok := JournalFrom(ctx); ok {
		return fn(ctx, j)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		m.observe("rollback", start)
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := &Journal{}
	defer func() {
		if r := recover(); r != nil {
			j.rollback()
			m.observe("rollback", start)
			panic(r)
		}
	}()

	if err := fn(withJournal(ctx, j), j); err != nil {
		j.rollback()
		m.observe("rollback", start)
		return err
	}
	if err := ctx.Err(); err != nil {
		j.rollback()
		m.observe("rollback", start)
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
	}
	m.observe("commit", start)
	return nil
}

// View runs fn under the shared lock.
func (m *Memory) View(fn func()) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn()
}

func (m *Memory) observe(outcome string, start time.Time) {
	if m.observer != nil {
		m.observer.ObserveTx("memory", outcome, time.Since(start))
	}
}

// RunInTx adapts Run to the StoreTx contract used by services.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Run(ctx, func(ctx context.Context, _ *Journal) error {
		return fn(ctx)
	})
}

// Read runs fn under the shared lock unless ctx already carries this runner's
// journal, in which case the exclusive lock is held and fn runs directly.
func (m *Memory) Read(ctx context.Context, fn func()) {
	if _, ok := JournalFrom(ctx); ok {
		fn()
		return
	}
	m.View(fn)
}
