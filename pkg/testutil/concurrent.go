package testutil

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	dErrors "flightsurety/pkg/domain-errors"
)

// ConcurrentResult tallies outcomes of racing operations by domain error code.
type ConcurrentResult struct {
	mu        sync.Mutex
	Successes int
	ByCode    map[dErrors.Code]int
}

// Total returns how many operations ran.
func (r *ConcurrentResult) Total() int {
	n := r.Successes
	for _, c := range r.ByCode {
		n += c
	}
	return n
}

// Count returns how many operations failed with code.
func (r *ConcurrentResult) Count(code dErrors.Code) int {
	return r.ByCode[code]
}

func (r *ConcurrentResult) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.Successes++
		return
	}
	r.ByCode[dErrors.CodeOf(err)]++
}

// RunConcurrent starts goroutines copies of fn at once and waits for all of
// them. Errors never cancel the siblings; each outcome is tallied.
func RunConcurrent(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	result := &ConcurrentResult{ByCode: make(map[dErrors.Code]int)}
	start := make(chan struct{})
	var g errgroup.Group
	for i := range goroutines {
		g.Go(func() error {
			<-start
			result.record(fn(ctx, i))
			return nil
		})
	}
	close(start)
	_ = g.Wait() //nolint:errcheck // workers never return errors
	return result
}
