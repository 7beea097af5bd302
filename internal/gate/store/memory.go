package store

import (
	"context"
	"sort"
	"time"

	"flightsurety/internal/gate/models"
	"flightsurety/pkg/domain"
	txcontext "flightsurety/pkg/platform/tx"
)

// InMemoryStore keeps gate state in process. All writes go through the shared
// memory runner so they join the caller's transaction.
type InMemoryStore struct {
	tx      *txcontext.Memory
	state   models.State
	callers map[domain.Address]models.AuthorizedCaller
}

// NewInMemory creates a store whose flag starts at operational.
func NewInMemory(tx *txcontext.Memory, operational bool) *InMemoryStore {
	return &InMemoryStore{
		tx:      tx,
		state:   models.State{Operational: operational},
		callers: make(map[domain.Address]models.AuthorizedCaller),
	}
}

func (s *InMemoryStore) GetState(ctx context.Context) (*models.State, error) {
	var out models.State
	s.tx.Read(ctx, func() { out = s.state })
	return &out, nil
}

func (s *InMemoryStore) SetOperational(ctx context.Context, operational bool, by domain.Address, at time.Time) error {
	return s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		prev := s.state
		s.state = models.State{Operational: operational, UpdatedBy: by, UpdatedAt: at}
		j.Record(func() { s.state = prev })
		return nil
	})
}

func (s *InMemoryStore) AddCaller(ctx context.Context, caller models.AuthorizedCaller) (bool, error) {
	added := false
	err := s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		if _, ok := s.callers[caller.Address]; ok {
			return nil
		}
		s.callers[caller.Address] = caller
		j.Record(func() { delete(s.callers, caller.Address) })
		added = true
		return nil
	})
	return added, err
}

func (s *InMemoryStore) RemoveCaller(ctx context.Context, addr domain.Address) (bool, error) {
	removed := false
	err := s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		prev, ok := s.callers[addr]
		if !ok {
			return nil
		}
		delete(s.callers, addr)
		j.Record(func() { s.callers[addr] = prev })
		removed = true
		return nil
	})
	return removed, err
}

func (s *InMemoryStore) IsCaller(ctx context.Context, addr domain.Address) (bool, error) {
	var ok bool
	s.tx.Read(ctx, func() { _, ok = s.callers[addr] })
	return ok, nil
}

func (s *InMemoryStore) ListCallers(ctx context.Context) ([]models.AuthorizedCaller, error) {
	var out []models.AuthorizedCaller
	s.tx.Read(ctx, func() {
		out = make([]models.AuthorizedCaller, 0, len(s.callers))
		for _, c := range s.callers {
			out = append(out, c)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AuthorizedAt.Equal(out[j].AuthorizedAt) {
			return out[i].AuthorizedAt.Before(out[j].AuthorizedAt)
		}
		return out[i].Address < out[j].Address
	})
	return out, nil
}
