package store

import (
	"context"
	"sort"

	"flightsurety/internal/insurance/models"
	"flightsurety/internal/keys"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
	txcontext "flightsurety/pkg/platform/tx"
)

type InMemoryStore struct {
	tx          *txcontext.Memory
	policies    map[keys.Key][]models.Policy
	balances    map[domain.Address]uint64
	withdrawals map[domain.WithdrawalID]models.Withdrawal
}

func NewInMemory(tx *txcontext.Memory) *InMemoryStore {
	return &InMemoryStore{
		tx:          tx,
		policies:    make(map[keys.Key][]models.Policy),
		balances:    make(map[domain.Address]uint64),
		withdrawals: make(map[domain.WithdrawalID]models.Withdrawal),
	}
}

func (s *InMemoryStore) AppendPolicy(ctx context.Context, key keys.Key, policy models.Policy) error {
	return s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		prev := s.policies[key]
		next := make([]models.Policy, len(prev), len(prev)+1)
		copy(next, prev)
		s.policies[key] = append(next, policy)
		j.Record(func() { s.restorePolicies(key, prev) })
		return nil
	})
}

func (s *InMemoryStore) ListPolicies(ctx context.Context, key keys.Key) ([]models.Policy, error) {
	var out []models.Policy
	s.tx.Read(ctx, func() {
		out = make([]models.Policy, len(s.policies[key]))
		copy(out, s.policies[key])
	})
	return out, nil
}

func (s *InMemoryStore) ClearPolicies(ctx context.Context, key keys.Key) error {
	return s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		prev, ok := s.policies[key]
		if !ok {
			return nil
		}
		delete(s.policies, key)
		j.Record(func() { s.restorePolicies(key, prev) })
		return nil
	})
}

func (s *InMemoryStore) restorePolicies(key keys.Key, prev []models.Policy) {
	if prev == nil {
		delete(s.policies, key)
		return
	}
	s.policies[key] = prev
}

// Balance returns zero for insurees never credited.
func (s *InMemoryStore) Balance(ctx context.Context, insuree domain.Address) (uint64, error) {
	var bal uint64
	s.tx.Read(ctx, func() { bal = s.balances[insuree] })
	return bal, nil
}

func (s *InMemoryStore) SetBalance(ctx context.Context, insuree domain.Address, amount uint64) error {
	return s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		prev, existed := s.balances[insuree]
		s.balances[insuree] = amount
		j.Record(func() {
			if existed {
				s.balances[insuree] = prev
				return
			}
			delete(s.balances, insuree)
		})
		return nil
	})
}

func (s *InMemoryStore) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		if _, ok := s.withdrawals[w.ID]; ok {
			return sentinel.ErrAlreadyUsed
		}
		s.withdrawals[w.ID] = *w
		j.Record(func() { delete(s.withdrawals, w.ID) })
		return nil
	})
}

func (s *InMemoryStore) UpdateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		prev, ok := s.withdrawals[w.ID]
		if !ok {
			return sentinel.ErrNotFound
		}
		s.withdrawals[w.ID] = *w
		j.Record(func() { s.withdrawals[w.ID] = prev })
		return nil
	})
}

// ListWithdrawals returns the insuree's journal, oldest first.
func (s *InMemoryStore) ListWithdrawals(ctx context.Context, insuree domain.Address) ([]models.Withdrawal, error) {
	out := []models.Withdrawal{}
	s.tx.Read(ctx, func() {
		for _, w := range s.withdrawals {
			if w.Insuree == insuree {
				out = append(out, w)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
