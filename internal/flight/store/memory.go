// Package store persists registered flights keyed by their derived key.
package store

import (
	"context"
	"sort"

	"flightsurety/internal/flight/models"
	"flightsurety/internal/keys"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
	txcontext "flightsurety/pkg/platform/tx"
)

type InMemoryStore struct {
	tx      *txcontext.Memory
	flights map[keys.Key]models.Flight
}

func NewInMemory(tx *txcontext.Memory) *InMemoryStore {
	return &InMemoryStore{tx: tx, flights: make(map[keys.Key]models.Flight)}
}

// Save creates or overwrites the flight at its key.
func (s *InMemoryStore) Save(ctx context.Context, flight *models.Flight) error {
	return s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		prev, existed := s.flights[flight.Key]
		s.flights[flight.Key] = *flight
		j.Record(func() {
			if existed {
				s.flights[flight.Key] = prev
				return
			}
			delete(s.flights, flight.Key)
		})
		return nil
	})
}

func (s *InMemoryStore) Get(ctx context.Context, key keys.Key) (*models.Flight, error) {
	var (
		f     models.Flight
		found bool
	)
	s.tx.Read(ctx, func() { f, found = s.flights[key] })
	if !found {
		return nil, sentinel.ErrNotFound
	}
	return &f, nil
}

// ListByAirline returns the airline's flights ordered by departure, then code.
func (s *InMemoryStore) ListByAirline(ctx context.Context, airline domain.Address) ([]models.Flight, error) {
	out := []models.Flight{}
	s.tx.Read(ctx, func() {
		for _, f := range s.flights {
			if f.Airline == airline {
				out = append(out, f)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}
