package store

import (
	"context"

	"flightsurety/internal/airline/models"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
	txcontext "flightsurety/pkg/platform/tx"
)

type voteKey struct {
	voter     domain.Address
	candidate domain.Address
}

// InMemoryStore keeps the registry in process. Writes join the caller's
// transaction through the shared memory runner.
type InMemoryStore struct {
	tx         *txcontext.Memory
	airlines   map[domain.Address]*models.Airline
	votes      map[voteKey]models.Vote
	tallies    map[domain.Address]uint64
	registered []domain.Address
}

func NewInMemory(tx *txcontext.Memory) *InMemoryStore {
	return &InMemoryStore{
		tx:       tx,
		airlines: make(map[domain.Address]*models.Airline),
		votes:    make(map[voteKey]models.Vote),
		tallies:  make(map[domain.Address]uint64),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, airline *models.Airline) (bool, error) {
	created := false
	err := s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		if _, ok := s.airlines[airline.ID]; ok {
			return nil
		}
		stored := *airline
		s.airlines[airline.ID] = &stored
		j.Record(func() { delete(s.airlines, airline.ID) })
		created = true
		return nil
	})
	return created, err
}

func (s *InMemoryStore) Get(ctx context.Context, id domain.Address) (*models.Airline, error) {
	var (
		out   models.Airline
		found bool
	)
	s.tx.Read(ctx, func() {
		var a *models.Airline
		if a, found = s.airlines[id]; found {
			out = *a
		}
	})
	if !found {
		return nil, sentinel.ErrNotFound
	}
	return &out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, airline *models.Airline) error {
	return s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		prev, ok := s.airlines[airline.ID]
		if !ok {
			return sentinel.ErrNotFound
		}
		stored := *airline
		s.airlines[airline.ID] = &stored
		j.Record(func() { s.airlines[airline.ID] = prev })
		return nil
	})
}

func (s *InMemoryStore) AddVote(ctx context.Context, vote models.Vote) (bool, error) {
	added := false
	err := s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		k := voteKey{voter: vote.Voter, candidate: vote.Candidate}
		if _, ok := s.votes[k]; ok {
			return nil
		}
		s.votes[k] = vote
		s.tallies[vote.Candidate]++
		j.Record(func() {
			delete(s.votes, k)
			s.tallies[vote.Candidate]--
		})
		added = true
		return nil
	})
	return added, err
}

func (s *InMemoryStore) HasVoted(ctx context.Context, voter, candidate domain.Address) (bool, error) {
	var ok bool
	s.tx.Read(ctx, func() { _, ok = s.votes[voteKey{voter: voter, candidate: candidate}] })
	return ok, nil
}

func (s *InMemoryStore) CountVotes(ctx context.Context, candidate domain.Address) (uint64, error) {
	var n uint64
	s.tx.Read(ctx, func() { n = s.tallies[candidate] })
	return n, nil
}

func (s *InMemoryStore) AppendRegistered(ctx context.Context, id domain.Address) (bool, error) {
	appended := false
	err := s.tx.Run(ctx, func(_ context.Context, j *txcontext.Journal) error {
		for _, existing := range s.registered {
			if existing == id {
				return nil
			}
		}
		s.registered = append(s.registered, id)
		j.Record(func() { s.registered = s.registered[:len(s.registered)-1] })
		appended = true
		return nil
	})
	return appended, err
}

func (s *InMemoryStore) ListRegistered(ctx context.Context) ([]domain.Address, error) {
	var out []domain.Address
	s.tx.Read(ctx, func() {
		out = make([]domain.Address, len(s.registered))
		copy(out, s.registered)
	})
	return out, nil
}
