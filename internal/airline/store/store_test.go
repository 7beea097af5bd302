package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/airline/models"
	"flightsurety/internal/airline/store"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
	txcontext "flightsurety/pkg/platform/tx"
	"flightsurety/pkg/testutil"
)

type airlineStore interface {
	Create(ctx context.Context, airline *models.Airline) (bool, error)
	Get(ctx context.Context, id domain.Address) (*models.Airline, error)
	Update(ctx context.Context, airline *models.Airline) error
	AddVote(ctx context.Context, vote models.Vote) (bool, error)
	HasVoted(ctx context.Context, voter, candidate domain.Address) (bool, error)
	CountVotes(ctx context.Context, candidate domain.Address) (uint64, error)
	AppendRegistered(ctx context.Context, id domain.Address) (bool, error)
	ListRegistered(ctx context.Context) ([]domain.Address, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AirlineStoreSuite struct {
	suite.Suite
	newStore func() (airlineStore, txRunner)
	store    airlineStore
	tx       txRunner
	ctx      context.Context
	now      time.Time
}

func TestAirlineStore_InMemory(t *testing.T) {
	suite.Run(t, &AirlineStoreSuite{newStore: func() (airlineStore, txRunner) {
		tx := txcontext.NewMemory()
		return store.NewInMemory(tx), tx
	}})
}

func TestAirlineStore_SQLite(t *testing.T) {
	s := &AirlineStoreSuite{}
	s.newStore = func() (airlineStore, txRunner) {
		db := testutil.NewSQLite(s.T())
		return store.NewSQLite(db.Pool.DB(), db.Runner), db.Runner
	}
	suite.Run(t, s)
}

func (s *AirlineStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	s.store, s.tx = s.newStore()
}

func (s *AirlineStoreSuite) create(id domain.Address, name string) bool {
	created, err := s.store.Create(s.ctx, &models.Airline{ID: id, Name: name, CreatedAt: s.now, UpdatedAt: s.now})
	s.Require().NoError(err)
	return created
}

func (s *AirlineStoreSuite) TestCreateIsInsertOnly() {
	s.True(s.create(testutil.Addresses.AirlineA, "Alpha Air"))

	a, err := s.store.Get(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	a.FundingSubmitted = true
	a.RegistrationVotes = 2
	s.Require().NoError(s.store.Update(s.ctx, a))

	s.False(s.create(testutil.Addresses.AirlineA, "Imposter"), "existing identity is kept")

	got, err := s.store.Get(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.Equal("Alpha Air", got.Name)
	s.True(got.FundingSubmitted)
	s.Equal(uint64(2), got.RegistrationVotes)
	s.True(s.now.Equal(got.CreatedAt))
}

func (s *AirlineStoreSuite) TestGetAndUpdateUnknown() {
	_, err := s.store.Get(s.ctx, testutil.Addresses.Outsider)
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Update(s.ctx, &models.Airline{ID: testutil.Addresses.Outsider})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *AirlineStoreSuite) TestVotesAreUniquePerPair() {
	s.create(testutil.Addresses.AirlineA, "Alpha Air")
	vote := models.Vote{Voter: testutil.Addresses.AirlineB, Candidate: testutil.Addresses.AirlineA, CastAt: s.now}

	added, err := s.store.AddVote(s.ctx, vote)
	s.Require().NoError(err)
	s.True(added)
	added, err = s.store.AddVote(s.ctx, vote)
	s.Require().NoError(err)
	s.False(added)

	added, err = s.store.AddVote(s.ctx, models.Vote{Voter: testutil.Addresses.AirlineC, Candidate: testutil.Addresses.AirlineA, CastAt: s.now})
	s.Require().NoError(err)
	s.True(added)

	n, err := s.store.CountVotes(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.Equal(uint64(2), n)

	voted, err := s.store.HasVoted(s.ctx, testutil.Addresses.AirlineB, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.True(voted)
	voted, err = s.store.HasVoted(s.ctx, testutil.Addresses.AirlineA, testutil.Addresses.AirlineB)
	s.Require().NoError(err)
	s.False(voted, "the pair is ordered")
}

func (s *AirlineStoreSuite) TestRegisteredListKeepsPromotionOrder() {
	for _, id := range []domain.Address{testutil.Addresses.AirlineC, testutil.Addresses.AirlineA, testutil.Addresses.AirlineB} {
		s.create(id, "airline")
		appended, err := s.store.AppendRegistered(s.ctx, id)
		s.Require().NoError(err)
		s.True(appended)
	}
	appended, err := s.store.AppendRegistered(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.False(appended)

	list, err := s.store.ListRegistered(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.Address{testutil.Addresses.AirlineC, testutil.Addresses.AirlineA, testutil.Addresses.AirlineB}, list)
}

func (s *AirlineStoreSuite) TestRollbackDiscardsVoteAndTally() {
	s.create(testutil.Addresses.AirlineA, "Alpha Air")
	errAbort := errors.New("abort")

	err := s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.AddVote(ctx, models.Vote{Voter: testutil.Addresses.AirlineB, Candidate: testutil.Addresses.AirlineA, CastAt: s.now}); err != nil {
			return err
		}
		a, err := s.store.Get(ctx, testutil.Addresses.AirlineA)
		if err != nil {
			return err
		}
		a.RegistrationVotes++
		a.IsRegistered = true
		if err := s.store.Update(ctx, a); err != nil {
			return err
		}
		if _, err := s.store.AppendRegistered(ctx, a.ID); err != nil {
			return err
		}
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	a, err := s.store.Get(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.Zero(a.RegistrationVotes)
	s.False(a.IsRegistered)
	n, err := s.store.CountVotes(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.Zero(n)
	list, err := s.store.ListRegistered(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
}
