package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/flight/models"
	"flightsurety/internal/flight/store"
	"flightsurety/internal/keys"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
	txcontext "flightsurety/pkg/platform/tx"
	"flightsurety/pkg/testutil"
)

type flightStore interface {
	Save(ctx context.Context, flight *models.Flight) error
	Get(ctx context.Context, key keys.Key) (*models.Flight, error)
	ListByAirline(ctx context.Context, airline domain.Address) ([]models.Flight, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type FlightStoreSuite struct {
	suite.Suite
	newStore func() (flightStore, txRunner)
	store    flightStore
	tx       txRunner
	ctx      context.Context
}

func TestFlightStore_InMemory(t *testing.T) {
	suite.Run(t, &FlightStoreSuite{newStore: func() (flightStore, txRunner) {
		tx := txcontext.NewMemory()
		return store.NewInMemory(tx), tx
	}})
}

func TestFlightStore_SQLite(t *testing.T) {
	s := &FlightStoreSuite{}
	s.newStore = func() (flightStore, txRunner) {
		db := testutil.NewSQLite(s.T())
		return store.NewSQLite(db.Pool.DB(), db.Runner), db.Runner
	}
	suite.Run(t, s)
}

func (s *FlightStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store, s.tx = s.newStore()
}

func flight(airline domain.Address, code string, ts int64) *models.Flight {
	return &models.Flight{
		Key:              keys.Flight(airline, code, ts),
		Airline:          airline,
		Code:             code,
		Timestamp:        ts,
		IsRegistered:     true,
		UpdatedTimestamp: ts,
	}
}

func (s *FlightStoreSuite) TestSaveOverwritesAtKey() {
	f := flight(testutil.Addresses.AirlineA, "ND1309", 1_700_000_000)
	s.Require().NoError(s.store.Save(s.ctx, f))
	first, err := s.store.Get(s.ctx, f.Key)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(s.ctx, f))
	second, err := s.store.Get(s.ctx, f.Key)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(*f, *second)
}

func (s *FlightStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(s.ctx, keys.Flight(testutil.Addresses.AirlineA, "XX1", 1))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *FlightStoreSuite) TestListByAirlineOrdersByDeparture() {
	a := testutil.Addresses.AirlineA
	for _, f := range []*models.Flight{
		flight(a, "ND2", 300),
		flight(a, "ND1", 100),
		flight(testutil.Addresses.AirlineB, "ZZ9", 50),
		flight(a, "ND0", 300),
	} {
		s.Require().NoError(s.store.Save(s.ctx, f))
	}
	list, err := s.store.ListByAirline(s.ctx, a)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]string{"ND1", "ND0", "ND2"}, []string{list[0].Code, list[1].Code, list[2].Code})

	empty, err := s.store.ListByAirline(s.ctx, testutil.Addresses.Outsider)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *FlightStoreSuite) TestRollback() {
	f := flight(testutil.Addresses.AirlineA, "ND1309", 42)
	errAbort := errors.New("abort")
	err := s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, f); err != nil {
			return err
		}
		return errAbort
	})
	s.ErrorIs(err, errAbort)
	_, err = s.store.Get(s.ctx, f.Key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
