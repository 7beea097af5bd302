package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/gate/models"
	"flightsurety/internal/gate/store"
	"flightsurety/pkg/domain"
	txcontext "flightsurety/pkg/platform/tx"
	"flightsurety/pkg/testutil"
)

type gateStore interface {
	GetState(ctx context.Context) (*models.State, error)
	SetOperational(ctx context.Context, operational bool, by domain.Address, at time.Time) error
	AddCaller(ctx context.Context, caller models.AuthorizedCaller) (bool, error)
	RemoveCaller(ctx context.Context, addr domain.Address) (bool, error)
	IsCaller(ctx context.Context, addr domain.Address) (bool, error)
	ListCallers(ctx context.Context) ([]models.AuthorizedCaller, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type GateStoreSuite struct {
	suite.Suite
	newStore func(operational bool) (gateStore, txRunner)
	store    gateStore
	tx       txRunner
	ctx      context.Context
}

func TestGateStore_InMemory(t *testing.T) {
	suite.Run(t, &GateStoreSuite{newStore: func(operational bool) (gateStore, txRunner) {
		tx := txcontext.NewMemory()
		return store.NewInMemory(tx, operational), tx
	}})
}

func TestGateStore_SQLite(t *testing.T) {
	s := &GateStoreSuite{}
	s.newStore = func(operational bool) (gateStore, txRunner) {
		db := testutil.NewSQLite(s.T())
		return store.NewSQLite(db.Pool.DB(), db.Runner, operational), db.Runner
	}
	suite.Run(t, s)
}

func (s *GateStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store, s.tx = s.newStore(true)
}

func (s *GateStoreSuite) TestStateDefaultsAndUpdates() {
	state, err := s.store.GetState(s.ctx)
	s.Require().NoError(err)
	s.True(state.Operational)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.SetOperational(s.ctx, false, testutil.Addresses.Owner, at))

	state, err = s.store.GetState(s.ctx)
	s.Require().NoError(err)
	s.False(state.Operational)
	s.Equal(testutil.Addresses.Owner, state.UpdatedBy)
	s.True(at.Equal(state.UpdatedAt))

	s.Run("configured default applies before the first write", func() {
		st, _ := s.newStore(false)
		state, err := st.GetState(s.ctx)
		s.Require().NoError(err)
		s.False(state.Operational)
	})
}

func (s *GateStoreSuite) TestCallerAllowList() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	add := func(addr domain.Address, at time.Time) bool {
		added, err := s.store.AddCaller(s.ctx, models.AuthorizedCaller{
			Address: addr, AuthorizedBy: testutil.Addresses.Owner, AuthorizedAt: at,
		})
		s.Require().NoError(err)
		return added
	}

	s.True(add(testutil.Addresses.AirlineB, base.Add(time.Second)))
	s.True(add(testutil.Addresses.AirlineA, base))
	s.False(add(testutil.Addresses.AirlineA, base.Add(time.Hour)), "re-adding reports no change")

	ok, err := s.store.IsCaller(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.True(ok)

	callers, err := s.store.ListCallers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(callers, 2)
	s.Equal(testutil.Addresses.AirlineA, callers[0].Address)
	s.True(base.Equal(callers[0].AuthorizedAt), "first authorization time is kept")
	s.Equal(testutil.Addresses.AirlineB, callers[1].Address)

	removed, err := s.store.RemoveCaller(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.True(removed)
	removed, err = s.store.RemoveCaller(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.False(removed)

	ok, err = s.store.IsCaller(s.ctx, testutil.Addresses.AirlineA)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *GateStoreSuite) TestFailedTransactionLeavesNoTrace() {
	errAbort := errors.New("abort")
	err := s.tx.RunInTx(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.AddCaller(ctx, models.AuthorizedCaller{
			Address: testutil.Addresses.InsureeX, AuthorizedAt: time.Now(),
		}); err != nil {
			return err
		}
		if err := s.store.SetOperational(ctx, false, testutil.Addresses.Owner, time.Now()); err != nil {
			return err
		}
		ok, err := s.store.IsCaller(ctx, testutil.Addresses.InsureeX)
		s.Require().NoError(err)
		s.True(ok, "writes are visible inside the transaction")
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	ok, err := s.store.IsCaller(s.ctx, testutil.Addresses.InsureeX)
	s.Require().NoError(err)
	s.False(ok)
	state, err := s.store.GetState(s.ctx)
	s.Require().NoError(err)
	s.True(state.Operational)
}
