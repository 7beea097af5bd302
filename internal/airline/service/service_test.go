package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	airlinemetrics "flightsurety/internal/airline/metrics"
	"flightsurety/internal/airline/service"
	airlinestore "flightsurety/internal/airline/store"
	"flightsurety/internal/gate"
	"flightsurety/internal/gate/gatetest"
	gatemocks "flightsurety/internal/gate/mocks"
	gateservice "flightsurety/internal/gate/service"
	gatestore "flightsurety/internal/gate/store"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/events"
	txcontext "flightsurety/pkg/platform/tx"
	"flightsurety/pkg/requestcontext"
	"flightsurety/pkg/testutil"
)

var (
	owner    = testutil.Addresses.Owner
	airlineA = testutil.Addresses.AirlineA
	airlineB = testutil.Addresses.AirlineB
	airlineC = testutil.Addresses.AirlineC
	outsider = testutil.Addresses.Outsider
)

type fixture struct {
	store service.Store
	tx    service.StoreTx
	gate  gateservice.Store
}

type AirlineServiceSuite struct {
	suite.Suite
	newFixture func() fixture
	fixture    fixture
	service    *service.Service
	gate       *gateservice.Service
	metrics    *airlinemetrics.Metrics
	events     <-chan events.Event
	ctx        context.Context
}

func TestAirlineService_InMemory(t *testing.T) {
	suite.Run(t, &AirlineServiceSuite{newFixture: func() fixture {
		tx := txcontext.NewMemory()
		return fixture{store: airlinestore.NewInMemory(tx), tx: tx, gate: gatestore.NewInMemory(tx, true)}
	}})
}

func TestAirlineService_SQLite(t *testing.T) {
	s := &AirlineServiceSuite{}
	s.newFixture = func() fixture {
		db := testutil.NewSQLite(s.T())
		return fixture{
			store: airlinestore.NewSQLite(db.Pool.DB(), db.Runner),
			tx:    db.Runner,
			gate:  gatestore.NewSQLite(db.Pool.DB(), db.Runner, true),
		}
	}
	suite.Run(t, s)
}

func (s *AirlineServiceSuite) SetupTest() {
	f := s.newFixture()
	s.fixture = f
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(32)
	s.T().Cleanup(cancel)
	s.events = ch

	g, err := gateservice.New(f.gate, f.tx, owner, gateservice.WithLogger(logger))
	s.Require().NoError(err)
	s.gate = g
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC))
	for _, addr := range []domain.Address{airlineA, airlineB, airlineC} {
		_, err := g.Authorize(s.ctx, owner, addr)
		s.Require().NoError(err)
	}

	s.metrics = airlinemetrics.New(prometheus.NewRegistry())
	svc, err := service.New(f.store, f.tx, g,
		service.WithLogger(logger),
		service.WithEmitter(events.NewEmitter(logger, bus)),
		service.WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *AirlineServiceSuite) register(id domain.Address, name string) {
	_, err := s.service.RegisterCandidate(s.ctx, owner, id, name)
	s.Require().NoError(err)
}

func (s *AirlineServiceSuite) TestRegisterCandidate() {
	reg, err := s.service.RegisterCandidate(s.ctx, airlineA, airlineB, "Bravo Air")
	s.Require().NoError(err)
	s.True(reg.Created)
	s.False(reg.Airline.IsRegistered)
	s.False(reg.Airline.FundingSubmitted)
	s.Zero(reg.Airline.RegistrationVotes)

	candidate, err := s.service.IsCandidate(s.ctx, airlineA, airlineB)
	s.Require().NoError(err)
	s.True(candidate)

	evs := testutil.DrainEvents(s.events)
	s.Require().Len(evs, 1)
	s.Equal(events.TypeCandidateAdded, evs[0].Type)
	s.Equal(airlineA.String(), evs[0].Actor)
	s.Equal("Bravo Air", evs[0].Attributes["name"])

	s.Run("validation", func() {
		_, err := s.service.RegisterCandidate(s.ctx, owner, "", "x")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		_, err = s.service.RegisterCandidate(s.ctx, owner, airlineC, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AirlineServiceSuite) TestReRegistrationIsNoOp() {
	s.register(airlineB, "Bravo Air")
	_, err := s.service.RecordVote(s.ctx, airlineA, airlineB)
	s.Require().NoError(err)
	_, err = s.service.SubmitFunding(s.ctx, owner, airlineB)
	s.Require().NoError(err)
	testutil.DrainEvents(s.events)

	reg, err := s.service.RegisterCandidate(s.ctx, owner, airlineB, "Renamed")
	s.Require().NoError(err)
	s.False(reg.Created)
	s.Equal("Bravo Air", reg.Airline.Name)
	s.Equal(uint64(1), reg.Airline.RegistrationVotes)
	s.True(reg.Airline.FundingSubmitted)
	s.Empty(testutil.DrainEvents(s.events))
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.CandidatesAdded))
}

func (s *AirlineServiceSuite) TestVoteUniqueness() {
	s.register(airlineC, "Charlie Air")

	for range 3 {
		_, err := s.service.RecordVote(s.ctx, airlineA, airlineC)
		s.Require().NoError(err)
	}
	votes, err := s.service.VotesFor(s.ctx, airlineA, airlineC)
	s.Require().NoError(err)
	s.Equal(uint64(1), votes)

	res, err := s.service.RecordVote(s.ctx, airlineB, airlineC)
	s.Require().NoError(err)
	s.True(res.Recorded)
	s.Equal(uint64(2), res.Votes)

	res, err = s.service.RecordVote(s.ctx, airlineB, airlineC)
	s.Require().NoError(err)
	s.False(res.Recorded)
	s.Equal(uint64(2), res.Votes, "repeat returns the current tally")

	voted, err := s.service.HasVoted(s.ctx, airlineA, airlineB, airlineC)
	s.Require().NoError(err)
	s.True(voted)

	recorded := 0
	for _, ev := range testutil.DrainEvents(s.events) {
		if ev.Type == events.TypeVoteRecorded {
			recorded++
		}
	}
	s.Equal(2, recorded)
	s.Equal(2.0, promtestutil.ToFloat64(s.metrics.VotesRecorded))
	s.Equal(3.0, promtestutil.ToFloat64(s.metrics.VotesRepeated))
}

func (s *AirlineServiceSuite) TestVoteForUnknownCandidate() {
	_, err := s.service.RecordVote(s.ctx, airlineA, outsider)
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownCandidate))

	_, err = s.service.VotesFor(s.ctx, airlineA, outsider)
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownCandidate))

	voted, err := s.service.HasVoted(s.ctx, airlineA, airlineA, outsider)
	s.Require().NoError(err)
	s.False(voted, "failed vote left no record")
}

func (s *AirlineServiceSuite) TestConcurrentVotesCountOnce() {
	s.register(airlineC, "Charlie Air")

	result := testutil.RunConcurrent(s.ctx, 20, func(ctx context.Context, _ int) error {
		_, err := s.service.RecordVote(ctx, airlineA, airlineC)
		return err
	})
	s.Equal(20, result.Successes)

	votes, err := s.service.VotesFor(s.ctx, airlineA, airlineC)
	s.Require().NoError(err)
	s.Equal(uint64(1), votes)
}

func (s *AirlineServiceSuite) TestVoteRefusedWhenTallyDrifts() {
	s.register(airlineC, "Charlie Air")
	_, err := s.service.RecordVote(s.ctx, airlineA, airlineC)
	s.Require().NoError(err)

	stored, err := s.fixture.store.Get(s.ctx, airlineC)
	s.Require().NoError(err)
	stored.RegistrationVotes = 5
	s.Require().NoError(s.fixture.store.Update(s.ctx, stored))

	_, err = s.service.RecordVote(s.ctx, airlineB, airlineC)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	voted, err := s.service.HasVoted(s.ctx, airlineA, airlineB, airlineC)
	s.Require().NoError(err)
	s.False(voted, "refused vote was rolled back")
	n, err := s.fixture.store.CountVotes(s.ctx, airlineC)
	s.Require().NoError(err)
	s.Equal(uint64(1), n)
}

func (s *AirlineServiceSuite) TestPromoteToRegistered() {
	s.register(airlineB, "Bravo Air")
	s.register(airlineA, "Alpha Air")

	for _, id := range []domain.Address{airlineB, airlineA, airlineB} {
		a, err := s.service.PromoteToRegistered(s.ctx, owner, id)
		s.Require().NoError(err)
		s.True(a.IsRegistered)
	}

	list, err := s.service.ListRegistered(s.ctx, airlineA)
	s.Require().NoError(err)
	s.Equal([]domain.Address{airlineB, airlineA}, list)

	registered, err := s.service.IsRegistered(s.ctx, airlineA, airlineB)
	s.Require().NoError(err)
	s.True(registered)
	candidate, err := s.service.IsCandidate(s.ctx, airlineA, airlineB)
	s.Require().NoError(err)
	s.False(candidate)

	s.Equal(2.0, promtestutil.ToFloat64(s.metrics.Promotions))

	_, err = s.service.PromoteToRegistered(s.ctx, owner, outsider)
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownAirline))
}

func (s *AirlineServiceSuite) TestSubmitFunding() {
	s.register(airlineB, "Bravo Air")

	a, err := s.service.SubmitFunding(s.ctx, airlineB, airlineB)
	s.Require().NoError(err)
	s.True(a.FundingSubmitted)
	_, err = s.service.SubmitFunding(s.ctx, airlineB, airlineB)
	s.Require().NoError(err)

	funded, err := s.service.FundingSubmitted(s.ctx, airlineA, airlineB)
	s.Require().NoError(err)
	s.True(funded)

	funded, err = s.service.FundingSubmitted(s.ctx, airlineA, outsider)
	s.Require().NoError(err)
	s.False(funded, "unknown identities are simply not funded")

	_, err = s.service.SubmitFunding(s.ctx, owner, outsider)
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownAirline))

	fundedEvents := 0
	for _, ev := range testutil.DrainEvents(s.events) {
		if ev.Type == events.TypeAirlineFunded {
			fundedEvents++
		}
	}
	s.Equal(1, fundedEvents)
}

func (s *AirlineServiceSuite) TestGateDeniesWithoutStateChange() {
	s.register(airlineB, "Bravo Air")
	before, err := s.service.Get(s.ctx, owner, airlineB)
	s.Require().NoError(err)

	_, err = s.service.RecordVote(s.ctx, outsider, airlineB)
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	_, err = s.service.RegisterCandidate(s.ctx, outsider, outsider, "Rogue")
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	_, err = s.service.PromoteToRegistered(s.ctx, outsider, airlineB)
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	_, err = s.service.ListRegistered(s.ctx, outsider)
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))

	_, err = s.gate.SetOperational(s.ctx, owner, false)
	s.Require().NoError(err)
	_, err = s.service.SubmitFunding(s.ctx, airlineA, airlineB)
	s.True(dErrors.HasCode(err, dErrors.CodeSystemNotOperational))

	after, err := s.service.Get(s.ctx, airlineA, airlineB)
	s.Require().NoError(err, "reads still work while paused")
	s.Equal(before, after)
	_, err = s.service.Get(s.ctx, owner, outsider)
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownAirline))
}

// A pause issued while a mutation is between its gate check and its write
// must wait for that mutation, and every later mutation must see it.
func (s *AirlineServiceSuite) TestPauseSerializesWithMutations() {
	s.register(airlineB, "Bravo Air")

	mutations := []struct {
		name string
		run  func(svc *service.Service) error
	}{
		{"register candidate", func(svc *service.Service) error {
			_, err := svc.RegisterCandidate(s.ctx, owner, airlineC, "Charlie Air")
			return err
		}},
		{"record vote", func(svc *service.Service) error {
			_, err := svc.RecordVote(s.ctx, airlineA, airlineB)
			return err
		}},
		{"promote", func(svc *service.Service) error {
			_, err := svc.PromoteToRegistered(s.ctx, owner, airlineB)
			return err
		}},
		{"submit funding", func(svc *service.Service) error {
			_, err := svc.SubmitFunding(s.ctx, airlineB, airlineB)
			return err
		}},
	}
	for _, m := range mutations {
		s.Run(m.name, func() {
			_, err := s.gate.SetOperational(s.ctx, owner, true)
			s.Require().NoError(err)

			hooked := &gatetest.HookedStore{Store: s.fixture.gate}
			g, err := gateservice.New(hooked, s.fixture.tx, owner)
			s.Require().NoError(err)
			svc, err := service.New(s.fixture.store, s.fixture.tx, g)
			s.Require().NoError(err)
			waitPause := gatetest.PauseOnFirstCheck(hooked, func() error {
				_, err := g.SetOperational(s.ctx, owner, false)
				return err
			}, func() { time.Sleep(50 * time.Millisecond) })

			s.Require().NoError(m.run(svc))
			overtook, err := waitPause()
			s.Require().NoError(err)
			s.False(overtook, "pause committed while the mutation held its gate check")
			s.True(hooked.StateReadInTx(), "flag read outside the write transaction")

			s.True(dErrors.HasCode(m.run(svc), dErrors.CodeSystemNotOperational))
		})
	}

	b, err := s.service.Get(s.ctx, owner, airlineB)
	s.Require().NoError(err)
	s.Equal(uint64(1), b.RegistrationVotes)
	s.True(b.IsRegistered)
	s.True(b.FundingSubmitted)
	candidate, err := s.service.IsCandidate(s.ctx, owner, airlineC)
	s.Require().NoError(err)
	s.True(candidate)
}

func TestRecordVote_GateConsultedBeforeStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := gatemocks.NewMockChecker(ctrl)
	tx := txcontext.NewMemory()
	st := airlinestore.NewInMemory(tx)

	svc, err := service.New(st, tx, checker)
	if err != nil {
		t.Fatal(err)
	}

	checker.EXPECT().
		Check(gomock.Any(), airlineA, gate.ModeMutate).
		Return(dErrors.New(dErrors.CodeSystemNotOperational, "paused"))

	_, err = svc.RecordVote(context.Background(), airlineA, airlineB)
	if !dErrors.HasCode(err, dErrors.CodeSystemNotOperational) {
		t.Fatalf("expected system_not_operational, got %v", err)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	tx := txcontext.NewMemory()
	st := airlinestore.NewInMemory(tx)
	checker := gatemocks.NewMockChecker(gomock.NewController(t))

	if _, err := service.New(nil, tx, checker); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := service.New(st, nil, checker); err == nil {
		t.Fatal("expected error for nil tx")
	}
	if _, err := service.New(st, tx, nil); err == nil {
		t.Fatal("expected error for nil gate")
	}
}
