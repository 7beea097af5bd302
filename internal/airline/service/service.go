// Package service implements the airline registry: candidate registration,
// idempotent vote bookkeeping, promotion and funding.
//
// Vote counting is purely mechanical. Whether a tally is enough to promote a
// candidate is decided by the caller of PromoteToRegistered.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"flightsurety/internal/airline/metrics"
	"flightsurety/internal/airline/models"
	"flightsurety/internal/gate"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/events"
	"flightsurety/pkg/platform/tracer"
	"flightsurety/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, airline *models.Airline) (bool, error)
	Get(ctx context.Context, id domain.Address) (*models.Airline, error)
	Update(ctx context.Context, airline *models.Airline) error
	AddVote(ctx context.Context, vote models.Vote) (bool, error)
	HasVoted(ctx context.Context, voter, candidate domain.Address) (bool, error)
	CountVotes(ctx context.Context, candidate domain.Address) (uint64, error)
	AppendRegistered(ctx context.Context, id domain.Address) (bool, error)
	ListRegistered(ctx context.Context) ([]domain.Address, error)
}

// StoreTx provides the transactional boundary for registry mutations.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store   Store
	tx      StoreTx
	gate    gate.Checker
	logger  *slog.Logger
	emitter *events.Emitter
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEmitter(emitter *events.Emitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, tx StoreTx, checker gate.Checker, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "airline store is required")
	}
	if tx == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "transaction runner is required")
	}
	if checker == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "access gate is required")
	}
	s := &Service{store: store, tx: tx, gate: checker}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = tracer.NewNoop()
	}
	return s, nil
}

// RegisterCandidate adds id as a candidate. An existing identity is returned
// unchanged with Created false; its votes and funding are never reset.
func (s *Service) RegisterCandidate(ctx context.Context, caller, id domain.Address, name string) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "airline.register_candidate", tracer.String("airline", id.String()))
	var reg models.Registration
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.gate.Check(ctx, caller, gate.ModeMutate); err != nil {
			return err
		}
		if id.IsNil() {
			return dErrors.New(dErrors.CodeBadRequest, "airline address required")
		}
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "airline name required")
		}
		now := requestcontext.Now(ctx)
		candidate := &models.Airline{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
		created, err := s.store.Create(ctx, candidate)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create airline")
		}
		if created {
			reg = models.Registration{Airline: candidate, Created: true}
			return nil
		}
		existing, err := s.store.Get(ctx, id)
		if err != nil {
			return wrapAirlineErr(err, dErrors.CodeUnknownAirline, "failed to load airline")
		}
		reg = models.Registration{Airline: existing}
		return nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}

	if reg.Created {
		s.emitter.Emit(ctx, events.TypeCandidateAdded, caller.String(), id.String(), "name", name)
		if s.metrics != nil {
			s.metrics.IncrementCandidatesAdded()
		}
	}
	return &reg, nil
}

// RecordVote counts voter's vote for candidate at most once and returns the
// tally. Repeated calls return the current tally unchanged.
func (s *Service) RecordVote(ctx context.Context, voter, candidate domain.Address) (*models.VoteResult, error) {
	ctx, span := s.tracer.Start(ctx, "airline.record_vote",
		tracer.String("voter", voter.String()),
		tracer.String("candidate", candidate.String()),
	)
	result := models.VoteResult{Candidate: candidate}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.gate.Check(ctx, voter, gate.ModeMutate); err != nil {
			return err
		}
		if candidate.IsNil() {
			return dErrors.New(dErrors.CodeBadRequest, "candidate address required")
		}
		airline, err := s.store.Get(ctx, candidate)
		if err != nil {
			return wrapAirlineErr(err, dErrors.CodeUnknownCandidate, "failed to load candidate")
		}
		now := requestcontext.Now(ctx)
		added, err := s.store.AddVote(ctx, models.Vote{Voter: voter, Candidate: candidate, CastAt: now})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
		}
		if !added {
			result.Votes = airline.RegistrationVotes
			return nil
		}
		if airline.RegistrationVotes == math.MaxUint64 {
			return dErrors.New(dErrors.CodeInvariantViolation, "vote tally overflow")
		}
		// The tally is derived from the vote records so the two cannot drift.
		tally, err := s.store.CountVotes(ctx, candidate)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count votes")
		}
		if tally != airline.RegistrationVotes+1 {
			return dErrors.New(dErrors.CodeInvariantViolation, "vote tally disagrees with vote records")
		}
		airline.RegistrationVotes = tally
		airline.UpdatedAt = now
		if err := s.store.Update(ctx, airline); err != nil {
			return wrapAirlineErr(err, dErrors.CodeUnknownCandidate, "failed to update tally")
		}
		result.Votes = airline.RegistrationVotes
		result.Recorded = true
		return nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}

	if result.Recorded {
		s.emitter.Emit(ctx, events.TypeVoteRecorded, voter.String(), candidate.String(),
			"votes", strconv.FormatUint(result.Votes, 10))
		if s.metrics != nil {
			s.metrics.IncrementVotesRecorded()
		}
	} else if s.metrics != nil {
		s.metrics.IncrementVotesRepeated()
	}
	return &result, nil
}

// PromoteToRegistered marks id a full member and appends it to the
// registered list exactly once. No threshold is checked here.
func (s *Service) PromoteToRegistered(ctx context.Context, caller, id domain.Address) (*models.Airline, error) {
	ctx, span := s.tracer.Start(ctx, "airline.promote", tracer.String("airline", id.String()))
	var promoted bool
	airline, err := s.mutate(ctx, caller, id, func(ctx context.Context, a *models.Airline, now time.Time) (bool, error) {
		if a.IsRegistered {
			return false, nil
		}
		a.IsRegistered = true
		a.UpdatedAt = now
		if _, err := s.store.AppendRegistered(ctx, a.ID); err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append registered airline")
		}
		promoted = true
		return true, nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}
	if promoted {
		s.emitter.Emit(ctx, events.TypeAirlinePromoted, caller.String(), id.String(),
			"votes", strconv.FormatUint(airline.RegistrationVotes, 10))
		if s.metrics != nil {
			s.metrics.IncrementPromotions()
		}
	}
	return airline, nil
}

// SubmitFunding marks id as funded; a no-op when already set.
func (s *Service) SubmitFunding(ctx context.Context, caller, id domain.Address) (*models.Airline, error) {
	ctx, span := s.tracer.Start(ctx, "airline.submit_funding", tracer.String("airline", id.String()))
	var funded bool
	airline, err := s.mutate(ctx, caller, id, func(_ context.Context, a *models.Airline, now time.Time) (bool, error) {
		if a.FundingSubmitted {
			return false, nil
		}
		a.FundingSubmitted = true
		a.UpdatedAt = now
		funded = true
		return true, nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}
	if funded {
		s.emitter.Emit(ctx, events.TypeAirlineFunded, caller.String(), id.String())
		if s.metrics != nil {
			s.metrics.IncrementFundings()
		}
	}
	return airline, nil
}

// mutate checks the gate, loads id, applies fn and persists the airline when
// fn reports a change, all in one transaction.
func (s *Service) mutate(ctx context.Context, caller, id domain.Address, fn func(ctx context.Context, a *models.Airline, now time.Time) (bool, error)) (*models.Airline, error) {
	var out *models.Airline
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.gate.Check(ctx, caller, gate.ModeMutate); err != nil {
			return err
		}
		if id.IsNil() {
			return dErrors.New(dErrors.CodeBadRequest, "airline address required")
		}
		airline, err := s.store.Get(ctx, id)
		if err != nil {
			return wrapAirlineErr(err, dErrors.CodeUnknownAirline, "failed to load airline")
		}
		changed, err := fn(ctx, airline, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if changed {
			if err := s.store.Update(ctx, airline); err != nil {
				return wrapAirlineErr(err, dErrors.CodeUnknownAirline, "failed to update airline")
			}
		}
		out = airline
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func wrapAirlineErr(err error, notFound dErrors.Code, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		if notFound == dErrors.CodeUnknownCandidate {
			return dErrors.New(notFound, "unknown candidate airline")
		}
		return dErrors.New(notFound, "unknown airline")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
