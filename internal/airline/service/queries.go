package service

import (
	"context"
	"errors"

	"flightsurety/internal/airline/models"
	"flightsurety/internal/gate"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// Queries require an authorized caller but not the operational flag.

func (s *Service) Get(ctx context.Context, caller, id domain.Address) (*models.Airline, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return nil, err
	}
	airline, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, wrapAirlineErr(err, dErrors.CodeUnknownAirline, "failed to load airline")
	}
	return airline, nil
}

// IsCandidate reports whether id is known and not yet promoted.
func (s *Service) IsCandidate(ctx context.Context, caller, id domain.Address) (bool, error) {
	airline, err := s.lookup(ctx, caller, id)
	if err != nil || airline == nil {
		return false, err
	}
	return airline.IsCandidate(), nil
}

func (s *Service) IsRegistered(ctx context.Context, caller, id domain.Address) (bool, error) {
	airline, err := s.lookup(ctx, caller, id)
	if err != nil || airline == nil {
		return false, err
	}
	return airline.IsRegistered, nil
}

func (s *Service) FundingSubmitted(ctx context.Context, caller, id domain.Address) (bool, error) {
	airline, err := s.lookup(ctx, caller, id)
	if err != nil || airline == nil {
		return false, err
	}
	return airline.FundingSubmitted, nil
}

func (s *Service) HasVoted(ctx context.Context, caller, voter, candidate domain.Address) (bool, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return false, err
	}
	voted, err := s.store.HasVoted(ctx, voter, candidate)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up vote")
	}
	return voted, nil
}

func (s *Service) VotesFor(ctx context.Context, caller, candidate domain.Address) (uint64, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return 0, err
	}
	airline, err := s.store.Get(ctx, candidate)
	if err != nil {
		return 0, wrapAirlineErr(err, dErrors.CodeUnknownCandidate, "failed to load candidate")
	}
	return airline.RegistrationVotes, nil
}

// ListRegistered returns promoted airlines in promotion order.
func (s *Service) ListRegistered(ctx context.Context, caller domain.Address) ([]domain.Address, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return nil, err
	}
	list, err := s.store.ListRegistered(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registered airlines")
	}
	return list, nil
}

// lookup returns nil without error for unknown identities.
func (s *Service) lookup(ctx context.Context, caller, id domain.Address) (*models.Airline, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return nil, err
	}
	airline, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load airline")
	}
	return airline, nil
}
