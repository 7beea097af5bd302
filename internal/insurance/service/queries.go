package service

import (
	"context"

	"flightsurety/internal/gate"
	"flightsurety/internal/insurance/models"
	"flightsurety/internal/keys"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// PoliciesFor returns a copy of the open policies of a flight code.
func (s *Service) PoliciesFor(ctx context.Context, caller, airline domain.Address, code string) (keys.Key, []models.Policy, error) {
	key := keys.Policy(airline, code)
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return key, nil, err
	}
	policies, err := s.store.ListPolicies(ctx, key)
	if err != nil {
		return key, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return key, policies, nil
}

func (s *Service) CreditBalance(ctx context.Context, caller, insuree domain.Address) (uint64, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return 0, err
	}
	bal, err := s.store.Balance(ctx, insuree)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return bal, nil
}

// Withdrawals returns the insuree's withdrawal journal, oldest first.
func (s *Service) Withdrawals(ctx context.Context, caller, insuree domain.Address) ([]models.Withdrawal, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return nil, err
	}
	list, err := s.store.ListWithdrawals(ctx, insuree)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list withdrawals")
	}
	return list, nil
}
