// Package service implements the insurance ledger: policy purchase, one-shot
// settlement of a flight's policies into insuree credit, and withdrawal of
// credit through a settlement channel.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/bits"
	"strconv"
	"time"

	"flightsurety/internal/gate"
	"flightsurety/internal/insurance/metrics"
	"flightsurety/internal/insurance/models"
	"flightsurety/internal/insurance/settlement"
	"flightsurety/internal/keys"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/events"
	"flightsurety/pkg/platform/tracer"
	"flightsurety/pkg/requestcontext"
)

type Store interface {
	AppendPolicy(ctx context.Context, key keys.Key, policy models.Policy) error
	ListPolicies(ctx context.Context, key keys.Key) ([]models.Policy, error)
	ClearPolicies(ctx context.Context, key keys.Key) error
	Balance(ctx context.Context, insuree domain.Address) (uint64, error)
	SetBalance(ctx context.Context, insuree domain.Address, amount uint64) error
	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error
	UpdateWithdrawal(ctx context.Context, w *models.Withdrawal) error
	ListWithdrawals(ctx context.Context, insuree domain.Address) ([]models.Withdrawal, error)
}

// StoreTx provides the transactional boundary for ledger mutations.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store   Store
	tx      StoreTx
	gate    gate.Checker
	channel settlement.Channel
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

func New(store Store, tx StoreTx, checker gate.Checker, channel settlement.Channel, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "ledger store is required")
	}
	if tx == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "transaction runner is required")
	}
	if checker == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "access gate is required")
	}
	if channel == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "settlement channel is required")
	}
	s := &Service{store: store, tx: tx, gate: checker, channel: channel}
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

// BuyPolicy appends a policy for insuree under keys.Policy(airline, code).
// Repeated purchases are kept as separate policies.
func (s *Service) BuyPolicy(ctx context.Context, caller, airline domain.Address, code string, insuree domain.Address, amount uint64) (*models.Purchase, error) {
	key := keys.Policy(airline, code)
	ctx, span := s.tracer.Start(ctx, "insurance.buy_policy",
		tracer.String("policy_key", key.String()),
		tracer.Uint64("amount", amount),
	)
	purchase := &models.Purchase{Key: key}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.gate.Check(ctx, caller, gate.ModeMutate); err != nil {
			return err
		}
		if airline.IsNil() || insuree.IsNil() {
			return dErrors.New(dErrors.CodeBadRequest, "airline and insuree addresses required")
		}
		if code == "" {
			return dErrors.New(dErrors.CodeValidation, "flight code is required")
		}
		if amount > models.MaxAmount {
			return dErrors.New(dErrors.CodeValidation, "amount is too large")
		}
		purchase.Policy = models.Policy{Insuree: insuree, Amount: amount, PurchasedAt: requestcontext.Now(ctx)}
		if err := s.store.AppendPolicy(ctx, key, purchase.Policy); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append policy")
		}
		return nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypePolicyPurchased, caller.String(), key.String(),
		"airline", airline.String(),
		"code", code,
		"insuree", insuree.String(),
		"amount", strconv.FormatUint(amount, 10),
	)
	if s.metrics != nil {
		s.metrics.IncrementPoliciesPurchased(amount)
	}
	return purchase, nil
}

// CreditInsurees pays floor(amount*multiplier/10) per open policy into the
// insuree's balance and clears the key. Either every policy is credited and
// the list cleared, or nothing changes.
func (s *Service) CreditInsurees(ctx context.Context, caller, airline domain.Address, code string, multiplier uint64) (*models.Settlement, error) {
	key := keys.Policy(airline, code)
	ctx, span := s.tracer.Start(ctx, "insurance.credit_insurees",
		tracer.String("policy_key", key.String()),
		tracer.Uint64("multiplier", multiplier),
	)
	result := &models.Settlement{Key: key, Multiplier: multiplier, Credits: []models.Credit{}}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.gate.Check(ctx, caller, gate.ModeMutate); err != nil {
			return err
		}
		if airline.IsNil() {
			return dErrors.New(dErrors.CodeBadRequest, "airline address required")
		}
		if code == "" {
			return dErrors.New(dErrors.CodeValidation, "flight code is required")
		}
		policies, err := s.store.ListPolicies(ctx, key)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policies")
		}
		if len(policies) == 0 {
			return nil
		}
		for _, p := range policies {
			payout, err := Payout(p.Amount, multiplier)
			if err != nil {
				return err
			}
			bal, err := s.store.Balance(ctx, p.Insuree)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
			}
			next, err := addAmount(bal, payout)
			if err != nil {
				return err
			}
			if err := s.store.SetBalance(ctx, p.Insuree, next); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit balance")
			}
			if result.Total, err = addAmount(result.Total, payout); err != nil {
				return err
			}
			result.Credits = append(result.Credits, models.Credit{Insuree: p.Insuree, Amount: p.Amount, Payout: payout})
		}
		if err := s.store.ClearPolicies(ctx, key); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear policies")
		}
		return nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}

	if len(result.Credits) > 0 {
		s.emitter.Emit(ctx, events.TypeInsureesCredited, caller.String(), key.String(),
			"policies", strconv.Itoa(len(result.Credits)),
			"multiplier", strconv.FormatUint(multiplier, 10),
			"total", strconv.FormatUint(result.Total, 10),
		)
		if s.metrics != nil {
			s.metrics.IncrementSettlements(result.Total)
		}
	}
	return result, nil
}

// Withdraw pays the insuree's whole balance out through the settlement
// channel. The balance is zeroed and a pending journal entry committed before
// the transfer; a failed transfer restores the balance and returns
// CodeTransferFailed.
func (s *Service) Withdraw(ctx context.Context, caller, insuree domain.Address) (*models.Withdrawal, error) {
	ctx, span := s.tracer.Start(ctx, "insurance.withdraw", tracer.String("insuree", insuree.String()))
	w, err := s.reserve(ctx, caller, insuree)
	if err != nil {
		span.End(err)
		if dErrors.HasCode(err, dErrors.CodeNoCreditsAvailable) && s.metrics != nil {
			s.metrics.IncrementWithdrawal("no_credits", 0)
		}
		return nil, err
	}
	span.SetAttributes(tracer.String("withdrawal_id", w.ID.String()), tracer.Uint64("amount", w.Amount))

	start := time.Now()
	ref, transferErr := s.channel.Transfer(ctx, settlement.TransferRequest{
		ID:          w.ID,
		Destination: insuree,
		Amount:      w.Amount,
	})
	if s.metrics != nil {
		s.metrics.ObserveTransfer(time.Since(start))
	}

	// The outcome must be recorded even when the caller has gone away.
	settleCtx := context.WithoutCancel(ctx)
	if transferErr != nil {
		err = s.compensate(settleCtx, w, transferErr)
		span.End(err)
		return nil, err
	}
	s.complete(settleCtx, w, ref)
	span.End(nil)
	return w, nil
}

// reserve checks the gate, zeroes the balance and journals a pending
// withdrawal in one transaction.
func (s *Service) reserve(ctx context.Context, caller, insuree domain.Address) (*models.Withdrawal, error) {
	var w *models.Withdrawal
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.gate.Check(ctx, caller, gate.ModeMutate); err != nil {
			return err
		}
		if insuree.IsNil() {
			return dErrors.New(dErrors.CodeBadRequest, "insuree address required")
		}
		bal, err := s.store.Balance(ctx, insuree)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
		}
		if bal == 0 {
			return dErrors.New(dErrors.CodeNoCreditsAvailable, "no credits available")
		}
		if err := s.store.SetBalance(ctx, insuree, 0); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to zero balance")
		}
		w = &models.Withdrawal{
			ID:        domain.NewWithdrawalID(),
			Insuree:   insuree,
			Amount:    bal,
			Status:    models.WithdrawalPending,
			CreatedAt: requestcontext.Now(ctx),
		}
		if err := s.store.CreateWithdrawal(ctx, w); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to journal withdrawal")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// complete marks a transferred withdrawal completed. The funds have already
// moved, so a bookkeeping failure is logged and leaves the entry pending for
// reconciliation instead of failing the withdrawal.
func (s *Service) complete(ctx context.Context, w *models.Withdrawal, ref string) {
	w.Status = models.WithdrawalCompleted
	w.Reference = ref
	w.SettledAt = requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.UpdateWithdrawal(ctx, w)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record completed withdrawal",
			"withdrawal_id", w.ID.String(),
			"insuree", w.Insuree.String(),
			"amount", w.Amount,
			"reference", ref,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	s.emitter.Emit(ctx, events.TypeWithdrawalCompleted, w.Insuree.String(), w.ID.String(),
		"amount", strconv.FormatUint(w.Amount, 10),
		"reference", ref,
	)
	if s.metrics != nil {
		s.metrics.IncrementWithdrawal("completed", w.Amount)
	}
}

// compensate restores the reserved amount after a failed transfer and marks
// the withdrawal failed.
func (s *Service) compensate(ctx context.Context, w *models.Withdrawal, transferErr error) error {
	s.logger.WarnContext(ctx, "settlement transfer failed",
		"withdrawal_id", w.ID.String(),
		"insuree", w.Insuree.String(),
		"amount", w.Amount,
		"error", transferErr,
		"request_id", requestcontext.RequestID(ctx),
	)
	w.Status = models.WithdrawalFailed
	w.FailureReason = failureReason(transferErr)
	w.SettledAt = requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		bal, err := s.store.Balance(ctx, w.Insuree)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
		}
		restored, err := addAmount(bal, w.Amount)
		if err != nil {
			return err
		}
		if err := s.store.SetBalance(ctx, w.Insuree, restored); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore balance")
		}
		if err := s.store.UpdateWithdrawal(ctx, w); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record failed withdrawal")
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to restore balance after failed transfer",
			"withdrawal_id", w.ID.String(),
			"insuree", w.Insuree.String(),
			"amount", w.Amount,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "withdrawal left pending after failed transfer")
	}

	s.emitter.Emit(ctx, events.TypeWithdrawalFailed, w.Insuree.String(), w.ID.String(),
		"amount", strconv.FormatUint(w.Amount, 10),
		"reason", w.FailureReason,
	)
	if s.metrics != nil {
		s.metrics.IncrementWithdrawal("failed", w.Amount)
	}
	// Always TransferFailed, whatever code the channel's error carries.
	return &dErrors.Error{Code: dErrors.CodeTransferFailed, Message: "settlement transfer failed", Err: transferErr}
}

func failureReason(err error) string {
	var te *settlement.TransferError
	if errors.As(err, &te) {
		return string(te.Kind)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return string(settlement.ErrorTimeout)
	}
	return string(settlement.ErrorInternal)
}

// Payout returns floor(amount*multiplier/CreditDenominator) computed on a
// 128-bit intermediate.
func Payout(amount, multiplier uint64) (uint64, error) {
	hi, lo := bits.Mul64(amount, multiplier)
	if hi >= models.CreditDenominator {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "payout overflow")
	}
	q, _ := bits.Div64(hi, lo, models.CreditDenominator)
	return q, nil
}

func addAmount(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 || sum > models.MaxAmount {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "credit balance overflow")
	}
	return sum, nil
}
