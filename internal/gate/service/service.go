// Package service implements the access gate: the owner-managed caller
// allow-list and the operational flag that every ledger mutation checks.
package service

import (
	"context"
	"log/slog"
	"time"

	"flightsurety/internal/gate"
	gatemetrics "flightsurety/internal/gate/metrics"
	"flightsurety/internal/gate/models"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/events"
	"flightsurety/pkg/platform/tracer"
	"flightsurety/pkg/requestcontext"
)

type Store interface {
	GetState(ctx context.Context) (*models.State, error)
	SetOperational(ctx context.Context, operational bool, by domain.Address, at time.Time) error
	AddCaller(ctx context.Context, caller models.AuthorizedCaller) (bool, error)
	RemoveCaller(ctx context.Context, addr domain.Address) (bool, error)
	IsCaller(ctx context.Context, addr domain.Address) (bool, error)
	ListCallers(ctx context.Context) ([]models.AuthorizedCaller, error)
}

// StoreTx provides the transactional boundary shared with the ledger stores.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store   Store
	tx      StoreTx
	owner   domain.Address
	logger  *slog.Logger
	emitter *events.Emitter
	metrics *gatemetrics.Metrics
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

func WithMetrics(m *gatemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, tx StoreTx, owner domain.Address, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "gate store is required")
	}
	if tx == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "transaction runner is required")
	}
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeInternal, "owner address is required")
	}
	s := &Service{store: store, tx: tx, owner: owner}
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

var _ gate.Checker = (*Service)(nil)

// Owner returns the configured owner identity.
func (s *Service) Owner() domain.Address {
	return s.owner
}

// Check implements gate.Checker. The owner is always authorized; the
// operational flag still applies to the owner's mutations.
func (s *Service) Check(ctx context.Context, caller domain.Address, mode gate.Mode) error {
	if caller.IsNil() {
		s.denied(ctx, caller, mode, "anonymous")
		return dErrors.New(dErrors.CodeNotAuthorized, "caller is not authorized")
	}
	if caller != s.owner {
		ok, err := s.store.IsCaller(ctx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check caller")
		}
		if !ok {
			s.denied(ctx, caller, mode, "not_authorized")
			return dErrors.New(dErrors.CodeNotAuthorized, "caller is not authorized")
		}
	}
	if mode != gate.ModeMutate {
		return nil
	}
	state, err := s.store.GetState(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read operational flag")
	}
	if !state.Operational {
		s.denied(ctx, caller, mode, "not_operational")
		return dErrors.New(dErrors.CodeSystemNotOperational, "system is not operational")
	}
	return nil
}

func (s *Service) SetOperational(ctx context.Context, caller domain.Address, operational bool) (*models.State, error) {
	ctx, span := s.tracer.Start(ctx, "gate.set_operational", tracer.Bool("operational", operational))
	state, changed, err := s.setOperational(ctx, caller, operational)
	span.End(err)
	if err != nil {
		return nil, err
	}
	if changed {
		s.emitter.Emit(ctx, events.TypeOperationalChanged, caller.String(), "system",
			"operational", operational)
		if s.metrics != nil {
			s.metrics.IncrementAdminChange("operational")
			s.metrics.SetOperational(operational)
		}
	}
	return state, nil
}

func (s *Service) setOperational(ctx context.Context, caller domain.Address, operational bool) (*models.State, bool, error) {
	if err := s.requireOwner(ctx, caller, "set_operational"); err != nil {
		return nil, false, err
	}
	var (
		state   *models.State
		changed bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.GetState(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read operational flag")
		}
		if current.Operational == operational {
			state = current
			return nil
		}
		now := requestcontext.Now(ctx)
		if err := s.store.SetOperational(ctx, operational, caller, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update operational flag")
		}
		state = &models.State{Operational: operational, UpdatedBy: caller, UpdatedAt: now}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return state, changed, nil
}

// Authorize adds target to the allow-list. Returns false when it was
// already present.
func (s *Service) Authorize(ctx context.Context, caller, target domain.Address) (bool, error) {
	if err := s.requireOwner(ctx, caller, "authorize"); err != nil {
		return false, err
	}
	if target.IsNil() {
		return false, dErrors.New(dErrors.CodeBadRequest, "target address required")
	}
	var added bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		added, err = s.store.AddCaller(ctx, models.AuthorizedCaller{
			Address:      target,
			AuthorizedBy: caller,
			AuthorizedAt: requestcontext.Now(ctx),
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to authorize caller")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if added {
		s.emitter.Emit(ctx, events.TypeCallerAuthorized, caller.String(), target.String())
		s.incrementAdminChange("authorize")
	}
	return added, nil
}

// Deauthorize removes target from the allow-list; removing an absent entry
// reports false. The owner stays authorized regardless.
func (s *Service) Deauthorize(ctx context.Context, caller, target domain.Address) (bool, error) {
	if err := s.requireOwner(ctx, caller, "deauthorize"); err != nil {
		return false, err
	}
	if target.IsNil() {
		return false, dErrors.New(dErrors.CodeBadRequest, "target address required")
	}
	var removed bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.store.RemoveCaller(ctx, target)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deauthorize caller")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.emitter.Emit(ctx, events.TypeCallerDeauthorized, caller.String(), target.String())
		s.incrementAdminChange("deauthorize")
	}
	return removed, nil
}

func (s *Service) IsOperational(ctx context.Context) (bool, error) {
	state, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	return state.Operational, nil
}

func (s *Service) State(ctx context.Context) (*models.State, error) {
	state, err := s.store.GetState(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read operational flag")
	}
	return state, nil
}

func (s *Service) IsAuthorized(ctx context.Context, addr domain.Address) (bool, error) {
	if addr.IsNil() {
		return false, nil
	}
	if addr == s.owner {
		return true, nil
	}
	ok, err := s.store.IsCaller(ctx, addr)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check caller")
	}
	return ok, nil
}

// ListAuthorized returns the owner followed by the allow-list in
// authorization order.
func (s *Service) ListAuthorized(ctx context.Context) ([]models.AuthorizedCaller, error) {
	callers, err := s.store.ListCallers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list callers")
	}
	out := make([]models.AuthorizedCaller, 0, len(callers)+1)
	out = append(out, models.AuthorizedCaller{Address: s.owner})
	for _, c := range callers {
		if c.Address != s.owner {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) requireOwner(ctx context.Context, caller domain.Address, action string) error {
	if caller != s.owner {
		s.logger.WarnContext(ctx, "owner-only operation refused",
			"action", action,
			"caller", caller.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		if s.metrics != nil {
			s.metrics.IncrementDenied("not_owner")
		}
		return dErrors.New(dErrors.CodeNotOwner, "caller is not the owner")
	}
	return nil
}

func (s *Service) denied(ctx context.Context, caller domain.Address, mode gate.Mode, reason string) {
	s.logger.InfoContext(ctx, "access gate denied request",
		"caller", caller.String(),
		"mode", mode.String(),
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementDenied(reason)
	}
}

func (s *Service) incrementAdminChange(kind string) {
	if s.metrics != nil {
		s.metrics.IncrementAdminChange(kind)
	}
}
