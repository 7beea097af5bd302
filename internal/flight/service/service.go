// Package service implements the flight registry.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"flightsurety/internal/flight/models"
	"flightsurety/internal/gate"
	"flightsurety/internal/keys"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/events"
	"flightsurety/pkg/platform/tracer"
)

type Store interface {
	Save(ctx context.Context, flight *models.Flight) error
	Get(ctx context.Context, key keys.Key) (*models.Flight, error)
	ListByAirline(ctx context.Context, airline domain.Address) ([]models.Flight, error)
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store   Store
	tx      StoreTx
	gate    gate.Checker
	logger  *slog.Logger
	emitter *events.Emitter
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

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, tx StoreTx, checker gate.Checker, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "flight store is required")
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

// RegisterFlight creates or overwrites the flight at
// keys.Flight(airline, code, timestamp) with status unknown. The airline is
// not looked up in the airline registry.
func (s *Service) RegisterFlight(ctx context.Context, caller, airline domain.Address, code string, timestamp int64) (*models.Flight, error) {
	flight := &models.Flight{
		Key:              keys.Flight(airline, code, timestamp),
		Airline:          airline,
		Code:             code,
		Timestamp:        timestamp,
		IsRegistered:     true,
		StatusCode:       models.StatusUnknown,
		UpdatedTimestamp: timestamp,
	}
	ctx, span := s.tracer.Start(ctx, "flight.register", tracer.String("flight_key", flight.Key.String()))
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.gate.Check(ctx, caller, gate.ModeMutate); err != nil {
			return err
		}
		if airline.IsNil() {
			return dErrors.New(dErrors.CodeBadRequest, "airline address required")
		}
		if err := models.ValidateCode(code); err != nil {
			return err
		}
		if timestamp < 0 {
			return dErrors.New(dErrors.CodeValidation, "timestamp must not be negative")
		}
		if err := s.store.Save(ctx, flight); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save flight")
		}
		return nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeFlightRegistered, caller.String(), flight.Key.String(),
		"airline", airline.String(),
		"code", code,
		"timestamp", strconv.FormatInt(timestamp, 10),
	)
	return flight, nil
}

func (s *Service) Get(ctx context.Context, caller, airline domain.Address, code string, timestamp int64) (*models.Flight, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return nil, err
	}
	flight, err := s.store.Get(ctx, keys.Flight(airline, code, timestamp))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "flight not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load flight")
	}
	return flight, nil
}

func (s *Service) ListByAirline(ctx context.Context, caller, airline domain.Address) ([]models.Flight, error) {
	if err := s.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		return nil, err
	}
	flights, err := s.store.ListByAirline(ctx, airline)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list flights")
	}
	return flights, nil
}
