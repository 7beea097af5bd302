package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	airlinehandler "flightsurety/internal/airline/handler"
	airlinemetrics "flightsurety/internal/airline/metrics"
	airlineservice "flightsurety/internal/airline/service"
	airlinestore "flightsurety/internal/airline/store"
	"flightsurety/internal/events/stream"
	flighthandler "flightsurety/internal/flight/handler"
	flightservice "flightsurety/internal/flight/service"
	flightstore "flightsurety/internal/flight/store"
	gatehandler "flightsurety/internal/gate/handler"
	gatemetrics "flightsurety/internal/gate/metrics"
	gateservice "flightsurety/internal/gate/service"
	gatestore "flightsurety/internal/gate/store"
	insurancehandler "flightsurety/internal/insurance/handler"
	insurancemetrics "flightsurety/internal/insurance/metrics"
	insuranceservice "flightsurety/internal/insurance/service"
	"flightsurety/internal/insurance/settlement"
	insurancestore "flightsurety/internal/insurance/store"
	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/internal/platform/config"
	"flightsurety/internal/platform/database"
	"flightsurety/internal/platform/health"
	platformmetrics "flightsurety/internal/platform/metrics"
	httptransport "flightsurety/internal/transport/http"
	"flightsurety/migrations"
	"flightsurety/pkg/platform/events"
	"flightsurety/pkg/platform/tracer"
	txcontext "flightsurety/pkg/platform/tx"
)

const shutdownTimeout = 10 * time.Second

// stores bundles one backend's stores behind the shared tx boundary.
type stores struct {
	tx       txRunner
	gate     gateservice.Store
	airlines airlineservice.Store
	flights  flightservice.Store
	ledger   insuranceservice.Store
	close    func() error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func run(ctx context.Context, cfg *config.Server, logger *slog.Logger) error {
	logger.Info("initializing flightsurety",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"storage", cfg.StorageDriver,
		"owner", cfg.Owner.String(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := platformmetrics.New(reg)
	healthHandler := health.New(cfg.Environment)

	st, err := openStores(cfg, m, healthHandler)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("close storage", "error", err)
		}
	}()

	bus := events.NewBus(events.WithBusLogger(logger), events.WithDropCounter(m))
	emitter := events.NewEmitter(logger, bus)
	trace := tracer.NewOTel()

	gm := gatemetrics.New(reg)
	gate, err := gateservice.New(st.gate, st.tx, cfg.Owner,
		gateservice.WithLogger(logger),
		gateservice.WithEmitter(emitter),
		gateservice.WithMetrics(gm),
		gateservice.WithTracer(trace),
	)
	if err != nil {
		return fmt.Errorf("gate service: %w", err)
	}
	state, err := gate.State(ctx)
	if err != nil {
		return fmt.Errorf("load gate state: %w", err)
	}
	gm.SetOperational(state.Operational)
	healthHandler.ReportOperational(gate.IsOperational)

	airlines, err := airlineservice.New(st.airlines, st.tx, gate,
		airlineservice.WithLogger(logger),
		airlineservice.WithEmitter(emitter),
		airlineservice.WithMetrics(airlinemetrics.New(reg)),
		airlineservice.WithTracer(trace),
	)
	if err != nil {
		return fmt.Errorf("airline service: %w", err)
	}
	flights, err := flightservice.New(st.flights, st.tx, gate,
		flightservice.WithLogger(logger),
		flightservice.WithEmitter(emitter),
		flightservice.WithTracer(trace),
	)
	if err != nil {
		return fmt.Errorf("flight service: %w", err)
	}
	ledger, err := insuranceservice.New(st.ledger, st.tx, gate, newSettlementChannel(cfg, logger),
		insuranceservice.WithLogger(logger),
		insuranceservice.WithEmitter(emitter),
		insuranceservice.WithMetrics(insurancemetrics.New(reg)),
		insuranceservice.WithTracer(trace),
	)
	if err != nil {
		return fmt.Errorf("insurance service: %w", err)
	}

	if cfg.AdminTokenHash == "" {
		logger.Warn("ADMIN_TOKEN_HASH not set; admin routes will refuse every request")
	}
	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.TokenIssuer, jwttoken.Audience, cfg.TokenTTL)
	jwt.SetEnv(cfg.Environment)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         logger,
		Latency:        m,
		Gate:           gate,
		Tokens:         jwttoken.NewJWTServiceAdapter(jwt),
		AdminTokenHash: []byte(cfg.AdminTokenHash),
		Health:         healthHandler,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Admin:          gatehandler.New(gate, jwt, logger),
		Stream:         stream.New(bus, gate, logger, stream.WithGauge(m), stream.WithBuffer(cfg.EventBuffer)),
		API: []httptransport.Registrar{
			airlinehandler.New(airlines, logger),
			flighthandler.New(flights, logger),
			insurancehandler.New(ledger, logger),
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server gracefully")
		// Close the bus first so open event streams end with a close frame
		// instead of holding Shutdown until the timeout.
		bus.Close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openStores(cfg *config.Server, m *platformmetrics.Metrics, h *health.Handler) (*stores, error) {
	if cfg.StorageDriver == config.StorageSQLite {
		dbCfg := database.DefaultConfig()
		dbCfg.Path = cfg.SQLitePath
		pool, err := database.New(dbCfg, migrations.FS)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		h.RegisterCheck("sqlite", pool.Health)
		db := pool.DB()
		runner := database.NewTxRunner(db,
			database.WithTxTimeout(cfg.TxTimeout),
			database.WithTxObserver(m),
		)
		return &stores{
			tx:       runner,
			gate:     gatestore.NewSQLite(db, runner, cfg.StartOperational),
			airlines: airlinestore.NewSQLite(db, runner),
			flights:  flightstore.NewSQLite(db, runner),
			ledger:   insurancestore.NewSQLite(db, runner),
			close:    pool.Close,
		}, nil
	}

	tx := txcontext.NewMemory(
		txcontext.WithTimeout(cfg.TxTimeout),
		txcontext.WithObserver(m),
	)
	return &stores{
		tx:       tx,
		gate:     gatestore.NewInMemory(tx, cfg.StartOperational),
		airlines: airlinestore.NewInMemory(tx),
		flights:  flightstore.NewInMemory(tx),
		ledger:   insurancestore.NewInMemory(tx),
		close:    func() error { return nil },
	}, nil
}

func newSettlementChannel(cfg *config.Server, logger *slog.Logger) settlement.Channel {
	if cfg.SettlementURL == "" {
		logger.Warn("SETTLEMENT_URL not set; payouts settle in the in-process ledger")
		return settlement.NewLedgerChannel()
	}
	return settlement.NewHTTPChannel(cfg.SettlementURL, cfg.SettlementTimeout,
		settlement.WithLogger(logger),
	)
}
