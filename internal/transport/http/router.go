// Package httptransport assembles the HTTP surface: middleware order, route
// groups and which credentials each group requires. Handlers delegate to
// domain services and hold no business logic.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"flightsurety/internal/gate"
	gatehandler "flightsurety/internal/gate/handler"
	"flightsurety/pkg/platform/middleware/admin"
	"flightsurety/pkg/platform/middleware/auth"
	"flightsurety/pkg/platform/middleware/request"
	"flightsurety/pkg/platform/middleware/requesttime"
	"flightsurety/pkg/platform/validation"
)

const defaultRequestTimeout = 30 * time.Second

// Registrar mounts a handler's routes.
type Registrar interface {
	Register(r chi.Router)
}

// AdminRegistrar is implemented by the gate admin handler.
type AdminRegistrar interface {
	Registrar
	RegisterTokens(r chi.Router)
}

type Config struct {
	Logger         *slog.Logger
	Latency        request.LatencyObserver
	Tokens         auth.TokenValidator
	Gate           gate.Checker
	AdminTokenHash []byte
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	Health  Registrar
	Metrics http.Handler
	Admin   AdminRegistrar
	Stream  Registrar
	API     []Registrar
}

// NewRouter wires every route. Public: health and metrics. Bearer token:
// the domain API and the event stream. Admin token: token minting, plus the
// bearer token for the remaining admin routes.
func NewRouter(cfg Config) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = validation.MaxBodySize
	}
	logger := cfg.Logger

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(request.Latency(cfg.Latency))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	requireCaller := auth.RequireCaller(cfg.Tokens, logger)

	// Long-lived stream: no request timeout.
	if cfg.Stream != nil {
		r.Group(func(r chi.Router) {
			r.Use(requireCaller)
			cfg.Stream.Register(r)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		r.Use(request.BodyLimit(cfg.MaxBodyBytes))
		r.Use(request.ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)
			if cfg.Gate != nil {
				r.Use(gatehandler.RequireAccess(cfg.Gate, logger))
			}
			for _, reg := range cfg.API {
				reg.Register(r)
			}
		})

		if cfg.Admin != nil {
			r.Group(func(r chi.Router) {
				r.Use(admin.RequireAdminToken(cfg.AdminTokenHash, logger))
				cfg.Admin.RegisterTokens(r)
				r.Group(func(r chi.Router) {
					r.Use(requireCaller)
					cfg.Admin.Register(r)
				})
			})
		}
	})

	return r
}
