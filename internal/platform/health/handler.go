// Package health serves liveness, readiness and status probes.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"flightsurety/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// checkTimeout bounds each readiness check.
const checkTimeout = 2 * time.Second

// CheckFunc reports nil when the dependency is usable.
type CheckFunc func(ctx context.Context) error

// OperationalFunc reports the access gate's operational flag.
type OperationalFunc func(ctx context.Context) (bool, error)

type Handler struct {
	started     time.Time
	environment string

	mu          sync.RWMutex
	checks      map[string]CheckFunc
	operational OperationalFunc
}

func New(environment string) *Handler {
	return &Handler{
		started:     time.Now(),
		environment: environment,
		checks:      make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named dependency to the readiness probe.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// ReportOperational surfaces the gate flag on /health. A paused system is
// still live and ready; operators read the flag, load balancers do not.
func (h *Handler) ReportOperational(fn OperationalFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.operational = fn
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness runs every registered check concurrently and answers 503
// if any fails.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	results := h.runChecks(r.Context())

	response := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(results))}
	for name, err := range results {
		if err != nil {
			response.Checks[name] = "down: " + err.Error()
			response.Status = "not_ready"
			continue
		}
		response.Checks[name] = "up"
	}

	if response.Status != "ready" {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) runChecks(ctx context.Context) map[string]error {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]error, len(checks))
		g       errgroup.Group
	)
	for name, check := range checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			err := check(checkCtx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never fail; results carry errors
	return results
}

type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	Operational   *bool  `json:"operational,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.RLock()
	operational := h.operational
	h.mu.RUnlock()
	if operational != nil {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		on, err := operational(ctx)
		cancel()
		if err != nil {
			resp.Status = "degraded"
		} else {
			resp.Operational = &on
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
