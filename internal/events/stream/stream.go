// Package stream forwards bus events to websocket clients.
package stream

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"flightsurety/internal/gate"
	"flightsurety/pkg/domain"
	"flightsurety/pkg/platform/events"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Subscriber interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

// Gauge tracks connected stream clients.
type Gauge interface {
	IncrementStreamSubscribers()
	DecrementStreamSubscribers()
}

type Handler struct {
	bus      Subscriber
	gate     gate.Checker
	logger   *slog.Logger
	gauge    Gauge
	buffer   int
	upgrader websocket.Upgrader
}

type Option func(*Handler)

func WithGauge(g Gauge) Option {
	return func(h *Handler) {
		h.gauge = g
	}
}

// WithBuffer sets the per-client event buffer. A client that falls further
// behind loses events.
func WithBuffer(n int) Option {
	return func(h *Handler) {
		h.buffer = n
	}
}

func New(bus Subscriber, checker gate.Checker, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		bus:    bus,
		gate:   checker,
		logger: logger,
		buffer: 64,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/events", h.HandleStream)
}

// HandleStream upgrades the request and streams events until either side
// closes. ?types=a,b filters by event type; an entry ending in "." selects a
// family such as "insurance.". Access is re-checked on every ping and on
// every deauthorization, and a caller that lost read access is disconnected.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.gate.Check(ctx, caller, gate.ModeRead); err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter := parseFilter(r.URL.Query().Get("types"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	defer conn.Close()

	ch, cancel := h.bus.Subscribe(h.buffer)
	defer cancel()
	if h.gauge != nil {
		h.gauge.IncrementStreamSubscribers()
		defer h.gauge.DecrementStreamSubscribers()
	}
	h.logger.InfoContext(ctx, "event stream opened",
		"caller", caller.String(),
		"filter", filter,
		"request_id", requestcontext.RequestID(ctx),
	)

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go readPump(conn, stop)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, //nolint:errcheck // best effort goodbye
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if ev.Type == events.TypeCallerDeauthorized && h.revoked(ctx, conn, caller) {
				return
			}
			if !ev.Type.Matches(filter) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by WriteJSON
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.DebugContext(ctx, "event stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			if h.revoked(ctx, conn, caller) {
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// revoked re-runs the read check and, on denial, sends a policy close frame.
func (h *Handler) revoked(ctx context.Context, conn *websocket.Conn, caller domain.Address) bool {
	err := h.gate.Check(ctx, caller, gate.ModeRead)
	if err == nil {
		return false
	}
	h.logger.InfoContext(ctx, "event stream closed, access revoked",
		"caller", caller.String(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	_ = conn.WriteControl(websocket.CloseMessage, //nolint:errcheck // best effort goodbye
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "access revoked"),
		time.Now().Add(writeWait))
	return true
}

// readPump drains client frames so control messages are processed, and
// cancels the stream once the client goes away.
func readPump(conn *websocket.Conn, stop context.CancelFunc) {
	defer stop()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // fails only on closed conn
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func parseFilter(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
