package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"flightsurety/pkg/platform/circuit"
)

const httpChannelName = "payment_gateway"

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPChannel posts payouts to a payment gateway. Consecutive failures open
// the circuit breaker, after which transfers fail fast until the cooldown
// lets a probe through.
type HTTPChannel struct {
	baseURL string
	client  HTTPDoer
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type HTTPOption func(*HTTPChannel)

func WithHTTPClient(c HTTPDoer) HTTPOption {
	return func(h *HTTPChannel) {
		h.client = c
	}
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(h *HTTPChannel) {
		h.breaker = b
	}
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTPChannel) {
		h.logger = logger
	}
}

// NewHTTPChannel targets baseURL; timeout bounds each request when no client
// is injected.
func NewHTTPChannel(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	h := &HTTPChannel{baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(h)
	}
	if h.client == nil {
		h.client = &http.Client{Timeout: timeout}
	}
	if h.breaker == nil {
		h.breaker = circuit.New(httpChannelName)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

type transferBody struct {
	IdempotencyKey string `json:"idempotency_key"`
	Destination    string `json:"destination"`
	Amount         uint64 `json:"amount"`
}

type transferReply struct {
	Reference string `json:"reference"`
}

func (h *HTTPChannel) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if !h.breaker.Allow() {
		return "", newTransferError(ErrorCircuitOpen, httpChannelName, "circuit open, transfer not attempted", nil)
	}
	ref, err := h.transfer(ctx, req)
	if err != nil {
		// A rejection is the gateway working correctly; only outages trip the breaker.
		var te *TransferError
		if !errors.As(err, &te) || te.Kind != ErrorRejected {
			if change := h.breaker.RecordFailure(); change.Opened {
				h.logger.ErrorContext(ctx, "circuit breaker opened",
					"circuit", h.breaker.Name(),
					"error", err,
				)
			}
		}
		return "", err
	}
	if change := h.breaker.RecordSuccess(); change.Closed {
		h.logger.InfoContext(ctx, "circuit breaker closed", "circuit", h.breaker.Name())
	}
	return ref, nil
}

func (h *HTTPChannel) transfer(ctx context.Context, req TransferRequest) (string, error) {
	body, err := json.Marshal(transferBody{
		IdempotencyKey: req.ID.String(),
		Destination:    req.Destination.String(),
		Amount:         req.Amount,
	})
	if err != nil {
		return "", newTransferError(ErrorInternal, httpChannelName, "failed to marshal request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return "", newTransferError(ErrorInternal, httpChannelName, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.ID.String())

	resp, err := h.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return "", newTransferError(ErrorTimeout, httpChannelName, "request timeout", err)
		}
		return "", newTransferError(ErrorUnavailable, httpChannelName, "failed to execute request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", newTransferError(ErrorBadResponse, httpChannelName, "failed to read response", err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", newTransferError(ErrorUnavailable, httpChannelName,
			fmt.Sprintf("gateway unavailable: %d", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", newTransferError(ErrorRejected, httpChannelName,
			fmt.Sprintf("transfer rejected: %d", resp.StatusCode), nil)
	}

	var reply transferReply
	if err := json.Unmarshal(raw, &reply); err != nil || reply.Reference == "" {
		return "", newTransferError(ErrorBadResponse, httpChannelName, "response carries no reference", err)
	}
	return reply.Reference, nil
}
