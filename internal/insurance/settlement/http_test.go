package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightsurety/pkg/domain"
	"flightsurety/pkg/platform/circuit"
)

func newRequest(t *testing.T) TransferRequest {
	t.Helper()
	dest, err := domain.ParseAddress("0x00000000000000000000000000000000000b0001")
	require.NoError(t, err)
	return TransferRequest{ID: domain.NewWithdrawalID(), Destination: dest, Amount: 150}
}

func TestHTTPChannel_Transfer(t *testing.T) {
	req := newRequest(t)

	var got transferBody
	var idemHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		idemHeader = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reference":"tx-42"}`))
	}))
	defer srv.Close()

	ch := NewHTTPChannel(srv.URL+"/", time.Second)
	ref, err := ch.Transfer(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "tx-42", ref)
	assert.Equal(t, req.ID.String(), idemHeader)
	assert.Equal(t, req.ID.String(), got.IdempotencyKey)
	assert.Equal(t, req.Destination.String(), got.Destination)
	assert.Equal(t, uint64(150), got.Amount)
}

func TestHTTPChannel_FailureKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
	}{
		{"server error", http.StatusBadGateway, "", ErrorUnavailable},
		{"throttled", http.StatusTooManyRequests, "", ErrorUnavailable},
		{"rejected", http.StatusUnprocessableEntity, `{"error":"bad destination"}`, ErrorRejected},
		{"missing reference", http.StatusOK, `{}`, ErrorBadResponse},
		{"garbage body", http.StatusOK, `not json`, ErrorBadResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPChannel(srv.URL, time.Second).Transfer(context.Background(), newRequest(t))

			var te *TransferError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.kind, te.Kind)
		})
	}
}

func TestHTTPChannel_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server only watches for client disconnect once the body is consumed.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTPChannel(srv.URL, time.Second).Transfer(ctx, newRequest(t))

	var te *TransferError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTimeout, te.Kind)
}

func TestHTTPChannel_BreakerOpensOnOutage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	ch := NewHTTPChannel(srv.URL, time.Second, WithBreaker(breaker))

	for range 2 {
		_, err := ch.Transfer(context.Background(), newRequest(t))
		require.Error(t, err)
	}
	require.True(t, breaker.IsOpen())

	_, err := ch.Transfer(context.Background(), newRequest(t))
	var te *TransferError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorCircuitOpen, te.Kind)
	assert.Equal(t, int32(2), calls.Load(), "open circuit must not reach the gateway")
}

func TestHTTPChannel_RejectionDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	breaker := circuit.New("test", circuit.WithFailureThreshold(1))
	ch := NewHTTPChannel(srv.URL, time.Second, WithBreaker(breaker))

	_, err := ch.Transfer(context.Background(), newRequest(t))
	require.Error(t, err)
	assert.False(t, breaker.IsOpen())
}
