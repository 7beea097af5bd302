package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/requestcontext"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
		body   string
	}{
		{dErrors.CodeNotAuthorized, http.StatusForbidden, "not_authorized"},
		{dErrors.CodeNotOwner, http.StatusForbidden, "not_owner"},
		{dErrors.CodeSystemNotOperational, http.StatusServiceUnavailable, "system_not_operational"},
		{dErrors.CodeUnknownAirline, http.StatusNotFound, "unknown_airline"},
		{dErrors.CodeUnknownCandidate, http.StatusNotFound, "unknown_candidate"},
		{dErrors.CodeNoCreditsAvailable, http.StatusConflict, "no_credits_available"},
		{dErrors.CodeTransferFailed, http.StatusBadGateway, "transfer_failed"},
		{dErrors.CodeInvariantViolation, http.StatusConflict, "invariant_violation"},
		{dErrors.CodeTimeout, http.StatusGatewayTimeout, "timeout"},
		{dErrors.CodeInvalidInput, http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.Wrap(errors.New("cause"), tc.code, "described"))
			assert.Equal(t, tc.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tc.body, resp.Error)
			assert.Equal(t, "described", resp.ErrorDescription)
		})
	}

	t.Run("foreign errors do not leak", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("sqlite: disk I/O error"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "internal_error", resp.Error)
		assert.Empty(t, resp.ErrorDescription)
	})
}

func TestRequireCaller(t *testing.T) {
	_, err := RequireCaller(context.Background(), discard)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	want := domain.Address("0x00000000000000000000000000000000000000b2")
	got, err := RequireCaller(requestcontext.WithCaller(context.Background(), want), discard)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}
