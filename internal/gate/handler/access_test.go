package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"flightsurety/internal/gate"
	gatemocks "flightsurety/internal/gate/mocks"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/testutil"
)

func accessRouter(checker gate.Checker, reached *bool) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(testutil.AsCaller)
	r.Use(RequireAccess(checker, logger))
	ok := func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid body"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
	r.Get("/v1/things", ok)
	r.Post("/v1/things", ok)
	return r
}

func TestRequireAccess(t *testing.T) {
	denied := dErrors.New(dErrors.CodeNotAuthorized, "caller not authorized")
	paused := dErrors.New(dErrors.CodeSystemNotOperational, "system not operational")

	tests := []struct {
		name       string
		method     string
		mode       gate.Mode
		checkErr   error
		wantStatus int
		wantCode   string
		wantReach  bool
	}{
		{"unauthorized write with malformed body", http.MethodPost, gate.ModeMutate, denied, http.StatusForbidden, "not_authorized", false},
		{"paused write with malformed body", http.MethodPost, gate.ModeMutate, paused, http.StatusServiceUnavailable, "system_not_operational", false},
		{"unauthorized read", http.MethodGet, gate.ModeRead, denied, http.StatusForbidden, "not_authorized", false},
		{"authorized write reaches handler", http.MethodPost, gate.ModeMutate, nil, http.StatusBadRequest, "bad_request", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := gatemocks.NewMockChecker(gomock.NewController(t))
			checker.EXPECT().Check(gomock.Any(), testutil.Addresses.Outsider, tt.mode).Return(tt.checkErr)
			var reached bool
			router := accessRouter(checker, &reached)

			req := httptest.NewRequest(tt.method, "/v1/things", strings.NewReader("{not json"))
			req.Header.Set(testutil.CallerHeader, testutil.Addresses.Outsider.String())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantReach, reached)
			var body httputil.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}
