package handler

import (
	"log/slog"
	"net/http"

	"flightsurety/internal/gate"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

// RequireAccess rejects callers the gate would refuse before any handler
// reads the body. GET and HEAD need read access, everything else mutate
// access. Services still check again inside their own transaction.
func RequireAccess(checker gate.Checker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller, err := httputil.RequireCaller(ctx, logger)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			mode := gate.ModeMutate
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				mode = gate.ModeRead
			}
			if err := checker.Check(ctx, caller, mode); err != nil {
				logger.DebugContext(ctx, "request refused by gate",
					"caller", caller.String(),
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
