package admin

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"flightsurety/pkg/requestcontext"
)

type contextKeyAdminActorID struct{}

// GetAdminActorID returns the X-Admin-Actor-ID attribution captured on an
// authenticated admin request, or "".
func GetAdminActorID(ctx context.Context) string {
	if actorID, ok := ctx.Value(contextKeyAdminActorID{}).(string); ok {
		return actorID
	}
	return ""
}

// RequireAdminToken guards operator routes. The expected token is configured
// only as a bcrypt hash, so the plaintext never sits in process config.
func RequireAdminToken(tokenHash []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			if token == "" || len(tokenHash) == 0 || bcrypt.CompareHashAndPassword(tokenHash, []byte(token)) != nil {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`)) //nolint:errcheck // headers already sent
				return
			}

			if actorID := r.Header.Get("X-Admin-Actor-ID"); actorID != "" {
				ctx = context.WithValue(ctx, contextKeyAdminActorID{}, actorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
