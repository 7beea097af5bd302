package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"flightsurety/pkg/domain"
	"flightsurety/pkg/requestcontext"
)

// TokenValidator validates a caller bearer token and returns the caller address
// it was issued to.
type TokenValidator interface {
	ValidateToken(tokenString string) (*CallerClaims, error)
}

// CallerClaims is the subset of token claims the middleware relies on.
type CallerClaims struct {
	Subject string
	JTI     string
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc)) //nolint:errcheck // headers already sent
}

// RequireCaller authenticates the bearer token and stores the caller address
// in the request context. It does not decide authorization; the access gate
// does that inside each service.
func RequireCaller(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthenticated call - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthenticated call - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			caller, err := domain.ParseAddress(claims.Subject)
			if err != nil {
				logger.WarnContext(ctx, "unauthenticated call - malformed subject",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
		})
	}
}
