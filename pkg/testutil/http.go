package testutil

import (
	"net/http"

	"flightsurety/pkg/domain"
	"flightsurety/pkg/requestcontext"
)

// CallerHeader names the header AsCaller reads the caller identity from.
const CallerHeader = "X-Test-Caller"

// AsCaller stands in for the bearer-token middleware in handler tests.
func AsCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := r.Header.Get(CallerHeader); c != "" {
			r = r.WithContext(requestcontext.WithCaller(r.Context(), domain.Address(c)))
		}
		next.ServeHTTP(w, r)
	})
}
