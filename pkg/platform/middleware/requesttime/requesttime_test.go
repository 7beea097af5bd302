package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"flightsurety/pkg/requestcontext"
)

func TestMiddleware_PinsTimeForWholeRequest(t *testing.T) {
	var first, second time.Time
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))

	before := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/policies", nil))

	assert.False(t, first.Before(before.UTC().Add(-time.Millisecond)))
	assert.Equal(t, first, second)
	assert.Equal(t, time.UTC, first.Location())
}

func TestNow_FallsBackOutsideRequests(t *testing.T) {
	before := time.Now()
	got := requestcontext.Now(context.Background())
	assert.False(t, got.Before(before))
}

func TestWithTime_OverridesClock(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, requestcontext.Now(requestcontext.WithTime(context.Background(), fixed)))
}
