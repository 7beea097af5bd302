// Package requestcontext holds the request-scoped values that middleware
// injects and services read back: correlation ID, client metadata and the
// authenticated caller.
package requestcontext

import (
	"context"
	"time"

	"flightsurety/pkg/domain"
)

type requestIDKey struct{}
type clientIPKey struct{}
type userAgentKey struct{}
type callerKey struct{}

// WithRequestID returns a context carrying the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation ID, or "" outside an HTTP request.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithClientMetadata stores the resolved client IP and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithCaller stores the authenticated caller address.
func WithCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Caller returns the authenticated caller address and whether one was set.
func Caller(ctx context.Context) (domain.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Address)
	return caller, ok && caller != ""
}

type nowKey struct{}

// WithTime pins the request-scoped clock. Used by middleware and by tests that
// need deterministic timestamps.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, t)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
