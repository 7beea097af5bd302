// Package tracer is a small tracing facade so services can open spans
// without importing OpenTelemetry directly.
package tracer

import "context"

// Span is one traced operation. End must be called exactly once.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Uint64 is recorded as int64; values above MaxInt64 are clamped.
func Uint64(key string, value uint64) Attribute {
	const maxInt64 = 1<<63 - 1
	if value > maxInt64 {
		value = maxInt64
	}
	return Attribute{Key: key, Value: int64(value)} //nolint:gosec // clamped above
}
