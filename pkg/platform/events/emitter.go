package events

import (
	"context"
	"fmt"
	"log/slog"

	"flightsurety/pkg/requestcontext"
)

// Publisher accepts committed events. Satisfied by *Bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Emitter writes the audit log line for a domain change and forwards the same
// change to the event publisher. Both sinks are optional.
type Emitter struct {
	logger    *slog.Logger
	publisher Publisher
}

func NewEmitter(logger *slog.Logger, publisher Publisher) *Emitter {
	return &Emitter{logger: logger, publisher: publisher}
}

// Emit records one event. attributes are slog-style key/value pairs; actor and
// subject are lifted into the event envelope. Call only after commit.
//
//	emitter.Emit(ctx, events.TypeVoteRecorded, voter, candidate, "votes", n)
func (e *Emitter) Emit(ctx context.Context, eventType Type, actor, subject string, attributes ...any) {
	if e == nil {
		return
	}
	requestID := requestcontext.RequestID(ctx)

	if e.logger != nil {
		args := append([]any{}, attributes...)
		args = append(args, "event", string(eventType), "log_type", "audit", "actor", actor, "subject", subject)
		if requestID != "" {
			args = append(args, "request_id", requestID)
		}
		e.logger.InfoContext(ctx, string(eventType), args...)
	}

	if e.publisher == nil {
		return
	}
	err := e.publisher.Publish(ctx, Event{
		Type:       eventType,
		Actor:      actor,
		Subject:    subject,
		Attributes: toAttributes(attributes),
		Timestamp:  requestcontext.Now(ctx).UTC(),
		RequestID:  requestID,
	})
	if err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "failed to publish event",
			"event", string(eventType),
			"error", err,
		)
	}
}

func toAttributes(kv []any) map[string]string {
	if len(kv) < 2 {
		return nil
	}
	out := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[key] = fmt.Sprint(kv[i+1])
	}
	return out
}
