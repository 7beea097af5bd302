package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DropCounter counts events a slow subscriber could not accept.
type DropCounter interface {
	IncrementEventsDropped(eventType string)
}

// Bus fans committed events out to live subscribers. Delivery is best effort:
// a subscriber whose buffer is full misses the event and the publisher never
// blocks.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Event
	next        uint64
	closed      bool
	logger      *slog.Logger
	drops       DropCounter
}

type BusOption func(*Bus)

func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

func WithDropCounter(c DropCounter) BusOption {
	return func(b *Bus) {
		b.drops = c
	}
}

func NewBus(opts ...BusOption) *Bus {
	b := &Bus{subscribers: make(map[uint64]chan Event)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber with the given buffer. The returned cancel
// func unregisters it and closes the channel; it is safe to call twice.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(sub)
			}
		})
	}
}

// Publish stamps the event and offers it to every subscriber without blocking.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			if b.logger != nil {
				b.logger.WarnContext(ctx, "event subscriber buffer full, event dropped",
					"event_type", string(event.Type),
					"event_id", event.ID,
				)
			}
			if b.drops != nil {
				b.drops.IncrementEventsDropped(string(event.Type))
			}
		}
	}
	return nil
}

// Subscribers returns the number of live subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close disconnects every subscriber. Later publishes are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
