package testutil

import "flightsurety/pkg/platform/events"

// DrainEvents returns every event already buffered on ch without blocking.
// Publishing is synchronous, so events from a finished call are all present.
func DrainEvents(ch <-chan events.Event) []events.Event {
	var out []events.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// EventTypes projects events onto their types, for compact assertions.
func EventTypes(evs []events.Event) []events.Type {
	out := make([]events.Type, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}
