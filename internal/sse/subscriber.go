package sse

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mkrencik/droppit/internal/event"
)

// Subscriber bridges the internal event bus to the admin live feed so
// operators can watch spawn decisions in real time.
type Subscriber struct {
	hub *Hub
	bus event.Bus
}

// NewSubscriber creates a new stream subscriber
func NewSubscriber(hub *Hub, bus event.Bus) *Subscriber {
	return &Subscriber{
		hub: hub,
		bus: bus,
	}
}

// Subscribe registers handlers for all relevant event types
func (s *Subscriber) Subscribe() {
	types := []event.Type{
		event.SpawnPublished,
		event.SpawnSuppressed,
		event.FeedConnected,
		event.FeedDropped,
	}
	for _, t := range types {
		s.bus.Subscribe(t, s.forward)
	}

	slog.Info("admin feed subscriber registered", "types", types)
}

// forward re-broadcasts one bus event onto the admin feed node.
func (s *Subscriber) forward(_ context.Context, evt event.Event) error {
	data, err := json.Marshal(evt.Payload)
	if err != nil {
		slog.Warn(LogMsgWriteError, "event_type", evt.Type, "error", err)
		return nil
	}
	s.hub.BroadcastRaw(NodeAdmin, string(evt.Type), data)
	return nil
}
