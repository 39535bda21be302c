package metrics

import (
	"context"
	"strconv"

	"github.com/mkrencik/droppit/internal/event"
	"github.com/mkrencik/droppit/internal/logger"
)

// EventMetricsCollector subscribes to bus events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all events the collector cares about
func (e *EventMetricsCollector) Register(bus event.Bus) {
	bus.Subscribe(event.SpawnPublished, e.HandleEvent)
	bus.Subscribe(event.SpawnSuppressed, e.HandleEvent)
	bus.Subscribe(event.ScoreAwarded, e.HandleEvent)
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	switch evt.Type {
	case event.SpawnPublished:
		if p, ok := evt.Payload.(event.SpawnPublishedPayloadV1); ok {
			SpawnsPublished.WithLabelValues(p.Source).Inc()
		}

	case event.SpawnSuppressed:
		if p, ok := evt.Payload.(event.SpawnSuppressedPayloadV1); ok {
			SpawnsSuppressed.WithLabelValues(p.Source, p.Reason).Inc()
		}

	case event.ScoreAwarded:
		if p, ok := evt.Payload.(event.ScoreAwardedPayloadV1); ok {
			ScoresAwarded.WithLabelValues(strconv.Itoa(p.SlotIndex)).Inc()
			PointsAwarded.Add(float64(p.Points))
		}
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
