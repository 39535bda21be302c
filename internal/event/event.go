package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkrencik/droppit/internal/domain"
)

// Type represents the type of an event
type Type string

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types carried on the in-process bus.
const (
	SpawnPublished  Type = "spawn.published"
	SpawnSuppressed Type = "spawn.suppressed"
	ScoreAwarded    Type = "score.awarded"
	LeaderboardSync Type = "leaderboard.synced"
	FeedConnected   Type = "feed.connected"
	FeedDropped     Type = "feed.dropped"
)

// Suppression reasons attached to spawn.suppressed payloads.
const (
	ReasonCooldown   = "cooldown"
	ReasonStreak     = "streak"
	ReasonNoCommand  = "command-not-recognized"
	ReasonSpawnGate  = "spawn-disabled"
	ReasonPublishErr = "publish-failed"
)

// SpawnPublishedPayloadV1 is the typed payload for spawn.published events
type SpawnPublishedPayloadV1 struct {
	Key      string `json:"key"`
	Username string `json:"username"`
	Command  string `json:"command"`
	Source   string `json:"source"` // "chat" or "gift"
}

// SpawnSuppressedPayloadV1 is the typed payload for spawn.suppressed events
type SpawnSuppressedPayloadV1 struct {
	Username string `json:"username"`
	Command  string `json:"command"`
	Source   string `json:"source"`
	Reason   string `json:"reason"`
}

// ScoreAwardedPayloadV1 is the typed payload for score.awarded events
type ScoreAwardedPayloadV1 struct {
	Username  string `json:"username"`
	SlotIndex int    `json:"slot_index"`
	Points    int64  `json:"points"`
	Total     int64  `json:"total"`
}

// NewSpawnPublishedEvent creates a new spawn.published event
func NewSpawnPublishedEvent(evt domain.SpawnEvent, source string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    SpawnPublished,
		Payload: SpawnPublishedPayloadV1{
			Key:      evt.Key,
			Username: evt.Username,
			Command:  evt.Command,
			Source:   source,
		},
	}
}

// NewSpawnSuppressedEvent creates a new spawn.suppressed event
func NewSpawnSuppressedEvent(username, command, source, reason string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    SpawnSuppressed,
		Payload: SpawnSuppressedPayloadV1{
			Username: username,
			Command:  command,
			Source:   source,
			Reason:   reason,
		},
	}
}

// NewScoreAwardedEvent creates a new score.awarded event
func NewScoreAwardedEvent(username string, slotIndex int, points, total int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ScoreAwarded,
		Payload: ScoreAwardedPayloadV1{
			Username:  username,
			SlotIndex: slotIndex,
			Points:    points,
			Total:     total,
		},
	}
}

// LeaderboardSyncPayloadV1 is the typed payload for leaderboard.synced
// events
type LeaderboardSyncPayloadV1 struct {
	Entries int  `json:"entries"`
	Cleared bool `json:"cleared"`
}

// NewLeaderboardSyncEvent creates a new leaderboard.synced event
func NewLeaderboardSyncEvent(entries int, cleared bool) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    LeaderboardSync,
		Payload: LeaderboardSyncPayloadV1{Entries: entries, Cleared: cleared},
	}
}

// FeedStatusPayloadV1 is the typed payload for feed.connected and
// feed.dropped events
type FeedStatusPayloadV1 struct {
	Username string `json:"username"`
}

// NewFeedConnectedEvent creates a new feed.connected event
func NewFeedConnectedEvent(username string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    FeedConnected,
		Payload: FeedStatusPayloadV1{Username: username},
	}
}

// NewFeedDroppedEvent creates a new feed.dropped event
func NewFeedDroppedEvent(username string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    FeedDropped,
		Payload: FeedStatusPayloadV1{Username: username},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers. Handlers run synchronously
// in subscription order; handler errors are collected, not fatal.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
