package storeapi

import (
	"context"

	"github.com/mkrencik/droppit/internal/domain"
)

// EventLogRepository is the persistence contract for the append-only
// spawn-event log. Events are immutable once appended.
type EventLogRepository interface {
	// Append stores evt, assigning its key and server timestamp, and
	// returns the stored event. Keys sort lexicographically in append
	// order.
	Append(ctx context.Context, evt domain.SpawnEvent) (domain.SpawnEvent, error)

	// Snapshot returns the full log keyed by event key. An empty log
	// yields an empty map.
	Snapshot(ctx context.Context) (map[string]domain.SpawnEvent, error)

	// Get returns the event at key, or nil when absent.
	Get(ctx context.Context, key string) (*domain.SpawnEvent, error)
}

// LeaderboardRepository is the persistence contract for the shared
// leaderboard node.
type LeaderboardRepository interface {
	// Snapshot returns all entries keyed by sanitized username.
	Snapshot(ctx context.Context) (domain.Leaderboard, error)

	// Get returns the entry at key, or nil when absent.
	Get(ctx context.Context, key string) (*domain.LeaderboardEntry, error)

	// Upsert merges entries into the node, leaving other keys untouched.
	Upsert(ctx context.Context, entries domain.Leaderboard) error

	// Replace swaps the whole node for entries; empty entries clears it.
	Replace(ctx context.Context, entries domain.Leaderboard) error
}
