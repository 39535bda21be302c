package store

import "time"

const (
	// PathEvents is the append-only spawn-event log node.
	PathEvents = "events"
	// PathLeaderboard is the shared leaderboard node.
	PathLeaderboard = "leaderboard"
)

const (
	// RequestTimeout bounds a single REST call against the store.
	RequestTimeout = 10 * time.Second

	// StreamDialTimeout bounds the initial streaming connection.
	StreamDialTimeout = 15 * time.Second
)

// Log message constants
const (
	LogMsgStreamEnded   = "store stream ended"
	LogMsgStreamSkipped = "skipping unparseable stream frame"
)

// Error message format constants
const (
	ErrFmtStatusCode    = "store %s %s: unexpected status %d"
	ErrFmtRequestFailed = "store %s %s: %w"
)
