package config

import "time"

const (
	// DefaultFeedURL is the local live-feed bridge websocket endpoint.
	DefaultFeedURL = "ws://localhost:8912/feed"

	// DefaultCooldownMs is the initial per-user cooldown window.
	DefaultCooldownMs = 1200

	// DefaultStoreURL is where board clients find the shared store.
	DefaultStoreURL = "http://localhost:8080"
)

// Database pool defaults
const (
	DefaultDBMaxConns        = 20
	DefaultDBMaxConnIdleTime = 5 * time.Minute
	DefaultDBMaxConnLifetime = 30 * time.Minute
)
