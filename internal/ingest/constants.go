package ingest

// Sources reported on bus events and metrics.
const (
	SourceChat = "chat"
	SourceGift = "gift"
)

// Log message constants
const (
	LogMsgSpawnPublished   = "spawn event published"
	LogMsgSpawnSuppressed  = "spawn suppressed"
	LogMsgPublishFailed    = "failed to append spawn event"
	LogMsgPumpStarted      = "ingestion pump started"
	LogMsgPumpStopped      = "ingestion pump stopped"
	LogMsgSpawnGateEvalued = "spawn gate closed, event evaluated but not published"
)

// Error message format constants
const (
	ErrFmtPublish = "publishing spawn event: %w"
)
