package consumer

import "time"

const (
	// DefaultPollInterval drives the polling transport.
	DefaultPollInterval = 2 * time.Second

	// DefaultRetryInterval is the fixed delay after a transport error.
	// Errors are retried silently and indefinitely.
	DefaultRetryInterval = 5 * time.Second

	// GraceWindow rejects events older than the consumer's start time by
	// more than this, so a (re)connect does not replay a burst onto the
	// board.
	GraceWindow = 60 * time.Second

	// SeenSetSize and SeenSetTTL bound the dedup set. Keys older than the
	// TTL are evicted; the monotonic last-key guard still prevents
	// re-delivery of evicted keys.
	SeenSetSize = 16384
	SeenSetTTL  = 10 * time.Minute
)

// Transport modes (metrics label values).
const (
	ModePolling   = "polling"
	ModeStreaming = "streaming"
)

// Log message constants
const (
	LogMsgConsumerStarted  = "event log consumer started"
	LogMsgConsumerStopped  = "event log consumer stopped"
	LogMsgTransportError   = "event log transport error, retrying"
	LogMsgStaleEventSkip   = "skipping event outside grace window"
	LogMsgOutOfOrderSkip   = "skipping out-of-order key"
	LogMsgSeededFromPut    = "seeded seen-set from initial snapshot"
	LogMsgDeliveredEvent   = "delivered spawn event"
	LogMsgSnapshotNotFound = "event log node absent"
)
