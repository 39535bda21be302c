package tiktok

import "time"

// Connection constants
const (
	ReadBufferSize  = 4096
	WriteBufferSize = 4096

	// ReconnectDelayMin/Max bound the fixed jittered backoff between
	// reconnect attempts. Attempts are not capped: the client retries
	// indefinitely until stopped.
	ReconnectDelayMin = 5 * time.Second
	ReconnectDelayMax = 7 * time.Second

	// EventBufferSize bounds the normalized-event channel that decouples
	// the transport from the ingestion pump.
	EventBufferSize = 256
)

// Envelope types on the feed wire
const (
	EnvelopeChat = "chat"
	EnvelopeGift = "gift"
)

// Log message constants
const (
	LogMsgConnecting      = "Connecting to live feed"
	LogMsgConnected       = "Connected to live feed"
	LogMsgReconnecting    = "Live feed connection lost, retrying"
	LogMsgClientStopped   = "Live feed client stopped"
	LogMsgReadError       = "Live feed read error"
	LogMsgEventDropped    = "Feed event dropped, buffer full"
	LogMsgUnknownEnvelope = "Ignoring unknown feed envelope"
)
