package sse

import "time"

// Buffer sizes
const (
	// BroadcastBufferSize is the buffer size for the broadcast channel
	BroadcastBufferSize = 100

	// ClientEventBuffer is the buffer size for each client's event channel
	ClientEventBuffer = 50

	// ClientChannelBuffer is the buffer size for register/unregister channels
	ClientChannelBuffer = 10
)

// SSE connection settings
const (
	// KeepaliveInterval is how often to send keepalive pings
	KeepaliveInterval = 30 * time.Second
)

// Stream event types beyond the store change kinds.
const (
	// EventTypeKeepalive is the keepalive ping event type; clients skip it.
	EventTypeKeepalive = "keepalive"
)

// NodeAdmin is the pseudo-node carrying internal bus events for the admin
// live feed; it is not a store path.
const NodeAdmin = "admin"

// Log messages
const (
	LogMsgClientConnected    = "stream client connected"
	LogMsgClientDisconnected = "stream client disconnected"
	LogMsgSnapshotFailed     = "failed to load initial snapshot for stream"
	LogMsgWriteError         = "failed to write stream event"
)
