package metrics

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "droppit_http_requests_total"
	MetricNameHTTPRequestDuration  = "droppit_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "droppit_http_requests_in_flight"
)

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Number of HTTP requests currently being served"
)

// Ingestion metric names
const (
	MetricNameSpawnsPublished  = "droppit_spawns_published_total"
	MetricNameSpawnsSuppressed = "droppit_spawns_suppressed_total"
	MetricNameFeedReconnects   = "droppit_feed_reconnects_total"
)

// Ingestion metric help text
const (
	HelpTextSpawnsPublished  = "Spawn events appended to the shared log"
	HelpTextSpawnsSuppressed = "Upstream events suppressed before publish"
	HelpTextFeedReconnects   = "Reconnection attempts to the upstream live feed"
)

// Board metric names
const (
	MetricNameScoresAwarded  = "droppit_scores_awarded_total"
	MetricNamePointsAwarded  = "droppit_points_awarded_total"
	MetricNameBodiesSpawned  = "droppit_bodies_spawned_total"
	MetricNameFrameDuration  = "droppit_frame_duration_seconds"
	MetricNameEventsConsumed = "droppit_log_events_consumed_total"
)

// Board metric help text
const (
	HelpTextScoresAwarded  = "Slot scoring transitions"
	HelpTextPointsAwarded  = "Points credited to the local leaderboard"
	HelpTextBodiesSpawned  = "Simulation bodies created from spawn events"
	HelpTextFrameDuration  = "Simulation frame cost in seconds"
	HelpTextEventsConsumed = "Spawn-event keys delivered by the log consumer"
)

// Metric labels
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelSource = "source"
	LabelReason = "reason"
	LabelSlot   = "slot"
	LabelMode   = "mode" // consumer transport: polling or streaming
)

// HTTPLatencyBuckets covers the expected latency range of the store API.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// FrameDurationBuckets brackets the 16.7ms step budget.
var FrameDurationBuckets = []float64{.001, .004, .008, .0167, .033, .05, .1, .2, .5}

// Log messages
const (
	LogMsgMetricsRecorded = "metrics recorded for event"
)
