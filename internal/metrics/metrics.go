package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Ingestion Metrics
var (
	SpawnsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSpawnsPublished,
			Help: HelpTextSpawnsPublished,
		},
		[]string{LabelSource},
	)

	SpawnsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSpawnsSuppressed,
			Help: HelpTextSpawnsSuppressed,
		},
		[]string{LabelSource, LabelReason},
	)

	FeedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameFeedReconnects,
			Help: HelpTextFeedReconnects,
		},
	)
)

// Board Metrics
var (
	ScoresAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameScoresAwarded,
			Help: HelpTextScoresAwarded,
		},
		[]string{LabelSlot},
	)

	PointsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePointsAwarded,
			Help: HelpTextPointsAwarded,
		},
	)

	BodiesSpawned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameBodiesSpawned,
			Help: HelpTextBodiesSpawned,
		},
	)

	FrameDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameFrameDuration,
			Help:    HelpTextFrameDuration,
			Buckets: FrameDurationBuckets,
		},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsConsumed,
			Help: HelpTextEventsConsumed,
		},
		[]string{LabelMode},
	)
)
