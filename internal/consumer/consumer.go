package consumer

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/logger"
	"github.com/mkrencik/droppit/internal/metrics"
	"github.com/mkrencik/droppit/internal/store"
)

// Handler receives each delivered spawn event exactly once per consumer
// lifetime, in increasing key order. Handlers must not block: they run on
// the transport goroutine and should only enqueue work.
type Handler func(key string, evt domain.SpawnEvent)

// Source abstracts the shared log's read contract so both transports can be
// exercised against fakes.
type Source interface {
	// Snapshot fetches the full log node. An absent node yields an empty
	// map.
	Snapshot(ctx context.Context) (map[string]domain.SpawnEvent, error)

	// Stream blocks delivering put/patch changes until error or cancel.
	Stream(ctx context.Context, onChange func(store.Change)) error
}

// Config tunes a consumer.
type Config struct {
	PollInterval  time.Duration
	RetryInterval time.Duration
	GraceWindow   time.Duration
}

// DefaultConfig returns the standard consumer tuning.
func DefaultConfig() Config {
	return Config{
		PollInterval:  DefaultPollInterval,
		RetryInterval: DefaultRetryInterval,
		GraceWindow:   GraceWindow,
	}
}

// Consumer delivers spawn events from the shared log with at-most-once
// semantics per key. Duplicate suppression combines a bounded
// trailing-window seen-set with a monotonic last-delivered-key guard, so
// seen-set eviction can never cause re-delivery.
type Consumer struct {
	source  Source
	handler Handler
	config  Config

	mu      sync.Mutex
	seen    *expirable.LRU[string, struct{}]
	lastKey string
	seeded  bool

	start time.Time
	now   func() time.Time
}

// New creates a consumer over source, delivering to handler.
func New(source Source, handler Handler, config Config) *Consumer {
	c := &Consumer{
		source:  source,
		handler: handler,
		config:  config,
		seen:    expirable.NewLRU[string, struct{}](SeenSetSize, nil, SeenSetTTL),
		now:     time.Now,
	}
	c.start = c.now()
	return c
}

// RunPolling periodically fetches the full log snapshot and delivers any
// key greater than the highest previously-seen key. Transport errors are
// retried silently on a fixed interval.
func (c *Consumer) RunPolling(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgConsumerStarted, "mode", ModePolling)
	defer log.Info(LogMsgConsumerStopped, "mode", ModePolling)

	interval := c.config.PollInterval
	for {
		snapshot, err := c.source.Snapshot(ctx)
		if err != nil {
			log.Warn(LogMsgTransportError, "mode", ModePolling, "error", err)
			interval = c.config.RetryInterval
		} else {
			c.deliverSnapshot(ctx, snapshot, ModePolling)
			interval = c.config.PollInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// RunStreaming consumes incremental put/patch notifications. The first full
// put on the root path of a fresh consumer seeds the seen-set; later root
// puts (reconnects) deliver unseen keys so missed events are caught up.
func (c *Consumer) RunStreaming(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgConsumerStarted, "mode", ModeStreaming)
	defer log.Info(LogMsgConsumerStopped, "mode", ModeStreaming)

	for {
		err := c.source.Stream(ctx, func(change store.Change) {
			c.handleChange(ctx, change)
		})
		if err != nil {
			log.Warn(LogMsgTransportError, "mode", ModeStreaming, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.config.RetryInterval):
		}
	}
}

func (c *Consumer) handleChange(ctx context.Context, change store.Change) {
	log := logger.FromContext(ctx)

	if change.Path == "" || change.Path == "/" {
		var snapshot map[string]domain.SpawnEvent
		if err := json.Unmarshal(change.Data, &snapshot); err != nil {
			log.Debug(LogMsgTransportError, "mode", ModeStreaming, "error", err)
			return
		}

		c.mu.Lock()
		fresh := !c.seeded
		c.seeded = true
		c.mu.Unlock()

		if fresh {
			c.seedFrom(snapshot)
			log.Debug(LogMsgSeededFromPut, "keys", len(snapshot))
			return
		}
		c.deliverSnapshot(ctx, snapshot, ModeStreaming)
		return
	}

	var evt domain.SpawnEvent
	if err := json.Unmarshal(change.Data, &evt); err != nil {
		log.Debug(LogMsgTransportError, "mode", ModeStreaming, "error", err)
		return
	}
	c.deliver(ctx, strings.TrimPrefix(change.Path, "/"), evt, ModeStreaming, false)
}

// seedFrom marks every key in snapshot as seen without delivering.
func (c *Consumer) seedFrom(snapshot map[string]domain.SpawnEvent) {
	keys := sortedKeys(snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.seen.Add(k, struct{}{})
		if k > c.lastKey {
			c.lastKey = k
		}
	}
}

func (c *Consumer) deliverSnapshot(ctx context.Context, snapshot map[string]domain.SpawnEvent, mode string) {
	for _, k := range sortedKeys(snapshot) {
		c.deliver(ctx, k, snapshot[k], mode, true)
	}
	c.mu.Lock()
	c.seeded = true
	c.mu.Unlock()
}

// deliver applies the idempotent consumption contract for one key.
func (c *Consumer) deliver(ctx context.Context, key string, evt domain.SpawnEvent, mode string, fromSnapshot bool) {
	log := logger.FromContext(ctx)

	c.mu.Lock()
	if _, dup := c.seen.Get(key); dup {
		c.mu.Unlock()
		return
	}
	if key <= c.lastKey {
		// An unseen key below the high-water mark is normally a replayed
		// duplicate. A complete snapshot is the one place a frame dropped
		// by the stream can resurface, so recover it there. Keys old
		// enough to have aged out of the seen-set were already delivered
		// and stay suppressed.
		recoverable := fromSnapshot && evt.Timestamp > 0 &&
			time.UnixMilli(evt.Timestamp).After(c.now().Add(-SeenSetTTL))
		if !recoverable {
			c.mu.Unlock()
			log.Debug(LogMsgOutOfOrderSkip, "key", key, "last_key", c.lastKey)
			return
		}
	}

	// Reject events from well before this consumer started: replays on
	// (re)connect must not flood the board.
	if evt.Timestamp > 0 && time.UnixMilli(evt.Timestamp).Before(c.start.Add(-c.config.GraceWindow)) {
		c.seen.Add(key, struct{}{})
		if key > c.lastKey {
			c.lastKey = key
		}
		c.mu.Unlock()
		log.Debug(LogMsgStaleEventSkip, "key", key, "timestamp", evt.Timestamp)
		return
	}

	c.seen.Add(key, struct{}{})
	if key > c.lastKey {
		c.lastKey = key
	}
	c.mu.Unlock()

	metrics.EventsConsumed.WithLabelValues(mode).Inc()
	log.Debug(LogMsgDeliveredEvent, "key", key, "username", evt.Username)
	c.handler(key, evt)
}

func sortedKeys(snapshot map[string]domain.SpawnEvent) []string {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
