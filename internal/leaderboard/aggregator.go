package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/event"
	"github.com/mkrencik/droppit/internal/logger"
	"github.com/mkrencik/droppit/internal/store"
	"github.com/mkrencik/droppit/internal/worker"
)

// keySanitizer maps characters forbidden in store key syntax to "_".
var keySanitizer = strings.NewReplacer(
	".", "_",
	"#", "_",
	"$", "_",
	"/", "_",
	"[", "_",
	"]", "_",
)

// SanitizeKey makes username safe to use as a store child key.
func SanitizeKey(username string) string {
	key := keySanitizer.Replace(strings.TrimSpace(username))
	if key == "" {
		return domain.DefaultUsername
	}
	return key
}

// Writer is the slice of the store client the aggregator needs.
type Writer interface {
	Patch(ctx context.Context, path string, fields interface{}) error
}

// Aggregator keeps the local leaderboard view and writes score changes
// back to the shared store asynchronously. Local accumulation never waits
// on, and is never rolled back by, the write-back path.
type Aggregator struct {
	writer Writer
	pool   *worker.Pool
	bus    event.Bus
	now    func() time.Time

	mu      sync.RWMutex
	entries domain.Leaderboard
}

// NewAggregator creates an aggregator writing back through writer. The
// pool must be started by the caller.
func NewAggregator(writer Writer, pool *worker.Pool, bus event.Bus) *Aggregator {
	return &Aggregator{
		writer:  writer,
		pool:    pool,
		bus:     bus,
		now:     time.Now,
		entries: make(domain.Leaderboard),
	}
}

// Award applies a local additive score update and enqueues an async
// partial write-back of the entry's absolute state. Implements the
// simulation loop's score sink.
func (a *Aggregator) Award(username, avatarURL string, slotIndex int, points int64) {
	key := SanitizeKey(username)
	now := a.now().UnixMilli()

	a.mu.Lock()
	entry := a.entries[key]
	entry.Username = username
	if avatarURL != "" {
		entry.AvatarURL = avatarURL
	}
	entry.Score += points
	entry.LastUpdate = now
	a.entries[key] = entry
	a.mu.Unlock()

	ctx := context.Background()
	if !a.pool.TryEnqueue(&writeBackJob{writer: a.writer, key: key, entry: entry}) {
		// The next award for this user carries the absolute score, so a
		// dropped update heals itself.
		logger.FromContext(ctx).Warn(LogMsgWriteBackDropped, "key", key)
	}

	if a.bus != nil {
		_ = a.bus.Publish(ctx, event.NewScoreAwardedEvent(username, slotIndex, points, entry.Score))
	}
}

// ApplySnapshot replaces the local view with an authoritative snapshot
// from the shared store. An empty or absent snapshot clears every local
// entry: the leaderboard was reset.
func (a *Aggregator) ApplySnapshot(ctx context.Context, snapshot domain.Leaderboard) {
	log := logger.FromContext(ctx)

	a.mu.Lock()
	if len(snapshot) == 0 {
		a.entries = make(domain.Leaderboard)
		log.Info(LogMsgLeaderboardCleared)
	} else {
		entries := make(domain.Leaderboard, len(snapshot))
		for key, entry := range snapshot {
			entries[key] = entry
		}
		a.entries = entries
		log.Debug(LogMsgSnapshotApplied, "entries", len(entries))
	}
	a.mu.Unlock()

	if a.bus != nil {
		_ = a.bus.Publish(ctx, event.NewLeaderboardSyncEvent(len(snapshot), len(snapshot) == 0))
	}
}

// ApplyPatch merges remote partial updates into the local view. Entries
// written back by other board instances arrive this way, as do stream
// echoes of this board's own write-backs.
func (a *Aggregator) ApplyPatch(ctx context.Context, fields domain.Leaderboard) {
	if len(fields) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	applied := 0
	for key, entry := range fields {
		// A local score regresses only through an authoritative snapshot
		// replace. A lower incoming absolute is a stale write-back echo.
		if local, ok := a.entries[key]; ok && entry.Score < local.Score {
			continue
		}
		a.entries[key] = entry
		applied++
	}
	logger.FromContext(ctx).Debug(LogMsgPatchApplied, "entries", applied, "received", len(fields))
}

// Score returns the local score for username.
func (a *Aggregator) Score(username string) int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.entries[SanitizeKey(username)].Score
}

// Snapshot copies the local leaderboard view.
func (a *Aggregator) Snapshot() domain.Leaderboard {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(domain.Leaderboard, len(a.entries))
	for key, entry := range a.entries {
		out[key] = entry
	}
	return out
}

// writeBackJob patches one entry's absolute state into the shared
// leaderboard node. Partial merge: other users' entries are untouched.
type writeBackJob struct {
	writer Writer
	key    string
	entry  domain.LeaderboardEntry
}

func (j *writeBackJob) Process(ctx context.Context) error {
	fields := map[string]domain.LeaderboardEntry{j.key: j.entry}
	if err := j.writer.Patch(ctx, store.PathLeaderboard, fields); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgWriteBackFailed, err)
	}
	return nil
}
