package cooldown

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tracker is a per-username rate limiter. An event for a username is allowed
// iff at least the configured window has elapsed since that username's last
// allowed event. The window is runtime-tunable and shared process-wide.
//
// Tracker is an injected dependency owned by the ingestion service, not a
// package-level singleton, so isolated instances can coexist in tests.
type Tracker struct {
	mu       sync.Mutex
	lastSeen map[string]int64 // username -> unix millis of last allowed event
	windowMs atomic.Int64
}

// NewTracker creates a tracker with the given initial window.
func NewTracker(window time.Duration) *Tracker {
	t := &Tracker{
		lastSeen: make(map[string]int64),
	}
	t.SetWindow(window)
	return t
}

// Allow reports whether an event from username at now is allowed, and if so
// records now as the username's new last-seen time. The check-and-set is
// atomic per username with respect to concurrent callers. Unknown usernames
// are always allowed on first sight. A suppressed call leaves state
// unchanged.
func (t *Tracker) Allow(username string, now time.Time) bool {
	nowMs := now.UnixMilli()
	window := t.windowMs.Load()

	t.mu.Lock()
	defer t.mu.Unlock()

	last, seen := t.lastSeen[username]
	if seen && nowMs-last < window {
		return false
	}
	t.lastSeen[username] = nowMs
	return true
}

// SetWindow updates the cooldown window. Negative durations clamp to zero.
func (t *Tracker) SetWindow(window time.Duration) {
	if window < 0 {
		window = 0
	}
	t.windowMs.Store(window.Milliseconds())
}

// Window returns the current cooldown window.
func (t *Tracker) Window() time.Duration {
	return time.Duration(t.windowMs.Load()) * time.Millisecond
}

// Reset forgets a username's last-seen time (admin/testing).
func (t *Tracker) Reset(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSeen, username)
}
