package ingest

import (
	"sync/atomic"
	"time"

	"github.com/mkrencik/droppit/internal/cooldown"
	"github.com/mkrencik/droppit/internal/streak"
)

// Settings is the runtime-tunable control state shared between the ingestion
// pipeline and the admin surface. All fields are safe for concurrent access.
type Settings struct {
	spawnEnabled atomic.Bool
	mode         atomic.Value // streak.Mode
	tracker      *cooldown.Tracker
}

// NewSettings creates settings with the given initial state. The tracker is
// owned by the caller and shared with the ingestion service.
func NewSettings(spawnEnabled bool, mode streak.Mode, tracker *cooldown.Tracker) *Settings {
	s := &Settings{tracker: tracker}
	s.spawnEnabled.Store(spawnEnabled)
	s.mode.Store(mode)
	return s
}

// SpawnEnabled reports whether publishing is globally enabled.
func (s *Settings) SpawnEnabled() bool {
	return s.spawnEnabled.Load()
}

// SetSpawnEnabled toggles the global spawn gate.
func (s *Settings) SetSpawnEnabled(enabled bool) {
	s.spawnEnabled.Store(enabled)
}

// StreakMode returns the active gift-streak policy.
func (s *Settings) StreakMode() streak.Mode {
	return s.mode.Load().(streak.Mode)
}

// SetStreakMode updates the gift-streak policy.
func (s *Settings) SetStreakMode(mode streak.Mode) {
	s.mode.Store(mode)
}

// CooldownWindow returns the current per-user cooldown window.
func (s *Settings) CooldownWindow() time.Duration {
	return s.tracker.Window()
}

// SetCooldownWindow updates the per-user cooldown window.
func (s *Settings) SetCooldownWindow(window time.Duration) {
	s.tracker.SetWindow(window)
}

// Status is the read-only snapshot served by the health/status surface.
type Status struct {
	SpawnEnabled bool   `json:"spawnEnabled"`
	CooldownMs   int64  `json:"cooldownMs"`
	StreakMode   string `json:"streakMode"`
}

// Snapshot returns the current control state.
func (s *Settings) Snapshot() Status {
	return Status{
		SpawnEnabled: s.SpawnEnabled(),
		CooldownMs:   s.CooldownWindow().Milliseconds(),
		StreakMode:   string(s.StreakMode()),
	}
}
