package streak

import (
	"fmt"
	"strings"

	"github.com/mkrencik/droppit/internal/domain"
)

// Mode selects when a gift streak yields a spawn.
type Mode string

const (
	// ModeRepeatEnd spawns once per completed streak, at the terminator
	// payload. This is the default: combo-gift spam produces exactly one
	// spawn per physical combo.
	ModeRepeatEnd Mode = "repeatEnd"

	// ModeFirst spawns on the first observed repeat of a streak.
	ModeFirst Mode = "first"

	// ModeEvery spawns on every observed payload of a streak.
	ModeEvery Mode = "every"
)

// DefaultMode is the policy used when none is configured.
const DefaultMode = ModeRepeatEnd

// ParseMode resolves a mode string case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "repeatend", "":
		return ModeRepeatEnd, nil
	case "first":
		return ModeFirst, nil
	case "every":
		return ModeEvery, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidMode, s)
	}
}

// ShouldSpawn decides whether a gift payload yields a spawn under mode.
//
// Single (non-streak) gifts always spawn, bypassing the mode policy.
// A streak that never reports a terminator never spawns under ModeRepeatEnd;
// that is a dropped event, not an error.
func ShouldSpawn(gift domain.GiftPayload, mode Mode) bool {
	if !gift.IsStreak() {
		return true
	}

	switch mode {
	case ModeEvery:
		return true
	case ModeFirst:
		// First observed repeat, or a streak whose only payload already
		// signals termination (terminator set with no count ticked yet).
		return gift.RepeatStart || gift.RepeatCount <= 1
	default: // ModeRepeatEnd
		return gift.IsTerminated()
	}
}
