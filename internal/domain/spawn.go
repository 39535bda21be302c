package domain

import (
	"fmt"
	"strings"
)

// MaxUsernameLength is the longest username stored on a spawn event.
const MaxUsernameLength = 24

// DefaultUsername is used when the upstream payload carries no usable name.
const DefaultUsername = "viewer"

// DropCommand is the recognized chat keyword that requests a drop.
const DropCommand = "!drop"

// SpawnEvent is the canonical, deduplicated record that authorizes creation
// of one or more simulated drop bodies. Events are append-only: once
// published they are never updated or deleted, and their keys sort
// lexicographically in chronological order.
type SpawnEvent struct {
	Key       string `json:"key"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Command   string `json:"command"`
	Timestamp int64  `json:"timestamp"` // server-assigned, unix millis
}

// ChatPayload is the upstream chat callback shape.
type ChatPayload struct {
	UniqueID          string `json:"uniqueId"`
	Nickname          string `json:"nickname"`
	ProfilePictureURL string `json:"profilePictureUrl"`
	Comment           string `json:"comment"`
}

// GiftPayload is the upstream gift callback shape. RepeatEnd, RepeatCount
// and RepeatStart are optional: their presence marks the gift as part of a
// streak combo.
type GiftPayload struct {
	UniqueID          string `json:"uniqueId"`
	Nickname          string `json:"nickname"`
	ProfilePictureURL string `json:"profilePictureUrl"`
	GiftName          string `json:"giftName"`
	DiamondCount      int    `json:"diamondCount"`
	RepeatEnd         *bool  `json:"repeatEnd,omitempty"`
	RepeatCount       int    `json:"repeatCount,omitempty"`
	RepeatStart       bool   `json:"repeatStart,omitempty"`
}

// IsStreak reports whether the payload belongs to a gift streak. A gift is
// part of a streak iff it carries the explicit repeat-terminator field or a
// positive repeat count; anything else is a single gift.
func (g GiftPayload) IsStreak() bool {
	return g.RepeatEnd != nil || g.RepeatCount > 0
}

// IsTerminated reports whether the terminator flag is explicitly set.
func (g GiftPayload) IsTerminated() bool {
	return g.RepeatEnd != nil && *g.RepeatEnd
}

// GiftCommand synthesizes the canonical command string for a gift.
func (g GiftPayload) GiftCommand() string {
	return fmt.Sprintf("gift:%s:%d", g.GiftName, g.DiamondCount)
}

// NormalizeUsername trims, truncates and defaults an upstream display name.
func NormalizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultUsername
	}
	if len(name) > MaxUsernameLength {
		name = name[:MaxUsernameLength]
	}
	return name
}
