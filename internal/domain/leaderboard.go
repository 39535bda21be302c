package domain

// LeaderboardEntry is one row of the shared leaderboard. Score is additive
// from the simulation's perspective; AvatarURL and LastUpdate are
// last-writer-wins.
type LeaderboardEntry struct {
	Username   string `json:"username"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	Score      int64  `json:"score"`
	LastUpdate int64  `json:"lastUpdate"` // unix millis
}

// Leaderboard is the shared-store node shape: entries keyed by sanitized
// username.
type Leaderboard map[string]LeaderboardEntry
