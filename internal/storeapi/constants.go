package storeapi

// Error messages returned to API callers.
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgValidationFailed   = "Validation failed"
	ErrMsgStoreUnavailable   = "Store operation failed"
	ErrMsgNotFound           = "Not found"
	ErrMsgInvalidStreakMode  = "streakMode must be one of repeatEnd, first, every"
)

// Log message constants
const (
	LogMsgEventAppended      = "spawn event appended"
	LogMsgLeaderboardPatched = "leaderboard patched"
	LogMsgLeaderboardReplace = "leaderboard replaced"
	LogMsgLeaderboardReset   = "leaderboard reset"
	LogMsgSpawnGateChanged   = "spawn gate changed"
	LogMsgCooldownChanged    = "cooldown window changed"
	LogMsgStreakModeChanged  = "streak mode changed"
	LogMsgStoreReadFailed    = "store read failed"
	LogMsgStoreWriteFailed   = "store write failed"
)
