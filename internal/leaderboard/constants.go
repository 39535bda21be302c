package leaderboard

const (
	// WriteBackWorkers and WriteBackQueueSize size the async write-back
	// pool. Failed or dropped write-backs reconverge on the next award or
	// snapshot refresh.
	WriteBackWorkers   = 2
	WriteBackQueueSize = 128
)

// Log message constants
const (
	LogMsgWriteBackDropped   = "leaderboard write-back queue full, dropping update"
	LogMsgSnapshotApplied    = "leaderboard snapshot applied"
	LogMsgPatchApplied       = "leaderboard patch applied"
	LogMsgLeaderboardCleared = "leaderboard cleared by empty snapshot"
)

// Error message constants
const (
	ErrMsgWriteBackFailed = "leaderboard write-back failed"
)
