package postgres

// EventKeyFormat renders a bigserial event id as a fixed-width key so
// lexicographic order matches append order.
const EventKeyFormat = "%012d"

// Error Messages - Store Repositories
const (
	ErrMsgFailedToAppendEvent      = "failed to append spawn event"
	ErrMsgFailedToLoadEvents       = "failed to load spawn events"
	ErrMsgFailedToLoadLeaderboard  = "failed to load leaderboard"
	ErrMsgFailedToUpsertEntries    = "failed to upsert leaderboard entries"
	ErrMsgFailedToReplaceEntries   = "failed to replace leaderboard"
	ErrMsgFailedToBeginTransaction = "failed to begin transaction"
)
