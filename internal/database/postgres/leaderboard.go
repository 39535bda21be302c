package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/storeapi"
)

type leaderboardRepository struct {
	db *pgxpool.Pool
}

// NewLeaderboardRepository creates a new PostgreSQL leaderboard repository
func NewLeaderboardRepository(db *pgxpool.Pool) storeapi.LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

// Snapshot returns all entries keyed by sanitized username.
func (r *leaderboardRepository) Snapshot(ctx context.Context) (domain.Leaderboard, error) {
	query := `
		SELECT entry_key, username, avatar_url, score, last_update
		FROM leaderboard
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadLeaderboard, err)
	}
	defer rows.Close()

	board := make(domain.Leaderboard)
	for rows.Next() {
		var key string
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&key, &entry.Username, &entry.AvatarURL, &entry.Score, &entry.LastUpdate); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadLeaderboard, err)
		}
		board[key] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadLeaderboard, err)
	}
	return board, nil
}

// Get returns the entry at key, or nil when absent.
func (r *leaderboardRepository) Get(ctx context.Context, key string) (*domain.LeaderboardEntry, error) {
	query := `
		SELECT username, avatar_url, score, last_update
		FROM leaderboard
		WHERE entry_key = $1
	`

	var entry domain.LeaderboardEntry
	err := r.db.QueryRow(ctx, query, key).Scan(&entry.Username, &entry.AvatarURL, &entry.Score, &entry.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadLeaderboard, err)
	}
	return &entry, nil
}

// Upsert merges entries into the leaderboard. Last write wins per key.
func (r *leaderboardRepository) Upsert(ctx context.Context, entries domain.Leaderboard) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO leaderboard (entry_key, username, avatar_url, score, last_update)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entry_key) DO UPDATE SET
			username = EXCLUDED.username,
			avatar_url = EXCLUDED.avatar_url,
			score = EXCLUDED.score,
			last_update = EXCLUDED.last_update
	`

	batch := &pgx.Batch{}
	for key, entry := range entries {
		batch.Queue(query, key, entry.Username, entry.AvatarURL, entry.Score, entry.LastUpdate)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToUpsertEntries, err)
		}
	}
	return nil
}

// Replace swaps the whole node for entries inside one transaction.
func (r *leaderboardRepository) Replace(ctx context.Context, entries domain.Leaderboard) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM leaderboard`); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToReplaceEntries, err)
	}

	query := `
		INSERT INTO leaderboard (entry_key, username, avatar_url, score, last_update)
		VALUES ($1, $2, $3, $4, $5)
	`
	for key, entry := range entries {
		if _, err := tx.Exec(ctx, query, key, entry.Username, entry.AvatarURL, entry.Score, entry.LastUpdate); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToReplaceEntries, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToReplaceEntries, err)
	}
	return nil
}
