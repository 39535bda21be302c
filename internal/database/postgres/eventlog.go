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

type eventLogRepository struct {
	db *pgxpool.Pool
}

// NewEventLogRepository creates a new PostgreSQL spawn-event log repository
func NewEventLogRepository(db *pgxpool.Pool) storeapi.EventLogRepository {
	return &eventLogRepository{db: db}
}

// Append stores one spawn event. The key comes from a bigserial id, the
// timestamp from the database clock, so all writers share one ordering.
func (r *eventLogRepository) Append(ctx context.Context, evt domain.SpawnEvent) (domain.SpawnEvent, error) {
	query := `
		INSERT INTO spawn_events (username, avatar_url, command, ts)
		VALUES ($1, $2, $3, (EXTRACT(EPOCH FROM clock_timestamp()) * 1000)::BIGINT)
		RETURNING event_id, ts
	`

	var id int64
	err := r.db.QueryRow(ctx, query, evt.Username, evt.AvatarURL, evt.Command).Scan(&id, &evt.Timestamp)
	if err != nil {
		return domain.SpawnEvent{}, fmt.Errorf("%s: %w", ErrMsgFailedToAppendEvent, err)
	}

	evt.Key = fmt.Sprintf(EventKeyFormat, id)
	return evt, nil
}

// Snapshot returns the full log keyed by event key.
func (r *eventLogRepository) Snapshot(ctx context.Context) (map[string]domain.SpawnEvent, error) {
	query := `
		SELECT event_id, username, avatar_url, command, ts
		FROM spawn_events
		ORDER BY event_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadEvents, err)
	}
	defer rows.Close()

	snapshot := make(map[string]domain.SpawnEvent)
	for rows.Next() {
		var id int64
		var evt domain.SpawnEvent
		if err := rows.Scan(&id, &evt.Username, &evt.AvatarURL, &evt.Command, &evt.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadEvents, err)
		}
		evt.Key = fmt.Sprintf(EventKeyFormat, id)
		snapshot[evt.Key] = evt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadEvents, err)
	}
	return snapshot, nil
}

// Get returns the event at key, or nil when absent or malformed.
func (r *eventLogRepository) Get(ctx context.Context, key string) (*domain.SpawnEvent, error) {
	var id int64
	if _, err := fmt.Sscanf(key, EventKeyFormat, &id); err != nil {
		return nil, nil
	}

	query := `
		SELECT username, avatar_url, command, ts
		FROM spawn_events
		WHERE event_id = $1
	`

	evt := domain.SpawnEvent{Key: key}
	err := r.db.QueryRow(ctx, query, id).Scan(&evt.Username, &evt.AvatarURL, &evt.Command, &evt.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadEvents, err)
	}
	return &evt, nil
}
