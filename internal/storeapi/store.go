package storeapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/logger"
	"github.com/mkrencik/droppit/internal/sse"
	"github.com/mkrencik/droppit/internal/store"
)

// AppendEventRequest is the POST body for the spawn-event log. Key and
// timestamp are server-assigned and ignored if supplied.
type AppendEventRequest struct {
	Username  string `json:"username" validate:"required,max=24"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,max=2048"`
	Command   string `json:"command" validate:"required,max=256"`
}

// AppendEventResponse carries the generated key, mirroring the store's
// POST contract.
type AppendEventResponse struct {
	Name string `json:"name"`
}

// HandleGetEvents serves the full spawn-event log, null when empty.
func HandleGetEvents(repo EventLogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		snapshot, err := repo.Snapshot(r.Context())
		if err != nil {
			log.Error(LogMsgStoreReadFailed, "node", store.PathEvents, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgStoreUnavailable)
			return
		}
		if len(snapshot) == 0 {
			respondRaw(w, http.StatusOK, nil)
			return
		}
		respondJSON(w, http.StatusOK, snapshot)
	}
}

// HandleGetEvent serves one event by key, null when absent.
func HandleGetEvent(repo EventLogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		evt, err := repo.Get(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			log.Error(LogMsgStoreReadFailed, "node", store.PathEvents, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgStoreUnavailable)
			return
		}
		if evt == nil {
			respondRaw(w, http.StatusOK, nil)
			return
		}
		respondJSON(w, http.StatusOK, evt)
	}
}

// HandleAppendEvent appends one spawn event and notifies stream watchers.
func HandleAppendEvent(repo EventLogRepository, hub *sse.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		var req AppendEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		evt, err := repo.Append(ctx, domain.SpawnEvent{
			Username:  domain.NormalizeUsername(req.Username),
			AvatarURL: req.AvatarURL,
			Command:   req.Command,
		})
		if err != nil {
			log.Error(LogMsgStoreWriteFailed, "node", store.PathEvents, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgStoreUnavailable)
			return
		}

		log.Info(LogMsgEventAppended, "key", evt.Key, "username", evt.Username, "command", evt.Command)

		if data, err := json.Marshal(evt); err == nil {
			hub.BroadcastChange(store.PathEvents, store.ChangePut, "/"+evt.Key, data)
		}

		respondJSON(w, http.StatusOK, AppendEventResponse{Name: evt.Key})
	}
}

// HandleGetLeaderboard serves the full leaderboard node, null when empty.
func HandleGetLeaderboard(repo LeaderboardRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		board, err := repo.Snapshot(r.Context())
		if err != nil {
			log.Error(LogMsgStoreReadFailed, "node", store.PathLeaderboard, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgStoreUnavailable)
			return
		}
		if len(board) == 0 {
			respondRaw(w, http.StatusOK, nil)
			return
		}
		respondJSON(w, http.StatusOK, board)
	}
}

// HandleGetLeaderboardEntry serves one entry by key, null when absent.
func HandleGetLeaderboardEntry(repo LeaderboardRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		entry, err := repo.Get(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			log.Error(LogMsgStoreReadFailed, "node", store.PathLeaderboard, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgStoreUnavailable)
			return
		}
		if entry == nil {
			respondRaw(w, http.StatusOK, nil)
			return
		}
		respondJSON(w, http.StatusOK, entry)
	}
}

// HandlePatchLeaderboard merges entries into the leaderboard node.
func HandlePatchLeaderboard(repo LeaderboardRepository, hub *sse.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		var entries domain.Leaderboard
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := repo.Upsert(ctx, entries); err != nil {
			log.Error(LogMsgStoreWriteFailed, "node", store.PathLeaderboard, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgStoreUnavailable)
			return
		}

		log.Debug(LogMsgLeaderboardPatched, "entries", len(entries))

		if data, err := json.Marshal(entries); err == nil {
			hub.BroadcastChange(store.PathLeaderboard, store.ChangePatch, "/", data)
		}

		respondJSON(w, http.StatusOK, entries)
	}
}

// HandlePutLeaderboard replaces the whole leaderboard node. An empty or
// null body clears it.
func HandlePutLeaderboard(repo LeaderboardRepository, hub *sse.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		var entries domain.Leaderboard
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := replaceLeaderboard(ctx, repo, hub, entries); err != nil {
			log.Error(LogMsgStoreWriteFailed, "node", store.PathLeaderboard, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgStoreUnavailable)
			return
		}

		log.Info(LogMsgLeaderboardReplace, "entries", len(entries))
		respondJSON(w, http.StatusOK, entries)
	}
}

// replaceLeaderboard swaps the node and broadcasts the authoritative full
// put. Shared with the admin reset path.
func replaceLeaderboard(ctx context.Context, repo LeaderboardRepository, hub *sse.Hub, entries domain.Leaderboard) error {
	if err := repo.Replace(ctx, entries); err != nil {
		return err
	}

	data := json.RawMessage("null")
	if len(entries) > 0 {
		marshaled, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		data = marshaled
	}
	hub.BroadcastChange(store.PathLeaderboard, store.ChangePut, "/", data)
	return nil
}

// NewSnapshotFunc adapts the repositories into the stream handler's
// initial-snapshot loader.
func NewSnapshotFunc(events EventLogRepository, board LeaderboardRepository) sse.SnapshotFunc {
	return func(ctx context.Context, node string) (json.RawMessage, error) {
		switch node {
		case store.PathEvents:
			snapshot, err := events.Snapshot(ctx)
			if err != nil || len(snapshot) == 0 {
				return nil, err
			}
			return json.Marshal(snapshot)
		case store.PathLeaderboard:
			snapshot, err := board.Snapshot(ctx)
			if err != nil || len(snapshot) == 0 {
				return nil, err
			}
			return json.Marshal(snapshot)
		case sse.NodeAdmin:
			// The admin feed has no backing node; it starts empty.
			return nil, nil
		default:
			return nil, domain.ErrStoreNotFound
		}
	}
}
