package storeapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mkrencik/droppit/internal/ingest"
	"github.com/mkrencik/droppit/internal/logger"
	"github.com/mkrencik/droppit/internal/sse"
	"github.com/mkrencik/droppit/internal/streak"
)

// SpawnGateRequest toggles the global spawn gate.
type SpawnGateRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// CooldownRequest sets the per-user cooldown window.
type CooldownRequest struct {
	CooldownMs *int64 `json:"cooldownMs" validate:"required,gte=0"`
}

// StreakModeRequest sets the gift-streak arbitration policy.
type StreakModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=repeatEnd first every"`
}

// HandleSetSpawnGate toggles spawn publishing (admin only).
func HandleSetSpawnGate(settings *ingest.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req SpawnGateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		settings.SetSpawnEnabled(*req.Enabled)
		log.Info(LogMsgSpawnGateChanged, "enabled", *req.Enabled)

		respondJSON(w, http.StatusOK, settings.Snapshot())
	}
}

// HandleSetCooldown sets the cooldown window in milliseconds (admin only).
func HandleSetCooldown(settings *ingest.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req CooldownRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		settings.SetCooldownWindow(time.Duration(*req.CooldownMs) * time.Millisecond)
		log.Info(LogMsgCooldownChanged, "cooldown_ms", *req.CooldownMs)

		respondJSON(w, http.StatusOK, settings.Snapshot())
	}
}

// HandleSetStreakMode sets the gift-streak policy (admin only).
func HandleSetStreakMode(settings *ingest.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req StreakModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		mode, err := streak.ParseMode(req.Mode)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidStreakMode)
			return
		}

		settings.SetStreakMode(mode)
		log.Info(LogMsgStreakModeChanged, "mode", string(mode))

		respondJSON(w, http.StatusOK, settings.Snapshot())
	}
}

// HandleResetLeaderboard clears the shared leaderboard node (admin only).
// Watchers receive an authoritative null put and drop their local views.
func HandleResetLeaderboard(repo LeaderboardRepository, hub *sse.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		if err := replaceLeaderboard(ctx, repo, hub, nil); err != nil {
			log.Error(LogMsgStoreWriteFailed, "node", "leaderboard", "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgStoreUnavailable)
			return
		}

		log.Info(LogMsgLeaderboardReset)
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Leaderboard reset"})
	}
}
