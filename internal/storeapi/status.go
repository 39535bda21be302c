package storeapi

import (
	"net/http"

	"github.com/mkrencik/droppit/internal/ingest"
)

// HandleStatus serves the read-only control-state snapshot.
func HandleStatus(settings *ingest.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, settings.Snapshot())
	}
}
