package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mkrencik/droppit/internal/store"
)

// SnapshotFunc loads the current full value of a node for the initial put
// frame. A null/absent node returns (nil, nil).
type SnapshotFunc func(ctx context.Context, node string) (json.RawMessage, error)

// Handler returns an HTTP handler for store change streams. The client
// names the node via ?path=; the response opens with a full put of the
// node, then carries incremental put/patch frames.
func Handler(hub *Hub, snapshot SnapshotFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		node := strings.Trim(r.URL.Query().Get("path"), "/")
		if node == "" || strings.Contains(node, "/") {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Register before the snapshot read so no change falls between
		// snapshot and subscription. The client dedups any overlap.
		client := hub.Register(node)
		slog.Info(LogMsgClientConnected,
			"client_id", client.ID,
			"node", node,
			"total_clients", hub.ClientCount())

		defer func() {
			hub.Unregister(client.ID)
			slog.Info(LogMsgClientDisconnected,
				"client_id", client.ID,
				"total_clients", hub.ClientCount())
		}()

		data, err := snapshot(r.Context(), node)
		if err != nil {
			slog.Error(LogMsgSnapshotFailed, "node", node, "error", err)
			return
		}
		if data == nil {
			data = json.RawMessage("null")
		}

		initial, err := json.Marshal(store.Change{Kind: store.ChangePut, Path: "/", Data: data})
		if err != nil {
			return
		}
		if _, err := w.Write(FormatSSEMessage(Event{
			ID:   client.ID,
			Type: string(store.ChangePut),
			Node: node,
			Data: initial,
		})); err != nil {
			return
		}
		flusher.Flush()

		ticker := time.NewTicker(KeepaliveInterval)
		defer ticker.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-client.EventChannel:
				if !ok {
					// Hub is shutting down
					return
				}
				if _, err := w.Write(FormatSSEMessage(event)); err != nil {
					slog.Warn(LogMsgWriteError, "client_id", client.ID, "error", err)
					return
				}
				flusher.Flush()

			case <-ticker.C:
				keepalive := Event{Type: EventTypeKeepalive, Node: node, Data: json.RawMessage("{}")}
				if _, err := w.Write(FormatSSEMessage(keepalive)); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
