package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/sse"
	"github.com/mkrencik/droppit/internal/store"
)

type fakeEventLog struct {
	mu     sync.Mutex
	nextID int64
	events map[string]domain.SpawnEvent
}

func newFakeEventLog() *fakeEventLog {
	return &fakeEventLog{events: make(map[string]domain.SpawnEvent)}
}

func (f *fakeEventLog) Append(_ context.Context, evt domain.SpawnEvent) (domain.SpawnEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	evt.Key = fmt.Sprintf("%012d", f.nextID)
	evt.Timestamp = time.Now().UnixMilli()
	f.events[evt.Key] = evt
	return evt, nil
}

func (f *fakeEventLog) Snapshot(_ context.Context) (map[string]domain.SpawnEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.SpawnEvent, len(f.events))
	for k, v := range f.events {
		out[k] = v
	}
	return out, nil
}

func (f *fakeEventLog) Get(_ context.Context, key string) (*domain.SpawnEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if evt, ok := f.events[key]; ok {
		return &evt, nil
	}
	return nil, nil
}

type fakeLeaderboard struct {
	mu      sync.Mutex
	entries domain.Leaderboard
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{entries: make(domain.Leaderboard)}
}

func (f *fakeLeaderboard) Snapshot(_ context.Context) (domain.Leaderboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(domain.Leaderboard, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out, nil
}

func (f *fakeLeaderboard) Get(_ context.Context, key string) (*domain.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.entries[key]; ok {
		return &entry, nil
	}
	return nil, nil
}

func (f *fakeLeaderboard) Upsert(_ context.Context, entries domain.Leaderboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range entries {
		f.entries[k] = v
	}
	return nil
}

func (f *fakeLeaderboard) Replace(_ context.Context, entries domain.Leaderboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(domain.Leaderboard, len(entries))
	for k, v := range entries {
		f.entries[k] = v
	}
	return nil
}

func newTestHub(t *testing.T) *sse.Hub {
	t.Helper()
	hub := sse.NewHub()
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func TestHandleAppendEventAssignsKeyAndBroadcasts(t *testing.T) {
	repo := newFakeEventLog()
	hub := newTestHub(t)
	watcher := hub.Register(store.PathEvents)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	body := bytes.NewBufferString(`{"username":"alice","avatarUrl":"","command":"!drop"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/store/events", body)
	rec := httptest.NewRecorder()
	HandleAppendEvent(repo, hub)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AppendEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "000000000001", resp.Name)

	select {
	case evt := <-watcher.EventChannel:
		var change store.Change
		require.NoError(t, json.Unmarshal(evt.Data, &change))
		assert.Equal(t, store.ChangePut, change.Kind)
		assert.Equal(t, "/000000000001", change.Path)
	case <-time.After(time.Second):
		t.Fatal("expected broadcast to events watchers")
	}
}

func TestHandleAppendEventValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing username", body: `{"command":"!drop"}`},
		{name: "missing command", body: `{"username":"alice"}`},
		{name: "username too long", body: `{"username":"` + string(bytes.Repeat([]byte("a"), 30)) + `","command":"!drop"}`},
		{name: "malformed json", body: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/store/events", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			HandleAppendEvent(newFakeEventLog(), newTestHub(t))(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleGetEventsNullWhenEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/store/events", nil)
	rec := httptest.NewRecorder()
	HandleGetEvents(newFakeEventLog())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())
}

func TestHandleGetEventsReturnsSnapshot(t *testing.T) {
	repo := newFakeEventLog()
	_, err := repo.Append(context.Background(), domain.SpawnEvent{Username: "alice", Command: "!drop"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/store/events", nil)
	rec := httptest.NewRecorder()
	HandleGetEvents(repo)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot map[string]domain.SpawnEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, "alice", snapshot["000000000001"].Username)
}

func TestHandleGetEventByKey(t *testing.T) {
	repo := newFakeEventLog()
	_, err := repo.Append(context.Background(), domain.SpawnEvent{Username: "alice", Command: "!drop"})
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Get("/v1/store/events/{key}", HandleGetEvent(repo))

	req := httptest.NewRequest(http.MethodGet, "/v1/store/events/000000000001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var evt domain.SpawnEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evt))
	assert.Equal(t, "alice", evt.Username)

	req = httptest.NewRequest(http.MethodGet, "/v1/store/events/000000000099", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "null", rec.Body.String())
}

func TestHandlePatchLeaderboardMerges(t *testing.T) {
	repo := newFakeLeaderboard()
	require.NoError(t, repo.Upsert(context.Background(), domain.Leaderboard{
		"bob": {Username: "bob", Score: 100},
	}))
	hub := newTestHub(t)

	body := bytes.NewBufferString(`{"alice":{"username":"alice","score":1600,"lastUpdate":1}}`)
	req := httptest.NewRequest(http.MethodPatch, "/v1/store/leaderboard", body)
	rec := httptest.NewRecorder()
	HandlePatchLeaderboard(repo, hub)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	board, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, board, 2)
	assert.Equal(t, int64(1600), board["alice"].Score)
	assert.Equal(t, int64(100), board["bob"].Score)
}

func TestHandlePutLeaderboardReplaces(t *testing.T) {
	repo := newFakeLeaderboard()
	require.NoError(t, repo.Upsert(context.Background(), domain.Leaderboard{
		"bob": {Username: "bob", Score: 100},
	}))
	hub := newTestHub(t)

	body := bytes.NewBufferString(`{"alice":{"username":"alice","score":1600,"lastUpdate":1}}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/store/leaderboard", body)
	rec := httptest.NewRecorder()
	HandlePutLeaderboard(repo, hub)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	board, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, int64(1600), board["alice"].Score)
}

func TestHandleResetLeaderboardBroadcastsNullPut(t *testing.T) {
	repo := newFakeLeaderboard()
	require.NoError(t, repo.Upsert(context.Background(), domain.Leaderboard{
		"bob": {Username: "bob", Score: 100},
	}))
	hub := newTestHub(t)
	watcher := hub.Register(store.PathLeaderboard)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/leaderboard/reset", nil)
	rec := httptest.NewRecorder()
	HandleResetLeaderboard(repo, hub)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	board, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, board)

	select {
	case evt := <-watcher.EventChannel:
		var change store.Change
		require.NoError(t, json.Unmarshal(evt.Data, &change))
		assert.Equal(t, store.ChangePut, change.Kind)
		assert.Equal(t, "/", change.Path)
		assert.Equal(t, "null", string(change.Data))
	case <-time.After(time.Second):
		t.Fatal("expected authoritative null put after reset")
	}
}

func TestNewSnapshotFunc(t *testing.T) {
	events := newFakeEventLog()
	board := newFakeLeaderboard()
	snapshot := NewSnapshotFunc(events, board)

	data, err := snapshot(context.Background(), store.PathEvents)
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = events.Append(context.Background(), domain.SpawnEvent{Username: "alice", Command: "!drop"})
	require.NoError(t, err)

	data, err = snapshot(context.Background(), store.PathEvents)
	require.NoError(t, err)
	var m map[string]domain.SpawnEvent
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, 1)

	_, err = snapshot(context.Background(), "bogus")
	assert.Error(t, err)
}
