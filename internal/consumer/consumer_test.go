package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/store"
)

type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) handler() Handler {
	return func(key string, _ domain.SpawnEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.keys = append(r.keys, key)
	}
}

func (r *recorder) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

type fakeSource struct {
	mu        sync.Mutex
	snapshots []map[string]domain.SpawnEvent
	snapErr   error
	changes   chan store.Change
	streamErr error
}

func (f *fakeSource) Snapshot(_ context.Context) (map[string]domain.SpawnEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	if len(f.snapshots) == 0 {
		return map[string]domain.SpawnEvent{}, nil
	}
	snap := f.snapshots[0]
	if len(f.snapshots) > 1 {
		f.snapshots = f.snapshots[1:]
	}
	return snap, nil
}

func (f *fakeSource) Stream(ctx context.Context, onChange func(store.Change)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-f.changes:
			if !ok {
				return f.streamErr
			}
			onChange(change)
		}
	}
}

func freshEvent(username string) domain.SpawnEvent {
	return domain.SpawnEvent{
		Username:  username,
		Command:   domain.DropCommand,
		Timestamp: time.Now().UnixMilli(),
	}
}

func newTestConsumer(t *testing.T, source Source, rec *recorder) *Consumer {
	t.Helper()
	return New(source, rec.handler(), DefaultConfig())
}

func TestDeliverSnapshotOrderedExactlyOnce(t *testing.T) {
	rec := &recorder{}
	c := newTestConsumer(t, &fakeSource{}, rec)

	snapshot := map[string]domain.SpawnEvent{
		"000000000003": freshEvent("carol"),
		"000000000001": freshEvent("alice"),
		"000000000002": freshEvent("bob"),
	}

	c.deliverSnapshot(context.Background(), snapshot, ModePolling)
	assert.Equal(t, []string{"000000000001", "000000000002", "000000000003"}, rec.delivered())

	// A repeated identical snapshot must not re-deliver anything.
	c.deliverSnapshot(context.Background(), snapshot, ModePolling)
	assert.Len(t, rec.delivered(), 3)
}

func TestDeliverSnapshotOnlyNewKeys(t *testing.T) {
	rec := &recorder{}
	c := newTestConsumer(t, &fakeSource{}, rec)

	first := map[string]domain.SpawnEvent{
		"000000000001": freshEvent("alice"),
	}
	c.deliverSnapshot(context.Background(), first, ModePolling)

	second := map[string]domain.SpawnEvent{
		"000000000001": freshEvent("alice"),
		"000000000002": freshEvent("bob"),
	}
	c.deliverSnapshot(context.Background(), second, ModePolling)

	assert.Equal(t, []string{"000000000001", "000000000002"}, rec.delivered())
}

func TestLastKeyGuardBlocksEvictedKeys(t *testing.T) {
	rec := &recorder{}
	c := newTestConsumer(t, &fakeSource{}, rec)

	c.deliver(context.Background(), "000000000005", freshEvent("alice"), ModePolling, false)
	require.Equal(t, []string{"000000000005"}, rec.delivered())

	// Simulate seen-set eviction: even with the set cleared, keys at or
	// below the high-water mark stay suppressed.
	c.mu.Lock()
	c.seen.Purge()
	c.mu.Unlock()

	c.deliver(context.Background(), "000000000005", freshEvent("alice"), ModePolling, false)
	c.deliver(context.Background(), "000000000004", freshEvent("bob"), ModePolling, false)
	assert.Len(t, rec.delivered(), 1)

	c.deliver(context.Background(), "000000000006", freshEvent("carol"), ModePolling, false)
	assert.Equal(t, []string{"000000000005", "000000000006"}, rec.delivered())
}

func TestGraceWindowRejectsStaleEvents(t *testing.T) {
	rec := &recorder{}
	c := newTestConsumer(t, &fakeSource{}, rec)

	stale := domain.SpawnEvent{
		Username:  "ghost",
		Command:   domain.DropCommand,
		Timestamp: time.Now().Add(-5 * time.Minute).UnixMilli(),
	}
	c.deliver(context.Background(), "000000000001", stale, ModePolling, false)
	assert.Empty(t, rec.delivered())

	// Within the window is fine.
	recent := domain.SpawnEvent{
		Username:  "alice",
		Command:   domain.DropCommand,
		Timestamp: time.Now().Add(-30 * time.Second).UnixMilli(),
	}
	c.deliver(context.Background(), "000000000002", recent, ModePolling, false)
	assert.Equal(t, []string{"000000000002"}, rec.delivered())
}

func TestStreamingInitialPutSeedsWithoutDelivery(t *testing.T) {
	rec := &recorder{}
	c := newTestConsumer(t, &fakeSource{}, rec)

	backlog := map[string]domain.SpawnEvent{
		"000000000001": freshEvent("alice"),
		"000000000002": freshEvent("bob"),
	}
	data, err := json.Marshal(backlog)
	require.NoError(t, err)

	c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/", Data: data})
	assert.Empty(t, rec.delivered(), "initial snapshot is history, not new drops")

	// A child put after the seed is a live event.
	evtData, err := json.Marshal(freshEvent("carol"))
	require.NoError(t, err)
	c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/000000000003", Data: evtData})
	assert.Equal(t, []string{"000000000003"}, rec.delivered())

	// Replaying the same child is suppressed.
	c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/000000000003", Data: evtData})
	assert.Len(t, rec.delivered(), 1)
}

func TestStreamingReconnectSnapshotDeliversUnseen(t *testing.T) {
	rec := &recorder{}
	c := newTestConsumer(t, &fakeSource{}, rec)

	seed := map[string]domain.SpawnEvent{
		"000000000001": freshEvent("alice"),
	}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/", Data: data})
	require.Empty(t, rec.delivered())

	// Second root put (reconnect) carries a key missed while offline.
	reconnect := map[string]domain.SpawnEvent{
		"000000000001": freshEvent("alice"),
		"000000000002": freshEvent("bob"),
	}
	data, err = json.Marshal(reconnect)
	require.NoError(t, err)
	c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/", Data: data})
	assert.Equal(t, []string{"000000000002"}, rec.delivered())
}

func TestSnapshotRecoversFrameDroppedByStream(t *testing.T) {
	rec := &recorder{}
	c := newTestConsumer(t, &fakeSource{}, rec)

	seed, err := json.Marshal(map[string]domain.SpawnEvent{})
	require.NoError(t, err)
	c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/", Data: seed})

	// Key 2's frame is dropped by the hub; key 3 arrives and advances the
	// high-water mark past the gap.
	one := freshEvent("alice")
	two := freshEvent("bob")
	three := freshEvent("carol")
	for _, put := range []struct {
		key string
		evt domain.SpawnEvent
	}{
		{"000000000001", one},
		{"000000000003", three},
	} {
		data, err := json.Marshal(put.evt)
		require.NoError(t, err)
		c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/" + put.key, Data: data})
	}
	require.Equal(t, []string{"000000000001", "000000000003"}, rec.delivered())

	// The reconnect snapshot is complete. The missed key must come back
	// even though it sits below the high-water mark.
	snapshot, err := json.Marshal(map[string]domain.SpawnEvent{
		"000000000001": one,
		"000000000002": two,
		"000000000003": three,
	})
	require.NoError(t, err)
	c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/", Data: snapshot})
	assert.Equal(t, []string{"000000000001", "000000000003", "000000000002"}, rec.delivered())

	// A second identical snapshot re-delivers nothing.
	c.handleChange(context.Background(), store.Change{Kind: store.ChangePut, Path: "/", Data: snapshot})
	assert.Len(t, rec.delivered(), 3)
}

func TestRunPollingDeliversAndStops(t *testing.T) {
	rec := &recorder{}
	source := &fakeSource{
		snapshots: []map[string]domain.SpawnEvent{
			{
				"000000000001": freshEvent("alice"),
				"000000000002": freshEvent("bob"),
			},
		},
	}
	c := New(source, rec.handler(), Config{
		PollInterval:  5 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
		GraceWindow:   GraceWindow,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.RunPolling(ctx)
	}()

	assert.Eventually(t, func() bool {
		return len(rec.delivered()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("polling loop did not stop on cancel")
	}

	assert.Equal(t, []string{"000000000001", "000000000002"}, rec.delivered())
}

func TestRunStreamingDeliversAndStops(t *testing.T) {
	rec := &recorder{}
	changes := make(chan store.Change, 4)
	source := &fakeSource{changes: changes}
	c := New(source, rec.handler(), Config{
		PollInterval:  5 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
		GraceWindow:   GraceWindow,
	})

	seed, err := json.Marshal(map[string]domain.SpawnEvent{})
	require.NoError(t, err)
	changes <- store.Change{Kind: store.ChangePut, Path: "/", Data: seed}

	evtData, err := json.Marshal(freshEvent("alice"))
	require.NoError(t, err)
	changes <- store.Change{Kind: store.ChangePut, Path: "/000000000001", Data: evtData}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.RunStreaming(ctx)
	}()

	assert.Eventually(t, func() bool {
		return len(rec.delivered()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("streaming loop did not stop on cancel")
	}
}
