package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrencik/droppit/internal/cooldown"
	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/event"
	"github.com/mkrencik/droppit/internal/streak"
)

// fakePublisher records appended events and can be told to fail.
type fakePublisher struct {
	mu     sync.Mutex
	posted []domain.SpawnEvent
	fail   bool
	nextID int
}

func (f *fakePublisher) Post(_ context.Context, _ string, value interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return "", errors.New("store unreachable")
	}
	f.nextID++
	f.posted = append(f.posted, value.(domain.SpawnEvent))
	return fmt.Sprintf("%012d", f.nextID), nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posted)
}

type fixture struct {
	svc     *service
	pub     *fakePublisher
	tracker *cooldown.Tracker
	clock   time.Time
}

func newFixture(t *testing.T, window time.Duration, mode streak.Mode) *fixture {
	t.Helper()

	tracker := cooldown.NewTracker(window)
	settings := NewSettings(true, mode, tracker)
	pub := &fakePublisher{}
	svc := NewService(settings, tracker, pub, event.NewMemoryBus()).(*service)

	f := &fixture{svc: svc, pub: pub, tracker: tracker, clock: time.UnixMilli(0)}
	svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func chat(nickname, comment string) domain.ChatPayload {
	return domain.ChatPayload{Nickname: nickname, Comment: comment}
}

func TestIngestChat_DropCommandPublishes(t *testing.T) {
	f := newFixture(t, 1200*time.Millisecond, streak.ModeRepeatEnd)

	out, err := f.svc.IngestChat(context.Background(), chat("alice", "!drop"))
	require.NoError(t, err)
	assert.True(t, out.Published)
	assert.NotEmpty(t, out.Key)

	require.Equal(t, 1, f.pub.count())
	assert.Equal(t, "alice", f.pub.posted[0].Username)
	assert.Equal(t, domain.DropCommand, f.pub.posted[0].Command)
}

func TestIngestChat_KeywordRecognition(t *testing.T) {
	tests := []struct {
		comment string
		want    bool
	}{
		{"!drop", true},
		{"  !DROP  ", true},
		{"please !Drop one", true},
		{"drop", false},
		{"hello there", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			f := newFixture(t, 0, streak.ModeRepeatEnd)
			out, err := f.svc.IngestChat(context.Background(), chat("alice", tt.comment))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Published)
			if !tt.want {
				assert.Equal(t, event.ReasonNoCommand, out.Reason)
			}
		})
	}
}

func TestIngestChat_UnrecognizedCommandHasNoSideEffect(t *testing.T) {
	f := newFixture(t, time.Hour, streak.ModeRepeatEnd)

	out, err := f.svc.IngestChat(context.Background(), chat("alice", "hello"))
	require.NoError(t, err)
	assert.False(t, out.Published)

	// The failed keyword check must not consume alice's cooldown window.
	out, err = f.svc.IngestChat(context.Background(), chat("alice", "!drop"))
	require.NoError(t, err)
	assert.True(t, out.Published)
}

func TestIngestChat_CooldownScenario(t *testing.T) {
	// cooldown 1200ms: t=0 spawns, t=500 suppressed, t=1300 spawns
	f := newFixture(t, 1200*time.Millisecond, streak.ModeRepeatEnd)
	ctx := context.Background()

	out, _ := f.svc.IngestChat(ctx, chat("alice", "!drop"))
	assert.True(t, out.Published)

	f.advance(500 * time.Millisecond)
	out, _ = f.svc.IngestChat(ctx, chat("alice", "!drop"))
	assert.False(t, out.Published)
	assert.Equal(t, event.ReasonCooldown, out.Reason)

	f.advance(800 * time.Millisecond)
	out, _ = f.svc.IngestChat(ctx, chat("alice", "!drop"))
	assert.True(t, out.Published)

	assert.Equal(t, 2, f.pub.count())
}

func TestIngestGift_CommandSynthesis(t *testing.T) {
	f := newFixture(t, 0, streak.ModeRepeatEnd)

	out, err := f.svc.IngestGift(context.Background(), domain.GiftPayload{
		Nickname:     "bob",
		GiftName:     "rose",
		DiamondCount: 10,
	})
	require.NoError(t, err)
	assert.True(t, out.Published)
	assert.Equal(t, "gift:rose:10", f.pub.posted[0].Command)
}

func TestIngestGift_StreakRunsBeforeCooldown(t *testing.T) {
	f := newFixture(t, time.Hour, streak.ModeRepeatEnd)
	ctx := context.Background()

	end := false
	// Mid-streak tick is suppressed by arbitration and must not consume
	// the cooldown window.
	out, err := f.svc.IngestGift(ctx, domain.GiftPayload{
		Nickname: "bob", GiftName: "rose", DiamondCount: 1,
		RepeatCount: 1, RepeatEnd: &end,
	})
	require.NoError(t, err)
	assert.Equal(t, event.ReasonStreak, out.Reason)

	done := true
	out, err = f.svc.IngestGift(ctx, domain.GiftPayload{
		Nickname: "bob", GiftName: "rose", DiamondCount: 1,
		RepeatCount: 2, RepeatEnd: &done,
	})
	require.NoError(t, err)
	assert.True(t, out.Published)
}

func TestIngest_SpawnGateSuppressesButStillEvaluates(t *testing.T) {
	f := newFixture(t, time.Hour, streak.ModeRepeatEnd)
	ctx := context.Background()

	f.svc.settings.SetSpawnEnabled(false)

	out, err := f.svc.IngestChat(ctx, chat("alice", "!drop"))
	require.NoError(t, err)
	assert.False(t, out.Published)
	assert.Equal(t, event.ReasonSpawnGate, out.Reason)
	assert.Zero(t, f.pub.count())

	// Cooldown was still evaluated (and consumed) while gated.
	f.svc.settings.SetSpawnEnabled(true)
	out, err = f.svc.IngestChat(ctx, chat("alice", "!drop"))
	require.NoError(t, err)
	assert.Equal(t, event.ReasonCooldown, out.Reason)
}

func TestIngest_PublishFailureSurfacedAndCooldownNotRolledBack(t *testing.T) {
	f := newFixture(t, time.Hour, streak.ModeRepeatEnd)
	ctx := context.Background()

	f.pub.fail = true
	out, err := f.svc.IngestChat(ctx, chat("alice", "!drop"))
	require.Error(t, err)
	assert.False(t, out.Published)
	assert.Equal(t, event.ReasonPublishErr, out.Reason)

	// The cooldown advanced before the failed publish and stays consumed.
	f.pub.fail = false
	out, err = f.svc.IngestChat(ctx, chat("alice", "!drop"))
	require.NoError(t, err)
	assert.Equal(t, event.ReasonCooldown, out.Reason)
}

func TestIngest_UsernameNormalization(t *testing.T) {
	f := newFixture(t, 0, streak.ModeRepeatEnd)
	ctx := context.Background()

	out, err := f.svc.IngestChat(ctx, chat("   ", "!drop"))
	require.NoError(t, err)
	require.True(t, out.Published)
	assert.Equal(t, domain.DefaultUsername, f.pub.posted[0].Username)

	long := "abcdefghijklmnopqrstuvwxyz0123"
	out, err = f.svc.IngestChat(ctx, chat(long, "!drop"))
	require.NoError(t, err)
	require.True(t, out.Published)
	assert.Len(t, f.pub.posted[1].Username, domain.MaxUsernameLength)
}

func TestIngest_BusReceivesLifecycleEvents(t *testing.T) {
	tracker := cooldown.NewTracker(0)
	settings := NewSettings(true, streak.ModeRepeatEnd, tracker)
	pub := &fakePublisher{}
	bus := event.NewMemoryBus()

	var published, suppressed int
	bus.Subscribe(event.SpawnPublished, func(_ context.Context, _ event.Event) error {
		published++
		return nil
	})
	bus.Subscribe(event.SpawnSuppressed, func(_ context.Context, _ event.Event) error {
		suppressed++
		return nil
	})

	svc := NewService(settings, tracker, pub, bus)
	_, _ = svc.IngestChat(context.Background(), chat("alice", "!drop"))
	_, _ = svc.IngestChat(context.Background(), chat("alice", "nothing"))

	assert.Equal(t, 1, published)
	assert.Equal(t, 1, suppressed)
}
