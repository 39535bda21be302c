package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkrencik/droppit/internal/cooldown"
	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/event"
	"github.com/mkrencik/droppit/internal/logger"
	"github.com/mkrencik/droppit/internal/store"
	"github.com/mkrencik/droppit/internal/streak"
	"github.com/mkrencik/droppit/internal/tiktok"
)

// Publisher is the slice of the store client the ingestion path needs.
type Publisher interface {
	Post(ctx context.Context, path string, value interface{}) (string, error)
}

// Outcome is the result of ingesting one upstream payload. Suppression is a
// normal control-flow outcome, not an error.
type Outcome struct {
	Published bool
	Key       string
	Reason    string // set when not published
}

// Service normalizes upstream chat/gift payloads into canonical spawn
// events and appends them to the shared log.
type Service interface {
	IngestChat(ctx context.Context, chat domain.ChatPayload) (Outcome, error)
	IngestGift(ctx context.Context, gift domain.GiftPayload) (Outcome, error)

	// Run drains the feed channel until ctx is cancelled or the channel
	// closes, ingesting every event.
	Run(ctx context.Context, events <-chan tiktok.FeedEvent)
}

type service struct {
	settings  *Settings
	tracker   *cooldown.Tracker
	publisher Publisher
	bus       event.Bus
	now       func() time.Time
}

// NewService creates the ingestion service. The tracker must be the same
// instance the settings were built with.
func NewService(settings *Settings, tracker *cooldown.Tracker, publisher Publisher, bus event.Bus) Service {
	return &service{
		settings:  settings,
		tracker:   tracker,
		publisher: publisher,
		bus:       bus,
		now:       time.Now,
	}
}

// IngestChat handles a chat callback. The comment must contain the drop
// keyword (case-insensitive, trimmed); anything else is suppressed with no
// side effect.
func (s *service) IngestChat(ctx context.Context, chat domain.ChatPayload) (Outcome, error) {
	username := domain.NormalizeUsername(chat.Nickname)

	comment := strings.ToLower(strings.TrimSpace(chat.Comment))
	if !strings.Contains(comment, domain.DropCommand) {
		return s.suppress(ctx, username, chat.Comment, SourceChat, event.ReasonNoCommand), nil
	}

	return s.arbitrate(ctx, username, chat.ProfilePictureURL, domain.DropCommand, SourceChat)
}

// IngestGift handles a gift callback. Streak arbitration runs before the
// cooldown check so suppressed streak ticks never consume the user's window.
func (s *service) IngestGift(ctx context.Context, gift domain.GiftPayload) (Outcome, error) {
	username := domain.NormalizeUsername(gift.Nickname)
	command := gift.GiftCommand()

	if !streak.ShouldSpawn(gift, s.settings.StreakMode()) {
		return s.suppress(ctx, username, command, SourceGift, event.ReasonStreak), nil
	}

	return s.arbitrate(ctx, username, gift.ProfilePictureURL, command, SourceGift)
}

// arbitrate applies the cooldown and the global spawn gate, then publishes.
// The cooldown mutation happens before the publish attempt and is not rolled
// back on failure: a failed publish costs the user one window rather than
// risking duplicate spawns on retry.
func (s *service) arbitrate(ctx context.Context, username, avatarURL, command, source string) (Outcome, error) {
	log := logger.FromContext(ctx)

	if !s.tracker.Allow(username, s.now()) {
		return s.suppress(ctx, username, command, source, event.ReasonCooldown), nil
	}

	if !s.settings.SpawnEnabled() {
		log.Debug(LogMsgSpawnGateEvalued, "username", username, "command", command)
		return s.suppress(ctx, username, command, source, event.ReasonSpawnGate), nil
	}

	record := domain.SpawnEvent{
		Username:  username,
		AvatarURL: avatarURL,
		Command:   command,
	}

	key, err := s.publisher.Post(ctx, store.PathEvents, record)
	if err != nil {
		log.Error(LogMsgPublishFailed, "username", username, "command", command, "error", err)
		outcome := s.suppress(ctx, username, command, source, event.ReasonPublishErr)
		return outcome, fmt.Errorf(ErrFmtPublish, err)
	}

	record.Key = key
	log.Info(LogMsgSpawnPublished, "key", key, "username", username, "command", command)
	_ = s.bus.Publish(ctx, event.NewSpawnPublishedEvent(record, source))

	return Outcome{Published: true, Key: key}, nil
}

func (s *service) suppress(ctx context.Context, username, command, source, reason string) Outcome {
	logger.FromContext(ctx).Debug(LogMsgSpawnSuppressed,
		"username", username,
		"command", command,
		"reason", reason)
	_ = s.bus.Publish(ctx, event.NewSpawnSuppressedEvent(username, command, source, reason))
	return Outcome{Reason: reason}
}

// Run consumes the normalized feed channel. Publish failures are logged and
// never stop the pump.
func (s *service) Run(ctx context.Context, events <-chan tiktok.FeedEvent) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgPumpStarted)
	defer log.Info(LogMsgPumpStopped)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			var err error
			switch evt.Kind {
			case tiktok.KindChat:
				_, err = s.IngestChat(ctx, evt.Chat)
			case tiktok.KindGift:
				_, err = s.IngestGift(ctx, evt.Gift)
			}
			if err != nil {
				// TransientNetwork: already logged, keep consuming.
				continue
			}
		}
	}
}
