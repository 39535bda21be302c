package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkrencik/droppit/internal/config"
	"github.com/mkrencik/droppit/internal/cooldown"
	"github.com/mkrencik/droppit/internal/database"
	"github.com/mkrencik/droppit/internal/database/postgres"
	"github.com/mkrencik/droppit/internal/event"
	"github.com/mkrencik/droppit/internal/ingest"
	"github.com/mkrencik/droppit/internal/metrics"
	"github.com/mkrencik/droppit/internal/server"
	"github.com/mkrencik/droppit/internal/sse"
	"github.com/mkrencik/droppit/internal/store"
	"github.com/mkrencik/droppit/internal/streak"
	"github.com/mkrencik/droppit/internal/tiktok"
)

const shutdownTimeout = 10 * time.Second

// feedStatusInterval is how often the feed watcher samples connection state.
const feedStatusInterval = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	if err := database.Migrate(cfg.GetDBConnString()); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	dbPool, err := database.NewPool(cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxConnIdleTime, cfg.DBMaxConnLifetime)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	eventRepo := postgres.NewEventLogRepository(dbPool)
	boardRepo := postgres.NewLeaderboardRepository(dbPool)

	eventBus := event.NewMemoryBus()
	metrics.NewEventMetricsCollector().Register(eventBus)

	hub := sse.NewHub()
	hub.Start()
	defer hub.Stop()

	sse.NewSubscriber(hub, eventBus).Subscribe()

	mode, err := streak.ParseMode(cfg.StreakMode)
	if err != nil {
		slog.Error("Invalid streak mode", "mode", cfg.StreakMode, "error", err)
		os.Exit(1)
	}
	tracker := cooldown.NewTracker(cfg.CooldownWindow())
	settings := ingest.NewSettings(cfg.SpawnEnabled, mode, tracker)

	srv := server.NewServer(cfg.Port, cfg.AdminToken, nil, dbPool, eventRepo, boardRepo, settings, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// The ingestion path publishes through the store contract rather than
	// writing to the repository directly, so both surfaces stay equivalent.
	publisher := store.NewClient(loopbackURL(cfg.Port))
	ingestSvc := ingest.NewService(settings, tracker, publisher, eventBus)

	feed := tiktok.NewClient(cfg.FeedURL, cfg.TikTokUsername)
	feed.Start(ctx)
	defer feed.Stop()

	go ingestSvc.Run(ctx, feed.Events())
	go watchFeedStatus(ctx, feed, eventBus, cfg.TikTokUsername)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		slog.Error("Server failed", "error", err)
		cancel()
		os.Exit(1)
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Server forced shutdown", "error", err)
	}
	slog.Info("Server stopped")
}

func loopbackURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// watchFeedStatus publishes feed connectivity transitions so the admin
// stream shows when the upstream drops.
func watchFeedStatus(ctx context.Context, feed *tiktok.Client, bus event.Bus, username string) {
	ticker := time.NewTicker(feedStatusInterval)
	defer ticker.Stop()

	connected := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := feed.IsConnected()
			if now == connected {
				continue
			}
			connected = now
			if connected {
				_ = bus.Publish(ctx, event.NewFeedConnectedEvent(username))
			} else {
				_ = bus.Publish(ctx, event.NewFeedDroppedEvent(username))
			}
		}
	}
}
