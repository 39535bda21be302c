package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkrencik/droppit/internal/config"
	"github.com/mkrencik/droppit/internal/consumer"
	"github.com/mkrencik/droppit/internal/domain"
	"github.com/mkrencik/droppit/internal/event"
	"github.com/mkrencik/droppit/internal/leaderboard"
	"github.com/mkrencik/droppit/internal/logger"
	"github.com/mkrencik/droppit/internal/sim"
	"github.com/mkrencik/droppit/internal/store"
	"github.com/mkrencik/droppit/internal/worker"
)

// leaderboardRetryInterval paces reconnects of the leaderboard sync stream.
const leaderboardRetryInterval = 5 * time.Second

func main() {
	cfg, err := config.LoadBoard()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	client := store.NewClient(cfg.StoreURL)
	eventBus := event.NewMemoryBus()

	pool := worker.NewPool(leaderboard.WriteBackWorkers, leaderboard.WriteBackQueueSize)
	pool.Start()
	defer pool.Stop()

	aggregator := leaderboard.NewAggregator(client, pool, eventBus)
	loop := sim.NewLoop(sim.NewBoard(), aggregator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cons := consumer.New(
		consumer.NewStoreSource(client),
		func(_ string, evt domain.SpawnEvent) {
			loop.HandleSpawn(ctx, evt)
		},
		consumer.DefaultConfig(),
	)

	go loop.Run(ctx)
	go syncLeaderboard(ctx, client, aggregator)

	switch cfg.ConsumerMode {
	case consumer.ModePolling:
		go cons.RunPolling(ctx)
	default:
		go cons.RunStreaming(ctx)
	}

	slog.Info("Board started",
		"store_url", cfg.StoreURL,
		"consumer_mode", cfg.ConsumerMode)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	slog.Info("Shutdown signal received", "signal", sig)

	cancel()
	slog.Info("Board stopped")
}

// syncLeaderboard keeps the local leaderboard view converged with the
// shared store: full puts replace it (a null put is a reset), patches
// merge entries written back by other board instances.
func syncLeaderboard(ctx context.Context, client *store.Client, aggregator *leaderboard.Aggregator) {
	log := logger.FromContext(ctx)

	for {
		err := client.Stream(ctx, store.PathLeaderboard, func(change store.Change) {
			var snapshot domain.Leaderboard
			if len(change.Data) > 0 {
				if err := json.Unmarshal(change.Data, &snapshot); err != nil {
					log.Warn("leaderboard change decode failed", "error", err)
					return
				}
			}

			switch change.Kind {
			case store.ChangePut:
				aggregator.ApplySnapshot(ctx, snapshot)
			case store.ChangePatch:
				aggregator.ApplyPatch(ctx, snapshot)
			}
		})
		if err != nil {
			log.Warn("leaderboard stream failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(leaderboardRetryInterval):
		}
	}
}
