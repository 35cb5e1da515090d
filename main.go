package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikoksr/notify"

	"f1replay/pkg/cache"
	"f1replay/pkg/config"
	"f1replay/pkg/mock"
	"f1replay/pkg/notification"
	"f1replay/pkg/openf1"
	"f1replay/pkg/pubsub"
	"f1replay/pkg/replays"
	"f1replay/pkg/webserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("f1replay stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var store *cache.SQLiteStore
	cacheOpts := []cache.Option{cache.WithLogger(logger)}
	if cfg.CacheDB != "" {
		var err error
		if store, err = cache.NewSQLiteStore(cfg.CacheDB); err != nil {
			return err
		}
		defer store.Close()
		cacheOpts = append(cacheOpts, cache.WithStore(store))
		logger.Info("persisting responses", "path", cfg.CacheDB)
	}
	responses := cache.New(cfg.ResponseTTL, cacheOpts...)
	replayCache := cache.New(cfg.ReplayTTL, cacheOpts...)

	var source replays.Source
	if cfg.Mock {
		logger.Info("serving generated sessions", "seed", cfg.MockSeed)
		source = mock.New(cfg.MockSeed)
	} else {
		source = openf1.New(
			openf1.WithBaseURL(cfg.BaseURL),
			openf1.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			openf1.WithRequestDelay(cfg.RequestDelay),
			openf1.WithCache(responses),
			openf1.WithLogger(logger),
		)
	}

	toasts := pubsub.NewPubSub[notification.Toast]()
	notifier := notification.NewManager([]notify.Notifier{
		notification.NewLogService(logger),
		notification.NewBroadcastService(toasts),
	}, notification.WithLogger(logger))

	replayOpts := []replays.Option{
		replays.WithCache(replayCache),
		replays.WithNotifier(notifier),
		replays.WithLogger(logger),
	}
	if len(cfg.RaceYears) > 0 {
		replayOpts = append(replayOpts, replays.WithRaceYears(cfg.RaceYears...))
	}
	manager := replays.NewManager(source, replayOpts...)

	server := webserver.NewManager(manager,
		webserver.WithAddr(cfg.ListenAddr),
		webserver.WithToasts(toasts),
		webserver.WithFrameInterval(cfg.FrameInterval),
		webserver.WithLogger(logger),
	)
	for _, route := range server.Routes() {
		logger.Debug("route", "path", route)
	}

	go purge(ctx, cfg, store, logger)

	return server.Serve(ctx)
}

// purge drops persisted responses older than the longest TTL on every tick.
func purge(ctx context.Context, cfg config.Config, store *cache.SQLiteStore, logger *slog.Logger) {
	if store == nil {
		return
	}
	keep := cfg.ResponseTTL
	if cfg.ReplayTTL > keep {
		keep = cfg.ReplayTTL
	}

	ticker := time.NewTicker(cfg.PurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			n, err := store.Purge(ctx, t.Add(-keep))
			if err != nil {
				logger.Warn("purging cached responses", "error", err)
				continue
			}
			logger.Info("purged cached responses", "rows", n)
		}
	}
}
