package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"quake_bot/internal/bot"
	"quake_bot/internal/config"
	"quake_bot/internal/dispatch"
	"quake_bot/internal/engine"
	"quake_bot/internal/feed"
	"quake_bot/internal/health"
	"quake_bot/internal/quake"
	"quake_bot/internal/scheduler"
	"quake_bot/internal/storage"
	"quake_bot/internal/subscribers"
)

func main() {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("bot failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	sources, err := quake.LoadSources(cfg.FeedsFile)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	journal, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	defer func() { _ = journal.Close() }()

	hs := health.New(cfg.Version, journal.Stats, log)

	store := subscribers.New(cfg.SubscribersPath, cfg.DefaultChatID, log,
		subscribers.WithChangeHook(hs.SetSubscribers))
	store.Load()

	api, err := bot.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return err
	}

	dispatcher := dispatch.New(bot.NewSender(api), log,
		dispatch.WithJournal(journal),
		dispatch.WithRateLimit(cfg.SendRate),
		dispatch.WithRepeatSuppression(cfg.SuppressRepeats),
	)
	feeds := feed.New(&http.Client{Timeout: 30 * time.Second})
	eng := engine.New(sources, feeds, store, dispatcher, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Once {
		report, err := eng.RunCycle(ctx)
		log.Info("single cycle finished",
			"events", len(report.Events),
			"sent", report.Delivery.Sent,
			"failed", report.Delivery.Failed,
		)
		return err
	}

	b := bot.New(api, store, eng, journal, cfg, log)
	sched := scheduler.New(func(ctx context.Context) error {
		_, err := eng.RunCycle(ctx)
		return err
	}, cfg.IntervalMinutes, log)

	log.Info("starting bot",
		"version", cfg.Version,
		"interval_minutes", cfg.IntervalMinutes,
		"subscribers", store.Count(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hs.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port))
	})
	g.Go(func() error {
		return sched.Run(ctx)
	})
	g.Go(func() error {
		b.Run(ctx)
		return nil
	})

	err = g.Wait()
	log.Info("bot stopped")
	return err
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
