package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/m3rciful/shopbot/core/buildinfo"
	"github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/healthcheck"
	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/bot"
	"github.com/m3rciful/shopbot/internal/shop"
	"github.com/m3rciful/shopbot/internal/shop/backup"
	"log/slog"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "shopbot:", err)
		os.Exit(1)
	}
}

func run() error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Shutdown() }()

	logger.L.Info("starting",
		slog.String("event", "boot"),
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	store, err := shop.Open(cfg.Shop.File)
	if err != nil {
		return fmt.Errorf("open shop file: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := healthcheck.New(cfg.Health.Listen).Run(ctx); err != nil {
			logger.L.Error("health server failed",
				slog.String("event", "health"),
				slog.String("err", err.Error()),
			)
		}
	}()

	if cfg.Shop.Backup.Cron != "" {
		sched, err := backup.New(backup.Options{
			Spec:   cfg.Shop.Backup.Cron,
			Source: cfg.Shop.File,
			Dir:    cfg.Shop.Backup.Dir,
			Retain: cfg.Shop.Backup.Retain,
		})
		if err != nil {
			return fmt.Errorf("backup scheduler: %w", err)
		}
		go sched.Run(ctx)
	}

	return bot.New(cfg, store).Run(ctx)
}
