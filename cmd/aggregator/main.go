package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/khobor-aggregator/internal/app"
	"github.com/Adda-Baaj/khobor-aggregator/internal/config"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "aggregator failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("aggregator starting", "config", map[string]any{
		"mode":         cfg.Mode,
		"category":     cfg.Category,
		"source":       cfg.Source,
		"enrich":       cfg.Enrich,
		"storage_type": cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agg, err := app.NewAggregator(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize aggregator", "error", err)
		return err
	}
	defer func() {
		if err := agg.Close(); err != nil {
			logger.ErrorObj("aggregator close failed", "error", err)
		}
	}()

	switch cfg.Mode {
	case config.ModeServe:
		if err := agg.Serve(ctx); err != nil {
			return fmt.Errorf("aggregator serve: %w", err)
		}
	default:
		if err := agg.RunOnce(ctx, os.Stdout); err != nil {
			return fmt.Errorf("aggregator run: %w", err)
		}
	}
	return nil
}
