package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pvlima/modbot/internal/config"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/logger"
	"github.com/pvlima/modbot/internal/store"
	"github.com/pvlima/modbot/internal/syncer"
)

var Version = "dev"

func main() {
	defer logger.CloseLogFile()

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "--version" || args[0] == "-v" || args[0] == "version") {
		fmt.Printf("modsyncd version %s\n", Version)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewPostgresStore(ctx, store.PostgresOptions{
		DatabaseURL: cfg.DatabaseURL,
		Channel:     cfg.Sync.Channel,
		Dimensions:  cfg.EmbeddingDimensions,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer st.Close()

	embedder := llm.NewOpenAIEmbedder(cfg)
	worker := syncer.NewWorker(st, embedder, cfg.Sync)

	// Messages stored while the worker was down are embedded first, then
	// live events take over.
	if err := worker.SyncBacklog(ctx); err != nil {
		logger.Warn("backlog sync incomplete: %v", err)
	}

	events := make(chan store.Notification, 64)
	listener := store.NewListener(cfg.DatabaseURL, cfg.Sync.Channel)
	go func() {
		_ = listener.Listen(ctx, events)
		close(events)
	}()

	logger.Info("modsyncd listening on channel %q", cfg.Sync.Channel)
	return worker.Run(ctx, events)
}
