package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/alkime/liftlog/internal/config"
	"github.com/alkime/liftlog/internal/logger"
	"github.com/alkime/liftlog/internal/server"
	"github.com/alkime/liftlog/internal/store"
	"github.com/alkime/liftlog/internal/telemetry"
	"github.com/alkime/liftlog/internal/workdir"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logger := logger.SetupLogger(cfg)

	logger.Info("Starting liftlog server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, metrics, err := telemetry.Setup(ctx, cfg.Env, logger)
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("Failed to shut down telemetry", "error", err)
		}
	}()

	dbPath, err := workdir.Resolve(cfg.DBPath, workdir.DBFile)
	if err != nil {
		log.Fatalf("Failed to locate database: %v", err)
	}

	st, err := store.Open(ctx, store.Config{Path: dbPath, UserID: cfg.UserID}, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	srv := server.New(cfg, logger, st, server.WithMetrics(metrics))

	errC := make(chan error, 1)
	go func() { errC <- server.Run(srv) }()

	select {
	case err := <-errC:
		logger.Error("Failed to start server", "error", err)
	case <-ctx.Done():
		logger.Info("Shutting down")
	}
}
