package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/panda19/prisonscore/internal/api"
	"github.com/panda19/prisonscore/internal/config"
	"github.com/panda19/prisonscore/internal/factory"
	"github.com/panda19/prisonscore/internal/services/auth"
)

func main() {
	// Build config from environment
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Create application
	app, err := factory.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authService, err := auth.New(cfg.AdminTokenHash)
	if err != nil {
		logger.Error("invalid admin token hash", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !authService.Enabled() {
		logger.Warn("PRISONS_ADMIN_TOKEN_HASH not set, admin endpoints are disabled")
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: authService,
		Loop:        app.Loop,
		Worker:      app.Worker,
		Profiles:    app.Profiles,
		Policy:      app.Policy,
		Gameplay:    app.Gameplay,
	})

	// Create server
	server := api.NewServer(router, api.ServerConfigFrom(cfg), logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Main loop runs until shutdown, then drains once more
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		app.Loop.Run(ctx)
	}()

	app.Profiles.StartAutosave(cfg.AutosaveInterval)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.String("economy", cfg.EconomyType),
	)

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
		cancel()
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	// Stop the loop before flushing so no callback mutates a profile
	// while it is being written out.
	<-loopDone
	if err := app.Shutdown(cfg.ShutdownFlushTimeout); err != nil {
		logger.Error("flush on shutdown failed", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}
