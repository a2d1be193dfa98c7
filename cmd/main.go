package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/experiments-viewer/config"
	"github.com/angeloszaimis/experiments-viewer/internal/httpserver"
	"github.com/angeloszaimis/experiments-viewer/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	opts := loggerOptions(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Settings.OTLPEndpoint, cfg.Logging.Name, cfg.Server.Environment)
	if err != nil {
		slog.Error("Failed to set up tracing", slog.Any("err", err))
		os.Exit(1)
	}

	a, err := newApp(ctx, cfg, opts)
	if err != nil {
		slog.Error("Failed to build application", slog.Any("err", err))
		os.Exit(1)
	}
	log := a.logger

	srv, err := httpserver.New(httpserver.Options{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, a.handler)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	a.run(ctx)

	log.Info("Starting experiments viewer",
		slog.String("addr", srv.Addr()),
		slog.String("database", a.store.Engine()),
		slog.Any("routes", a.table.Names()),
		slog.Any("middleware", a.pipeline.Names()))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			exitCode = 1
		}
	}

	if err := shutdownTracing(context.Background()); err != nil {
		log.Warn("Failed to flush traces", slog.Any("err", err))
	}
	if err := a.Close(); err != nil {
		log.Warn("Failed to close database", slog.Any("err", err))
	}
	os.Exit(exitCode)
}
