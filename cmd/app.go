package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/angeloszaimis/experiments-viewer/config"
	"github.com/angeloszaimis/experiments-viewer/internal/accounts"
	"github.com/angeloszaimis/experiments-viewer/internal/admin"
	"github.com/angeloszaimis/experiments-viewer/internal/api"
	"github.com/angeloszaimis/experiments-viewer/internal/circuitbreaker"
	"github.com/angeloszaimis/experiments-viewer/internal/dockerflow"
	"github.com/angeloszaimis/experiments-viewer/internal/handler"
	"github.com/angeloszaimis/experiments-viewer/internal/healthcheck"
	"github.com/angeloszaimis/experiments-viewer/internal/metrics"
	"github.com/angeloszaimis/experiments-viewer/internal/middleware"
	"github.com/angeloszaimis/experiments-viewer/internal/router"
	"github.com/angeloszaimis/experiments-viewer/internal/session"
	"github.com/angeloszaimis/experiments-viewer/internal/store"
	"github.com/angeloszaimis/experiments-viewer/internal/web"
	"github.com/angeloszaimis/experiments-viewer/pkg/logger"
)

const (
	metricsBufferSize    = 1000
	sessionPurgeInterval = time.Hour
	versionFile          = "version.json"
)

type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	collector *metrics.Collector
	monitor   *healthcheck.Monitor
	breakers  *circuitbreaker.Registry
	table     *router.Table
	pipeline  *middleware.Pipeline
	handler   http.Handler
}

func loggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Name:        cfg.Logging.Name,
		Environment: cfg.Server.Environment,
		AddSource:   cfg.Settings.Debug,
	}
}

// newApp opens the database and assembles the route table and the
// middleware pipeline around the dispatcher.
func newApp(ctx context.Context, cfg *config.Config, opts logger.Options) (*app, error) {
	log := logger.New(opts)

	st, err := store.Open(ctx, cfg.Settings.Database, logger.Sub(opts, "db", cfg.Logging.DBLevel))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    log,
		store:     st,
		collector: metrics.NewCollector(metricsBufferSize, log),
		breakers:  circuitbreaker.NewRegistry(cfg.Identity.BreakerThreshold, cfg.Identity.BreakerTimeout),
	}
	a.monitor = healthcheck.NewMonitor("database", st, log, a.collector)

	if err := a.build(); err != nil {
		st.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) build() error {
	cfg := a.cfg
	settings := cfg.Settings

	acc := accounts.New(accounts.Options{
		OIDC:           settings.OIDC,
		Scopes:         cfg.Identity.Scopes,
		RequestTimeout: cfg.Identity.RequestTimeout,
		IsStaff:        settings.IsAdminEmail,
	}, a.store, a.breakers, a.logger.With(slog.String("component", "accounts")))

	adm := admin.New(a.store, a.collector.Handler(), a.logger.With(slog.String("component", "admin")))

	index, err := web.NewIndex(cfg.BuildPath(), a.logger)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	accountsTable, err := acc.Routes()
	if err != nil {
		return fmt.Errorf("accounts routes: %w", err)
	}
	adminTable, err := adm.Routes()
	if err != nil {
		return fmt.Errorf("admin routes: %w", err)
	}

	a.table, err = setupRouter(api.New(a.store, a.logger), accountsTable, adminTable, index)
	if err != nil {
		return fmt.Errorf("route table: %w", err)
	}

	if _, err := acc.Resolve(a.table); err != nil {
		return fmt.Errorf("resolve accounts urls: %w", err)
	}
	if err := adm.Resolve(a.table); err != nil {
		return fmt.Errorf("resolve admin urls: %w", err)
	}

	df, err := dockerflow.New(filepath.Join(cfg.Paths.RootDir, versionFile),
		[]dockerflow.Checker{a.monitor}, a.logger.With(slog.String("component", "dockerflow")))
	if err != nil {
		return err
	}

	sessions := session.NewManager(a.store, session.Options{
		Secure: settings.SessionCookieSecure,
		MaxAge: config.SessionCookieAge,
	}, a.logger)

	a.pipeline = middleware.New(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Security(settings.SSLRedirect),
		df.Stage(),
		middleware.Stage{Name: "session", Wrap: sessions.Middleware},
		middleware.CSRF(settings.SecretKey, a.logger),
		middleware.Stage{Name: "authentication", Wrap: accounts.Authenticate(a.store, a.logger)},
		middleware.XFrame(),
	)

	a.handler = a.pipeline.Then(handler.NewDispatcher(a.logger, a.table, a.collector))
	return nil
}

// run starts the background workers. They stop when ctx is cancelled.
func (a *app) run(ctx context.Context) {
	a.collector.Start(ctx)
	go a.monitor.Run(ctx, a.cfg.HealthCheck.Interval)
	go a.purgeSessions(ctx, sessionPurgeInterval)
}

func (a *app) purgeSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := a.store.PurgeExpiredSessions(ctx, time.Now())
		if err != nil {
			a.logger.Warn("Failed to purge expired sessions", slog.String("error", err.Error()))
		} else if n > 0 {
			a.logger.Info("Purged expired sessions", slog.Int64("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
