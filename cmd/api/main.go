// Package main provides the entrypoint for the hydrology viewer API server.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/api"
	"github.com/hydroviewer/hydroviewer/internal/api/handler"
	"github.com/hydroviewer/hydroviewer/internal/api/middleware"
	"github.com/hydroviewer/hydroviewer/internal/app"
	"github.com/hydroviewer/hydroviewer/internal/config"
	"github.com/hydroviewer/hydroviewer/internal/database"
	"github.com/hydroviewer/hydroviewer/internal/featureflags"
	"github.com/hydroviewer/hydroviewer/internal/render"
	"github.com/hydroviewer/hydroviewer/internal/session"
	"github.com/hydroviewer/hydroviewer/internal/source"
	"github.com/hydroviewer/hydroviewer/internal/telemetry"
	"github.com/hydroviewer/hydroviewer/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "hydroviewer-api"

	log := newLogger(os.Stdout, serviceName, true)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = newLogger(os.Stdout, serviceName, cfg.IsProduction())

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.App.Environment).
		Msg("starting hydroviewer API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.Endpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	sourceMetrics, err := source.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize source metrics")
	}

	clock := clockwork.NewRealClock()

	// View settings persist in Postgres when a database is configured.
	var flagRepo featureflags.Repository = featureflags.NewInMemoryRepository(clock)
	pool, err := database.Connect(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Info().Msg("database disabled, view settings kept in memory")
	case err != nil:
		log.Fatal().Err(err).Msg("failed to connect to database")
	default:
		defer pool.Close()
		pgRepo := featureflags.NewPostgresRepository(pool, clock)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare feature flag schema")
		}
		flagRepo = pgRepo
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")
	}

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     log,
		CacheTTL:   time.Minute,
		Clock:      clock,
	})

	pipeline, err := app.New(app.Options{
		PageURL:   cfg.Data.PageURL,
		StaticDir: cfg.Data.StaticDir,
		APIBase:   cfg.Data.APIBase,
		AxisMin:   cfg.Data.AxisMin,
		AxisMax:   cfg.Data.AxisMax,
		Settings:  flags,
		Metrics:   sourceMetrics,
		Clock:     clock,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build data pipeline")
	}

	store := session.NewStore(session.StoreConfig{
		Composer: pipeline.Composer,
		Renderer: render.NewRenderer(render.GoChart{}, log),
		Overlays: pipeline.Overlays(),
		IdleTTL:  cfg.Session.IdleTTL,
		Clock:    clock,
		Logger:   log,
	})
	go store.Run(ctx, cfg.Session.SweepInterval)

	preloadCfg := worker.DefaultPreloadConfig()
	preloadCfg.Interval = cfg.Preload.Interval
	if cfg.Preload.Concurrency > 0 {
		preloadCfg.Concurrency = cfg.Preload.Concurrency
	}
	preload := worker.NewPreloadJob(worker.PreloadJobConfig{
		Config:   preloadCfg,
		Logger:   log,
		Resolver: pipeline.Resolver,
		Filter:   flags,
		Clock:    clock,
	})
	go preload.Start(ctx)

	router := api.NewRouter(api.RouterConfig{
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        httpMetrics,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimit:      middleware.PerMinute(cfg.HTTP.RateLimit, middleware.StandardRateLimit),
		ChartRateLimit: middleware.PerMinute(cfg.HTTP.ChartRateLimit, middleware.ChartRateLimit),
		Ops: handler.OpsConfig{
			Version:   Version,
			BuildTime: BuildTime,
			APIBase:   cfg.Data.APIBase,
			Source:    pipeline.Resolver,
			Registry:  pipeline.Registry,
			Flags:     flags,
			Sessions:  store,
			Preload:   preload,
			Clock:     clock,
		},
		Catalog:  pipeline.Resolver,
		Sessions: store,
		Settings: flags,
		Clock:    clock,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("mode", pipeline.Mode()).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// newLogger writes JSON at info level in production and readable console output at
// debug level elsewhere.
func newLogger(w io.Writer, serviceName string, production bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if !production {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
}
