// Package main runs the data availability worker. It resolves every data domain on
// an interval and reports the last outcome on /health, so a broken or stale bundle
// is noticed before viewers see the data-unavailable banner.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/app"
	"github.com/hydroviewer/hydroviewer/internal/config"
	"github.com/hydroviewer/hydroviewer/internal/source"
	"github.com/hydroviewer/hydroviewer/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// lastResult holds the most recent preload outcome.
type lastResult struct {
	mu     sync.RWMutex
	result *worker.PreloadResult
}

func (l *lastResult) set(r *worker.PreloadResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.result = r
}

func (l *lastResult) get() *worker.PreloadResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.result
}

func main() {
	const serviceName = "hydroviewer-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().Str("build_time", BuildTime).Msg("starting hydroviewer worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	sourceMetrics, err := source.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize source metrics")
	}
	pipeline, err := app.New(app.Options{
		PageURL:   cfg.Data.PageURL,
		StaticDir: cfg.Data.StaticDir,
		APIBase:   cfg.Data.APIBase,
		AxisMin:   cfg.Data.AxisMin,
		AxisMax:   cfg.Data.AxisMax,
		Metrics:   sourceMetrics,
		Clock:     clock,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build data pipeline")
	}

	preloadCfg := worker.DefaultPreloadConfig()
	preloadCfg.Interval = cfg.Preload.Interval
	if preloadCfg.Interval <= 0 {
		preloadCfg.Interval = 15 * time.Minute
	}
	if cfg.Preload.Concurrency > 0 {
		preloadCfg.Concurrency = cfg.Preload.Concurrency
	}

	var last lastResult
	job := worker.NewPreloadJob(worker.PreloadJobConfig{
		Config:   preloadCfg,
		Logger:   log,
		Resolver: pipeline.Resolver,
		Clock:    clock,
		OnResult: last.set,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		status := http.StatusOK
		body := map[string]any{
			"status":  "healthy",
			"version": Version,
			"mode":    pipeline.Mode(),
			"metrics": job.GetMetrics(),
		}
		if r := last.get(); r != nil {
			body["lastRun"] = r
			if r.Failed() > 0 {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go job.Start(ctx)

	<-ctx.Done()
	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
