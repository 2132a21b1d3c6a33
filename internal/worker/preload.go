package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
)

// Resolver resolves data domains and reloads memoized ones.
type Resolver interface {
	Resolve(ctx context.Context, d hydro.Domain) (any, bool)
	Reload(ctx context.Context, d hydro.Domain) bool
}

// DomainFilter reports whether a domain is shown. Disabled domains are skipped.
type DomainFilter interface {
	DomainEnabled(ctx context.Context, d hydro.Domain) bool
}

// PreloadJob resolves data domains ahead of the first session so the first
// selection does not wait on the network.
type PreloadJob struct {
	config   PreloadConfig
	logger   zerolog.Logger
	resolver Resolver
	filter   DomainFilter
	clock    clockwork.Clock
	onResult func(*PreloadResult)

	metrics *PreloadMetrics
}

// PreloadMetrics tracks preload job statistics.
type PreloadMetrics struct {
	mu sync.RWMutex

	TotalRuns      int64
	DomainsLoaded  int64
	DomainsFailed  int64
	DomainsSkipped int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// PreloadJobConfig holds configuration for creating a PreloadJob.
type PreloadJobConfig struct {
	Config   PreloadConfig
	Logger   zerolog.Logger
	Resolver Resolver
	Filter   DomainFilter // optional
	Clock    clockwork.Clock

	// OnResult is called after every run (optional).
	OnResult func(*PreloadResult)
}

// NewPreloadJob creates a new preload job.
func NewPreloadJob(cfg PreloadJobConfig) *PreloadJob {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PreloadJob{
		config:   cfg.Config.withDefaults(),
		logger:   cfg.Logger,
		resolver: cfg.Resolver,
		filter:   cfg.Filter,
		clock:    clock,
		onResult: cfg.OnResult,
		metrics:  &PreloadMetrics{},
	}
}

// PreloadResult contains the result of a preload run.
type PreloadResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Loaded    []hydro.Domain
	Skipped   []hydro.Domain
	Errors    []PreloadError
}

// PreloadError records a domain that failed to resolve.
type PreloadError struct {
	Domain hydro.Domain
	Error  string
}

// Failed returns the number of domains that failed.
func (r *PreloadResult) Failed() int {
	return len(r.Errors)
}

// Run resolves every configured domain. Memoized domains return immediately.
// Failures are recorded in the result; they are never fatal.
func (j *PreloadJob) Run(ctx context.Context) *PreloadResult {
	return j.run(ctx, "preload", func(ctx context.Context, d hydro.Domain) bool {
		_, ok := j.resolver.Resolve(ctx, d)
		return ok
	})
}

// Refresh fetches the configured domains again. A domain that fails keeps serving
// its previous value.
func (j *PreloadJob) Refresh(ctx context.Context) *PreloadResult {
	return j.run(ctx, "refresh", j.resolver.Reload)
}

func (j *PreloadJob) run(ctx context.Context, kind string, load func(context.Context, hydro.Domain) bool) *PreloadResult {
	startTime := j.clock.Now()
	result := &PreloadResult{StartTime: startTime}

	var domains []hydro.Domain
	for _, d := range j.config.Domains {
		if !d.Valid() {
			j.logger.Warn().Str("domain", string(d)).Msg("skipping unknown domain")
			continue
		}
		if j.filter != nil && !j.filter.DomainEnabled(ctx, d) {
			result.Skipped = append(result.Skipped, d)
			continue
		}
		domains = append(domains, d)
	}

	j.logger.Info().
		Int("domains", len(domains)).
		Int("concurrency", j.config.Concurrency).
		Str("kind", kind).
		Msg("starting domain preload")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)
	for _, d := range domains {
		d := d
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(gctx, j.config.Timeout)
			defer cancel()

			ok := load(dctx, d)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				result.Loaded = append(result.Loaded, d)
				return nil
			}
			result.Errors = append(result.Errors, PreloadError{Domain: d, Error: "resolution failed"})
			j.logger.Warn().Str("domain", string(d)).Msg("domain preload failed")
			return nil
		})
	}
	_ = g.Wait()

	result.EndTime = j.clock.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("loaded", len(result.Loaded)).
		Int("failed", result.Failed()).
		Int("skipped", len(result.Skipped)).
		Str("kind", kind).
		Msg("domain preload completed")

	if j.onResult != nil {
		j.onResult(result)
	}
	return result
}

// Start runs the job once and then refreshes on the configured interval until ctx
// is done.
func (j *PreloadJob) Start(ctx context.Context) {
	j.Run(ctx)
	if j.config.Interval <= 0 {
		return
	}

	ticker := j.clock.NewTicker(j.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("preload job stopped")
			return
		case <-ticker.Chan():
			j.Refresh(ctx)
		}
	}
}

func (j *PreloadJob) updateMetrics(result *PreloadResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.DomainsLoaded += int64(len(result.Loaded))
	j.metrics.DomainsFailed += int64(result.Failed())
	j.metrics.DomainsSkipped += int64(len(result.Skipped))
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *PreloadJob) GetMetrics() MetricsSnapshot {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	var avg time.Duration
	if j.metrics.TotalRuns > 0 {
		avg = j.metrics.TotalDuration / time.Duration(j.metrics.TotalRuns)
	}
	return MetricsSnapshot{
		TotalRuns:       j.metrics.TotalRuns,
		DomainsLoaded:   j.metrics.DomainsLoaded,
		DomainsFailed:   j.metrics.DomainsFailed,
		DomainsSkipped:  j.metrics.DomainsSkipped,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		AverageDuration: avg,
	}
}

// MetricsSnapshot is a point-in-time copy of preload metrics.
type MetricsSnapshot struct {
	TotalRuns       int64         `json:"totalRuns"`
	DomainsLoaded   int64         `json:"domainsLoaded"`
	DomainsFailed   int64         `json:"domainsFailed"`
	DomainsSkipped  int64         `json:"domainsSkipped"`
	LastRunAt       time.Time     `json:"lastRunAt"`
	LastRunDuration time.Duration `json:"lastRunDuration"`
	AverageDuration time.Duration `json:"averageDuration"`
}
