package source

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/hydroviewer/hydroviewer/internal/source"

// Metrics holds the resolver instruments.
type Metrics struct {
	resolveDuration metric.Float64Histogram
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	fallbacks       metric.Int64Counter
	failures        metric.Int64Counter
}

// NewMetrics creates resolver instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	resolveDuration, err := meter.Float64Histogram(
		"hydro.source.resolve.duration",
		metric.WithDescription("Duration of domain resolutions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"hydro.source.cache.hits",
		metric.WithDescription("Domain lookups served from the memo"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"hydro.source.cache.misses",
		metric.WithDescription("Domain lookups that triggered a resolution"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"hydro.source.live.fallbacks",
		metric.WithDescription("Live resolutions that fell back to static documents"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"hydro.source.failures",
		metric.WithDescription("Resolutions where the static document also failed"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		resolveDuration: resolveDuration,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		fallbacks:       fallbacks,
		failures:        failures,
	}, nil
}
