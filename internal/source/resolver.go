// Package source resolves each data domain from the live backend or the static bundle,
// memoizes successful resolutions, and tracks the data-unavailable banner.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/source/static"
	"github.com/hydroviewer/hydroviewer/internal/stationid"
)

// ErrUnknownDomain is returned for domain names outside hydro.AllDomains.
var ErrUnknownDomain = errors.New("unknown data domain")

// LiveAPI is the subset of the backend used for resolution.
type LiveAPI interface {
	Stations(ctx context.Context) ([]hydro.Station, error)
	StationSeries(ctx context.Context, id string) (hydro.Series, error)
}

// Origin records where a memoized domain came from.
type Origin string

// Origins.
const (
	OriginLive   Origin = "live"
	OriginStatic Origin = "static"
)

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// Live is the backend client. Nil means static-only.
	Live LiveAPI

	// Static reads bundled documents (required).
	Static static.Fetcher

	Logger zerolog.Logger

	// Clock timestamps resolutions (optional).
	Clock clockwork.Clock

	// Metrics records resolver instruments (optional).
	Metrics *Metrics

	// OnDemandRate limits on-demand series fetches per second (default: 5).
	OnDemandRate rate.Limit

	// OnDemandBurst is the limiter burst (default: 5).
	OnDemandBurst int
}

// Resolver resolves data domains. It is safe for concurrent use.
type Resolver struct {
	live    LiveAPI
	static  static.Fetcher
	logger  zerolog.Logger
	clock   clockwork.Clock
	metrics *Metrics
	tracer  trace.Tracer
	limiter *rate.Limiter

	group singleflight.Group

	mu       sync.RWMutex
	memo     map[hydro.Domain]*entry
	onDemand map[string]hydro.Series
	failures map[hydro.Domain]int
	banner   banner
}

type entry struct {
	value      any
	origin     Origin
	resolvedAt time.Time
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	limit := cfg.OnDemandRate
	if limit == 0 {
		limit = 5
	}
	burst := cfg.OnDemandBurst
	if burst == 0 {
		burst = 5
	}
	return &Resolver{
		live:     cfg.Live,
		static:   cfg.Static,
		logger:   cfg.Logger,
		clock:    clock,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer(instrumentationName),
		limiter:  rate.NewLimiter(limit, burst),
		memo:     make(map[hydro.Domain]*entry),
		onDemand: make(map[string]hydro.Series),
		failures: make(map[hydro.Domain]int),
	}
}

// LiveEnabled reports whether a backend is configured.
func (r *Resolver) LiveEnabled() bool {
	return r.live != nil
}

// Stations returns the discharge station catalog.
func (r *Resolver) Stations(ctx context.Context) []hydro.Station {
	v, _ := r.Resolve(ctx, hydro.DomainStations)
	return v.([]hydro.Station)
}

// Discharge returns the discharge document. ok is false when neither the backend nor
// the static bundle could provide it.
func (r *Resolver) Discharge(ctx context.Context) (hydro.DischargeDataset, bool) {
	v, ok := r.Resolve(ctx, hydro.DomainDischargeSeries)
	return v.(hydro.DischargeDataset), ok
}

// NOAAStations returns the tide station catalog.
func (r *Resolver) NOAAStations(ctx context.Context) []hydro.Station {
	v, _ := r.Resolve(ctx, hydro.DomainNOAAStations)
	return v.([]hydro.Station)
}

// Sensors returns the auxiliary sensor list.
func (r *Resolver) Sensors(ctx context.Context) []hydro.Sensor {
	v, _ := r.Resolve(ctx, hydro.DomainSensors)
	return v.([]hydro.Sensor)
}

// Storms returns the storm catalog.
func (r *Resolver) Storms(ctx context.Context) []hydro.StormWindow {
	v, _ := r.Resolve(ctx, hydro.DomainStorms)
	return v.([]hydro.StormWindow)
}

// VTEC returns the warning intervals document.
func (r *Resolver) VTEC(ctx context.Context) (hydro.VTECDataset, bool) {
	v, ok := r.Resolve(ctx, hydro.DomainVTEC)
	return v.(hydro.VTECDataset), ok
}

// WaterLevel returns the NOAA water level document.
func (r *Resolver) WaterLevel(ctx context.Context) (hydro.WaterLevelDataset, bool) {
	v, ok := r.Resolve(ctx, hydro.DomainWaterLevel)
	return v.(hydro.WaterLevelDataset), ok
}

// Meteorological returns the NOAA meteorological document.
func (r *Resolver) Meteorological(ctx context.Context) (hydro.MetDataset, bool) {
	v, ok := r.Resolve(ctx, hydro.DomainMeteorological)
	return v.(hydro.MetDataset), ok
}

// Precipitation returns the precipitation document.
func (r *Resolver) Precipitation(ctx context.Context) (hydro.PrecipitationDataset, bool) {
	v, ok := r.Resolve(ctx, hydro.DomainPrecipitation)
	return v.(hydro.PrecipitationDataset), ok
}

// Resolve returns the value for domain d. A memoized value is returned when present.
// Otherwise the domain is resolved, live first where the backend serves it, and
// memoized on success. When every source fails the empty value for the domain is
// returned with ok=false and the banner is raised; the failure is not memoized.
// Resolve panics on an unknown domain.
func (r *Resolver) Resolve(ctx context.Context, d hydro.Domain) (any, bool) {
	if !d.Valid() {
		panic(fmt.Sprintf("source: %v: %q", ErrUnknownDomain, d))
	}

	r.mu.RLock()
	e, ok := r.memo[d]
	r.mu.RUnlock()
	if ok {
		r.count(ctx, d, true)
		return e.value, true
	}
	r.count(ctx, d, false)

	return r.shared(ctx, d, string(d), func(fctx context.Context) (any, error) {
		r.mu.RLock()
		e, ok := r.memo[d]
		r.mu.RUnlock()
		if ok {
			return e.value, nil
		}
		return r.resolve(fctx, d, false)
	})
}

// Reload fetches d again and replaces the memoized value only on success. While a
// previous value exists a failed reload keeps serving it and leaves the banner alone.
func (r *Resolver) Reload(ctx context.Context, d hydro.Domain) bool {
	if !d.Valid() {
		panic(fmt.Sprintf("source: %v: %q", ErrUnknownDomain, d))
	}
	_, ok := r.shared(ctx, d, "reload:"+string(d), func(fctx context.Context) (any, error) {
		return r.resolve(fctx, d, true)
	})
	return ok
}

// shared runs fn once per key for all concurrent callers. fn runs detached from the
// caller's cancellation; a caller whose context ends gets the empty value.
func (r *Resolver) shared(ctx context.Context, d hydro.Domain, key string, fn func(context.Context) (any, error)) (any, bool) {
	if ctx.Err() != nil {
		return emptyValue(d), false
	}

	fctx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		return fn(fctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return emptyValue(d), false
		}
		return res.Val, true
	case <-ctx.Done():
		return emptyValue(d), false
	}
}

func (r *Resolver) resolve(ctx context.Context, d hydro.Domain, reload bool) (any, error) {
	ctx, span := r.tracer.Start(ctx, "source.resolve",
		trace.WithAttributes(
			attribute.String("hydro.domain", string(d)),
			attribute.Bool("hydro.reload", reload),
		))
	defer span.End()

	start := r.clock.Now()
	value, origin, err := r.load(ctx, d)
	if r.metrics != nil {
		r.metrics.resolveDuration.Record(ctx, r.clock.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("hydro.domain", string(d))))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		if reload && r.Resolved(d) {
			r.staleKept(ctx, d, err)
			return nil, err
		}
		r.fail(ctx, d, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("hydro.origin", string(origin)))

	r.mu.Lock()
	r.memo[d] = &entry{value: value, origin: origin, resolvedAt: r.clock.Now()}
	if reload && d == hydro.DomainDischargeSeries {
		r.onDemand = make(map[string]hydro.Series)
	}
	r.banner.clear(d)
	if d == hydro.DomainStations && len(value.([]hydro.Station)) > 0 {
		r.banner.lower()
	}
	r.mu.Unlock()

	r.logger.Debug().
		Str("domain", string(d)).
		Str("origin", string(origin)).
		Bool("reload", reload).
		Msg("domain resolved")

	return value, nil
}

func (r *Resolver) load(ctx context.Context, d hydro.Domain) (any, Origin, error) {
	if d.HasLive() && r.live != nil {
		stations, err := r.live.Stations(ctx)
		if err == nil {
			ds := hydro.DischargeDataset{Stations: stations, Series: hydro.SeriesSet{}}
			if d == hydro.DomainStations {
				return ds.Stations, OriginLive, nil
			}
			return ds, OriginLive, nil
		}
		r.logger.Warn().
			Err(err).
			Str("domain", string(d)).
			Msg("live backend unavailable, falling back to static data")
		if r.metrics != nil {
			r.metrics.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("hydro.domain", string(d))))
		}
	}

	data, err := r.static.Fetch(ctx, static.DocumentPath(d.Document()))
	if err != nil {
		return nil, "", err
	}

	value, err := decode(d, data)
	if err != nil {
		return nil, "", err
	}
	return value, OriginStatic, nil
}

func decode(d hydro.Domain, data []byte) (any, error) {
	switch d {
	case hydro.DomainStations:
		ds, err := hydro.DecodeDischarge(data)
		if err != nil {
			return nil, err
		}
		return ds.Stations, nil
	case hydro.DomainDischargeSeries:
		return hydro.DecodeDischarge(data)
	case hydro.DomainNOAAStations:
		return hydro.DecodeNOAAStations(data)
	case hydro.DomainSensors:
		return hydro.DecodeSensors(data)
	case hydro.DomainStorms:
		return hydro.DecodeStorms(data)
	case hydro.DomainVTEC:
		return hydro.DecodeVTEC(data)
	case hydro.DomainWaterLevel:
		return hydro.DecodeWaterLevel(data)
	case hydro.DomainMeteorological:
		return hydro.DecodeMeteorological(data)
	case hydro.DomainPrecipitation:
		return hydro.DecodePrecipitation(data)
	default:
		return nil, ErrUnknownDomain
	}
}

func emptyValue(d hydro.Domain) any {
	switch d {
	case hydro.DomainStations, hydro.DomainNOAAStations:
		return []hydro.Station{}
	case hydro.DomainDischargeSeries:
		return hydro.DischargeDataset{Stations: []hydro.Station{}, Series: hydro.SeriesSet{}}
	case hydro.DomainSensors:
		return []hydro.Sensor{}
	case hydro.DomainStorms:
		return []hydro.StormWindow{}
	case hydro.DomainVTEC:
		return hydro.VTECDataset{Series: map[string][]hydro.WarningInterval{}}
	case hydro.DomainWaterLevel:
		return hydro.WaterLevelDataset{Series: map[string]hydro.WaterLevel{}}
	case hydro.DomainMeteorological:
		return hydro.MetDataset{Series: map[string]hydro.MetStation{}}
	case hydro.DomainPrecipitation:
		return hydro.PrecipitationDataset{Series: hydro.SeriesSet{}}
	default:
		return nil
	}
}

func (r *Resolver) fail(ctx context.Context, d hydro.Domain, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.logger.Debug().Err(err).Str("domain", string(d)).Msg("resolution abandoned")
		return
	}

	r.mu.Lock()
	r.failures[d]++
	first := r.banner.raise(d)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("hydro.domain", string(d))))
	}

	if first {
		r.logger.Error().
			Err(err).
			Str("domain", string(d)).
			Msg("data unavailable")
	}
}

func (r *Resolver) staleKept(ctx context.Context, d hydro.Domain, err error) {
	r.mu.Lock()
	r.failures[d]++
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("hydro.domain", string(d))))
	}
	r.logger.Warn().
		Err(err).
		Str("domain", string(d)).
		Msg("reload failed, serving previous value")
}

func (r *Resolver) count(ctx context.Context, d hydro.Domain, hit bool) {
	if r.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("hydro.domain", string(d)))
	if hit {
		r.metrics.cacheHits.Add(ctx, 1, attrs)
		return
	}
	r.metrics.cacheMisses.Add(ctx, 1, attrs)
}

// Series returns the discharge series for a station: the bulk document first, then a
// best-effort on-demand fetch from the backend. Any failure yields ok=false.
func (r *Resolver) Series(ctx context.Context, id string) (hydro.Series, bool) {
	ds, _ := r.Discharge(ctx)
	if s, ok := ds.Series.Lookup(id); ok && len(s) > 0 {
		return s, true
	}
	if display := stationid.DischargeDisplayID(id); display != id {
		if s, ok := ds.Series.Lookup(display); ok && len(s) > 0 {
			return s, true
		}
	}

	if r.live == nil || id == "" {
		return nil, false
	}

	r.mu.RLock()
	cached, ok := r.onDemand[id]
	r.mu.RUnlock()
	if ok {
		return cached, true
	}

	v, err, _ := r.group.Do("series:"+id, func() (any, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		s, err := r.live.StationSeries(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(s) > 0 {
			r.mu.Lock()
			r.onDemand[id] = s
			r.mu.Unlock()
		}
		return s, nil
	})
	if err != nil {
		r.logger.Debug().Err(err).Str("station_id", id).Msg("on-demand series unavailable")
		return nil, false
	}

	s := v.(hydro.Series)
	if len(s) == 0 {
		return nil, false
	}
	return s, true
}

// DomainStatus describes the memo state of one domain.
type DomainStatus struct {
	Domain     hydro.Domain
	Resolved   bool
	Origin     Origin
	ResolvedAt time.Time
	Failures   int
}

// Status reports every domain in load order.
func (r *Resolver) Status() []DomainStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DomainStatus, 0, len(hydro.AllDomains()))
	for _, d := range hydro.AllDomains() {
		st := DomainStatus{Domain: d, Failures: r.failures[d]}
		if e, ok := r.memo[d]; ok {
			st.Resolved = true
			st.Origin = e.origin
			st.ResolvedAt = e.resolvedAt
		}
		out = append(out, st)
	}
	return out
}

// Resolved reports whether d is memoized.
func (r *Resolver) Resolved(d hydro.Domain) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.memo[d]
	return ok
}

// Banner returns the current data-unavailable banner state.
func (r *Resolver) Banner() Banner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.banner.snapshot()
}
