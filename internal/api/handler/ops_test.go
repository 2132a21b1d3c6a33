package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/api/handler"
	"github.com/hydroviewer/hydroviewer/internal/api/models"
	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/provider/resilience"
	"github.com/hydroviewer/hydroviewer/internal/source"
	"github.com/hydroviewer/hydroviewer/internal/worker"
)

type fakeStatus struct {
	live     bool
	resolved map[hydro.Domain]bool
	banner   source.Banner
}

func (f fakeStatus) LiveEnabled() bool { return f.live }

func (f fakeStatus) Status() []source.DomainStatus {
	out := make([]source.DomainStatus, 0, len(f.resolved))
	for _, d := range hydro.AllDomains() {
		if f.resolved[d] {
			out = append(out, source.DomainStatus{Domain: d, Resolved: true, Origin: source.OriginStatic})
		}
	}
	return out
}

func (f fakeStatus) Banner() source.Banner { return f.banner }

func (f fakeStatus) Resolved(d hydro.Domain) bool { return f.resolved[d] }

type disabledDomains map[hydro.Domain]bool

func (d disabledDomains) DomainEnabled(_ context.Context, domain hydro.Domain) bool {
	return !d[domain]
}

type fixedPreload struct{ m worker.MetricsSnapshot }

func (f fixedPreload) GetMetrics() worker.MetricsSnapshot { return f.m }

func newOpsRouter(cfg handler.OpsConfig) http.Handler {
	h := handler.NewOpsHandler(cfg)
	r := chi.NewRouter()
	r.Get("/v1/ops/health", h.HealthCheck)
	r.Get("/v1/ops/ready", h.ReadinessCheck)
	r.Get("/v1/ops/status", h.SystemStatus)
	return r
}

func TestOps_Health(t *testing.T) {
	router := newOpsRouter(handler.OpsConfig{Version: "1.2.3", Source: fakeStatus{}, Clock: clockwork.NewFakeClock()})

	rec := do(t, router, http.MethodGet, "/v1/ops/health", "")
	requireStatus(t, rec, http.StatusOK)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "1.2.3", health.Details["version"])
}

func TestOps_Readiness(t *testing.T) {
	rec := do(t, newOpsRouter(handler.OpsConfig{Source: fakeStatus{}}), http.MethodGet, "/v1/ops/ready", "")
	requireStatus(t, rec, http.StatusServiceUnavailable)
	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)

	ready := fakeStatus{resolved: map[hydro.Domain]bool{hydro.DomainStations: true}}
	rec = do(t, newOpsRouter(handler.OpsConfig{Source: ready}), http.MethodGet, "/v1/ops/ready", "")
	requireStatus(t, rec, http.StatusOK)
}

func TestOps_StatusHealthy(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	registry := resilience.NewRegistryWithClock(clock)
	registry.Register("static", resilience.NewClient(resilience.DefaultClientConfig("static")))
	registry.RecordSuccess("static")

	router := newOpsRouter(handler.OpsConfig{
		APIBase: "http://127.0.0.1:8000",
		Source: fakeStatus{
			live:     true,
			resolved: map[hydro.Domain]bool{hydro.DomainStations: true, hydro.DomainVTEC: true},
		},
		Registry: registry,
		Flags:    disabledDomains{hydro.DomainVTEC: true},
		Preload:  fixedPreload{m: worker.MetricsSnapshot{TotalRuns: 2, DomainsLoaded: 18}},
		Clock:    clock,
	})

	rec := do(t, router, http.MethodGet, "/v1/ops/status", "")
	requireStatus(t, rec, http.StatusOK)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.Equal(t, "live", status.Mode)
	assert.Equal(t, "http://127.0.0.1:8000", status.APIBase)
	assert.False(t, status.Banner.Raised)

	require.Len(t, status.Domains, 2)
	assert.Equal(t, "stations", status.Domains[0].Domain)
	assert.True(t, status.Domains[0].Enabled)
	assert.Equal(t, "vtec", status.Domains[1].Domain)
	assert.False(t, status.Domains[1].Enabled)

	require.Len(t, status.Providers, 1)
	assert.Equal(t, "static", status.Providers[0].Provider)
	assert.Equal(t, models.HealthStatusOK, status.Providers[0].Status)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
	require.NotNil(t, status.Providers[0].LastSuccessAt)

	require.NotNil(t, status.Preload)
	assert.Equal(t, int64(18), status.Preload.DomainsLoaded)
	assert.Nil(t, status.Preload.LastRunAt)
}

func TestOps_StatusDegradedByBanner(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("live", resilience.NewClient(resilience.DefaultClientConfig("live")))
	registry.RecordFailure("live", errors.New("connection refused"))

	router := newOpsRouter(handler.OpsConfig{
		Source: fakeStatus{banner: source.Banner{
			Raised:  true,
			Message: source.BannerMessage,
			Domains: []hydro.Domain{hydro.DomainWaterLevel},
		}},
		Registry: registry,
	})

	rec := do(t, router, http.MethodGet, "/v1/ops/status", "")
	requireStatus(t, rec, http.StatusOK)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusDegraded, status.Status)
	assert.Equal(t, "static", status.Mode)
	assert.True(t, status.Banner.Raised)
	assert.Equal(t, []string{string(hydro.DomainWaterLevel)}, status.Banner.Domains)
	require.Len(t, status.Providers, 1)
	require.NotNil(t, status.Providers[0].Message)
	assert.Equal(t, "connection refused", *status.Providers[0].Message)
	assert.Nil(t, status.Preload)
}
