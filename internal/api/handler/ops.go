package handler

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/hydroviewer/hydroviewer/internal/api/models"
	"github.com/hydroviewer/hydroviewer/internal/api/response"
	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/provider/resilience"
	"github.com/hydroviewer/hydroviewer/internal/source"
	"github.com/hydroviewer/hydroviewer/internal/worker"
)

// StatusSource reports resolver state.
type StatusSource interface {
	LiveEnabled() bool
	Status() []source.DomainStatus
	Banner() source.Banner
	Resolved(d hydro.Domain) bool
}

// DomainFilter reports whether a domain is enabled.
type DomainFilter interface {
	DomainEnabled(ctx context.Context, d hydro.Domain) bool
}

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// PreloadReporter exposes preload job metrics.
type PreloadReporter interface {
	GetMetrics() worker.MetricsSnapshot
}

// OpsConfig holds dependencies for the ops endpoints. Registry, Flags, Sessions and
// Preload are optional.
type OpsConfig struct {
	Version   string
	BuildTime string
	APIBase   string
	Source    StatusSource
	Registry  *resilience.Registry
	Flags     DomainFilter
	Sessions  SessionCounter
	Preload   PreloadReporter
	Clock     clockwork.Clock
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg   OpsConfig
	clock clockwork.Clock
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OpsHandler{cfg: cfg, clock: clock}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.clock.Now()),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the station
// catalog has been resolved.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.clock.Now()),
	}
	if !h.cfg.Source.Resolved(hydro.DomainStations) {
		health.Status = models.HealthStatusFail
		health.Details = map[string]any{"reason": "station catalog not loaded"}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - data source, domain and upstream status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(h.clock.Now()),
		Mode:      string(source.OriginStatic),
		APIBase:   h.cfg.APIBase,
		Domains:   []models.DomainStatus{},
		Providers: []models.ProviderStatus{},
	}
	if h.cfg.Source.LiveEnabled() {
		status.Mode = string(source.OriginLive)
	}

	banner := h.cfg.Source.Banner()
	status.Banner = models.BannerStatus{Raised: banner.Raised, Message: banner.Message}
	for _, d := range banner.Domains {
		status.Banner.Domains = append(status.Banner.Domains, string(d))
	}
	if banner.Raised {
		status.Status = models.HealthStatusDegraded
	}

	for _, st := range h.cfg.Source.Status() {
		enabled := h.cfg.Flags == nil || h.cfg.Flags.DomainEnabled(ctx, st.Domain)
		status.Domains = append(status.Domains, models.DomainStatus{
			Domain:     string(st.Domain),
			Enabled:    enabled,
			Resolved:   st.Resolved,
			Origin:     string(st.Origin),
			ResolvedAt: models.TimestampPtr(st.ResolvedAt),
			Failures:   st.Failures,
		})
	}

	if h.cfg.Registry != nil {
		for _, up := range h.cfg.Registry.AllHealth() {
			ps := providerStatus(up)
			if ps.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.cfg.Sessions != nil {
		status.Sessions = h.cfg.Sessions.Len()
	}
	if h.cfg.Preload != nil {
		m := h.cfg.Preload.GetMetrics()
		status.Preload = &models.PreloadStatus{
			TotalRuns:     m.TotalRuns,
			DomainsLoaded: m.DomainsLoaded,
			DomainsFailed: m.DomainsFailed,
			LastRunAt:     models.TimestampPtr(m.LastRunAt),
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(up *resilience.UpstreamHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     up.Name,
		Status:       models.HealthStatusOK,
		CircuitState: up.CircuitState.String(),
	}
	switch {
	case up.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case up.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}
	if up.LastSuccessAt != nil {
		ps.LastSuccessAt = models.TimestampPtr(*up.LastSuccessAt)
	}
	if up.LastFailureAt != nil {
		ps.LastFailureAt = models.TimestampPtr(*up.LastFailureAt)
	}
	if up.LastError != "" {
		msg := up.LastError
		ps.Message = &msg
	}
	return ps
}
