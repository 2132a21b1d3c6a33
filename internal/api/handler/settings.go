package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/api/models"
	"github.com/hydroviewer/hydroviewer/internal/api/response"
	"github.com/hydroviewer/hydroviewer/internal/featureflags"
	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// SettingsService reads and writes view settings.
type SettingsService interface {
	ViewSettings(ctx context.Context) view.Settings
	SetFlags(ctx context.Context, flags []*featureflags.Flag) error
}

// SettingsHandler handles the admin view settings endpoints.
type SettingsHandler struct {
	service SettingsService
	clock   clockwork.Clock
	logger  zerolog.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(service SettingsService, clock clockwork.Clock, logger zerolog.Logger) *SettingsHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SettingsHandler{service: service, clock: clock, logger: logger}
}

// Get handles GET /v1/admin/domains.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, toViewSettings(h.service.ViewSettings(r.Context())))
}

// Update handles PUT /v1/admin/domains.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateViewSettings
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	now := h.clock.Now()
	flags := make([]*featureflags.Flag, 0, len(req.Domains)+len(req.Strategies))
	for domain, enabled := range req.Domains {
		key := featureflags.DomainDisabledKey(hydro.Domain(domain))
		flags = append(flags, &featureflags.Flag{Key: key, Value: !enabled, UpdatedAt: now})
	}
	for panel, strategy := range req.Strategies {
		key := featureflags.StrategyKey(view.PanelID(panel))
		flags = append(flags, &featureflags.Flag{Key: key, Value: strategy, UpdatedAt: now})
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Key < flags[j].Key })

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		if errors.Is(err, featureflags.ErrInvalidFlag) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		h.logger.Error().Err(err).Msg("failed to update view settings")
		response.InternalError(w, r, "failed to update view settings")
		return
	}

	h.logger.Info().Int("flags", len(flags)).Msg("view settings updated")
	response.JSON(w, r, http.StatusOK, toViewSettings(h.service.ViewSettings(r.Context())))
}

func toViewSettings(s view.Settings) models.ViewSettings {
	out := models.ViewSettings{
		Domains:    make([]models.DomainSetting, 0, len(hydro.AllDomains())),
		Strategies: make(map[string]string),
	}
	for _, d := range hydro.AllDomains() {
		out.Domains = append(out.Domains, models.DomainSetting{Domain: string(d), Enabled: s.DomainEnabled(d)})
	}
	for _, id := range view.PanelOrder() {
		out.Strategies[string(id)] = string(s.Strategy(id))
	}
	return out
}
