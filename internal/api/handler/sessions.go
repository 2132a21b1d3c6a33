package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/api/models"
	"github.com/hydroviewer/hydroviewer/internal/api/response"
	"github.com/hydroviewer/hydroviewer/internal/maplayer"
	"github.com/hydroviewer/hydroviewer/internal/selection"
	"github.com/hydroviewer/hydroviewer/internal/session"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// SessionStore holds viewer sessions.
type SessionStore interface {
	Create(ctx context.Context) *session.Session
	Get(id string) (*session.Session, error)
	Delete(id string) error
}

// SessionHandler handles viewer session endpoints.
type SessionHandler struct {
	store  SessionStore
	logger zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store SessionStore, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// layersPayload is the overlay state of a session.
type layersPayload struct {
	Overlays []maplayer.Overlay `json:"overlays"`
	Viewport maplayer.Viewport  `json:"viewport"`
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create(r.Context())
	response.Created(w, r, "/v1/sessions/"+s.ID(), s.Snapshot())
}

// Get handles GET /v1/sessions/{sessionId}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, s.Snapshot())
}

// Delete handles DELETE /v1/sessions/{sessionId}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "sessionId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// Select handles POST /v1/sessions/{sessionId}/selection.
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.SelectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid selection", errs)
		return
	}

	id := strings.TrimSpace(req.StationID)
	event := selection.SelectDischarge(id)
	if req.Domain == models.SelectionDomainTide {
		event = selection.SelectTide(id)
	}

	v, err := s.Select(r.Context(), event)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, v)
}

// SetStorm handles PUT /v1/sessions/{sessionId}/storm. An empty stormId clears the filter.
func (h *SessionHandler) SetStorm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.StormRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	response.JSON(w, r, http.StatusOK, s.SetStorm(r.Context(), strings.TrimSpace(req.StormID)))
}

// GetView handles GET /v1/sessions/{sessionId}/view.
func (h *SessionHandler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, s.View())
}

// GetLayers handles GET /v1/sessions/{sessionId}/layers.
func (h *SessionHandler) GetLayers(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, layersPayload{
		Overlays: s.Layers().Overlays(),
		Viewport: s.Layers().Viewport(),
	})
}

// ToggleLayer handles PUT /v1/sessions/{sessionId}/layers/{layer}.
func (h *SessionHandler) ToggleLayer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.LayerToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid layer toggle", errs)
		return
	}

	name := maplayer.LayerName(chi.URLParam(r, "layer"))
	overlay, err := s.Layers().Toggle(r.Context(), name, *req.Visible)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, overlay)
}

// GetChart handles GET /v1/sessions/{sessionId}/charts/{panel}.png.
func (h *SessionHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	panel := view.PanelID(chi.URLParam(r, "panel"))
	chart, found := s.Chart(panel)
	if !found || len(chart.PNG) == 0 {
		response.NotFound(w, r, "no chart is bound to panel "+string(panel))
		return
	}
	response.PNG(w, r, chart.PNG)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.store.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		response.NotFound(w, r, "session not found")
	case errors.Is(err, session.ErrInvalidSelection):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, maplayer.ErrUnknownLayer):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, maplayer.ErrSuperseded):
		response.Conflict(w, r, err.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("session request failed")
		response.InternalError(w, r, "failed to process session request")
	}
}
