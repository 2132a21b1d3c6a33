// Package session holds per-viewer state: the current selection and storm, the bound
// view and charts, and the map overlays.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/maplayer"
	"github.com/hydroviewer/hydroviewer/internal/render"
	"github.com/hydroviewer/hydroviewer/internal/selection"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// Predefined errors for session operations.
var (
	ErrNotFound         = errors.New("session not found")
	ErrInvalidSelection = errors.New("invalid selection")
)

// Composer builds views for a request.
type Composer interface {
	Compose(ctx context.Context, req view.Request) view.View
}

// Session is one viewer. All methods are safe for concurrent use.
type Session struct {
	id        string
	createdAt time.Time
	composer  Composer
	canvases  *render.Canvases
	layers    *maplayer.Manager
	logger    zerolog.Logger

	mu        sync.Mutex
	state     selection.State
	selectors selection.Selectors
	stormID   string
	view      view.View
	stale     uint64
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Layers returns the session's overlay manager.
func (s *Session) Layers() *maplayer.Manager {
	return s.layers
}

// Select applies a station selection and recomposes the view.
func (s *Session) Select(ctx context.Context, e selection.Event) (view.View, error) {
	s.mu.Lock()
	next, effects := selection.Apply(s.state, e)
	if len(effects) == 0 {
		s.mu.Unlock()
		return view.View{}, ErrInvalidSelection
	}
	s.state = next
	recompose := s.selectors.Perform(effects)
	req := s.requestLocked()
	current := s.view
	s.mu.Unlock()

	if !recompose {
		return current, nil
	}
	return s.recompose(ctx, req), nil
}

// SetStorm sets or, with an empty id, clears the storm filter and recomposes.
func (s *Session) SetStorm(ctx context.Context, stormID string) view.View {
	s.mu.Lock()
	s.stormID = stormID
	req := s.requestLocked()
	s.mu.Unlock()

	return s.recompose(ctx, req)
}

func (s *Session) requestLocked() view.Request {
	return view.Request{Selection: s.state, StormID: s.stormID}
}

// recompose composes req and binds the result unless the session moved on while it
// was composing. It returns the view that is bound afterwards.
func (s *Session) recompose(ctx context.Context, req view.Request) view.View {
	v := s.composer.Compose(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !v.Matches(s.requestLocked()) {
		s.stale++
		s.logger.Debug().
			Str("session_id", s.id).
			Str("station_id", req.Selection.StationID).
			Msg("discarding stale view")
		return s.view
	}

	s.canvases.DestroyAll()
	for i := range v.Panels {
		p := &v.Panels[i]
		if p.State != view.StateChart || p.Chart == nil {
			continue
		}
		if _, err := s.canvases.Bind(string(p.ID), *p.Chart); err != nil {
			p.State = view.StateError
			p.Message = render.FailureText
		}
	}
	s.view = v
	return v
}

// View returns the bound view.
func (s *Session) View() view.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Chart returns the chart bound to a panel's canvas.
func (s *Session) Chart(panel view.PanelID) (*render.Chart, bool) {
	return s.canvases.Get(string(panel))
}

// Snapshot is the externally visible session state.
type Snapshot struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"createdAt"`
	Selection selection.State     `json:"selection"`
	Selectors selection.Selectors `json:"selectors"`
	StormID   string              `json:"stormId,omitempty"`
	Charts    []string            `json:"charts"`
	Viewport  maplayer.Viewport   `json:"viewport"`
	Stale     uint64              `json:"staleViews"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		CreatedAt: s.createdAt,
		Selection: s.state,
		Selectors: s.selectors,
		StormID:   s.stormID,
		Charts:    s.canvases.Bound(),
		Viewport:  s.layers.Viewport(),
		Stale:     s.stale,
	}
}

// close releases the session's charts.
func (s *Session) close() {
	s.canvases.DestroyAll()
}
