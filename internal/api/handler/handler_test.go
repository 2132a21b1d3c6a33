package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/hydroviewer/hydroviewer/internal/api/handler"
	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/render"
	"github.com/hydroviewer/hydroviewer/internal/session"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

func ptr(f float64) *float64 { return &f }

type fakeCatalog struct{}

func (fakeCatalog) Stations(context.Context) []hydro.Station {
	return []hydro.Station{
		{ID: "01108000", Name: "Taunton River", Lat: ptr(41.9), Lon: ptr(-71.0), State: "MA"},
		{ID: "01108000", Name: "Duplicate"},
		{ID: "  ", Name: "Blank"},
		{ID: "01105000", Name: "Neponset River"},
	}
}

func (fakeCatalog) NOAAStations(context.Context) []hydro.Station {
	return []hydro.Station{{
		ID:   "8454000",
		Name: "Providence",
		Lat:  ptr(41.8),
		Lon:  ptr(-71.4),
		Kind: hydro.KindTide,
		URL:  "https://tidesandcurrents.noaa.gov/stationhome.html?id=8454000",
	}}
}

func (fakeCatalog) Sensors(context.Context) []hydro.Sensor {
	return []hydro.Sensor{{Name: "Gauge A", Lat: ptr(41.5), Lon: ptr(-71.2), SensorType: "rain"}}
}

func (fakeCatalog) Storms(context.Context) []hydro.StormWindow {
	return []hydro.StormWindow{
		{ID: "sandy", Name: "Sandy", Year: 2012, StartDate: "2012-10-22", EndDate: "2012-11-02"},
	}
}

// fakeComposer returns a discharge chart panel for any selection.
type fakeComposer struct{}

func (fakeComposer) Compose(_ context.Context, req view.Request) view.View {
	v := view.View{Request: req}
	if !req.Selection.IsZero() {
		v.Panels = []view.Panel{{
			ID:      view.PanelDischarge,
			Visible: true,
			State:   view.StateChart,
			Chart:   &render.Spec{Title: req.Selection.StationID, Kind: render.KindLine},
		}}
	}
	return v
}

type stubBackend struct{}

func (stubBackend) Draw(w io.Writer, spec render.Spec) error {
	_, err := io.WriteString(w, "png:"+spec.Title)
	return err
}

// fakeOverlays serves a DEM extent and fails the watershed.
type fakeOverlays struct{}

func (fakeOverlays) Watershed(context.Context) ([]geom.T, error) {
	return nil, errors.New("watershed unavailable")
}

func (fakeOverlays) DEMBounds(context.Context) (*geom.Bounds, error) {
	return geom.NewBounds(geom.XY).Set(-71.5, 41.5, -70.5, 42.5), nil
}

func (fakeOverlays) DEMImageURL() string { return "http://127.0.0.1:8000/dem.png" }

func newSessionStore() *session.Store {
	return session.NewStore(session.StoreConfig{
		Composer: fakeComposer{},
		Renderer: render.NewRenderer(stubBackend{}, zerolog.Nop()),
		Overlays: fakeOverlays{},
		IdleTTL:  time.Hour,
		Clock:    clockwork.NewFakeClock(),
		Logger:   zerolog.Nop(),
	})
}

func newSessionRouter(store handler.SessionStore) http.Handler {
	h := handler.NewSessionHandler(store, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/v1/sessions", h.Create)
	r.Route("/v1/sessions/{sessionId}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/selection", h.Select)
		r.Put("/storm", h.SetStorm)
		r.Get("/view", h.GetView)
		r.Get("/layers", h.GetLayers)
		r.Put("/layers/{layer}", h.ToggleLayer)
		r.Get("/charts/{panel}.png", h.GetChart)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}
