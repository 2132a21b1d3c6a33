package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/api/handler"
	"github.com/hydroviewer/hydroviewer/internal/api/models"
	"github.com/hydroviewer/hydroviewer/internal/maplayer"
)

func newCatalogRouter() http.Handler {
	h := handler.NewCatalogHandler(fakeCatalog{})
	r := chi.NewRouter()
	r.Get("/v1/stations/discharge", h.ListDischargeStations)
	r.Get("/v1/stations/noaa", h.ListNOAAStations)
	r.Get("/v1/sensors", h.ListSensors)
	r.Get("/v1/storms", h.ListStorms)
	r.Get("/v1/ids/{raw}", h.NormalizeID)
	r.Get("/v1/map", h.GetMap)
	return r
}

func TestCatalog_DischargeStationsDeduplicated(t *testing.T) {
	rec := do(t, newCatalogRouter(), http.MethodGet, "/v1/stations/discharge", "")
	requireStatus(t, rec, http.StatusOK)

	var list models.List[models.StationOption]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 2, list.Count)

	first := list.Items[0]
	assert.Equal(t, "01108000", first.ID)
	assert.Equal(t, "Taunton River (01108000)", first.Label)
	assert.Equal(t, "discharge", first.Kind)
	assert.Equal(t, "MA", first.State)
	assert.Contains(t, first.URL, "USGS-01108000")
	require.NotNil(t, first.Lat)
	assert.InDelta(t, 41.9, *first.Lat, 1e-9)

	assert.Equal(t, "Neponset River (01105000)", list.Items[1].Label)
}

func TestCatalog_NOAAStations(t *testing.T) {
	rec := do(t, newCatalogRouter(), http.MethodGet, "/v1/stations/noaa", "")
	requireStatus(t, rec, http.StatusOK)

	var list models.List[models.StationOption]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Providence (8454000)", list.Items[0].Label)
	assert.Equal(t, "tide", list.Items[0].Kind)
	assert.Equal(t, "https://tidesandcurrents.noaa.gov/stationhome.html?id=8454000", list.Items[0].URL)
}

func TestCatalog_SensorsAndStorms(t *testing.T) {
	router := newCatalogRouter()

	rec := do(t, router, http.MethodGet, "/v1/sensors", "")
	requireStatus(t, rec, http.StatusOK)
	var sensors models.List[models.SensorItem]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sensors))
	require.Len(t, sensors.Items, 1)
	assert.Equal(t, "rain", sensors.Items[0].SensorType)

	rec = do(t, router, http.MethodGet, "/v1/storms", "")
	requireStatus(t, rec, http.StatusOK)
	var storms models.List[models.StormItem]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &storms))
	require.Len(t, storms.Items, 1)
	assert.Equal(t, "Sandy", storms.Items[0].DisplayLabel)
	assert.Equal(t, "2012-10-22", storms.Items[0].StartDate)
}

func TestCatalog_NormalizeID(t *testing.T) {
	tests := []struct {
		raw     string
		display string
		vtec    string
		lookup  string
		valid   bool
	}{
		{raw: "1108000", display: "01108000", vtec: "01108000", lookup: "1108000", valid: true},
		{raw: "8454000", display: "08454000", vtec: "8454000", lookup: "8454000", valid: true},
		{raw: "abc", display: "00000abc", vtec: "00000abc", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rec := do(t, newCatalogRouter(), http.MethodGet, "/v1/ids/"+tt.raw, "")
			requireStatus(t, rec, http.StatusOK)

			var info models.StationIDInfo
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
			assert.Equal(t, tt.raw, info.Raw)
			assert.Equal(t, tt.display, info.DisplayID)
			assert.Equal(t, tt.vtec, info.VTECID)
			assert.Equal(t, tt.lookup, info.LookupID)
			assert.Equal(t, tt.valid, info.Valid)
		})
	}
}

func TestCatalog_Map(t *testing.T) {
	rec := do(t, newCatalogRouter(), http.MethodGet, "/v1/map", "")
	requireStatus(t, rec, http.StatusOK)

	var body struct {
		Viewport maplayer.Viewport      `json:"viewport"`
		Overlays []maplayer.LayerName   `json:"overlays"`
		Markers  []maplayer.MarkerLayer `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, maplayer.InitialViewport(), body.Viewport)
	assert.Equal(t, []maplayer.LayerName{maplayer.LayerWatershed, maplayer.LayerDEM}, body.Overlays)
	require.Len(t, body.Markers, 3)
	assert.Equal(t, maplayer.LayerDischarge, body.Markers[0].Name)
}
