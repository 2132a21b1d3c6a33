package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hydroviewer/hydroviewer/internal/api/models"
	"github.com/hydroviewer/hydroviewer/internal/api/response"
	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/maplayer"
	"github.com/hydroviewer/hydroviewer/internal/stationid"
)

// Catalog supplies stations, sensors and storms.
type Catalog interface {
	Stations(ctx context.Context) []hydro.Station
	NOAAStations(ctx context.Context) []hydro.Station
	Sensors(ctx context.Context) []hydro.Sensor
	Storms(ctx context.Context) []hydro.StormWindow
}

// CatalogHandler serves catalogs, id normalization and the map setup.
type CatalogHandler struct {
	catalog Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListDischargeStations handles GET /v1/stations/discharge. Options are deduplicated
// by id, first occurrence wins.
func (h *CatalogHandler) ListDischargeStations(w http.ResponseWriter, r *http.Request) {
	stations := h.catalog.Stations(r.Context())
	seen := make(map[string]bool, len(stations))
	options := make([]models.StationOption, 0, len(stations))
	for _, s := range stations {
		id := strings.TrimSpace(s.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		options = append(options, models.StationOption{
			ID:    id,
			Label: stationid.Label(id, s.DisplayName()),
			Name:  s.Name,
			Kind:  string(hydro.KindDischarge),
			State: s.State,
			Lat:   s.Lat,
			Lon:   s.Lon,
			URL:   stationid.USGSURL(id),
		})
	}
	response.JSON(w, r, http.StatusOK, models.NewList(options))
}

// ListNOAAStations handles GET /v1/stations/noaa.
func (h *CatalogHandler) ListNOAAStations(w http.ResponseWriter, r *http.Request) {
	stations := h.catalog.NOAAStations(r.Context())
	options := make([]models.StationOption, 0, len(stations))
	for _, s := range stations {
		options = append(options, models.StationOption{
			ID:    s.ID,
			Label: stationid.NOAALabel(s.ID, s.Name),
			Name:  s.Name,
			Kind:  string(hydro.KindTide),
			Lat:   s.Lat,
			Lon:   s.Lon,
			URL:   s.URL,
		})
	}
	response.JSON(w, r, http.StatusOK, models.NewList(options))
}

// ListSensors handles GET /v1/sensors.
func (h *CatalogHandler) ListSensors(w http.ResponseWriter, r *http.Request) {
	sensors := h.catalog.Sensors(r.Context())
	items := make([]models.SensorItem, 0, len(sensors))
	for _, s := range sensors {
		items = append(items, models.SensorItem{
			Name:       s.Name,
			SensorType: s.SensorType,
			Lat:        s.Lat,
			Lon:        s.Lon,
		})
	}
	response.JSON(w, r, http.StatusOK, models.NewList(items))
}

// ListStorms handles GET /v1/storms.
func (h *CatalogHandler) ListStorms(w http.ResponseWriter, r *http.Request) {
	storms := h.catalog.Storms(r.Context())
	items := make([]models.StormItem, 0, len(storms))
	for _, s := range storms {
		items = append(items, models.StormItem{
			ID:           s.ID,
			Name:         s.Name,
			Year:         s.Year,
			StartDate:    s.StartDate,
			EndDate:      s.EndDate,
			DisplayLabel: s.Label(),
		})
	}
	response.JSON(w, r, http.StatusOK, models.NewList(items))
}

// NormalizeID handles GET /v1/ids/{raw}.
func (h *CatalogHandler) NormalizeID(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "raw")
	lookup, valid := stationid.Lookup(raw)
	info := models.StationIDInfo{
		Raw:       raw,
		DisplayID: stationid.DischargeDisplayID(raw),
		VTECID:    stationid.VTECID(raw),
		Valid:     valid,
		Label:     stationid.Label(raw, ""),
		USGSURL:   stationid.USGSURL(raw),
	}
	if valid {
		info.LookupID = lookup
	}
	response.JSON(w, r, http.StatusOK, info)
}

// mapSetup is the GET /v1/map payload.
type mapSetup struct {
	maplayer.Setup
	Markers []maplayer.MarkerLayer `json:"markers"`
}

// GetMap handles GET /v1/map: initial viewport, basemap, legend and marker layers.
func (h *CatalogHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, mapSetup{
		Setup:   maplayer.DefaultSetup(),
		Markers: maplayer.MarkerLayers(r.Context(), h.catalog),
	})
}
