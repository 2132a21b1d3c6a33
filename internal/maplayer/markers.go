// Package maplayer manages the map: station and sensor markers, the legend and
// basemap, and the watershed and elevation overlays toggled by the viewer.
package maplayer

import (
	"context"
	"strings"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/stationid"
)

// LayerName identifies a map layer.
type LayerName string

// Layers.
const (
	LayerDischarge LayerName = "discharge"
	LayerNOAA      LayerName = "noaa"
	LayerSensors   LayerName = "sensors"
	LayerWatershed LayerName = "watershed"
	LayerDEM       LayerName = "dem"
)

// IsOverlay reports whether the layer is a toggleable overlay.
func (n LayerName) IsOverlay() bool {
	return n == LayerWatershed || n == LayerDEM
}

// MarkerRadius is the circle marker radius in pixels.
const MarkerRadius = 6

// Style is a marker fill and stroke color pair.
type Style struct {
	Fill   string `json:"fill"`
	Stroke string `json:"stroke"`
}

// Marker styles.
var (
	DischargeStyle   = Style{Fill: "#3fb950", Stroke: "#2ea043"}
	NOAAStyle        = Style{Fill: "#58a6ff", Stroke: "#388bfd"}
	FluvialStyle     = Style{Fill: "#f0883e", Stroke: "#c76b22"}
	TideSensorStyle  = Style{Fill: "#a371f7", Stroke: "#8250df"}
	OverlandStyle    = Style{Fill: "#d29922", Stroke: "#9e6a03"}
	OtherSensorStyle = Style{Fill: "#8b949e", Stroke: "#6e7681"}
)

// SensorStyle returns the style for a sensor type.
func SensorStyle(sensorType string) Style {
	switch sensorType {
	case "fluvial":
		return FluvialStyle
	case "tide":
		return TideSensorStyle
	case "overland":
		return OverlandStyle
	default:
		return OtherSensorStyle
	}
}

// Marker is one circle marker. Station markers carry the selection they trigger.
type Marker struct {
	Lat       float64           `json:"lat"`
	Lon       float64           `json:"lon"`
	Style     Style             `json:"style"`
	Tooltip   string            `json:"tooltip"`
	StationID string            `json:"stationId,omitempty"`
	Kind      hydro.StationKind `json:"kind,omitempty"`
}

// MarkerLayer is a named group of markers.
type MarkerLayer struct {
	Name    LayerName `json:"name"`
	Markers []Marker  `json:"markers"`
}

// DischargeMarkers places discharge stations. Stations without coordinates are skipped.
func DischargeMarkers(stations []hydro.Station) MarkerLayer {
	layer := MarkerLayer{Name: LayerDischarge, Markers: []Marker{}}
	for _, s := range stations {
		if !s.HasCoords() {
			continue
		}
		layer.Markers = append(layer.Markers, Marker{
			Lat:       *s.Lat,
			Lon:       *s.Lon,
			Style:     DischargeStyle,
			Tooltip:   "Discharge: " + stationid.Label(s.ID, s.DisplayName()),
			StationID: s.ID,
			Kind:      hydro.KindDischarge,
		})
	}
	return layer
}

// NOAAMarkers places NOAA tide stations.
func NOAAMarkers(stations []hydro.Station) MarkerLayer {
	layer := MarkerLayer{Name: LayerNOAA, Markers: []Marker{}}
	for _, s := range stations {
		if !s.HasCoords() {
			continue
		}
		layer.Markers = append(layer.Markers, Marker{
			Lat:       *s.Lat,
			Lon:       *s.Lon,
			Style:     NOAAStyle,
			Tooltip:   "NOAA: " + stationid.NOAALabel(s.ID, s.Name),
			StationID: s.ID,
			Kind:      hydro.KindTide,
		})
	}
	return layer
}

// SensorMarkers places field sensors. Sensors are display only and select nothing.
func SensorMarkers(sensors []hydro.Sensor) MarkerLayer {
	layer := MarkerLayer{Name: LayerSensors, Markers: []Marker{}}
	for _, s := range sensors {
		if !s.HasCoords() {
			continue
		}
		layer.Markers = append(layer.Markers, Marker{
			Lat:     *s.Lat,
			Lon:     *s.Lon,
			Style:   SensorStyle(s.SensorType),
			Tooltip: sensorTypeLabel(s.SensorType) + ": " + s.Name,
		})
	}
	return layer
}

func sensorTypeLabel(t string) string {
	if t == "" {
		t = "sensor"
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

// Catalog supplies the marker sources.
type Catalog interface {
	Stations(ctx context.Context) []hydro.Station
	NOAAStations(ctx context.Context) []hydro.Station
	Sensors(ctx context.Context) []hydro.Sensor
}

// MarkerLayers builds every marker layer from the catalog.
func MarkerLayers(ctx context.Context, c Catalog) []MarkerLayer {
	return []MarkerLayer{
		DischargeMarkers(c.Stations(ctx)),
		NOAAMarkers(c.NOAAStations(ctx)),
		SensorMarkers(c.Sensors(ctx)),
	}
}
