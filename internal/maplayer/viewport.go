package maplayer

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Initial map placement.
const (
	InitialLat  = 41.75
	InitialLon  = -71.5
	InitialZoom = 8
)

// Fit options used when an overlay loads.
const (
	FitMaxZoom = 12
	FitPadding = 20
)

// tileSize is the Web Mercator world width in pixels at zoom 0.
const tileSize = 256

// maxLatitude is the Web Mercator latitude limit.
const maxLatitude = 85.0511287798

// Viewport is a map center and integer zoom level.
type Viewport struct {
	Center [2]float64 `json:"center"`
	Zoom   int        `json:"zoom"`
}

// InitialViewport is the viewport shown before any overlay is fitted.
func InitialViewport() Viewport {
	return Viewport{Center: [2]float64{InitialLat, InitialLon}, Zoom: InitialZoom}
}

// Size is the map size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultSize is used when the client does not report its map size.
var DefaultSize = Size{Width: 960, Height: 600}

// Extent is a lat/lon bounding box.
type Extent struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// ExtentOf converts lon/lat bounds to an extent. ok is false for empty bounds.
func ExtentOf(b *geom.Bounds) (Extent, bool) {
	if b == nil || b.IsEmpty() {
		return Extent{}, false
	}
	return Extent{South: b.Min(1), West: b.Min(0), North: b.Max(1), East: b.Max(0)}, true
}

// project maps lat/lon to Web Mercator pixels at zoom 0.
func project(lat, lon float64) (x, y float64) {
	lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
	x = tileSize * (lon + 180) / 360
	s := math.Sin(lat * math.Pi / 180)
	y = tileSize * (0.5 - math.Log((1+s)/(1-s))/(4*math.Pi))
	return x, y
}

// unproject maps zoom 0 Web Mercator pixels back to lat/lon.
func unproject(x, y float64) (lat, lon float64) {
	lon = x/tileSize*360 - 180
	n := math.Pi - 2*math.Pi*y/tileSize
	lat = 180 / math.Pi * math.Atan(math.Sinh(n))
	return lat, lon
}

// FitExtent returns the viewport that shows e inside a map of the given size, keeping
// padding pixels on every side. The zoom is snapped down to an integer and capped at
// maxZoom. A degenerate extent zooms to maxZoom.
func FitExtent(e Extent, size Size, padding, maxZoom int) Viewport {
	x0, y0 := project(e.North, e.West)
	x1, y1 := project(e.South, e.East)
	lat, lon := unproject((x0+x1)/2, (y0+y1)/2)

	w := float64(size.Width - 2*padding)
	h := float64(size.Height - 2*padding)
	dx, dy := math.Abs(x1-x0), math.Abs(y1-y0)

	zoom := maxZoom
	if w > 0 && h > 0 && (dx > 0 || dy > 0) {
		scale := math.Inf(1)
		if dx > 0 {
			scale = w / dx
		}
		if dy > 0 {
			scale = math.Min(scale, h/dy)
		}
		zoom = int(math.Floor(math.Log2(scale)))
	}
	zoom = max(0, min(zoom, maxZoom))

	return Viewport{Center: [2]float64{lat, lon}, Zoom: zoom}
}

// Basemap is the tile layer under the markers.
type Basemap struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"maxZoom"`
}

// DefaultBasemap is the Esri World Topo tile service.
func DefaultBasemap() Basemap {
	return Basemap{
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Topo_Map/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles © Esri — Esri, DeLorme, NAVTEQ",
		MaxZoom:     18,
	}
}

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Label string `json:"label"`
	Style Style  `json:"style"`
}

// Legend lists the marker kinds shown on the map.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Label: "USGS discharge", Style: DischargeStyle},
		{Label: "NOAA tide/water level", Style: NOAAStyle},
		{Label: "Fluvial sensor", Style: FluvialStyle},
		{Label: "Tide sensor", Style: TideSensorStyle},
		{Label: "Overland sensor", Style: OverlandStyle},
	}
}

// Setup is the static map configuration.
type Setup struct {
	Viewport Viewport      `json:"viewport"`
	Basemap  Basemap       `json:"basemap"`
	Legend   []LegendEntry `json:"legend"`
	Overlays []LayerName   `json:"overlays"`
}

// DefaultSetup returns the initial map configuration.
func DefaultSetup() Setup {
	return Setup{
		Viewport: InitialViewport(),
		Basemap:  DefaultBasemap(),
		Legend:   Legend(),
		Overlays: []LayerName{LayerWatershed, LayerDEM},
	}
}
