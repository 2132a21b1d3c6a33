package maplayer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/twpayne/go-geom"

	"github.com/hydroviewer/hydroviewer/pkg/polyline"
)

// DEMOpacity is the elevation raster opacity.
const DEMOpacity = 0.5

// WatershedStyle is the watershed outline style.
var WatershedStyle = PolygonStyle{Color: "#1a5fb4", Weight: 2, FillColor: "#1a5fb4", FillOpacity: 0.25}

// Predefined errors for overlay toggles.
var (
	// ErrUnknownLayer is returned for a layer that cannot be toggled.
	ErrUnknownLayer = errors.New("unknown overlay layer")

	// ErrSuperseded is returned when a newer toggle of the same layer started while
	// this one was loading. Its result was discarded.
	ErrSuperseded = errors.New("overlay toggle superseded")
)

// OverlayAPI loads overlay content.
type OverlayAPI interface {
	Watershed(ctx context.Context) ([]geom.T, error)
	DEMBounds(ctx context.Context) (*geom.Bounds, error)
	DEMImageURL() string
}

// PolygonStyle is the style of a vector overlay.
type PolygonStyle struct {
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// Overlay is the state of one overlay layer. An unchecked overlay has no content.
type Overlay struct {
	Name     LayerName     `json:"name"`
	Checked  bool          `json:"checked"`
	Extent   *Extent       `json:"extent,omitempty"`
	Rings    []string      `json:"rings,omitempty"`
	Style    *PolygonStyle `json:"style,omitempty"`
	ImageURL string        `json:"imageUrl,omitempty"`
	Opacity  float64       `json:"opacity,omitempty"`
	Reverted bool          `json:"reverted,omitempty"`
}

// ManagerConfig holds configuration for an overlay manager.
type ManagerConfig struct {
	// API loads overlay content. Without it every load is reverted.
	API OverlayAPI

	// Size is the map size used to fit loaded overlays (default: DefaultSize).
	Size Size

	Logger zerolog.Logger
}

// Manager tracks overlay and viewport state for one viewer.
type Manager struct {
	api    OverlayAPI
	size   Size
	logger zerolog.Logger

	mu         sync.Mutex
	generation map[LayerName]uint64
	overlays   map[LayerName]Overlay
	viewport   Viewport
}

// NewManager creates an overlay manager with every overlay unchecked.
func NewManager(cfg ManagerConfig) *Manager {
	size := cfg.Size
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	return &Manager{
		api:        cfg.API,
		size:       size,
		logger:     cfg.Logger,
		generation: make(map[LayerName]uint64),
		overlays: map[LayerName]Overlay{
			LayerWatershed: {Name: LayerWatershed},
			LayerDEM:       {Name: LayerDEM},
		},
		viewport: InitialViewport(),
	}
}

// Toggle sets an overlay on or off. The overlay is cleared first in both cases. Turning
// it on loads fresh content; a failed or empty load leaves it cleared and unchecked
// with Reverted set. A toggle overtaken by a newer toggle of the same layer returns
// ErrSuperseded and changes nothing.
func (m *Manager) Toggle(ctx context.Context, name LayerName, checked bool) (Overlay, error) {
	if !name.IsOverlay() {
		return Overlay{}, fmt.Errorf("%w: %s", ErrUnknownLayer, name)
	}

	m.mu.Lock()
	m.generation[name]++
	gen := m.generation[name]
	m.overlays[name] = Overlay{Name: name}
	m.mu.Unlock()

	if !checked {
		return Overlay{Name: name}, nil
	}

	var (
		loaded Overlay
		extent Extent
		err    error
	)
	switch {
	case m.api == nil:
		err = errNoOverlaySource
	case name == LayerWatershed:
		loaded, extent, err = m.loadWatershed(ctx)
	case name == LayerDEM:
		loaded, extent, err = m.loadDEM(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation[name] != gen {
		return Overlay{}, ErrSuperseded
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("layer", string(name)).Msg("overlay load failed")
		return Overlay{Name: name, Reverted: true}, nil
	}

	m.overlays[name] = loaded
	m.viewport = FitExtent(extent, m.size, FitPadding, FitMaxZoom)
	return loaded, nil
}

var (
	errEmptyOverlay    = errors.New("overlay has no content")
	errNoOverlaySource = errors.New("no overlay source configured")
)

func (m *Manager) loadWatershed(ctx context.Context) (Overlay, Extent, error) {
	geoms, err := m.api.Watershed(ctx)
	if err != nil {
		return Overlay{}, Extent{}, err
	}

	bounds := geom.NewBounds(geom.XY)
	var rings []string
	for _, g := range geoms {
		r := encodeRings(g)
		if len(r) == 0 {
			continue
		}
		rings = append(rings, r...)
		bounds.Extend(g)
	}
	extent, ok := ExtentOf(bounds)
	if len(rings) == 0 || !ok {
		return Overlay{}, Extent{}, errEmptyOverlay
	}

	style := WatershedStyle
	return Overlay{
		Name:    LayerWatershed,
		Checked: true,
		Extent:  &extent,
		Rings:   rings,
		Style:   &style,
	}, extent, nil
}

func (m *Manager) loadDEM(ctx context.Context) (Overlay, Extent, error) {
	bounds, err := m.api.DEMBounds(ctx)
	if err != nil {
		return Overlay{}, Extent{}, err
	}
	extent, ok := ExtentOf(bounds)
	if !ok {
		return Overlay{}, Extent{}, errEmptyOverlay
	}
	return Overlay{
		Name:     LayerDEM,
		Checked:  true,
		Extent:   &extent,
		ImageURL: m.api.DEMImageURL(),
		Opacity:  DEMOpacity,
	}, extent, nil
}

// encodeRings encodes the rings of polygonal geometries. Other geometry types yield
// nothing.
func encodeRings(g geom.T) []string {
	var rings []string
	addPolygon := func(p *geom.Polygon) {
		for i := 0; i < p.NumLinearRings(); i++ {
			r := p.LinearRing(i)
			if r.NumCoords() == 0 {
				continue
			}
			rings = append(rings, polyline.EncodeFlat(r.FlatCoords(), r.Stride()))
		}
	}

	switch t := g.(type) {
	case *geom.Polygon:
		addPolygon(t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			addPolygon(t.Polygon(i))
		}
	}
	return rings
}

// Overlay returns the current state of an overlay.
func (m *Manager) Overlay(name LayerName) (Overlay, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.overlays[name]
	return o, ok
}

// Overlays returns the state of every overlay.
func (m *Manager) Overlays() []Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return []Overlay{m.overlays[LayerWatershed], m.overlays[LayerDEM]}
}

// Viewport returns the current viewport.
func (m *Manager) Viewport() Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewport
}
