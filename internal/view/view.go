// Package view composes the panel layout for the active selection: which panels are
// visible, their titles, and the chart or figure each one shows.
package view

import (
	"context"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/render"
	"github.com/hydroviewer/hydroviewer/internal/selection"
)

// PanelID names a panel. It doubles as the panel's canvas id.
type PanelID string

// Panels. Meteorological panels use the product name as their id.
const (
	PanelDischarge     PanelID = "discharge"
	PanelVTEC          PanelID = "vtec"
	PanelPrecipitation PanelID = "precipitation"
	PanelWaterLevel    PanelID = "water_level"
)

// MetPanel returns the panel id for a meteorological product.
func MetPanel(p hydro.MetProduct) PanelID {
	return PanelID(p)
}

// PanelOrder lists every panel in layout order.
func PanelOrder() []PanelID {
	ids := []PanelID{PanelDischarge, PanelVTEC, PanelWaterLevel}
	for _, p := range hydro.MetProducts() {
		ids = append(ids, MetPanel(p))
	}
	return append(ids, PanelPrecipitation)
}

// Domain returns the data domain a panel depends on.
func (id PanelID) Domain() hydro.Domain {
	switch id {
	case PanelDischarge:
		return hydro.DomainDischargeSeries
	case PanelVTEC:
		return hydro.DomainVTEC
	case PanelPrecipitation:
		return hydro.DomainPrecipitation
	case PanelWaterLevel:
		return hydro.DomainWaterLevel
	default:
		return hydro.DomainMeteorological
	}
}

// Strategy selects how a panel is drawn.
type Strategy string

// Strategies.
const (
	StrategyChart Strategy = "chart"
	StrategyImage Strategy = "image"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyChart || s == StrategyImage
}

// Settings configures which domains are shown and how each panel is drawn.
type Settings struct {
	Disabled   map[hydro.Domain]bool
	Strategies map[PanelID]Strategy
}

// DomainEnabled reports whether panels backed by d are shown.
func (s Settings) DomainEnabled(d hydro.Domain) bool {
	return !s.Disabled[d]
}

// Strategy returns the strategy for a panel. The discharge panel is always a chart;
// other panels default to pre-rendered images.
func (s Settings) Strategy(id PanelID) Strategy {
	if id == PanelDischarge {
		return StrategyChart
	}
	if st, ok := s.Strategies[id]; ok && st.Valid() {
		return st
	}
	return StrategyImage
}

// SettingsSource supplies the current settings.
type SettingsSource interface {
	ViewSettings(ctx context.Context) Settings
}

// PanelState is what a panel currently shows.
type PanelState string

// Panel states.
const (
	StateHidden PanelState = "hidden"
	StateChart  PanelState = "chart"
	StateFigure PanelState = "figure"
	StateNoData PanelState = "no_data"
	StateError  PanelState = "error"
)

// Panel is one chart or figure slot.
type Panel struct {
	ID       PanelID        `json:"id"`
	Title    string         `json:"title,omitempty"`
	Visible  bool           `json:"visible"`
	Strategy Strategy       `json:"strategy,omitempty"`
	State    PanelState     `json:"state"`
	Message  string         `json:"message,omitempty"`
	Chart    *render.Spec   `json:"chart,omitempty"`
	Figure   *render.Figure `json:"figure,omitempty"`
	Filtered bool           `json:"filtered,omitempty"`
}

// Link is an external station page.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Header describes the selected station above the panels.
type Header struct {
	Title string `json:"title"`
	Meta  string `json:"meta"`
	Link  *Link  `json:"link,omitempty"`
}

// Axis is the shared x range of chart panels as ISO dates.
type Axis struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Request identifies what to compose. It is captured when composition starts and
// compared against the current selection before the result is bound.
type Request struct {
	Selection selection.State `json:"selection"`
	StormID   string          `json:"stormId,omitempty"`
}

// View is the composed layout.
type View struct {
	Request Request            `json:"request"`
	Header  *Header            `json:"header,omitempty"`
	Storm   *hydro.StormWindow `json:"storm,omitempty"`
	Axis    Axis               `json:"axis"`
	Band    *render.Band       `json:"band,omitempty"`
	Panels  []Panel            `json:"panels"`
}

// Matches reports whether the view was composed for req. A view composed for an older
// request is stale and must not be bound.
func (v View) Matches(req Request) bool {
	return v.Request == req
}

// Panel returns the panel with the given id.
func (v View) Panel(id PanelID) (Panel, bool) {
	for _, p := range v.Panels {
		if p.ID == id {
			return p, true
		}
	}
	return Panel{}, false
}

// Visible lists the ids of visible panels in layout order.
func (v View) Visible() []PanelID {
	var out []PanelID
	for _, p := range v.Panels {
		if p.Visible {
			out = append(out, p.ID)
		}
	}
	return out
}
