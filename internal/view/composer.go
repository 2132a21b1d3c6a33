package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/render"
	"github.com/hydroviewer/hydroviewer/internal/source/static"
	"github.com/hydroviewer/hydroviewer/internal/stationid"
)

// Default axis window covering the supported historical period.
const (
	DefaultAxisMin = "2010-01-01"
	DefaultAxisMax = "2025-12-31"
)

// Messages shown in panels without data.
const (
	NoDischargeDataText = "No discharge data available."
	NoSeriesSuffix      = " — No time series data."
)

// Source is the data the composer reads.
type Source interface {
	Stations(ctx context.Context) []hydro.Station
	Discharge(ctx context.Context) (hydro.DischargeDataset, bool)
	Series(ctx context.Context, id string) (hydro.Series, bool)
	NOAAStations(ctx context.Context) []hydro.Station
	Storms(ctx context.Context) []hydro.StormWindow
	VTEC(ctx context.Context) (hydro.VTECDataset, bool)
	WaterLevel(ctx context.Context) (hydro.WaterLevelDataset, bool)
	Meteorological(ctx context.Context) (hydro.MetDataset, bool)
	Precipitation(ctx context.Context) (hydro.PrecipitationDataset, bool)
}

// ComposerConfig holds configuration for the composer.
type ComposerConfig struct {
	// Source resolves data domains (required).
	Source Source

	// Images checks pre-rendered figures (required for the image strategy).
	Images static.Fetcher

	// Settings supplies enabled domains and strategies (optional).
	Settings SettingsSource

	// AxisMin and AxisMax bound chart x axes (default: 2010-01-01..2025-12-31).
	AxisMin string
	AxisMax string

	// ChartWidth and ChartHeight size rendered charts (optional).
	ChartWidth  int
	ChartHeight int

	Logger zerolog.Logger
}

// Composer builds views. It holds no per-selection state and is safe for concurrent use.
type Composer struct {
	source   Source
	images   static.Fetcher
	settings SettingsSource
	axisMin  string
	axisMax  string
	width    int
	height   int
	logger   zerolog.Logger
}

// NewComposer creates a composer.
func NewComposer(cfg ComposerConfig) *Composer {
	axisMin := cfg.AxisMin
	if axisMin == "" {
		axisMin = DefaultAxisMin
	}
	axisMax := cfg.AxisMax
	if axisMax == "" {
		axisMax = DefaultAxisMax
	}
	return &Composer{
		source:   cfg.Source,
		images:   cfg.Images,
		settings: cfg.Settings,
		axisMin:  axisMin,
		axisMax:  axisMax,
		width:    cfg.ChartWidth,
		height:   cfg.ChartHeight,
		logger:   cfg.Logger,
	}
}

// composition carries per-request values shared by the panel builders.
type composition struct {
	settings Settings
	rawID    string
	lookupID string
	usable   bool
	storm    *hydro.StormWindow
	axisMin  time.Time
	axisMax  time.Time
	band     *render.Band
	meta     string

	// fullMin and fullMax are the configured window, used when a storm window
	// holds no data and the panel falls back to the full series.
	fullMin time.Time
	fullMax time.Time
}

// window returns the x axis and band for a panel. Panels that fell back to the full
// series while a storm is active use the configured window without the band.
func (comp *composition) window(filtered bool) (time.Time, time.Time, *render.Band) {
	if comp.storm != nil && !filtered {
		return comp.fullMin, comp.fullMax, nil
	}
	return comp.axisMin, comp.axisMax, comp.band
}

// Compose builds the view for req. Panels are resolved concurrently and independently;
// a panel without data never blocks another.
func (c *Composer) Compose(ctx context.Context, req Request) View {
	settings := Settings{}
	if c.settings != nil {
		settings = c.settings.ViewSettings(ctx)
	}

	v := View{Request: req, Axis: Axis{Min: c.axisMin, Max: c.axisMax}}

	if req.Selection.IsZero() {
		for _, id := range PanelOrder() {
			v.Panels = append(v.Panels, Panel{ID: id, State: StateHidden})
		}
		return v
	}

	comp := &composition{settings: settings, rawID: req.Selection.StationID}
	comp.lookupID, comp.usable = stationid.Lookup(req.Selection.StationID)

	if req.StormID != "" {
		if storm, ok := hydro.FindStorm(c.source.Storms(ctx), req.StormID); ok {
			comp.storm = &storm
			v.Storm = &storm
			v.Axis = Axis{Min: storm.StartDate, Max: storm.EndDate}
		}
	}
	comp.axisMin, comp.axisMax = parseAxis(v.Axis)
	comp.fullMin, comp.fullMax = parseAxis(Axis{Min: c.axisMin, Max: c.axisMax})
	if comp.storm != nil {
		comp.band = &render.Band{Start: comp.axisMin, End: comp.axisMax, Label: comp.storm.Label()}
		v.Band = comp.band
	}

	var builders map[PanelID]func(context.Context, *composition) Panel
	if req.Selection.IsDischarge() {
		v.Header, comp.meta = c.dischargeHeader(ctx, req.Selection.StationID)
		builders = map[PanelID]func(context.Context, *composition) Panel{
			PanelDischarge:     c.dischargePanel,
			PanelVTEC:          c.vtecPanel,
			PanelPrecipitation: c.usgsPrecipitationPanel,
		}
	} else {
		v.Header, comp.meta = c.tideHeader(ctx, req.Selection.StationID)
		builders = map[PanelID]func(context.Context, *composition) Panel{
			PanelWaterLevel:    c.waterLevelPanel,
			PanelPrecipitation: c.noaaPrecipitationPanel,
			PanelVTEC:          c.vtecPanel,
		}
		for _, p := range hydro.MetProducts() {
			product := p
			builders[MetPanel(p)] = func(ctx context.Context, comp *composition) Panel {
				return c.metPanel(ctx, comp, product)
			}
		}
	}

	order := PanelOrder()
	panels := make([]Panel, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range order {
		build, ok := builders[id]
		if !ok || !settings.DomainEnabled(id.Domain()) {
			panels[i] = Panel{ID: id, State: StateHidden}
			continue
		}
		i, id := i, id
		g.Go(func() error {
			panels[i] = build(gctx, comp)
			panels[i].ID = id
			panels[i].Visible = true
			return nil
		})
	}
	_ = g.Wait()

	v.Panels = panels
	return v
}

// parseAxis converts the axis to times. A date-only maximum covers its whole day.
func parseAxis(a Axis) (time.Time, time.Time) {
	lo, ok := hydro.ParseTime(a.Min)
	if !ok {
		lo, _ = hydro.ParseTime(DefaultAxisMin)
	}
	maxText := a.Max
	hi, ok := hydro.ParseTime(maxText)
	if !ok {
		maxText = DefaultAxisMax
		hi, _ = hydro.ParseTime(maxText)
	}
	if len(strings.TrimSpace(maxText)) == len("2006-01-02") {
		hi = hi.Add(24*time.Hour - time.Second)
	}
	return lo, hi
}

func coordsMeta(lat, lon *float64) (string, bool) {
	if lat == nil || lon == nil {
		return "", false
	}
	return fmt.Sprintf("Lat %.4f°, Lon %.4f°", *lat, *lon), true
}

func (c *Composer) dischargeHeader(ctx context.Context, id string) (*Header, string) {
	station, found := hydro.FindStation(c.source.Stations(ctx), id)

	meta, ok := coordsMeta(station.Lat, station.Lon)
	if !found || !ok {
		meta = "Discharge station"
	}

	h := &Header{Title: stationid.Label(id, station.DisplayName()), Meta: meta}
	if u := stationid.USGSURL(id); u != "" {
		h.Link = &Link{URL: u, Text: "View on USGS Water Data"}
	}
	return h, meta
}

func (c *Composer) tideHeader(ctx context.Context, id string) (*Header, string) {
	station, found := hydro.FindStation(c.source.NOAAStations(ctx), id)

	meta, ok := coordsMeta(station.Lat, station.Lon)
	if found && ok {
		meta += " — NOAA tide/water level"
	} else {
		meta = "NOAA tide/water level station"
	}

	h := &Header{Title: stationid.NOAALabel(id, station.Name), Meta: meta}
	if station.URL != "" {
		h.Link = &Link{URL: station.URL, Text: "View on NOAA Tides & Currents"}
	}
	return h, meta
}

func noData(title, message string, strategy Strategy) Panel {
	return Panel{Title: title, Strategy: strategy, State: StateNoData, Message: message}
}

func (c *Composer) figurePanel(ctx context.Context, comp *composition, title, rel string) Panel {
	if !comp.usable {
		rel = ""
	}
	fig := render.ResolveFigure(ctx, c.images, rel)
	p := Panel{Title: title, Strategy: StrategyImage, Figure: &fig, State: StateFigure}
	if fig.Placeholder {
		p.State = StateNoData
		p.Message = fig.Text
	}
	return p
}

// lineChart crops each series to the storm window when one is active, falling back to
// the full series when the window is empty.
func (c *Composer) lineChart(comp *composition, title, yLabel string, lines []render.Line) (*render.Spec, bool) {
	filtered := false
	for i := range lines {
		if comp.storm != nil {
			var f bool
			lines[i].Points, f = lines[i].Points.WindowOrAll(comp.storm.StartDate, comp.storm.EndDate)
			filtered = filtered || f
		}
	}
	xMin, xMax, band := comp.window(filtered)
	return &render.Spec{
		Title:  title,
		Kind:   render.KindLine,
		YLabel: yLabel,
		Lines:  lines,
		XMin:   xMin,
		XMax:   xMax,
		Band:   band,
		Width:  c.width,
		Height: c.height,
	}, filtered
}

func chartPanel(title string, spec *render.Spec, filtered bool) Panel {
	return Panel{Title: title, Strategy: StrategyChart, State: StateChart, Chart: spec, Filtered: filtered}
}

func (c *Composer) dischargePanel(ctx context.Context, comp *composition) Panel {
	id8 := stationid.DischargeDisplayID(comp.rawID)
	title := "Discharge (cfs) — Station " + id8
	if comp.storm != nil {
		title += " — " + comp.storm.Label()
	}

	if _, ok := c.source.Discharge(ctx); !ok {
		return noData(title, NoDischargeDataText, StrategyChart)
	}
	if !comp.usable {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}

	series, ok := c.source.Series(ctx, comp.lookupID)
	if !ok || series.Present() == 0 {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}

	spec, filtered := c.lineChart(comp, title, "cfs", []render.Line{
		{Name: "Discharge", Color: "#3fb950", Fill: true, Points: series},
	})
	spec.YMinZero = true
	return chartPanel(title, spec, filtered)
}

func (c *Composer) vtecPanel(ctx context.Context, comp *composition) Panel {
	vtecID := stationid.VTECID(comp.rawID)
	title := "VTEC — Station " + vtecID

	if comp.settings.Strategy(PanelVTEC) == StrategyImage {
		return c.figurePanel(ctx, comp, title, stationid.VTECImagePath(comp.rawID))
	}

	ds, ok := c.source.VTEC(ctx)
	if !ok || !comp.usable {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}
	warnings := ds.Intervals(vtecID)
	filtered := false
	if comp.storm != nil {
		if w := hydro.WindowIntervals(warnings, comp.storm.StartDate, comp.storm.EndDate); len(w) > 0 {
			warnings, filtered = w, true
		}
	}
	intervals := render.TimelineIntervals(ds, warnings)
	if len(intervals) == 0 {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}

	xMin, xMax, band := comp.window(filtered)
	spec := &render.Spec{
		Title:      title,
		Kind:       render.KindTimeline,
		Intervals:  intervals,
		Categories: ds.Order(),
		XMin:       xMin,
		XMax:       xMax,
		Band:       band,
		Width:      c.width,
		Height:     c.height,
	}
	return chartPanel(title, spec, filtered)
}

func (c *Composer) usgsPrecipitationPanel(ctx context.Context, comp *composition) Panel {
	id8 := stationid.DischargeDisplayID(comp.rawID)
	title := "Precipitation (mm/day) — Station " + id8

	if comp.settings.Strategy(PanelPrecipitation) == StrategyImage {
		return c.figurePanel(ctx, comp, title, stationid.USGSPrecipitationImagePath(comp.rawID))
	}

	ds, _ := c.source.Precipitation(ctx)
	series, ok := ds.Series.Lookup(id8)
	if !ok {
		series, ok = ds.Series.Lookup(comp.lookupID)
	}
	return c.precipitationChart(comp, title, series, ok)
}

func (c *Composer) noaaPrecipitationPanel(ctx context.Context, comp *composition) Panel {
	title := "Precipitation (mm/day) — Station " + comp.rawID

	if comp.settings.Strategy(PanelPrecipitation) == StrategyImage {
		return c.figurePanel(ctx, comp, title, stationid.NOAAPrecipitationImagePath(comp.lookupID))
	}

	ds, _ := c.source.Precipitation(ctx)
	series, ok := ds.Series.Lookup(comp.lookupID)
	return c.precipitationChart(comp, title, series, ok)
}

func (c *Composer) precipitationChart(comp *composition, title string, series hydro.Series, ok bool) Panel {
	if !ok || !comp.usable || series.Present() == 0 {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}
	spec, filtered := c.lineChart(comp, title, "mm/day", []render.Line{
		{Name: "Precipitation", Color: "#58a6ff", Points: series},
	})
	spec.YMinZero = true
	return chartPanel(title, spec, filtered)
}

var waterLevelColors = map[string]string{
	"verified":    "#388bfd",
	"preliminary": "#58a6ff",
	"predictions": "#8b949e",
	"residual":    "#d29922",
}

func (c *Composer) waterLevelPanel(ctx context.Context, comp *composition) Panel {
	title := "Water level (m MLLW) — Station " + comp.rawID

	if comp.settings.Strategy(PanelWaterLevel) == StrategyImage {
		return c.figurePanel(ctx, comp, title, stationid.WaterLevelImagePath(comp.lookupID))
	}
	if !comp.usable {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}

	var components []hydro.NamedSeries
	if ds, ok := c.source.WaterLevel(ctx); ok {
		if wl, ok := ds.Series[comp.lookupID]; ok {
			components = wl.Components()
		}
	}
	if len(components) == 0 {
		if met, ok := c.source.Meteorological(ctx); ok {
			if st, ok := met.Series[comp.lookupID]; ok && st.WaterLevel != nil {
				components = st.WaterLevel.Components()
			}
		}
	}

	lines := make([]render.Line, 0, len(components))
	for _, ns := range components {
		if ns.Points.Present() == 0 {
			continue
		}
		lines = append(lines, render.Line{Name: ns.Name, Color: waterLevelColors[ns.Name], Points: ns.Points})
	}
	if len(lines) == 0 {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}

	spec, filtered := c.lineChart(comp, title, "m MLLW", lines)
	return chartPanel(title, spec, filtered)
}

func (c *Composer) metPanel(ctx context.Context, comp *composition, product hydro.MetProduct) Panel {
	title := product.Title() + " — Station " + comp.rawID

	if comp.settings.Strategy(MetPanel(product)) == StrategyImage {
		return c.figurePanel(ctx, comp, title, stationid.MetImagePath(comp.lookupID, string(product)))
	}
	if !comp.usable {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}

	met, _ := c.source.Meteorological(ctx)
	st, ok := met.Series[comp.lookupID]
	if !ok {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}
	series := st.Products[product]
	if series.Present() == 0 {
		return noData(title, comp.meta+NoSeriesSuffix, StrategyChart)
	}

	spec, filtered := c.lineChart(comp, title, "", []render.Line{
		{Name: product.Title(), Color: "#a371f7", Points: series},
	})
	return chartPanel(title, spec, filtered)
}

