// Package render draws panel charts to PNG, keeps at most one chart bound per canvas,
// and resolves pre-rendered figure images.
package render

import (
	"time"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
)

// FailureText is shown inline when a chart cannot be drawn.
const FailureText = "Chart failed to draw."

// Kind selects the chart layout.
type Kind string

// Chart kinds.
const (
	KindLine     Kind = "line"
	KindTimeline Kind = "timeline"
)

// Default chart size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 320
)

// Line is one named series on a line chart.
type Line struct {
	Name   string       `json:"name"`
	Color  string       `json:"color"`
	Fill   bool         `json:"fill,omitempty"`
	Points hydro.Series `json:"points"`
}

// Interval is one bar on a timeline chart.
type Interval struct {
	Category int       `json:"category"`
	Label    string    `json:"label"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Band is a shaded background range, used for the active storm.
type Band struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Spec describes a chart independently of the drawing backend.
type Spec struct {
	Title      string     `json:"title"`
	Kind       Kind       `json:"kind"`
	YLabel     string     `json:"yLabel,omitempty"`
	YMinZero   bool       `json:"yMinZero,omitempty"`
	Lines      []Line     `json:"lines,omitempty"`
	Intervals  []Interval `json:"intervals,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	XMin       time.Time  `json:"xMin"`
	XMax       time.Time  `json:"xMax"`
	Band       *Band      `json:"band,omitempty"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
}

// Size returns the chart dimensions, defaulting unset values.
func (s Spec) Size() (width, height int) {
	width, height = s.Width, s.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

// TimelineIntervals converts warnings into bars on the dataset's category axis.
// Warnings with unparseable timestamps are skipped.
func TimelineIntervals(ds hydro.VTECDataset, warnings []hydro.WarningInterval) []Interval {
	out := make([]Interval, 0, len(warnings))
	for _, w := range warnings {
		start, end, ok := w.Span()
		if !ok {
			continue
		}
		out = append(out, Interval{
			Category: ds.CategoryIndex(w.WarningName),
			Label:    w.WarningName,
			Start:    start,
			End:      end,
		})
	}
	return out
}
