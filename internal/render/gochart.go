package render

import (
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
)

// ErrNothingToDraw is returned for a spec with no drawable data.
var ErrNothingToDraw = errors.New("chart has no drawable data")

// Backend draws a Spec as PNG.
type Backend interface {
	Draw(w io.Writer, spec Spec) error
}

var (
	gridColor  = drawing.ColorFromHex("e0e0e0")
	textColor  = drawing.ColorFromHex("333333")
	bandColor  = drawing.ColorFromHex("d29922").WithAlpha(40)
	barColor   = drawing.ColorFromHex("f85149")
	defaultHex = "3fb950"
)

// GoChart draws with go-chart.
type GoChart struct{}

// Draw renders spec to w.
func (GoChart) Draw(w io.Writer, spec Spec) error {
	var (
		series []chart.Series
		yAxis  chart.YAxis
		err    error
	)

	switch spec.Kind {
	case KindTimeline:
		series, yAxis, err = timelineSeries(spec)
	default:
		series, yAxis, err = lineSeries(spec)
	}
	if err != nil {
		return err
	}

	width, height := spec.Size()
	ch := chart.Chart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontSize: 11, FontColor: textColor},
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 28, Left: 8, Right: 12, Bottom: 16}},
		XAxis:      timeAxis(spec.XMin, spec.XMax),
		YAxis:      yAxis,
		Series:     series,
	}
	return ch.Render(chart.PNG, w)
}

func lineSeries(spec Spec) ([]chart.Series, chart.YAxis, error) {
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	var series []chart.Series

	for _, line := range spec.Lines {
		style := lineStyle(line)
		for _, seg := range line.Points.Segments() {
			xs, ys := segmentValues(seg)
			if len(xs) == 0 {
				continue
			}
			for _, y := range ys {
				lo = math.Min(lo, y)
				hi = math.Max(hi, y)
			}
			st := style
			if len(xs) == 1 {
				// go-chart needs two x values; an isolated sample is drawn as a dot.
				xs = append(xs, xs[0].Add(time.Second))
				ys = append(ys, ys[0])
				st.DotWidth = 3
				st.DotColor = st.StrokeColor
			}
			series = append(series, chart.TimeSeries{Name: line.Name, Style: st, XValues: xs, YValues: ys})
		}
	}
	if len(series) == 0 {
		return nil, chart.YAxis{}, ErrNothingToDraw
	}

	if spec.YMinZero && lo > 0 {
		lo = 0
	}
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}

	if spec.Band != nil {
		series = append([]chart.Series{bandSeries(*spec.Band, hi)}, series...)
	}

	yAxis := chart.YAxis{
		Name:      spec.YLabel,
		NameStyle: chart.Style{FontColor: textColor},
		Style:     chart.Style{FontSize: 9, FontColor: textColor},
		GridMajorStyle: chart.Style{
			StrokeColor: gridColor,
			StrokeWidth: 1,
		},
		Range: &chart.ContinuousRange{Min: lo, Max: hi},
	}
	return series, yAxis, nil
}

func timelineSeries(spec Spec) ([]chart.Series, chart.YAxis, error) {
	if len(spec.Intervals) == 0 {
		return nil, chart.YAxis{}, ErrNothingToDraw
	}

	var series []chart.Series
	if spec.Band != nil {
		series = append(series, bandSeries(*spec.Band, float64(len(spec.Categories))-0.5))
	}
	for _, iv := range spec.Intervals {
		end := iv.End
		if !end.After(iv.Start) {
			end = iv.Start.Add(time.Minute)
		}
		y := float64(iv.Category)
		series = append(series, chart.TimeSeries{
			Name:    iv.Label,
			Style:   chart.Style{StrokeColor: barColor, StrokeWidth: 8},
			XValues: []time.Time{iv.Start, end},
			YValues: []float64{y, y},
		})
	}

	ticks := make([]chart.Tick, 0, len(spec.Categories))
	for i, name := range spec.Categories {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: name})
	}
	maxY := math.Max(float64(len(spec.Categories))-0.5, 0.5)

	yAxis := chart.YAxis{
		Style: chart.Style{FontSize: 8, FontColor: textColor},
		Range: &chart.ContinuousRange{Min: -0.5, Max: maxY},
		Ticks: ticks,
	}
	return series, yAxis, nil
}

func bandSeries(b Band, top float64) chart.TimeSeries {
	return chart.TimeSeries{
		Name: b.Label,
		Style: chart.Style{
			StrokeColor: drawing.ColorTransparent,
			FillColor:   bandColor,
		},
		XValues: []time.Time{b.Start, b.End},
		YValues: []float64{top, top},
	}
}

func lineStyle(l Line) chart.Style {
	hex := strings.TrimPrefix(l.Color, "#")
	if hex == "" {
		hex = defaultHex
	}
	color := drawing.ColorFromHex(hex)
	st := chart.Style{StrokeColor: color, StrokeWidth: 2.5}
	if l.Fill {
		st.FillColor = color.WithAlpha(25)
	}
	return st
}

func segmentValues(seg hydro.Series) ([]time.Time, []float64) {
	xs := make([]time.Time, 0, len(seg))
	ys := make([]float64, 0, len(seg))
	for _, p := range seg {
		t, ok := hydro.ParseTime(p.Date)
		if !ok || p.Value == nil {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, *p.Value)
	}
	return xs, ys
}

// timeAxis fixes the x range and labels it by year, or by day for short windows.
func timeAxis(lo, hi time.Time) chart.XAxis {
	if !hi.After(lo) {
		hi = lo.Add(24 * time.Hour)
	}
	return chart.XAxis{
		Style: chart.Style{FontSize: 9, FontColor: textColor},
		GridMajorStyle: chart.Style{
			StrokeColor: gridColor,
			StrokeWidth: 1,
		},
		Range: &chart.ContinuousRange{Min: chart.TimeToFloat64(lo), Max: chart.TimeToFloat64(hi)},
		Ticks: timeTicks(lo, hi),
	}
}

func timeTicks(lo, hi time.Time) []chart.Tick {
	var ticks []chart.Tick
	if hi.Sub(lo) > 2*365*24*time.Hour {
		for y := lo.Year(); y <= hi.Year(); y += 2 {
			t := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
			if t.Before(lo) || t.After(hi) {
				continue
			}
			ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Format("2006")})
		}
		return ticks
	}

	days := int(hi.Sub(lo).Hours()/24) + 1
	step := days/8 + 1
	start := time.Date(lo.Year(), lo.Month(), lo.Day(), 0, 0, 0, 0, lo.Location())
	for t := start; !t.After(hi); t = t.AddDate(0, 0, step) {
		if t.Before(lo) {
			continue
		}
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Format("Jan 02")})
	}
	return ticks
}
