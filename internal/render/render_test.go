package render_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/render"
	"github.com/hydroviewer/hydroviewer/internal/source/static"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func val(v float64) *float64 { return &v }

func dischargeSpec() render.Spec {
	return render.Spec{
		Title:    "Discharge (cfs) — Station 01108000",
		Kind:     render.KindLine,
		YMinZero: true,
		Lines: []render.Line{{
			Name:  "Discharge",
			Color: "#3fb950",
			Fill:  true,
			Points: hydro.Series{
				{Date: "2012-10-28T00:00:00", Value: val(100)},
				{Date: "2012-10-29T00:00:00", Value: val(420)},
				{Date: "2012-10-30T00:00:00", Value: nil},
				{Date: "2012-10-31T00:00:00", Value: val(310)},
			},
		}},
		XMin: time.Date(2012, 10, 28, 0, 0, 0, 0, time.UTC),
		XMax: time.Date(2012, 11, 1, 0, 0, 0, 0, time.UTC),
		Band: &render.Band{
			Start: time.Date(2012, 10, 29, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2012, 10, 30, 0, 0, 0, 0, time.UTC),
			Label: "Sandy (2012)",
		},
	}
}

type failingBackend struct{ err error }

func (b failingBackend) Draw(io.Writer, render.Spec) error { return b.err }

type panickingBackend struct{}

func (panickingBackend) Draw(io.Writer, render.Spec) error { panic("canvas context lost") }

func TestGoChart_DrawsLineWithGapsAndBand(t *testing.T) {
	r := render.NewRenderer(nil, zerolog.Nop())

	png, err := r.Draw(dischargeSpec())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestGoChart_DrawsTimeline(t *testing.T) {
	ds := hydro.VTECDataset{WarningOrder: hydro.DefaultWarningOrder}
	spec := render.Spec{
		Title:      "VTEC — Station 8454000",
		Kind:       render.KindTimeline,
		Categories: ds.Order(),
		Intervals: render.TimelineIntervals(ds, []hydro.WarningInterval{
			{WarningName: "Flood Warning", Issued: "2012-10-29 08:00", Expired: "2012-10-30 20:00"},
			{WarningName: "Coastal Flood Warning", Issued: "2012-10-29 10:00", Expired: "2012-10-29 22:00"},
		}),
		XMin: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		XMax: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	require.Len(t, spec.Intervals, 2)
	assert.Equal(t, 2, spec.Intervals[0].Category)
	assert.Equal(t, 0, spec.Intervals[1].Category, "unknown warning names sit on the first category")

	png, err := render.NewRenderer(render.GoChart{}, zerolog.Nop()).Draw(spec)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestGoChart_NothingToDraw(t *testing.T) {
	spec := render.Spec{
		Kind:  render.KindLine,
		Lines: []render.Line{{Name: "Discharge", Points: hydro.Series{{Date: "2012-10-29", Value: nil}}}},
	}
	_, err := render.NewRenderer(nil, zerolog.Nop()).Draw(spec)
	assert.ErrorIs(t, err, render.ErrDrawFailed)
	assert.ErrorIs(t, err, render.ErrNothingToDraw)
}

func TestRenderer_ContainsBackendFailures(t *testing.T) {
	boom := errors.New("invalid data range")

	_, err := render.NewRenderer(failingBackend{err: boom}, zerolog.Nop()).Draw(dischargeSpec())
	assert.ErrorIs(t, err, render.ErrDrawFailed)
	assert.ErrorIs(t, err, boom)

	assert.NotPanics(t, func() {
		_, err = render.NewRenderer(panickingBackend{}, zerolog.Nop()).Draw(dischargeSpec())
	})
	assert.ErrorIs(t, err, render.ErrDrawFailed)
}

func TestCanvases_RebindDestroysPreviousChart(t *testing.T) {
	c := render.NewCanvases(render.NewRenderer(nil, zerolog.Nop()))

	first, err := c.Bind("discharge", dischargeSpec())
	require.NoError(t, err)
	second, err := c.Bind("discharge", dischargeSpec())
	require.NoError(t, err)

	assert.NotEqual(t, first.Instance, second.Instance)
	assert.Equal(t, uint64(1), c.Destroyed())
	assert.Equal(t, []string{"discharge"}, c.Bound())

	got, ok := c.Get("discharge")
	require.True(t, ok)
	assert.Equal(t, second.Instance, got.Instance)
}

func TestCanvases_FailedBindLeavesCanvasEmpty(t *testing.T) {
	good := render.NewCanvases(render.NewRenderer(nil, zerolog.Nop()))
	_, err := good.Bind("discharge", dischargeSpec())
	require.NoError(t, err)

	bad := render.NewCanvases(render.NewRenderer(panickingBackend{}, zerolog.Nop()))
	_, err = bad.Bind("discharge", dischargeSpec())
	assert.ErrorIs(t, err, render.ErrDrawFailed)
	_, ok := bad.Get("discharge")
	assert.False(t, ok)

	// Binding an undrawable spec over a live chart clears it.
	_, err = good.Bind("discharge", render.Spec{Kind: render.KindLine})
	assert.Error(t, err)
	_, ok = good.Get("discharge")
	assert.False(t, ok)
	assert.Empty(t, good.Bound())
}

func TestCanvases_DestroyAll(t *testing.T) {
	c := render.NewCanvases(render.NewRenderer(nil, zerolog.Nop()))
	_, err := c.Bind("discharge", dischargeSpec())
	require.NoError(t, err)
	_, err = c.Bind("precipitation", dischargeSpec())
	require.NoError(t, err)

	c.DestroyAll()
	assert.Empty(t, c.Bound())
	assert.False(t, c.Destroy("discharge"))
}

func TestResolveFigure(t *testing.T) {
	fetcher := static.NewFSFetcher(fstest.MapFS{
		"images/vtec/vtec_timeline_8454000.png": {Data: pngMagic},
	}, "/")

	fig := render.ResolveFigure(context.Background(), fetcher, "images/vtec/vtec_timeline_8454000.png")
	assert.False(t, fig.Placeholder)
	assert.Equal(t, "/images/vtec/vtec_timeline_8454000.png", fig.URL)

	fig = render.ResolveFigure(context.Background(), fetcher, "images/vtec/vtec_timeline_01108000.png")
	assert.Equal(t, render.Placeholder(), fig)
	assert.Equal(t, "No data", fig.Text)

	assert.True(t, render.ResolveFigure(context.Background(), fetcher, "").Placeholder)
}
