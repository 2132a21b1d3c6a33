package hydro_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
)

func val(v float64) *float64 { return &v }

func sampleSeries() hydro.Series {
	return hydro.Series{
		{Date: "2012-10-28T00:00:00", Value: val(10)},
		{Date: "2012-10-29T06:00:00", Value: val(40)},
		{Date: "2012-10-30T23:45:00", Value: nil},
		{Date: "2012-10-31T00:00:00", Value: val(35)},
	}
}

func TestSeries_WindowIsInclusiveOnDatePrefix(t *testing.T) {
	w := sampleSeries().Window("2012-10-29", "2012-10-30")
	require.Len(t, w, 2)
	assert.Equal(t, "2012-10-29T06:00:00", w[0].Date)
	assert.Equal(t, "2012-10-30T23:45:00", w[1].Date)
	assert.Nil(t, w[1].Value)
}

func TestSeries_WindowOrAllFallsBack(t *testing.T) {
	s := sampleSeries()

	got, filtered := s.WindowOrAll("2020-01-01", "2020-01-02")
	assert.False(t, filtered)
	assert.Equal(t, s, got)

	got, filtered = s.WindowOrAll("2012-10-31", "2012-10-31")
	assert.True(t, filtered)
	assert.Len(t, got, 1)
}

func TestSeries_SegmentsSplitOnNull(t *testing.T) {
	segments := sampleSeries().Segments()
	require.Len(t, segments, 2)
	assert.Len(t, segments[0], 2)
	assert.Len(t, segments[1], 1)
}

func TestSeries_Present(t *testing.T) {
	assert.Equal(t, 3, sampleSeries().Present())
	assert.Equal(t, 0, hydro.Series{}.Present())
}

func TestSeriesSet_LookupToleratesWhitespace(t *testing.T) {
	set := hydro.SeriesSet{" 1108000": sampleSeries()}
	s, ok := set.Lookup("1108000")
	assert.True(t, ok)
	assert.Len(t, s, 4)

	_, ok = set.Lookup("999")
	assert.False(t, ok)
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{"2012-10-29 08:00", "2012-10-29T08:00:00", "2012-10-29", "2012-10-29T08:00:00Z"} {
		_, ok := hydro.ParseTime(s)
		assert.True(t, ok, s)
	}
	_, ok := hydro.ParseTime("yesterday")
	assert.False(t, ok)
}

func TestWindowIntervals_KeepsOverlaps(t *testing.T) {
	in := []hydro.WarningInterval{
		{WarningName: "Flood Warning", Issued: "2012-10-28 10:00", Expired: "2012-10-29 02:00"},
		{WarningName: "Flood Warning", Issued: "2013-01-01 10:00", Expired: "2013-01-02 02:00"},
	}
	out := hydro.WindowIntervals(in, "2012-10-29", "2012-10-30")
	require.Len(t, out, 1)
	assert.Equal(t, "2012-10-28 10:00", out[0].Issued)
}

func TestDomain_Documents(t *testing.T) {
	assert.Equal(t, "discharge_data", hydro.DomainStations.Document())
	assert.Equal(t, "discharge_data", hydro.DomainDischargeSeries.Document())
	assert.Equal(t, "noaa_stations", hydro.DomainNOAAStations.Document())
	assert.True(t, hydro.DomainStations.HasLive())
	assert.False(t, hydro.DomainVTEC.HasLive())
	assert.False(t, hydro.Domain("bogus").Valid())
	assert.Len(t, hydro.AllDomains(), 9)
}
