package hydro

import (
	"strings"
	"time"
)

// datePrefixLen is the length of the ISO date prefix ("YYYY-MM-DD").
const datePrefixLen = 10

// Point is one sample. A nil Value is a missing sample and renders as a gap.
type Point struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// Series is an ascending, immutable sequence of samples for one (station, metric).
type Series []Point

// Present counts samples that carry a value.
func (s Series) Present() int {
	n := 0
	for _, p := range s {
		if p.Value != nil {
			n++
		}
	}
	return n
}

// Window returns the points whose date prefix lies in [start, end]. Comparison is
// lexicographic on the ISO date prefix and inclusive on both ends.
func (s Series) Window(start, end string) Series {
	lo := datePrefix(start)
	hi := datePrefix(end)
	out := make(Series, 0, len(s))
	for _, p := range s {
		d := datePrefix(p.Date)
		if d >= lo && d <= hi {
			out = append(out, p)
		}
	}
	return out
}

// WindowOrAll crops the series to [start, end] and falls back to the full series when
// the window holds no points.
func (s Series) WindowOrAll(start, end string) (Series, bool) {
	w := s.Window(start, end)
	if len(w) == 0 {
		return s, false
	}
	return w, true
}

// Segments splits the series into runs of consecutive non-null samples.
func (s Series) Segments() []Series {
	var segments []Series
	var current Series
	for _, p := range s {
		if p.Value == nil {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
			continue
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

func datePrefix(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > datePrefixLen {
		return s[:datePrefixLen]
	}
	return s
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses the timestamp forms found across the data documents.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SeriesSet maps station ids to series.
type SeriesSet map[string]Series

// Lookup finds the series for id, tolerating whitespace differences in keys.
func (m SeriesSet) Lookup(id string) (Series, bool) {
	if s, ok := m[id]; ok {
		return s, true
	}
	want := strings.TrimSpace(id)
	for k, s := range m {
		if strings.TrimSpace(k) == want {
			return s, true
		}
	}
	return nil, false
}
