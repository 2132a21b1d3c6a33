package hydro

import (
	"strings"
	"time"
)

// DefaultWarningOrder is the category axis for warning timelines.
var DefaultWarningOrder = []string{
	"Severe Thunderstorm Warning",
	"Flash Flood Warning",
	"Flood Warning",
	"High Wind Warning",
	"Tornado Warning",
	"Tropical Storm Warning",
	"Winter Storm Warning",
}

// WarningInterval is one VTEC warning with issued/expired timestamps.
type WarningInterval struct {
	WarningName string `json:"warning_name"`
	Issued      string `json:"issued"`
	Expired     string `json:"expired"`
}

// Span parses the interval bounds. ok is false when either bound is unparseable.
func (w WarningInterval) Span() (issued, expired time.Time, ok bool) {
	issued, ok1 := ParseTime(w.Issued)
	expired, ok2 := ParseTime(w.Expired)
	return issued, expired, ok1 && ok2
}

// VTECDataset is vtec_data.json keyed by VTEC id.
type VTECDataset struct {
	Series       map[string][]WarningInterval `json:"series"`
	WarningOrder []string                     `json:"warning_order"`
}

// Order returns the category axis, defaulting when the document omits it.
func (d VTECDataset) Order() []string {
	if len(d.WarningOrder) == 0 {
		return DefaultWarningOrder
	}
	return d.WarningOrder
}

// CategoryIndex returns the axis position of a warning name. Unknown names map to 0.
func (d VTECDataset) CategoryIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, n := range d.Order() {
		if n == name {
			return i
		}
	}
	return 0
}

// Intervals returns the warnings recorded for a VTEC id.
func (d VTECDataset) Intervals(vtecID string) []WarningInterval {
	if d.Series == nil {
		return nil
	}
	return d.Series[vtecID]
}

// WindowIntervals keeps intervals overlapping [start, end] on the ISO date prefix.
func WindowIntervals(in []WarningInterval, start, end string) []WarningInterval {
	lo, hi := datePrefix(start), datePrefix(end)
	out := make([]WarningInterval, 0, len(in))
	for _, w := range in {
		if datePrefix(w.Expired) >= lo && datePrefix(w.Issued) <= hi {
			out = append(out, w)
		}
	}
	return out
}
