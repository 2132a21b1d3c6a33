// Package stationid normalizes station identifiers across the USGS and NOAA schemes
// and derives the identifiers used to address images and series in each domain.
package stationid

import (
	"strconv"
	"strings"
)

const (
	// DisplayWidth is the canonical width of a USGS station id.
	DisplayWidth = 8

	// noaaMinID is the lowest 7-digit value treated as a NOAA tide station.
	noaaMinID = 8_000_000

	usgsURLPrefix = "https://waterdata.usgs.gov/monitoring-location/USGS-"
	usgsURLSuffix = "/#dataTypeId=continuous-00060-0&period=P7D&showFieldMeasurements=true"
)

// DischargeDisplayID left-pads a USGS id with zeros to eight characters.
// Blank input yields "". Ids already eight or more characters long are returned trimmed.
func DischargeDisplayID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if len(s) >= DisplayWidth {
		return s
	}
	return strings.Repeat("0", DisplayWidth-len(s)) + s
}

// VTECID returns the id used for VTEC timeline lookups.
//
// NOAA and USGS ids collide in format, so a 7-digit value of at least 8,000,000 is taken
// to be a NOAA station and returned unpadded; anything else is treated as USGS. This is
// an approximation and must not be widened: image filenames depend on it exactly.
func VTECID(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) == 7 && IsNumeric(s) {
		if n, err := strconv.Atoi(s); err == nil && n >= noaaMinID {
			return s
		}
	}
	return DischargeDisplayID(s)
}

// IsNumeric reports whether s is a non-empty string of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Lookup returns the id used for image and series lookups and whether the raw id is
// usable at all. Malformed ids keep their display form but never resolve to data.
func Lookup(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if !IsNumeric(s) {
		return s, false
	}
	return s, true
}

// Label is the dropdown and tooltip label for a discharge station.
func Label(id, name string) string {
	idDisplay := DischargeDisplayID(id)
	n := strings.TrimSpace(name)
	if n != "" && n != strings.TrimSpace(id) {
		return n + " (" + idDisplay + ")"
	}
	if idDisplay == "" {
		return "—"
	}
	return idDisplay
}

// NOAALabel is the dropdown and tooltip label for a NOAA station.
func NOAALabel(id, name string) string {
	n := strings.TrimSpace(name)
	if n != "" {
		return n + " (" + id + ")"
	}
	if id == "" {
		return "NOAA"
	}
	return id
}

// USGSURL links a discharge station to the USGS water data portal.
// Returns "" for a blank id.
func USGSURL(id string) string {
	id8 := DischargeDisplayID(id)
	if id8 == "" {
		return ""
	}
	return usgsURLPrefix + id8 + usgsURLSuffix
}
