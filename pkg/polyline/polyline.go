// Package polyline encodes coordinate rings with Google's polyline algorithm so
// watershed outlines travel as compact strings instead of nested number arrays.
// The algorithm is documented at: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"math"
)

// precision is the fixed-point scale of the encoding (five decimal places).
const precision = 1e5

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FromFlat converts flat lon/lat coordinates, as stored by go-geom, into coordinates.
// Ordinates beyond the first two of each stride (Z, M) are ignored.
func FromFlat(flat []float64, stride int) []Coordinate {
	if stride < 2 || len(flat) < stride {
		return nil
	}
	coords := make([]Coordinate, 0, len(flat)/stride)
	for i := 0; i+1 < len(flat); i += stride {
		coords = append(coords, Coordinate{Lat: flat[i+1], Lon: flat[i]})
	}
	return coords
}

// Encode encodes coordinates into a polyline string.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(coords)*6)
	var prevLat, prevLon int
	for _, c := range coords {
		lat := int(math.Round(c.Lat * precision))
		lon := int(math.Round(c.Lon * precision))
		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

// EncodeFlat encodes flat go-geom coordinates directly.
func EncodeFlat(flat []float64, stride int) string {
	return Encode(FromFlat(flat, stride))
}

// Decode decodes a polyline string. A truncated trailing pair is dropped.
func Decode(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	var coords []Coordinate
	var lat, lon int
	for i := 0; i < len(encoded); {
		dLat, next, ok := readValue(encoded, i)
		if !ok {
			break
		}
		dLon, next, ok := readValue(encoded, next)
		if !ok {
			break
		}
		i = next
		lat += dLat
		lon += dLon
		coords = append(coords, Coordinate{Lat: float64(lat) / precision, Lon: float64(lon) / precision})
	}
	return coords
}

// readValue reads one zigzag varint starting at i.
func readValue(encoded string, i int) (value, next int, ok bool) {
	shift, result := 0, 0
	for i < len(encoded) {
		b := int(encoded[i]) - 63
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), i, true
			}
			return result >> 1, i, true
		}
	}
	return 0, i, false
}

func appendValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}
	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}
