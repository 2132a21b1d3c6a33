package hydro

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrMalformed is returned when a document cannot be normalized.
var ErrMalformed = errors.New("malformed document")

// FlexString accepts a JSON string, number or null and keeps its text form.
// Station ids appear as both strings and numbers across the documents.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
	default:
		*f = FlexString(string(data))
	}
	return nil
}

// UnmarshalJSON accepts numeric values, null, and numeric strings. Anything that is not
// a finite number becomes a missing sample.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date  FlexString      `json:"date"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Date = string(raw.Date)
	p.Value = parseValue(raw.Value)
	return nil
}

func parseValue(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type stationRecord struct {
	ID    FlexString `json:"id"`
	Name  FlexString `json:"name"`
	Lat   *float64   `json:"lat"`
	Lon   *float64   `json:"lon"`
	State FlexString `json:"state"`
	URL   FlexString `json:"url"`
}

func (r stationRecord) toStation(kind StationKind) Station {
	return Station{
		ID:    string(r.ID),
		Name:  string(r.Name),
		Lat:   r.Lat,
		Lon:   r.Lon,
		Kind:  kind,
		State: string(r.State),
		URL:   string(r.URL),
	}
}

// DecodeDischarge normalizes discharge_data.json.
func DecodeDischarge(data []byte) (DischargeDataset, error) {
	var doc struct {
		Stations []stationRecord `json:"stations"`
		Series   SeriesSet       `json:"series"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return DischargeDataset{}, fmt.Errorf("%w: discharge: %v", ErrMalformed, err)
	}
	out := DischargeDataset{
		Stations: make([]Station, 0, len(doc.Stations)),
		Series:   doc.Series,
	}
	for _, r := range doc.Stations {
		st := r.toStation(KindDischarge)
		if st.Name == "" {
			st.Name = st.ID
		}
		out.Stations = append(out.Stations, st)
	}
	if out.Series == nil {
		out.Series = SeriesSet{}
	}
	return out, nil
}

// DecodeStationCollection normalizes the live GeoJSON station catalog. Feature ids come
// from the feature or its properties; names fall back from name to staname to the id.
func DecodeStationCollection(data []byte) ([]Station, error) {
	var doc struct {
		Features []struct {
			ID         FlexString `json:"id"`
			Properties struct {
				ID      FlexString `json:"id"`
				Name    FlexString `json:"name"`
				Staname FlexString `json:"staname"`
			} `json:"properties"`
			Geometry *geojson.Geometry `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: station collection: %v", ErrMalformed, err)
	}

	stations := make([]Station, 0, len(doc.Features))
	for _, f := range doc.Features {
		id := string(f.ID)
		if id == "" {
			id = string(f.Properties.ID)
		}
		name := string(f.Properties.Name)
		if name == "" {
			name = string(f.Properties.Staname)
		}
		if name == "" {
			name = id
		}
		st := Station{ID: id, Name: name, Kind: KindDischarge}
		if lon, lat, ok := pointCoords(f.Geometry); ok {
			st.Lat, st.Lon = &lat, &lon
		}
		stations = append(stations, st)
	}
	return stations, nil
}

func pointCoords(g *geojson.Geometry) (lon, lat float64, ok bool) {
	if g == nil {
		return 0, 0, false
	}
	t, err := g.Decode()
	if err != nil {
		return 0, 0, false
	}
	p, isPoint := t.(*geom.Point)
	if !isPoint || len(p.FlatCoords()) < 2 {
		return 0, 0, false
	}
	return p.X(), p.Y(), true
}

// DecodeNOAAStations normalizes noaa_stations.json.
func DecodeNOAAStations(data []byte) ([]Station, error) {
	var doc struct {
		Stations []stationRecord `json:"stations"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: noaa stations: %v", ErrMalformed, err)
	}
	out := make([]Station, 0, len(doc.Stations))
	for _, r := range doc.Stations {
		out = append(out, r.toStation(KindTide))
	}
	return out, nil
}

// DecodeSensors normalizes sensors_data.json.
func DecodeSensors(data []byte) ([]Sensor, error) {
	var doc struct {
		Sensors []Sensor `json:"sensors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: sensors: %v", ErrMalformed, err)
	}
	for i := range doc.Sensors {
		doc.Sensors[i].SensorType = strings.ToLower(strings.TrimSpace(doc.Sensors[i].SensorType))
	}
	return doc.Sensors, nil
}

// DecodeStorms normalizes storms_data.json.
func DecodeStorms(data []byte) ([]StormWindow, error) {
	var doc struct {
		Storms []StormWindow `json:"storms"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: storms: %v", ErrMalformed, err)
	}
	out := doc.Storms[:0]
	for _, s := range doc.Storms {
		if s.ID == "" || s.StartDate == "" || s.EndDate == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// DecodeVTEC normalizes vtec_data.json.
func DecodeVTEC(data []byte) (VTECDataset, error) {
	var doc VTECDataset
	if err := json.Unmarshal(data, &doc); err != nil {
		return VTECDataset{}, fmt.Errorf("%w: vtec: %v", ErrMalformed, err)
	}
	if doc.Series == nil {
		doc.Series = map[string][]WarningInterval{}
	}
	return doc, nil
}

// DecodeWaterLevel normalizes water_level_data.json.
func DecodeWaterLevel(data []byte) (WaterLevelDataset, error) {
	var doc WaterLevelDataset
	if err := json.Unmarshal(data, &doc); err != nil {
		return WaterLevelDataset{}, fmt.Errorf("%w: water level: %v", ErrMalformed, err)
	}
	if doc.Series == nil {
		doc.Series = map[string]WaterLevel{}
	}
	return doc, nil
}

// DecodeMeteorological normalizes meteorological_data.json, where each station object
// mixes product arrays with a nested water_level object.
func DecodeMeteorological(data []byte) (MetDataset, error) {
	var doc struct {
		Series map[string]map[string]json.RawMessage `json:"series"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return MetDataset{}, fmt.Errorf("%w: meteorological: %v", ErrMalformed, err)
	}

	out := MetDataset{Series: make(map[string]MetStation, len(doc.Series))}
	for id, fields := range doc.Series {
		st := MetStation{Products: map[MetProduct]Series{}}
		for key, raw := range fields {
			if key == "water_level" {
				var wl WaterLevel
				if err := json.Unmarshal(raw, &wl); err != nil {
					return MetDataset{}, fmt.Errorf("%w: meteorological %s water_level: %v", ErrMalformed, id, err)
				}
				st.WaterLevel = &wl
				continue
			}
			var s Series
			if err := json.Unmarshal(raw, &s); err != nil {
				return MetDataset{}, fmt.Errorf("%w: meteorological %s %s: %v", ErrMalformed, id, key, err)
			}
			st.Products[MetProduct(key)] = s
		}
		out.Series[id] = st
	}
	return out, nil
}

// DecodePrecipitation normalizes precipitation_data.json.
func DecodePrecipitation(data []byte) (PrecipitationDataset, error) {
	var doc PrecipitationDataset
	if err := json.Unmarshal(data, &doc); err != nil {
		return PrecipitationDataset{}, fmt.Errorf("%w: precipitation: %v", ErrMalformed, err)
	}
	if doc.Series == nil {
		doc.Series = SeriesSet{}
	}
	return doc, nil
}

// DecodeStationSeries normalizes the on-demand series response {discharge:[...]}.
func DecodeStationSeries(data []byte) (Series, error) {
	var doc struct {
		Discharge Series `json:"discharge"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: station series: %v", ErrMalformed, err)
	}
	return doc.Discharge, nil
}
