// Package hydro defines the hydrological data model shared by the resolver, the view
// composer and the renderers, and normalizes loosely shaped JSON documents on ingest.
package hydro

import (
	"strings"
)

// Domain names one independently resolved data set.
type Domain string

// Data domains.
const (
	DomainStations        Domain = "stations"
	DomainDischargeSeries Domain = "discharge_series"
	DomainWaterLevel      Domain = "water_level"
	DomainMeteorological  Domain = "meteorological"
	DomainPrecipitation   Domain = "precipitation"
	DomainVTEC            Domain = "vtec"
	DomainStorms          Domain = "storms"
	DomainNOAAStations    Domain = "noaa_stations"
	DomainSensors         Domain = "sensors"
)

// AllDomains returns every domain in load order.
func AllDomains() []Domain {
	return []Domain{
		DomainStations,
		DomainDischargeSeries,
		DomainNOAAStations,
		DomainSensors,
		DomainStorms,
		DomainVTEC,
		DomainWaterLevel,
		DomainMeteorological,
		DomainPrecipitation,
	}
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	for _, known := range AllDomains() {
		if d == known {
			return true
		}
	}
	return false
}

// Document is the static JSON document name backing the domain, without extension.
func (d Domain) Document() string {
	switch d {
	case DomainStations, DomainDischargeSeries:
		return "discharge_data"
	case DomainWaterLevel:
		return "water_level_data"
	case DomainMeteorological:
		return "meteorological_data"
	case DomainPrecipitation:
		return "precipitation_data"
	case DomainVTEC:
		return "vtec_data"
	case DomainStorms:
		return "storms_data"
	case DomainNOAAStations:
		return "noaa_stations"
	case DomainSensors:
		return "sensors_data"
	default:
		return ""
	}
}

// HasLive reports whether the live backend serves this domain.
func (d Domain) HasLive() bool {
	return d == DomainStations || d == DomainDischargeSeries
}

// StationKind distinguishes the two station schemes.
type StationKind string

// Station kinds.
const (
	KindDischarge StationKind = "discharge"
	KindTide      StationKind = "tide"
)

// Station is an immutable catalog entry. Identity is (Kind, ID).
type Station struct {
	ID    string      `json:"id"`
	Name  string      `json:"name,omitempty"`
	Lat   *float64    `json:"lat"`
	Lon   *float64    `json:"lon"`
	Kind  StationKind `json:"kind"`
	State string      `json:"state,omitempty"`
	URL   string      `json:"url,omitempty"`
}

// HasCoords reports whether the station can be placed on the map.
func (s Station) HasCoords() bool {
	return s.Lat != nil && s.Lon != nil
}

// DisplayName returns the station name when it adds information beyond the id.
func (s Station) DisplayName() string {
	n := strings.TrimSpace(s.Name)
	if n == "" || n == s.ID {
		return ""
	}
	return n
}

// Sensor is an auxiliary field sensor shown on the map only.
type Sensor struct {
	Name       string   `json:"name"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	SensorType string   `json:"sensorType"`
}

// HasCoords reports whether the sensor can be placed on the map.
func (s Sensor) HasCoords() bool {
	return s.Lat != nil && s.Lon != nil
}

// StormWindow is a named date range used to crop series and shade charts.
type StormWindow struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Year         int    `json:"year,omitempty"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	DisplayLabel string `json:"displayLabel"`
}

// Label returns the best human label for the storm.
func (s StormWindow) Label() string {
	switch {
	case s.DisplayLabel != "":
		return s.DisplayLabel
	case s.Name != "":
		return s.Name
	default:
		return s.ID
	}
}

// FindStorm returns the storm with the given id.
func FindStorm(storms []StormWindow, id string) (StormWindow, bool) {
	for _, s := range storms {
		if s.ID == id {
			return s, true
		}
	}
	return StormWindow{}, false
}

// DischargeDataset is the discharge document: the station catalog plus bulk series.
type DischargeDataset struct {
	Stations []Station `json:"stations"`
	Series   SeriesSet `json:"series"`
}

// FindStation returns the station with the given id.
func FindStation(stations []Station, id string) (Station, bool) {
	for _, s := range stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}
