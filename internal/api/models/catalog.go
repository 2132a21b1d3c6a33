package models

// StationOption is a dropdown entry for a discharge or NOAA station.
type StationOption struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Name  string   `json:"name,omitempty"`
	Kind  string   `json:"kind,omitempty"`
	State string   `json:"state,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
	URL   string   `json:"url,omitempty"`
}

// SensorItem is a map sensor.
type SensorItem struct {
	Name       string   `json:"name"`
	SensorType string   `json:"sensorType"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
}

// StormItem is a storm window with its display label.
type StormItem struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Year         int    `json:"year,omitempty"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	DisplayLabel string `json:"displayLabel"`
}

// StationIDInfo is the normalizer output for a raw station id.
type StationIDInfo struct {
	Raw       string `json:"raw"`
	DisplayID string `json:"displayId"`
	VTECID    string `json:"vtecId"`
	LookupID  string `json:"lookupId,omitempty"`
	Valid     bool   `json:"valid"`
	Label     string `json:"label"`
	USGSURL   string `json:"usgsUrl"`
}
