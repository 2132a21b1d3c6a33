package hydro

// MetProduct is one NOAA meteorological product.
type MetProduct string

// Meteorological products, in panel order.
const (
	MetAirPressure      MetProduct = "air_pressure"
	MetAirTemperature   MetProduct = "air_temperature"
	MetWaterTemperature MetProduct = "water_temperature"
	MetWind             MetProduct = "wind"
	MetHumidity         MetProduct = "humidity"
	MetVisibility       MetProduct = "visibility"
)

// MetProducts lists the products shown for a tide station.
func MetProducts() []MetProduct {
	return []MetProduct{
		MetAirPressure,
		MetAirTemperature,
		MetWaterTemperature,
		MetWind,
		MetHumidity,
		MetVisibility,
	}
}

// Title is the panel title for the product.
func (p MetProduct) Title() string {
	switch p {
	case MetAirPressure:
		return "Air pressure"
	case MetAirTemperature:
		return "Air temperature"
	case MetWaterTemperature:
		return "Water temperature"
	case MetWind:
		return "Wind"
	case MetHumidity:
		return "Humidity"
	case MetVisibility:
		return "Visibility"
	default:
		return string(p)
	}
}

// WaterLevel holds the NOAA water level components for one station.
type WaterLevel struct {
	Verified    Series `json:"verified,omitempty"`
	Preliminary Series `json:"preliminary,omitempty"`
	Predictions Series `json:"predictions,omitempty"`
	Residual    Series `json:"residual,omitempty"`
}

// NamedSeries labels one component of a multi-series panel.
type NamedSeries struct {
	Name   string `json:"name"`
	Points Series `json:"points"`
}

// Components returns the non-empty components in drawing order.
func (w WaterLevel) Components() []NamedSeries {
	var out []NamedSeries
	for _, c := range []NamedSeries{
		{Name: "verified", Points: w.Verified},
		{Name: "preliminary", Points: w.Preliminary},
		{Name: "predictions", Points: w.Predictions},
		{Name: "residual", Points: w.Residual},
	} {
		if len(c.Points) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// WaterLevelDataset is water_level_data.json keyed by NOAA id.
type WaterLevelDataset struct {
	Series map[string]WaterLevel `json:"series"`
}

// MetStation is the meteorological record for one NOAA station.
type MetStation struct {
	Products   map[MetProduct]Series `json:"products"`
	WaterLevel *WaterLevel           `json:"waterLevel,omitempty"`
}

// MetDataset is meteorological_data.json keyed by NOAA id.
type MetDataset struct {
	Series map[string]MetStation `json:"series"`
}

// PrecipitationDataset is precipitation_data.json keyed by station id. USGS stations
// are keyed by their eight-digit display id, NOAA stations by their raw id.
type PrecipitationDataset struct {
	Series SeriesSet `json:"series"`
}
