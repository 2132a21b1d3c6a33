package stationid

// Image paths are relative to the deployment base path.

// VTECImagePath is the pre-rendered warning timeline for a station of either scheme.
func VTECImagePath(raw string) string {
	return "images/vtec/vtec_timeline_" + VTECID(raw) + ".png"
}

// WaterLevelImagePath is the NOAA water level figure with predictions.
func WaterLevelImagePath(noaaID string) string {
	return "images/noaa/" + noaaID + "_water_level_with_predictions.png"
}

// MetImagePath is the NOAA figure for one meteorological product.
func MetImagePath(noaaID, product string) string {
	return "images/noaa/" + noaaID + "_" + product + ".png"
}

// NOAAPrecipitationImagePath is the precipitation figure for a NOAA station.
func NOAAPrecipitationImagePath(noaaID string) string {
	return "images/noaa/precipitation_" + noaaID + ".png"
}

// USGSPrecipitationImagePath is the precipitation figure for a discharge station.
func USGSPrecipitationImagePath(raw string) string {
	return "images/pr/precipitation_" + DischargeDisplayID(raw) + ".png"
}
