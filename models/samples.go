package models

// AirQualitySample is a single AQI reading on the provider's 1 (good) to 5 (poor) scale
type AirQualitySample struct {
	AQI       int   `json:"aqi"`
	Timestamp int64 `json:"timestamp"`
}

// UVSample is the current UV index at a location
type UVSample struct {
	UVI       float64 `json:"uvi"`
	Timestamp int64   `json:"timestamp"`
}

// HistoricalSample is the weather at a past point in time
type HistoricalSample struct {
	Timestamp   int64      `json:"timestamp"`
	Temperature float64    `json:"temperature"`
	Description string     `json:"description"`
	Units       UnitSystem `json:"units"`
}
