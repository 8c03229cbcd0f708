package models

// ForecastEntry is a single 3-hour step of the provider forecast
type ForecastEntry struct {
	Timestamp   int64   `json:"timestamp"` // Unix seconds
	TimeText    string  `json:"timeText"`  // provider "dt_txt", UTC
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"` // percentage
	WindSpeed   float64 `json:"windSpeed"`
	Description string  `json:"description"`
}

// Forecast holds entries in the order the provider returned them
type Forecast struct {
	City    string          `json:"city"`
	Units   UnitSystem      `json:"units"`
	Entries []ForecastEntry `json:"entries"`
}
