package datasource

import (
	"context"
	"encoding/json"
	"time"

	"weatherwise/models"
)

// WeatherSource fetches the five data categories of a render pass.
// Every failure is an *APIError carrying an ErrorKind.
type WeatherSource interface {
	Name() string

	// FetchCurrent resolves a location and returns its current weather
	FetchCurrent(ctx context.Context, loc models.Location, units models.UnitSystem) (models.CurrentConditions, error)

	// FetchForecast returns the 5-day / 3-hour forecast in provider order
	FetchForecast(ctx context.Context, loc models.Location, units models.UnitSystem) (models.Forecast, error)

	// FetchHistorical returns the weather at date for coord
	FetchHistorical(ctx context.Context, coord models.Coordinates, date time.Time, units models.UnitSystem) (models.HistoricalSample, error)

	FetchAirQuality(ctx context.Context, coord models.Coordinates) (models.AirQualitySample, error)

	FetchUVIndex(ctx context.Context, coord models.Coordinates) (models.UVSample, error)
}

// RawSource returns provider bodies untouched
type RawSource interface {
	Raw(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error)
}
