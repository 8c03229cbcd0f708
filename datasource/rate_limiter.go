package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"weatherwise/models"

	"golang.org/x/time/rate"
)

// RateLimitedSource wraps a WeatherSource with a shared token bucket so a
// render pass never exceeds the provider's request allowance
type RateLimitedSource struct {
	source  WeatherSource
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedSource creates a new rate limited source
// rps is the maximum requests per second allowed (can be fractional for less than 1 request per second)
// burst is the maximum burst size allowed
func NewRateLimitedSource(source WeatherSource, rps float64, burst int) *RateLimitedSource {
	return &RateLimitedSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    fmt.Sprintf("%s [Rate Limited]", source.Name()),
	}
}

// wait blocks for a token; a cancelled wait is reported as a NetworkFault
// because the call never reached the provider
func (r *RateLimitedSource) wait(ctx context.Context, endpoint string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return &APIError{Kind: NetworkFault, Endpoint: endpoint, Err: fmt.Errorf("rate limit wait canceled: %w", err)}
	}
	return nil
}

// Name returns the source name
func (r *RateLimitedSource) Name() string {
	return r.name
}

func (r *RateLimitedSource) FetchCurrent(ctx context.Context, loc models.Location, units models.UnitSystem) (models.CurrentConditions, error) {
	if err := r.wait(ctx, currentEndpoint); err != nil {
		return models.CurrentConditions{}, err
	}
	return r.source.FetchCurrent(ctx, loc, units)
}

func (r *RateLimitedSource) FetchForecast(ctx context.Context, loc models.Location, units models.UnitSystem) (models.Forecast, error) {
	if err := r.wait(ctx, forecastEndpoint); err != nil {
		return models.Forecast{}, err
	}
	return r.source.FetchForecast(ctx, loc, units)
}

func (r *RateLimitedSource) FetchHistorical(ctx context.Context, coord models.Coordinates, date time.Time, units models.UnitSystem) (models.HistoricalSample, error) {
	if err := r.wait(ctx, historicalEndpoint); err != nil {
		return models.HistoricalSample{}, err
	}
	return r.source.FetchHistorical(ctx, coord, date, units)
}

func (r *RateLimitedSource) FetchAirQuality(ctx context.Context, coord models.Coordinates) (models.AirQualitySample, error) {
	if err := r.wait(ctx, airQualityEndpoint); err != nil {
		return models.AirQualitySample{}, err
	}
	return r.source.FetchAirQuality(ctx, coord)
}

func (r *RateLimitedSource) FetchUVIndex(ctx context.Context, coord models.Coordinates) (models.UVSample, error) {
	if err := r.wait(ctx, uvIndexEndpoint); err != nil {
		return models.UVSample{}, err
	}
	return r.source.FetchUVIndex(ctx, coord)
}

// Raw forwards to the wrapped source's passthrough after taking a token from
// the same bucket as the dashboard fetches
func (r *RateLimitedSource) Raw(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error) {
	raw, ok := r.source.(RawSource)
	if !ok {
		return nil, fmt.Errorf("%s has no raw passthrough", r.source.Name())
	}
	if err := r.wait(ctx, endpoint); err != nil {
		return nil, err
	}
	return raw.Raw(ctx, endpoint, params)
}

// Verify that our rate limited type implements the required interfaces
var (
	_ WeatherSource = (*RateLimitedSource)(nil)
	_ RawSource     = (*RateLimitedSource)(nil)
)
