package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"weatherwise/models"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultTimeout = 10 * time.Second
	userAgent      = "WeatherWise/1.0"

	currentEndpoint    = "/weather"
	forecastEndpoint   = "/forecast"
	historicalEndpoint = "/onecall/timemachine"
	airQualityEndpoint = "/air_pollution"
	uvIndexEndpoint    = "/onecall"
)

// rawEndpoints maps the public endpoint names to provider paths
var rawEndpoints = map[string]string{
	"current":    currentEndpoint,
	"forecast":   forecastEndpoint,
	"historical": historicalEndpoint,
	"airquality": airQualityEndpoint,
	"uvindex":    uvIndexEndpoint,
}

// OpenWeatherMapClient implements WeatherSource against the OpenWeatherMap 2.5 API
type OpenWeatherMapClient struct {
	apiKey string
	client *resty.Client
}

// NewOpenWeatherMapClient creates a client. An empty baseURL selects the public
// API and a zero timeout selects the default.
func NewOpenWeatherMapClient(apiKey, baseURL string, timeout time.Duration) *OpenWeatherMapClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		log.Printf("%s %s -> %d (%s, %d bytes)",
			resp.Request.Method, redactKey(resp.Request.URL), resp.StatusCode(), resp.Time().Round(time.Millisecond), len(resp.Body()))
		return nil
	})

	return &OpenWeatherMapClient{
		apiKey: apiKey,
		client: client,
	}
}

// Name returns the provider name
func (p *OpenWeatherMapClient) Name() string {
	return "OpenWeatherMap"
}

// get performs one GET and returns the body regardless of HTTP status;
// the provider reports errors in the body. Transport failures are NetworkFault.
func (p *OpenWeatherMapClient) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("appid", p.apiKey).
		Get(endpoint)
	if err != nil {
		log.Printf("GET %s failed: %v", endpoint, err)
		return nil, &APIError{Kind: NetworkFault, Endpoint: endpoint, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	return resp.Body(), nil
}

// Raw returns the undecoded body of one of the named endpoints
// ("current", "forecast", "historical", "airquality", "uvindex").
func (p *OpenWeatherMapClient) Raw(ctx context.Context, name string, params map[string]string) (json.RawMessage, error) {
	endpoint, ok := rawEndpoints[name]
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q", name)
	}
	body, err := p.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &APIError{Kind: KindUnknown, Endpoint: endpoint, Err: fmt.Errorf("response is not JSON")}
	}
	return json.RawMessage(body), nil
}

// FetchCurrent fetches current weather; success is "cod": 200
func (p *OpenWeatherMapClient) FetchCurrent(ctx context.Context, loc models.Location, units models.UnitSystem) (models.CurrentConditions, error) {
	params := loc.QueryParams()
	params["units"] = string(units)

	body, err := p.get(ctx, currentEndpoint, params)
	if err != nil {
		return models.CurrentConditions{}, err
	}
	if err := checkSentinel(body, currentEndpoint, codNumber200, LocationNotFound); err != nil {
		return models.CurrentConditions{}, err
	}

	var response struct {
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Sys struct {
			Country string `json:"country"`
			Sunrise int64  `json:"sunrise"`
			Sunset  int64  `json:"sunset"`
		} `json:"sys"`
		Timezone int    `json:"timezone"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return models.CurrentConditions{}, &APIError{Kind: LocationNotFound, Endpoint: currentEndpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	current := models.CurrentConditions{
		City:           response.Name,
		Country:        response.Sys.Country,
		Coord:          models.Coordinates{Lat: response.Coord.Lat, Lon: response.Coord.Lon},
		Temperature:    response.Main.Temp,
		Humidity:       response.Main.Humidity,
		WindSpeed:      response.Wind.Speed,
		Sunrise:        response.Sys.Sunrise,
		Sunset:         response.Sys.Sunset,
		TimezoneOffset: response.Timezone,
		Units:          units,
	}
	if len(response.Weather) > 0 {
		current.Description = response.Weather[0].Description
		current.Icon = response.Weather[0].Icon
	}
	if current.City == "" {
		current.City = loc.String()
	}
	return current, nil
}

// FetchForecast fetches the 5-day forecast; success is "cod": "200"
func (p *OpenWeatherMapClient) FetchForecast(ctx context.Context, loc models.Location, units models.UnitSystem) (models.Forecast, error) {
	params := loc.QueryParams()
	params["units"] = string(units)

	body, err := p.get(ctx, forecastEndpoint, params)
	if err != nil {
		return models.Forecast{}, err
	}
	if err := checkSentinel(body, forecastEndpoint, codString200, ForecastUnavailable); err != nil {
		return models.Forecast{}, err
	}

	var response struct {
		City struct {
			Name string `json:"name"`
		} `json:"city"`
		List []struct {
			Dt    int64  `json:"dt"`
			DtTxt string `json:"dt_txt"`
			Main  struct {
				Temp     float64 `json:"temp"`
				Humidity float64 `json:"humidity"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Weather []struct {
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"list"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return models.Forecast{}, &APIError{Kind: ForecastUnavailable, Endpoint: forecastEndpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	forecast := models.Forecast{
		City:    response.City.Name,
		Units:   units,
		Entries: make([]models.ForecastEntry, 0, len(response.List)),
	}
	for _, item := range response.List {
		description := ""
		if len(item.Weather) > 0 {
			description = item.Weather[0].Description
		}
		forecast.Entries = append(forecast.Entries, models.ForecastEntry{
			Timestamp:   item.Dt,
			TimeText:    item.DtTxt,
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
			Description: description,
		})
	}
	return forecast, nil
}

// FetchHistorical fetches past weather from the time machine; success is "cod": "200"
func (p *OpenWeatherMapClient) FetchHistorical(ctx context.Context, coord models.Coordinates, date time.Time, units models.UnitSystem) (models.HistoricalSample, error) {
	params := coordParams(coord)
	params["dt"] = strconv.FormatInt(date.Unix(), 10)
	params["units"] = string(units)

	body, err := p.get(ctx, historicalEndpoint, params)
	if err != nil {
		return models.HistoricalSample{}, err
	}
	if err := checkSentinel(body, historicalEndpoint, codString200, HistoricalUnavailable); err != nil {
		return models.HistoricalSample{}, err
	}

	var response struct {
		Current *struct {
			Dt      int64   `json:"dt"`
			Temp    float64 `json:"temp"`
			Weather []struct {
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"current"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return models.HistoricalSample{}, &APIError{Kind: HistoricalUnavailable, Endpoint: historicalEndpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if response.Current == nil {
		return models.HistoricalSample{}, &APIError{Kind: HistoricalUnavailable, Endpoint: historicalEndpoint, Err: fmt.Errorf("response has no current block")}
	}

	sample := models.HistoricalSample{
		Timestamp:   response.Current.Dt,
		Temperature: response.Current.Temp,
		Units:       units,
	}
	if len(response.Current.Weather) > 0 {
		sample.Description = response.Current.Weather[0].Description
	}
	return sample, nil
}

// FetchAirQuality fetches the air pollution index; success is the absence of "cod"
func (p *OpenWeatherMapClient) FetchAirQuality(ctx context.Context, coord models.Coordinates) (models.AirQualitySample, error) {
	body, err := p.get(ctx, airQualityEndpoint, coordParams(coord))
	if err != nil {
		return models.AirQualitySample{}, err
	}
	if err := checkSentinel(body, airQualityEndpoint, codAbsent, AirQualityUnavailable); err != nil {
		return models.AirQualitySample{}, err
	}

	var response struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
		} `json:"list"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return models.AirQualitySample{}, &APIError{Kind: AirQualityUnavailable, Endpoint: airQualityEndpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(response.List) == 0 {
		return models.AirQualitySample{}, &APIError{Kind: AirQualityUnavailable, Endpoint: airQualityEndpoint, Err: fmt.Errorf("response has no samples")}
	}

	return models.AirQualitySample{
		AQI:       response.List[0].Main.AQI,
		Timestamp: response.List[0].Dt,
	}, nil
}

// FetchUVIndex fetches the current UV index; success is the absence of "cod".
// Only the current block is requested.
func (p *OpenWeatherMapClient) FetchUVIndex(ctx context.Context, coord models.Coordinates) (models.UVSample, error) {
	params := coordParams(coord)
	params["exclude"] = "minutely,hourly,daily,alerts"

	body, err := p.get(ctx, uvIndexEndpoint, params)
	if err != nil {
		return models.UVSample{}, err
	}
	if err := checkSentinel(body, uvIndexEndpoint, codAbsent, UVIndexUnavailable); err != nil {
		return models.UVSample{}, err
	}

	var response struct {
		Current *struct {
			Dt  int64   `json:"dt"`
			UVI float64 `json:"uvi"`
		} `json:"current"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return models.UVSample{}, &APIError{Kind: UVIndexUnavailable, Endpoint: uvIndexEndpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if response.Current == nil {
		return models.UVSample{}, &APIError{Kind: UVIndexUnavailable, Endpoint: uvIndexEndpoint, Err: fmt.Errorf("response has no current block")}
	}

	return models.UVSample{UVI: response.Current.UVI, Timestamp: response.Current.Dt}, nil
}

func coordParams(coord models.Coordinates) map[string]string {
	return map[string]string{
		"lat": strconv.FormatFloat(coord.Lat, 'f', -1, 64),
		"lon": strconv.FormatFloat(coord.Lon, 'f', -1, 64),
	}
}

// redactKey hides the API key in logged URLs
func redactKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("appid") {
		q.Set("appid", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

var (
	_ WeatherSource = (*OpenWeatherMapClient)(nil)
	_ RawSource     = (*OpenWeatherMapClient)(nil)
)
