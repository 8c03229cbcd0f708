package datasource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"weatherwise/models"
)

// Config represents the application configuration
type Config struct {
	OpenWeatherMap struct {
		APIKey  string `json:"apiKey"`
		BaseURL string `json:"baseURL"`
		// Requests per second allowed by the plan; zero disables limiting
		RateLimit float64 `json:"rateLimit"`
		Burst     int     `json:"burst"`
	} `json:"openWeatherMap"`

	// Upper bound for one render pass, in seconds
	RequestTimeoutSeconds int `json:"requestTimeoutSeconds"`

	DefaultCity  string `json:"defaultCity"`
	DefaultUnits string `json:"defaultUnits"`

	// How long an idle browser session keeps its settings, in minutes
	SessionTTLMinutes int `json:"sessionTTLMinutes"`

	// Application Insights instrumentation key; empty disables telemetry
	ApplicationInsightsKey string `json:"applicationInsightsKey"`
}

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.OpenWeatherMap.BaseURL = defaultBaseURL
	// Free tier allows 60 calls/minute = 1 call per second, bursts of 5
	config.OpenWeatherMap.RateLimit = 1.0
	config.OpenWeatherMap.Burst = 5
	config.RequestTimeoutSeconds = int(defaultTimeout / time.Second)
	config.DefaultCity = "Karachi"
	config.DefaultUnits = string(models.Metric)
	config.SessionTTLMinutes = 60
	return config
}

// LoadConfig loads configuration from a JSON file on top of the defaults and
// then applies environment overrides. A missing file is not an error.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		file, err := os.Open(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults and environment only
		case err != nil:
			return nil, err
		default:
			defer file.Close()
			if err := json.NewDecoder(file).Decode(config); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
			}
		}
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OWM_API_KEY"); v != "" {
		c.OpenWeatherMap.APIKey = v
	}
	if v := os.Getenv("OWM_BASE_URL"); v != "" {
		c.OpenWeatherMap.BaseURL = v
	}
	if v := os.Getenv("WEATHERWISE_CITY"); v != "" {
		c.DefaultCity = v
	}
	if v := os.Getenv("WEATHERWISE_UNITS"); v != "" {
		c.DefaultUnits = v
	}
	if v := os.Getenv("WEATHERWISE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RequestTimeoutSeconds = n
		}
	}
	if v := os.Getenv("APPLICATIONINSIGHTS_INSTRUMENTATION_KEY"); v != "" {
		c.ApplicationInsightsKey = v
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.OpenWeatherMap.APIKey == "" {
		return errors.New("no OpenWeatherMap API key provided (set openWeatherMap.apiKey or OWM_API_KEY)")
	}
	if _, err := models.ParseUnitSystem(c.DefaultUnits); err != nil {
		return fmt.Errorf("invalid defaultUnits: %w", err)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("requestTimeoutSeconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("sessionTTLMinutes must be positive, got %d", c.SessionTTLMinutes)
	}
	if c.OpenWeatherMap.RateLimit < 0 || (c.OpenWeatherMap.RateLimit > 0 && c.OpenWeatherMap.Burst <= 0) {
		return fmt.Errorf("invalid rate limit %v/%d", c.OpenWeatherMap.RateLimit, c.OpenWeatherMap.Burst)
	}
	return nil
}

// RequestTimeout returns the render pass bound as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the session lifetime as a duration
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Units returns the validated default unit system
func (c *Config) Units() models.UnitSystem {
	u, err := models.ParseUnitSystem(c.DefaultUnits)
	if err != nil {
		return models.Metric
	}
	return u
}
