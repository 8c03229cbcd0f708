package datasource

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed provider call
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	LocationNotFound
	ForecastUnavailable
	AirQualityUnavailable
	UVIndexUnavailable
	HistoricalUnavailable
	NetworkFault
)

func (k ErrorKind) String() string {
	switch k {
	case LocationNotFound:
		return "location not found"
	case ForecastUnavailable:
		return "forecast unavailable"
	case AirQualityUnavailable:
		return "air quality unavailable"
	case UVIndexUnavailable:
		return "uv index unavailable"
	case HistoricalUnavailable:
		return "historical unavailable"
	case NetworkFault:
		return "network unavailable"
	}
	return "unknown"
}

// kindSentinel lets callers match an error kind with errors.Is
type kindSentinel ErrorKind

func (k kindSentinel) Error() string { return ErrorKind(k).String() }

var (
	ErrLocationNotFound      error = kindSentinel(LocationNotFound)
	ErrForecastUnavailable   error = kindSentinel(ForecastUnavailable)
	ErrAirQualityUnavailable error = kindSentinel(AirQualityUnavailable)
	ErrUVIndexUnavailable    error = kindSentinel(UVIndexUnavailable)
	ErrHistoricalUnavailable error = kindSentinel(HistoricalUnavailable)
	ErrNetwork               error = kindSentinel(NetworkFault)
)

// APIError is returned by every WeatherSource operation
type APIError struct {
	Kind     ErrorKind
	Endpoint string
	Code     string // provider "cod" value, if any
	Message  string // provider "message" value, if any
	Err      error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Endpoint, e.Kind)
	if e.Code != "" {
		msg += fmt.Sprintf(" (cod %s)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches the Err* kind sentinels
func (e *APIError) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && ErrorKind(k) == e.Kind
}

// KindOf returns the kind of a provider error, or KindUnknown
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}
