package models

import (
	"strconv"
)

// Coordinates is a latitude/longitude pair as reported by the provider
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is what the user asked for: a city name or a coordinate pair.
// A non-empty City takes precedence over Coord.
type Location struct {
	City  string       `json:"city,omitempty"`
	Coord *Coordinates `json:"coord,omitempty"`
}

// CityLocation returns a Location for a free-text city name
func CityLocation(city string) Location {
	return Location{City: city}
}

// QueryParams returns the provider query parameters selecting this location
func (l Location) QueryParams() map[string]string {
	if l.City != "" || l.Coord == nil {
		return map[string]string{"q": l.City}
	}
	return map[string]string{
		"lat": strconv.FormatFloat(l.Coord.Lat, 'f', -1, 64),
		"lon": strconv.FormatFloat(l.Coord.Lon, 'f', -1, 64),
	}
}

// String returns the location as shown to the user
func (l Location) String() string {
	if l.City != "" || l.Coord == nil {
		return l.City
	}
	return strconv.FormatFloat(l.Coord.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Coord.Lon, 'f', -1, 64)
}

// CurrentConditions is the current weather at a resolved location.
// Coord is the only source of coordinates for the air quality, UV,
// historical and map lookups of the same render pass.
type CurrentConditions struct {
	City           string      `json:"city"`
	Country        string      `json:"country"`
	Coord          Coordinates `json:"coord"`
	Temperature    float64     `json:"temperature"`
	Humidity       float64     `json:"humidity"` // percentage
	WindSpeed      float64     `json:"windSpeed"`
	Description    string      `json:"description"`
	Icon           string      `json:"icon"`
	Sunrise        int64       `json:"sunrise"`        // Unix seconds
	Sunset         int64       `json:"sunset"`         // Unix seconds
	TimezoneOffset int         `json:"timezoneOffset"` // seconds east of UTC
	Units          UnitSystem  `json:"units"`
}
