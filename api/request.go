package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"weatherwise/collector"
	"weatherwise/models"
	"weatherwise/settings"
)

const dateLayout = "2006-01-02"

// parseRenderRequest reads the render pass input from the query string.
// Units fall back to the session settings and the date to yesterday.
func (s *Server) parseRenderRequest(r *http.Request, prefs settings.Settings, now time.Time) (collector.Request, error) {
	q := r.URL.Query()
	req := collector.Request{
		Units:     prefs.Units,
		RequestID: r.Header.Get(requestIDHeader),
	}

	loc, err := parseLocation(q, s.deps.DefaultCity)
	if err != nil {
		return req, err
	}
	req.Location = loc

	if q.Has("units") {
		units, err := models.ParseUnitSystem(q.Get("units"))
		if err != nil {
			return req, err
		}
		req.Units = units
	}
	if !req.Units.Valid() {
		req.Units = s.deps.DefaultUnits
	}

	req.HistoricalDate = yesterday(now)
	if v := strings.TrimSpace(q.Get("date")); v != "" {
		date, err := time.Parse(dateLayout, v)
		if err != nil {
			return req, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
		}
		req.HistoricalDate = date
	}
	req.Historical = q.Get("historical") == "1"
	return req, nil
}

// parseLocation accepts a city name, or lat and lon when no city is given
func parseLocation(q url.Values, defaultCity string) (models.Location, error) {
	if city := strings.TrimSpace(q.Get("city")); city != "" {
		return models.CityLocation(city), nil
	}
	if q.Get("lat") != "" || q.Get("lon") != "" {
		coord, err := parseCoordinates(q)
		if err != nil {
			return models.Location{}, err
		}
		return models.Location{Coord: &coord}, nil
	}
	return models.CityLocation(defaultCity), nil
}

func parseCoordinates(q url.Values) (models.Coordinates, error) {
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return models.Coordinates{}, fmt.Errorf("invalid latitude %q", q.Get("lat"))
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return models.Coordinates{}, fmt.Errorf("invalid longitude %q", q.Get("lon"))
	}
	return models.Coordinates{Lat: lat, Lon: lon}, nil
}

// yesterday returns midnight UTC of the day before now
func yesterday(now time.Time) time.Time {
	y, m, d := now.UTC().AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
