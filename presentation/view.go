// Package presentation turns a render pass report into what the user sees.
// It never talks to the network.
package presentation

import (
	"html/template"
	"net/url"
	"time"

	"weatherwise/collector"
	"weatherwise/datasource"
	"weatherwise/models"
	"weatherwise/settings"
)

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

// Notice is an inline message shown in place of, or under, a section
type Notice struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

const (
	MsgCityNotFound          = "City not found. Please try again."
	MsgForecastUnavailable   = "Forecast data unavailable."
	MsgAirQualityUnavailable = "Air quality data unavailable."
	MsgUVUnavailable         = "UV index data unavailable."
	MsgHistoricalUnavailable = "Historical data unavailable."
	MsgNetwork               = "Weather service unreachable. Please check your connection and try again."
)

const dateLayout = "2006-01-02"

// CurrentView is the current conditions block
type CurrentView struct {
	City        string `json:"city"`
	IconURL     string `json:"iconURL"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	WindSpeed   string `json:"windSpeed"`
	Conditions  string `json:"conditions"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
}

// Widget is one of the summary cards
type Widget struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
	Icon  string `json:"icon"`
}

// ForecastRow is one line of the forecast table
type ForecastRow struct {
	Date        string `json:"date"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	WindSpeed   string `json:"windSpeed"`
	Conditions  string `json:"conditions"`
}

// ForecastColumns are the forecast table headers
var ForecastColumns = []string{"Date", "Temperature", "Humidity", "Wind Speed", "Conditions"}

// MapMarker is the single marker of the location map
type MapMarker struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Zoom    int     `json:"zoom"`
	Tooltip string  `json:"tooltip"`
}

// ImageURL returns the path of the rendered marker image
func (m MapMarker) ImageURL() string {
	q := url.Values{}
	q.Set("lat", FormatNumber(m.Lat))
	q.Set("lon", FormatNumber(m.Lon))
	q.Set("label", m.Tooltip)
	return "/map.png?" + q.Encode()
}

type AirQualityView struct {
	AQI    int    `json:"aqi"`
	Legend string `json:"legend"`
}

type UVView struct {
	Index  string `json:"index"`
	Band   string `json:"band"`
	Notice Notice `json:"notice"`
}

type HistoricalView struct {
	Temperature string `json:"temperature"`
	Conditions  string `json:"conditions"`
}

// Dashboard is the main display. It depends only on the report and the
// unit system, never on the inert sidebar settings.
type Dashboard struct {
	City  string            `json:"city"`
	Units models.UnitSystem `json:"units"`

	// Coord is set when the pass was requested by coordinates rather than
	// by city name; follow-up forms must send it back as lat and lon
	Coord *models.Coordinates `json:"coord,omitempty"`

	Current      *CurrentView `json:"current,omitempty"`
	CurrentError *Notice      `json:"currentError,omitempty"`
	Widgets      []Widget     `json:"widgets,omitempty"`

	Forecast      []ForecastRow `json:"forecast,omitempty"`
	ForecastError *Notice       `json:"forecastError,omitempty"`

	Map *MapMarker `json:"map,omitempty"`

	AirQuality      *AirQualityView `json:"airQuality,omitempty"`
	AirQualityError *Notice         `json:"airQualityError,omitempty"`

	UV      *UVView `json:"uv,omitempty"`
	UVError *Notice `json:"uvError,omitempty"`

	HistoricalDate      string          `json:"historicalDate"`
	HistoricalRequested bool            `json:"historicalRequested"`
	Historical          *HistoricalView `json:"historical,omitempty"`
	HistoricalError     *Notice         `json:"historicalError,omitempty"`
}

// View is everything rendered for one render pass
type View struct {
	Title     string            `json:"title"`
	Tagline   string            `json:"tagline"`
	RequestID string            `json:"requestID,omitempty"`
	Settings  settings.Settings `json:"settings"`
	Style     template.CSS      `json:"style,omitempty"`
	Dashboard Dashboard         `json:"dashboard"`
	Feedback  *Notice           `json:"feedback,omitempty"`
}

// Build derives the view of a render pass
func Build(report collector.Report, s settings.Settings) View {
	return View{
		Title:     "WeatherWise",
		Tagline:   "Your ultimate weather companion. Stay informed, stay prepared.",
		RequestID: report.Request.RequestID,
		Settings:  s,
		Style:     template.CSS(s.StyleOverride()),
		Dashboard: buildDashboard(report),
	}
}

func buildDashboard(report collector.Report) Dashboard {
	req := report.Request
	units := req.Units
	d := Dashboard{
		City:  req.Location.String(),
		Units: units,
	}
	if req.Location.City == "" && req.Location.Coord != nil {
		coord := *req.Location.Coord
		d.Coord = &coord
	}
	if !req.HistoricalDate.IsZero() {
		d.HistoricalDate = req.HistoricalDate.Format(dateLayout)
	}

	if !report.Resolved() {
		d.CurrentError = errorNotice(report.Current.Err, MsgCityNotFound)
		return d
	}

	tempUnit, speedUnit := TemperatureSuffix(units), SpeedSuffix(units)
	cur := report.Current.Value

	d.Current = &CurrentView{
		City:        cur.City,
		IconURL:     IconURL(cur.Icon),
		Temperature: FormatNumber(cur.Temperature) + tempUnit,
		Humidity:    FormatNumber(cur.Humidity) + "%",
		WindSpeed:   FormatNumber(cur.WindSpeed) + " " + speedUnit,
		Conditions:  Capitalize(cur.Description),
		Sunrise:     FormatClock(cur.Sunrise, cur.TimezoneOffset),
		Sunset:      FormatClock(cur.Sunset, cur.TimezoneOffset),
	}
	d.Widgets = []Widget{
		{Title: "Temperature", Value: FormatNumber(cur.Temperature), Unit: tempUnit, Icon: "🌡️"},
		{Title: "Humidity", Value: FormatNumber(cur.Humidity), Unit: "%", Icon: "💧"},
		{Title: "Wind Speed", Value: FormatNumber(cur.WindSpeed), Unit: speedUnit, Icon: "🌬️"},
	}
	d.Map = &MapMarker{
		Lat:     cur.Coord.Lat,
		Lon:     cur.Coord.Lon,
		Zoom:    MapZoom,
		Tooltip: req.Location.String(),
	}

	if report.Forecast.OK() {
		d.Forecast = ForecastTable(report.Forecast.Value.Entries, units)
	} else if report.Forecast.Fetched {
		d.ForecastError = errorNotice(report.Forecast.Err, MsgForecastUnavailable)
	}

	if report.AirQuality.OK() {
		d.AirQuality = &AirQualityView{AQI: report.AirQuality.Value.AQI, Legend: AQILegend}
	} else if report.AirQuality.Fetched {
		d.AirQualityError = errorNotice(report.AirQuality.Err, MsgAirQualityUnavailable)
	}

	if report.UVIndex.OK() {
		band := BandUV(report.UVIndex.Value.UVI)
		d.UV = &UVView{
			Index:  FormatNumber(report.UVIndex.Value.UVI),
			Band:   band.String(),
			Notice: band.Notice(),
		}
	} else if report.UVIndex.Fetched {
		d.UVError = errorNotice(report.UVIndex.Err, MsgUVUnavailable)
	}

	if report.Historical.Fetched {
		d.HistoricalRequested = true
		if report.Historical.Err == nil {
			past := report.Historical.Value
			d.Historical = &HistoricalView{
				Temperature: FormatNumber(past.Temperature) + tempUnit,
				Conditions:  Capitalize(past.Description),
			}
		} else {
			d.HistoricalError = errorNotice(report.Historical.Err, MsgHistoricalUnavailable)
		}
	}
	return d
}

// ForecastTable builds one row per entry, in the given order
func ForecastTable(entries []models.ForecastEntry, units models.UnitSystem) []ForecastRow {
	tempUnit, speedUnit := TemperatureSuffix(units), SpeedSuffix(units)
	rows := make([]ForecastRow, 0, len(entries))
	for _, e := range entries {
		date := e.TimeText
		if date == "" {
			date = time.Unix(e.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, ForecastRow{
			Date:        date,
			Temperature: FormatNumber(e.Temperature) + tempUnit,
			Humidity:    FormatNumber(e.Humidity) + "%",
			WindSpeed:   FormatNumber(e.WindSpeed) + " " + speedUnit,
			Conditions:  e.Description,
		})
	}
	return rows
}

// errorNotice picks the message for a failed section; transport failures
// get the network message whatever the section
func errorNotice(err error, msg string) *Notice {
	if datasource.KindOf(err) == datasource.NetworkFault {
		msg = MsgNetwork
	}
	return &Notice{Level: LevelError, Text: msg}
}
