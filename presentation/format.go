package presentation

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"weatherwise/models"
)

// AQILegend is printed next to every AQI value
const AQILegend = "(1 = Good, 5 = Poor)"

// MapZoom is the initial zoom of the location map
const MapZoom = 10

// TemperatureSuffix returns the temperature unit for u
func TemperatureSuffix(u models.UnitSystem) string {
	if u == models.Imperial {
		return "°F"
	}
	return "°C"
}

// SpeedSuffix returns the wind speed unit for u
func SpeedSuffix(u models.UnitSystem) string {
	if u == models.Imperial {
		return "mph"
	}
	return "m/s"
}

// UVBand is the severity band of a UV index reading
type UVBand int

const (
	UVModerate UVBand = iota
	UVHigh
	UVVeryHigh
)

// BandUV classifies a UV reading. Lower bounds are inclusive:
// 6 is high and 8 is very high.
func BandUV(uvi float64) UVBand {
	switch {
	case uvi >= 8:
		return UVVeryHigh
	case uvi >= 6:
		return UVHigh
	default:
		return UVModerate
	}
}

func (b UVBand) String() string {
	switch b {
	case UVVeryHigh:
		return "very high"
	case UVHigh:
		return "high"
	}
	return "moderate"
}

// Notice returns the advice shown under the UV reading
func (b UVBand) Notice() Notice {
	switch b {
	case UVVeryHigh:
		return Notice{Level: LevelWarning, Text: "Very high UV index. Wear sunscreen and avoid prolonged sun exposure."}
	case UVHigh:
		return Notice{Level: LevelWarning, Text: "High UV index. Wear sunscreen."}
	}
	return Notice{Level: LevelSuccess, Text: "UV index is moderate. Enjoy the sun safely!"}
}

// FormatClock formats a Unix timestamp as HH:MM in the zone offset
// (seconds east of UTC) reported for the location
func FormatClock(unix int64, offsetSeconds int) string {
	return time.Unix(unix, 0).In(time.FixedZone("", offsetSeconds)).Format("15:04")
}

// FormatNumber prints a reading the way the provider sent it: no trailing zeros
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Capitalize upper-cases the first letter and lower-cases the rest
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// IconURL returns the provider image for an icon code
func IconURL(code string) string {
	if code == "" {
		return ""
	}
	return "https://openweathermap.org/img/wn/" + code + "@2x.png"
}
