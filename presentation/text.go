package presentation

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// RenderText writes the dashboard as plain text, section by section
func RenderText(w io.Writer, v View) error {
	bw := bufio.NewWriter(w)
	d := v.Dashboard

	fmt.Fprintf(bw, "%s\n%s\n\n", v.Title, v.Tagline)
	fmt.Fprintf(bw, "== Current Weather: %s ==\n", d.City)
	if d.CurrentError != nil {
		writeNotice(bw, *d.CurrentError)
		return bw.Flush()
	}

	if c := d.Current; c != nil {
		fmt.Fprintf(bw, "Temperature: %s\n", c.Temperature)
		fmt.Fprintf(bw, "Humidity:    %s\n", c.Humidity)
		fmt.Fprintf(bw, "Wind Speed:  %s\n", c.WindSpeed)
		fmt.Fprintf(bw, "Conditions:  %s\n", c.Conditions)
		fmt.Fprintf(bw, "Sunrise:     %s\n", c.Sunrise)
		fmt.Fprintf(bw, "Sunset:      %s\n", c.Sunset)
	}

	fmt.Fprintf(bw, "\n== 5-Day Forecast ==\n")
	if d.ForecastError != nil {
		writeNotice(bw, *d.ForecastError)
	} else {
		tw := tabwriter.NewWriter(bw, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(ForecastColumns, "\t"))
		for _, row := range d.Forecast {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Date, row.Temperature, row.Humidity, row.WindSpeed, row.Conditions)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if m := d.Map; m != nil {
		fmt.Fprintf(bw, "\n== Map ==\nMarker: %s at %s, %s (zoom %d)\n", m.Tooltip, FormatNumber(m.Lat), FormatNumber(m.Lon), m.Zoom)
	}

	fmt.Fprintf(bw, "\n== Air Quality Index (AQI) ==\n")
	if d.AirQualityError != nil {
		writeNotice(bw, *d.AirQualityError)
	} else if a := d.AirQuality; a != nil {
		fmt.Fprintf(bw, "AQI: %d %s\n", a.AQI, a.Legend)
	}

	fmt.Fprintf(bw, "\n== UV Index ==\n")
	if d.UVError != nil {
		writeNotice(bw, *d.UVError)
	} else if uv := d.UV; uv != nil {
		fmt.Fprintf(bw, "UV Index: %s\n", uv.Index)
		writeNotice(bw, uv.Notice)
	}

	if d.HistoricalRequested {
		fmt.Fprintf(bw, "\n== Historical Weather: %s ==\n", d.HistoricalDate)
		if d.HistoricalError != nil {
			writeNotice(bw, *d.HistoricalError)
		} else if h := d.Historical; h != nil {
			fmt.Fprintf(bw, "Temperature: %s\n", h.Temperature)
			fmt.Fprintf(bw, "Conditions:  %s\n", h.Conditions)
		}
	}
	return bw.Flush()
}

func writeNotice(w io.Writer, n Notice) {
	fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(string(n.Level)), n.Text)
}
