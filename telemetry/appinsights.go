// Package telemetry sends request and render pass telemetry to Application
// Insights. A nil *Tracker is valid and records nothing, which is what runs
// when no instrumentation key is configured.
package telemetry

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"

	"weatherwise/collector"
)

const cloudRole = "weatherwise"

// Tracker wraps an Application Insights client
type Tracker struct {
	client appinsights.TelemetryClient
}

// New creates a tracker for the instrumentation key. It returns nil when the
// key is empty.
func New(instrumentationKey string) *Tracker {
	if instrumentationKey == "" {
		return nil
	}

	telemetryConfig := appinsights.NewTelemetryConfiguration(instrumentationKey)
	// Configure how many items can be sent in one call to the data collector:
	telemetryConfig.MaxBatchSize = 8192
	// Configure the maximum delay before sending queued telemetry:
	telemetryConfig.MaxBatchInterval = 2 * time.Second

	client := appinsights.NewTelemetryClientFromConfig(telemetryConfig)
	client.Context().Tags.Cloud().SetRole(cloudRole)
	log.Printf("Application Insights telemetry enabled")
	return &Tracker{client: client}
}

// Middleware records one request telemetry item per request, named after the
// matched route template
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	if t == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme := "https"
		if r.TLS == nil {
			scheme = "http"
		}
		startTime := time.Now().UTC()

		recorder := newStatusRecorder(w)
		next.ServeHTTP(recorder, r)

		telemetry := appinsights.NewRequestTelemetry(r.Method, fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path), time.Since(startTime), strconv.Itoa(recorder.StatusCode()))
		telemetry.Name = routeName(r)
		if id := r.Header.Get("X-Request-ID"); id != "" {
			telemetry.Id = id
		}
		t.client.Track(telemetry)
	})
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return r.Method + " " + tpl
		}
	}
	return r.Method + " " + r.URL.Path
}

// TrackRenderPass records the outcome of each section of a render pass
func (t *Tracker) TrackRenderPass(report collector.Report, elapsed time.Duration) {
	if t == nil {
		return
	}
	event := appinsights.NewEventTelemetry("RenderPass")
	event.Properties["location"] = report.Request.Location.String()
	event.Properties["units"] = string(report.Request.Units)
	event.Properties["current"] = outcome(report.Current.Fetched, report.Current.Err)
	event.Properties["forecast"] = outcome(report.Forecast.Fetched, report.Forecast.Err)
	event.Properties["airQuality"] = outcome(report.AirQuality.Fetched, report.AirQuality.Err)
	event.Properties["uvIndex"] = outcome(report.UVIndex.Fetched, report.UVIndex.Err)
	event.Properties["historical"] = outcome(report.Historical.Fetched, report.Historical.Err)
	if report.Request.RequestID != "" {
		event.Properties["requestID"] = report.Request.RequestID
	}
	event.Measurements["durationMs"] = float64(elapsed.Milliseconds())
	t.client.Track(event)
}

// outcome names a section result for telemetry
func outcome(fetched bool, err error) string {
	switch {
	case !fetched:
		return "skipped"
	case err != nil:
		return err.Error()
	}
	return "ok"
}

// Close flushes queued telemetry, waiting at most timeout
func (t *Tracker) Close(timeout time.Duration) {
	if t == nil {
		return
	}
	select {
	case <-t.client.Channel().Close(timeout):
	case <-time.After(timeout + time.Second):
		log.Printf("Timed out flushing telemetry")
	}
}
