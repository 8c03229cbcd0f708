package collector

import (
	"context"
	"log"
	"sync"
	"time"

	"weatherwise/datasource"
	"weatherwise/models"
)

// Request is the user input of one render pass
type Request struct {
	Location models.Location
	Units    models.UnitSystem

	// Historical is set when the user asked for a past date
	Historical     bool
	HistoricalDate time.Time

	// RequestID tags log lines of the pass
	RequestID string
}

// Section is the outcome of one fetch. Fetched is false when the call was
// never made because the location did not resolve.
type Section[T any] struct {
	Value   T
	Err     error
	Fetched bool
}

// OK reports whether the section was fetched successfully
func (s Section[T]) OK() bool {
	return s.Fetched && s.Err == nil
}

func done[T any](v T, err error) Section[T] {
	return Section[T]{Value: v, Err: err, Fetched: true}
}

// Report holds every section of a render pass in display order
type Report struct {
	Request    Request
	Current    Section[models.CurrentConditions]
	Forecast   Section[models.Forecast]
	AirQuality Section[models.AirQualitySample]
	UVIndex    Section[models.UVSample]
	Historical Section[models.HistoricalSample]
}

// Resolved reports whether the location lookup succeeded
func (r Report) Resolved() bool {
	return r.Current.OK()
}

// Failure is a failed dependent section of a report
type Failure struct {
	Section string
	Err     error
}

// Failures lists the failed dependent sections in display order
func (r Report) Failures() []Failure {
	var failures []Failure
	for _, f := range []Failure{
		{"forecast", r.Forecast.Err},
		{"air quality", r.AirQuality.Err},
		{"uv index", r.UVIndex.Err},
		{"historical", r.Historical.Err},
	} {
		if f.Err != nil {
			failures = append(failures, f)
		}
	}
	return failures
}

// Collector runs render passes against a weather source
type Collector struct {
	source       datasource.WeatherSource
	fetchTimeout time.Duration
}

// NewCollector creates a new collector for source
func NewCollector(source datasource.WeatherSource) *Collector {
	return &Collector{
		source:       source,
		fetchTimeout: 10 * time.Second, // Default timeout
	}
}

// SetFetchTimeout changes the timeout for a whole render pass
func (c *Collector) SetFetchTimeout(timeout time.Duration) {
	c.fetchTimeout = timeout
}

// Collect resolves the location first; on success the forecast, air quality,
// UV and (when requested) historical fetches run concurrently. When the
// location does not resolve no dependent call is made.
func (c *Collector) Collect(ctx context.Context, req Request) Report {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	report := Report{Request: req}

	current, err := c.source.FetchCurrent(fetchCtx, req.Location, req.Units)
	report.Current = done(current, err)
	if err != nil {
		log.Printf("[%s] current weather for %q from %s: %v", req.RequestID, req.Location, c.source.Name(), err)
		return report
	}
	coord := current.Coord

	// Each goroutine writes only its own field of report
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		forecast, err := c.source.FetchForecast(fetchCtx, req.Location, req.Units)
		report.Forecast = done(forecast, err)
	}()
	go func() {
		defer wg.Done()
		air, err := c.source.FetchAirQuality(fetchCtx, coord)
		report.AirQuality = done(air, err)
	}()
	go func() {
		defer wg.Done()
		uv, err := c.source.FetchUVIndex(fetchCtx, coord)
		report.UVIndex = done(uv, err)
	}()
	if req.Historical {
		wg.Add(1)
		go func() {
			defer wg.Done()
			past, err := c.source.FetchHistorical(fetchCtx, coord, req.HistoricalDate, req.Units)
			report.Historical = done(past, err)
		}()
	}
	wg.Wait()

	for _, f := range report.Failures() {
		log.Printf("[%s] %s for %q from %s: %v", req.RequestID, f.Section, req.Location, c.source.Name(), f.Err)
	}
	log.Printf("[%s] render pass for %q complete in %s", req.RequestID, req.Location, time.Since(start).Round(time.Millisecond))
	return report
}
