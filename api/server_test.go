package api

import (
	"encoding/json"
	"html"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"weatherwise/collector"
	"weatherwise/datasource"
	"weatherwise/models"
	"weatherwise/presentation"
	"weatherwise/session"
	"weatherwise/settings"
)

const (
	karachiCurrent = `{"coord":{"lon":67.0104,"lat":24.8608},"weather":[{"description":"haze","icon":"50d"}],
		"main":{"temp":31.9,"humidity":62},"wind":{"speed":4.12},"sys":{"country":"PK","sunrise":1700012345,"sunset":1700052345},
		"timezone":18000,"name":"Karachi","cod":200}`
	notFoundCurrent = `{"cod":"404","message":"city not found"}`
	karachiForecast = `{"cod":"200","list":[
		{"dt":1700020800,"main":{"temp":30.1,"humidity":60},"wind":{"speed":3.5},"weather":[{"description":"clear sky"}],"dt_txt":"2023-11-15 03:00:00"},
		{"dt":1700031600,"main":{"temp":32.4,"humidity":55},"wind":{"speed":4.1},"weather":[{"description":"few clouds"}],"dt_txt":"2023-11-15 06:00:00"},
		{"dt":1700042400,"main":{"temp":31.0,"humidity":58},"wind":{"speed":3.9},"weather":[{"description":"haze"}],"dt_txt":"2023-11-15 09:00:00"}],
		"city":{"name":"Karachi"}}`
	karachiHistorical = `{"cod":"200","current":{"dt":1718236800,"temp":33.4,"weather":[{"description":"smoke"}]}}`
	karachiAir        = `{"list":[{"main":{"aqi":4},"dt":1700020000}]}`
	karachiUV         = `{"lat":24.8608,"lon":67.0104,"current":{"dt":1700020000,"uvi":6}}`
)

// fakeProvider answers like the provider: Unknownville is not found,
// every other city is Karachi
type fakeProvider struct {
	mu      sync.Mutex
	queries map[string]url.Values
}

func (fp *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	fp.queries[r.URL.Path] = r.URL.Query()
	fp.mu.Unlock()

	bodies := map[string]string{
		"/weather":             karachiCurrent,
		"/forecast":            karachiForecast,
		"/onecall/timemachine": karachiHistorical,
		"/air_pollution":       karachiAir,
		"/onecall":             karachiUV,
	}
	body, ok := bodies[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("q") == "Unknownville" {
		w.WriteHeader(http.StatusNotFound)
		body = notFoundCurrent
	}
	w.Write([]byte(body))
}

func (fp *fakeProvider) query(path string) (url.Values, bool) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	q, ok := fp.queries[path]
	return q, ok
}

func newTestServer(t *testing.T) (*Server, *fakeProvider) {
	t.Helper()
	fp := &fakeProvider{queries: make(map[string]url.Values)}
	ts := httptest.NewServer(fp)
	t.Cleanup(ts.Close)

	client := datasource.NewOpenWeatherMapClient("test-key", ts.URL, time.Second)
	server := NewServer(Deps{
		Collector:    collector.NewCollector(client),
		Raw:          client,
		Sessions:     session.NewStore(time.Hour),
		DefaultCity:  "Karachi",
		DefaultUnits: models.Metric,
	}, 0)
	return server, fp
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestDashboardPage(t *testing.T) {
	server, _ := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/?city=Karachi", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected an X-Request-ID header")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML, got %s", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"31.9°C", "Karachi", "AQI:</strong> 4", "High UV index."} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
}

func TestDashboardDefaultCity(t *testing.T) {
	server, fp := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	q, _ := fp.query("/weather")
	if q.Get("q") != "Karachi" || q.Get("units") != "metric" {
		t.Errorf("Expected default city and units, got %v", q)
	}
}

func TestDashboardUnknownCity(t *testing.T) {
	server, fp := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/?city=Unknownville&historical=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), presentation.MsgCityNotFound) {
		t.Error("Expected the city not found message")
	}
	for _, path := range []string{"/forecast", "/air_pollution", "/onecall", "/onecall/timemachine"} {
		if _, called := fp.query(path); called {
			t.Errorf("Expected no call to %s after the location failed to resolve", path)
		}
	}
}

func TestDashboardJSON(t *testing.T) {
	server, fp := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/api/dashboard?city=Karachi&units=imperial", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var view presentation.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	d := view.Dashboard
	if d.Units != models.Imperial {
		t.Errorf("Expected imperial units, got %s", d.Units)
	}
	if d.Current == nil || d.Current.Temperature != "31.9°F" || d.Current.WindSpeed != "4.12 mph" {
		t.Errorf("Unexpected current view %+v", d.Current)
	}
	if len(d.Forecast) != 3 || d.Forecast[0].Date != "2023-11-15 03:00:00" {
		t.Errorf("Unexpected forecast %+v", d.Forecast)
	}
	if d.Map == nil || d.Map.Lat != 24.8608 || d.Map.Lon != 67.0104 {
		t.Errorf("Unexpected map %+v", d.Map)
	}
	if view.RequestID == "" {
		t.Error("Expected the request ID in the view")
	}

	q, _ := fp.query("/weather")
	if q.Get("units") != "imperial" {
		t.Errorf("Expected imperial units upstream, got %v", q)
	}
	air, _ := fp.query("/air_pollution")
	if air.Get("lat") != "24.8608" || air.Get("lon") != "67.0104" {
		t.Errorf("Expected air quality at the resolved coordinates, got %v", air)
	}
}

func TestDashboardJSONNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/api/dashboard?city=Unknownville", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	var view presentation.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.Dashboard.CurrentError == nil || view.Dashboard.CurrentError.Text != presentation.MsgCityNotFound {
		t.Errorf("Unexpected error notice %+v", view.Dashboard.CurrentError)
	}
}

func TestDashboardJSONHistorical(t *testing.T) {
	server, fp := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/api/dashboard?city=Karachi&historical=1&date=2024-06-13", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var view presentation.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.Dashboard.Historical == nil || view.Dashboard.Historical.Temperature != "33.4°C" {
		t.Errorf("Unexpected historical view %+v", view.Dashboard.Historical)
	}

	q, _ := fp.query("/onecall/timemachine")
	if q.Get("dt") != "1718236800" {
		t.Errorf("Expected midnight UTC timestamp, got %v", q)
	}
}

func TestDashboardBadInput(t *testing.T) {
	server, _ := newTestServer(t)

	for _, target := range []string{
		"/api/dashboard?date=13-06-2024",
		"/api/dashboard?units=kelvin",
		"/api/dashboard?lat=100&lon=0",
	} {
		rec := serve(server, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, rec.Code)
		}
	}
}

func TestDashboardNetworkFault(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	client := datasource.NewOpenWeatherMapClient("test-key", ts.URL, time.Second)
	server := NewServer(Deps{Collector: collector.NewCollector(client), Raw: client}, 0)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/api/dashboard?city=Karachi", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", rec.Code)
	}
	var view presentation.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.Dashboard.CurrentError == nil || view.Dashboard.CurrentError.Text != presentation.MsgNetwork {
		t.Errorf("Expected network message, got %+v", view.Dashboard.CurrentError)
	}

	rec = serve(server, httptest.NewRequest(http.MethodGet, "/api/raw/current?q=Karachi", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502 from raw passthrough, got %d", rec.Code)
	}
}

func TestSettingsPersistInSession(t *testing.T) {
	server, _ := newTestServer(t)

	form := url.Values{
		"settings":  {"1"},
		"city":      {"Karachi"},
		"theme":     {"Dark"},
		"units":     {"imperial"},
		"favorites": {"London"},
	}
	req := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(server, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected status 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?city=Karachi&units=imperial" {
		t.Errorf("Unexpected redirect %s", loc)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie {
		t.Fatalf("Expected a session cookie, got %v", cookies)
	}

	page := httptest.NewRequest(http.MethodGet, "/?city=Karachi", nil)
	page.AddCookie(cookies[0])
	rec = serve(server, page)
	body := rec.Body.String()
	if !strings.Contains(body, settings.DarkStyle) {
		t.Error("Expected the dark style from the session")
	}
	if !strings.Contains(body, "31.9°F") {
		t.Error("Expected imperial units from the session")
	}

	// Without the cookie the defaults apply
	rec = serve(server, httptest.NewRequest(http.MethodGet, "/?city=Karachi", nil))
	if strings.Contains(rec.Body.String(), settings.DarkStyle) {
		t.Error("Dark style leaked into a request without a session")
	}
}

func TestFeedback(t *testing.T) {
	server, _ := newTestServer(t)

	form := url.Values{"feedback": {"Great app"}, "city": {"Karachi"}}
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(server, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected status 303, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if loc != "/?city=Karachi&feedback=sent" {
		t.Errorf("Unexpected redirect %s", loc)
	}

	rec = serve(server, httptest.NewRequest(http.MethodGet, loc, nil))
	if !strings.Contains(rec.Body.String(), settings.FeedbackAck) {
		t.Error("Expected the feedback acknowledgement on the page")
	}

	req = httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec = serve(server, req)
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["message"] != settings.FeedbackAck {
		t.Errorf("Unexpected acknowledgement %q", resp["message"])
	}
}

func TestRawPassthrough(t *testing.T) {
	server, fp := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/api/raw/current?q=Karachi&appid=stolen", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["name"] != "Karachi" || body["cod"] != float64(200) {
		t.Errorf("Unexpected raw body %v", body)
	}
	q, _ := fp.query("/weather")
	if q.Get("appid") != "test-key" {
		t.Errorf("Expected the configured key upstream, got %v", q.Get("appid"))
	}

	rec = serve(server, httptest.NewRequest(http.MethodGet, "/api/raw/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for an unknown endpoint, got %d", rec.Code)
	}
}

func TestMapImage(t *testing.T) {
	server, _ := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/map.png?lat=24.8608&lon=67.0104&label=Karachi", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Failed to decode image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != mapImageWidth || b.Dy() != mapImageHeight {
		t.Errorf("Unexpected image size %v", b)
	}

	rec = serve(server, httptest.NewRequest(http.MethodGet, "/map.png?lat=abc&lon=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Unexpected status %v", body["status"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodPost, "/api/dashboard", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

var hiddenInput = regexp.MustCompile(`<input type="hidden" name="([^"]+)" value="([^"]*)">`)

// formFields returns the hidden fields of the first form on page that
// contains marker
func formFields(t *testing.T, page, marker string) url.Values {
	t.Helper()
	for _, form := range strings.Split(page, "<form")[1:] {
		form = form[:strings.Index(form, "</form>")]
		if !strings.Contains(form, marker) {
			continue
		}
		values := url.Values{}
		for _, m := range hiddenInput.FindAllStringSubmatch(form, -1) {
			values.Add(m[1], html.UnescapeString(m[2]))
		}
		return values
	}
	t.Fatalf("No form containing %q on the page", marker)
	return nil
}

func TestCoordinatesSurviveFollowUpForms(t *testing.T) {
	server, fp := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/?lat=24.8608&lon=67.0104", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	page := rec.Body.String()

	historical := formFields(t, page, `name="historical"`)
	if historical.Get("lat") != "24.8608" || historical.Get("lon") != "67.0104" || historical.Has("city") {
		t.Fatalf("Expected the historical form to carry coordinates, got %v", historical)
	}

	rec = serve(server, httptest.NewRequest(http.MethodGet, "/?"+historical.Encode(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	q, _ := fp.query("/weather")
	if q.Get("lat") != "24.8608" || q.Get("lon") != "67.0104" || q.Has("q") {
		t.Errorf("Expected a coordinates lookup upstream, got %v", q)
	}
	if _, called := fp.query("/onecall/timemachine"); !called {
		t.Error("Expected the historical lookup to run")
	}

	// The sidebar forms redirect back to the same coordinates
	settingsForm := formFields(t, page, `name="settings"`)
	req := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(settingsForm.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(server, req)
	if loc := rec.Header().Get("Location"); loc != "/?lat=24.8608&lon=67.0104" {
		t.Errorf("Unexpected settings redirect %s", loc)
	}

	feedbackForm := formFields(t, page, `name="feedback"`)
	req = httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(feedbackForm.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(server, req)
	if loc := rec.Header().Get("Location"); loc != "/?feedback=sent&lat=24.8608&lon=67.0104&units=metric" {
		t.Errorf("Unexpected feedback redirect %s", loc)
	}
}

func TestUnitsSurviveFollowUpForms(t *testing.T) {
	server, fp := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/?city=Karachi&units=imperial", nil))
	page := rec.Body.String()

	search := formFields(t, page, `name="city" value="Karachi"></label>`)
	if search.Get("units") != "imperial" {
		t.Errorf("Expected the search form to carry imperial units, got %v", search)
	}

	historical := formFields(t, page, `name="historical"`)
	if historical.Get("units") != "imperial" || historical.Get("city") != "Karachi" {
		t.Fatalf("Expected the historical form to carry city and units, got %v", historical)
	}
	rec = serve(server, httptest.NewRequest(http.MethodGet, "/?"+historical.Encode(), nil))
	if !strings.Contains(rec.Body.String(), "31.9°F") {
		t.Error("Expected imperial units on the follow-up pass")
	}
	q, _ := fp.query("/weather")
	if q.Get("units") != "imperial" {
		t.Errorf("Expected imperial units upstream, got %v", q)
	}
}
