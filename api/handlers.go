package api

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"weatherwise/collector"
	"weatherwise/datasource"
	"weatherwise/presentation"
	"weatherwise/settings"
)

const (
	sessionCookie = "weatherwise_session"

	mapImageWidth  = 400
	mapImageHeight = 300
)

// loadSettings returns the session ID and settings of the caller. An unknown
// or expired session yields an empty ID and the default settings.
func (s *Server) loadSettings(r *http.Request) (string, settings.Settings) {
	defaults := settings.Default(s.deps.DefaultUnits)
	if s.deps.Sessions == nil {
		return "", defaults
	}
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", defaults
	}
	if prefs, ok := s.deps.Sessions.Get(cookie.Value); ok {
		return cookie.Value, prefs
	}
	return "", defaults
}

// render runs one render pass for the request
func (s *Server) render(r *http.Request, prefs settings.Settings) (presentation.View, collector.Report, error) {
	req, err := s.parseRenderRequest(r, prefs, s.now())
	if err != nil {
		return presentation.View{}, collector.Report{}, err
	}
	// A units query parameter applies to this pass only
	prefs.Units = req.Units

	start := time.Now()
	report := s.deps.Collector.Collect(r.Context(), req)
	s.deps.Tracker.TrackRenderPass(report, time.Since(start))

	view := presentation.Build(report, prefs)
	if r.URL.Query().Get("feedback") == "sent" {
		view.Feedback = &presentation.Notice{Level: presentation.LevelSuccess, Text: settings.FeedbackAck}
	}
	return view, report, nil
}

// handleDashboard renders the dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	_, prefs := s.loadSettings(r)
	view, _, err := s.render(r, prefs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := presentation.RenderHTML(&buf, view); err != nil {
		log.Printf("[%s] Failed to render dashboard: %v", view.RequestID, err)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// handleDashboardJSON returns the same render pass as JSON
func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	_, prefs := s.loadSettings(r)
	view, report, err := s.render(r, prefs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, statusFor(report), view)
}

// statusFor maps the outcome of the location lookup to an HTTP status.
// Failures of dependent sections are reported inline only.
func statusFor(report collector.Report) int {
	if report.Resolved() {
		return http.StatusOK
	}
	if datasource.KindOf(report.Current.Err) == datasource.LocationNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// handleSettings stores the sidebar settings in the session
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	id, prefs := s.loadSettings(r)
	prefs = settings.FromForm(r.PostForm, prefs)
	if s.deps.Sessions != nil {
		if id == "" {
			id = s.deps.Sessions.NewID()
		}
		s.deps.Sessions.Set(id, prefs)
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, dashboardURL(r.PostForm, nil), http.StatusSeeOther)
}

// handleFeedback acknowledges feedback. Nothing is stored or forwarded.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	ack := settings.SubmitFeedback(r.PostForm.Get("feedback"))

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, map[string]string{"message": ack})
		return
	}
	http.Redirect(w, r, dashboardURL(r.PostForm, url.Values{"feedback": {"sent"}}), http.StatusSeeOther)
}

// dashboardURL rebuilds the page address from the location and units a
// sidebar form carried, so a coordinates lookup survives the redirect
func dashboardURL(form url.Values, extra url.Values) string {
	q := url.Values{}
	for _, key := range []string{"city", "lat", "lon", "units"} {
		if v := strings.TrimSpace(form.Get(key)); v != "" {
			q.Set(key, v)
		}
	}
	for k, v := range extra {
		q[k] = v
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// handleRaw returns the undecoded provider body of one endpoint
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	if s.deps.Raw == nil {
		writeError(w, http.StatusNotFound, errors.New("raw passthrough is not enabled"))
		return
	}
	endpoint := mux.Vars(r)["endpoint"]

	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		if k == "appid" || len(v) == 0 {
			continue
		}
		params[k] = v[0]
	}

	body, err := s.deps.Raw.Raw(r.Context(), endpoint, params)
	if err != nil {
		var apiErr *datasource.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, err)
		} else {
			writeError(w, http.StatusNotFound, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleMapImage renders the marker image for the given coordinates
func (s *Server) handleMapImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	coord, err := parseCoordinates(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	marker := presentation.MapMarker{
		Lat:     coord.Lat,
		Lon:     coord.Lon,
		Zoom:    presentation.MapZoom,
		Tooltip: q.Get("label"),
	}
	var buf bytes.Buffer
	if err := presentation.RenderMarkerPNG(&buf, marker, mapImageWidth, mapImageHeight); err != nil {
		http.Error(w, fmt.Sprintf("Failed to render map: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// handleHealthCheck provides a simple health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
	}
	if s.deps.Sessions != nil {
		_, _, size := s.deps.Sessions.Stats()
		response["sessions"] = size
	}
	writeJSON(w, http.StatusOK, response)
}
