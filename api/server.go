package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"weatherwise/collector"
	"weatherwise/datasource"
	"weatherwise/models"
	"weatherwise/session"
	"weatherwise/telemetry"
)

// Deps are the components the server renders with
type Deps struct {
	Collector *collector.Collector
	Raw       datasource.RawSource
	Sessions  *session.Store
	// Tracker may be nil
	Tracker *telemetry.Tracker

	DefaultCity  string
	DefaultUnits models.UnitSystem
}

// Server represents the dashboard server
type Server struct {
	deps   Deps
	router *mux.Router
	server *http.Server
	now    func() time.Time
}

// NewServer creates a new dashboard server
func NewServer(deps Deps, port int) *Server {
	if deps.DefaultCity == "" {
		deps.DefaultCity = "Karachi"
	}
	if !deps.DefaultUnits.Valid() {
		deps.DefaultUnits = models.Metric
	}

	router := mux.NewRouter()
	server := &Server{
		deps:   deps,
		router: router,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		now: time.Now,
	}

	router.Use(RequestID, AccessLog, deps.Tracker.Middleware)

	// Dashboard page and sidebar forms
	router.HandleFunc("/", server.handleDashboard).Methods(http.MethodGet)
	router.HandleFunc("/settings", server.handleSettings).Methods(http.MethodPost)
	router.HandleFunc("/feedback", server.handleFeedback).Methods(http.MethodPost)
	router.HandleFunc("/map.png", server.handleMapImage).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", server.handleDashboardJSON).Methods(http.MethodGet)
	api.HandleFunc("/raw/{endpoint}", server.handleRaw).Methods(http.MethodGet)

	// Health check
	api.HandleFunc("/health", server.handleHealthCheck).Methods(http.MethodGet)

	return server
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins the dashboard server
func (s *Server) Start() error {
	log.Printf("Starting dashboard server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the server, waiting for in-flight render passes
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
