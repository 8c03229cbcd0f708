package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"weatherwise/api"
	"weatherwise/collector"
	"weatherwise/datasource"
	"weatherwise/session"
	"weatherwise/telemetry"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	// Parse command line arguments
	port := flag.Int("port", defaultPort(), "Port to run the server on")
	configFile := flag.String("config", "config.json", "Path to configuration file")
	enableRateLimiting := flag.Bool("rate-limit", true, "Enable API rate limiting")
	flag.Parse()

	// Load configuration
	config, err := datasource.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client := datasource.NewOpenWeatherMapClient(config.OpenWeatherMap.APIKey, config.OpenWeatherMap.BaseURL, config.RequestTimeout())
	var source datasource.WeatherSource = client
	var raw datasource.RawSource = client

	// Apply rate limiting if enabled
	if *enableRateLimiting && config.OpenWeatherMap.RateLimit > 0 {
		limited := datasource.NewRateLimitedSource(client, config.OpenWeatherMap.RateLimit, config.OpenWeatherMap.Burst)
		source, raw = limited, limited
		log.Printf("Applied rate limiting to %s (%.2f req/s, burst %d)", client.Name(), config.OpenWeatherMap.RateLimit, config.OpenWeatherMap.Burst)
	}

	weatherCollector := collector.NewCollector(source)
	weatherCollector.SetFetchTimeout(config.RequestTimeout())

	sessions := session.NewStore(config.SessionTTL())
	tracker := telemetry.New(config.ApplicationInsightsKey)

	server := api.NewServer(api.Deps{
		Collector:    weatherCollector,
		Raw:          raw,
		Sessions:     sessions,
		Tracker:      tracker,
		DefaultCity:  config.DefaultCity,
		DefaultUnits: config.Units(),
	}, *port)

	// Set up channels for graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	pruneDone := make(chan struct{})

	// Periodically drop expired sessions
	go func() {
		ticker := time.NewTicker(config.SessionTTL())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := sessions.Prune(); n > 0 {
					log.Printf("Pruned %d expired sessions", n)
				}
			case <-pruneDone:
				return
			}
		}
	}()

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdownChan
	fmt.Printf("Shutting down due to %s signal\n", sig)
	close(pruneDone)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	tracker.Close(5 * time.Second)

	hits, misses, size := sessions.Stats()
	log.Printf("Session stats: %d hits, %d misses, %d live", hits, misses, size)
	fmt.Println("Shutdown complete")
}

// defaultPort reads PORT from the environment, falling back to 8080
func defaultPort() int {
	var port int
	if _, err := fmt.Sscanf(os.Getenv("PORT"), "%d", &port); err != nil || port <= 0 {
		return 8080
	}
	return port
}
