package api

import (
	"intermodal-route-service/internal/api/handlers"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/ports"
	"net/http"
)

// Deps are the collaborators the HTTP surface needs. RailNetwork and Metrics may be nil.
type Deps struct {
	Builder     handlers.ItineraryBuilder
	Comparator  handlers.ItineraryComparator
	Resolver    handlers.WaypointResolver
	Waypoints   ports.Waypoints
	RailNetwork ports.RailNetworkSource
	Metrics     *metrics.Collector
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	itineraryHandler := &handlers.ItineraryHandler{
		Resolver:   d.Resolver,
		Builder:    d.Builder,
		Comparator: d.Comparator,
	}
	waypointHandler := &handlers.WaypointHandler{Waypoints: d.Waypoints}
	railHandler := &handlers.RailNetworkHandler{Source: d.RailNetwork}
	healthHandler := &handlers.HealthHandler{Waypoints: d.Waypoints, RailNetwork: d.RailNetwork}

	mux.HandleFunc("/health", healthHandler.Get)
	mux.HandleFunc("/itineraries", itineraryHandler.Build)
	mux.HandleFunc("/itineraries/compare", itineraryHandler.Compare)
	mux.HandleFunc("/itineraries/geojson", itineraryHandler.GeoJSON)
	mux.HandleFunc("/waypoints", waypointHandler.List)
	mux.HandleFunc("/rail-network", railHandler.Get)
	mux.Handle("/metrics", d.Metrics.Handler())

	return requestIDMiddleware(loggingMiddleware(mux))
}
