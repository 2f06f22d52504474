// Package config reads service settings from the environment.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBPath      string
	DatabaseURL string
	RedisURL    string

	Geocoder         string
	ORSAPIKey        string
	NominatimBaseURL string
	SeaRouteBaseURL  string

	PortsPath       string
	NodesPath       string
	MexPortsCSV     string
	WorldPortsCSV   string
	RailNetworkPath string
	ArcGISRailURL   string

	ProviderTimeout time.Duration
	GeocodeTimeout  time.Duration
	RailCacheTTL    time.Duration

	TracingEnabled  bool
	TracingExporter string
	OTLPEndpoint    string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	return Config{
		Port:        Get("PORT", "8080"),
		DBPath:      Get("DB_PATH", "data/cache.db"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),

		Geocoder:         strings.ToLower(Get("GEOCODER", "ors")),
		ORSAPIKey:        strings.TrimSpace(os.Getenv("ORS_API_KEY")),
		NominatimBaseURL: Get("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		SeaRouteBaseURL:  Get("SEAROUTE_BASE_URL", "http://localhost:8000"),

		PortsPath:       Get("PORTS_PATH", "data/ports.json"),
		NodesPath:       Get("NODES_PATH", "data/nodes.json"),
		MexPortsCSV:     os.Getenv("MEX_PORTS_CSV"),
		WorldPortsCSV:   os.Getenv("WORLD_PORTS_CSV"),
		RailNetworkPath: os.Getenv("RAIL_NETWORK_PATH"),
		ArcGISRailURL:   os.Getenv("ARCGIS_RAIL_URL"),

		ProviderTimeout: GetDuration("PROVIDER_TIMEOUT", 15*time.Second),
		GeocodeTimeout:  GetDuration("GEOCODE_TIMEOUT", 5*time.Second),
		RailCacheTTL:    GetDuration("RAIL_CACHE_TTL", 24*time.Hour),

		TracingEnabled:  strings.EqualFold(os.Getenv("TRACING_ENABLED"), "true"),
		TracingExporter: strings.ToLower(Get("TRACING_EXPORTER", "stdout")),
		OTLPEndpoint:    Get("OTLP_ENDPOINT", "localhost:4317"),
	}
}

// Get returns the environment value for key or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetDuration parses a Go duration string, logging and falling back on bad input.
func GetDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("config: invalid duration %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}
