package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"intermodal-route-service/internal/adapters/cache"
	"intermodal-route-service/internal/adapters/dataset"
	"intermodal-route-service/internal/adapters/geocode"
	"intermodal-route-service/internal/adapters/repositories"
	"intermodal-route-service/internal/adapters/searoute"
	"intermodal-route-service/internal/api"
	"intermodal-route-service/internal/config"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/db"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
	"intermodal-route-service/internal/services"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters (SeaRoute, geocoder, SQL caches, Redis) behind ports and starts the HTTP server.
func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.InitTracing(ctx, obs.TracingConfig{
		Enabled:  cfg.TracingEnabled,
		Exporter: cfg.TracingExporter,
		Endpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer obs.Shutdown(shutdownTracing)

	m, err := metrics.NewCollector(nil)
	if err != nil {
		log.Fatal(err)
	}

	conn, st, err := openStores(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	waypoints, err := loadWaypoints(ctx, cfg, repositories.NewSQLWaypointRepository(conn))
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("waypoints loaded: count=%d", waypoints.Len())

	network := domain.DefaultNetwork().WithWaypoints(waypoints)

	// Sea routes are cached in SQL so repeated origin/entry pairs skip the provider.
	seaHTTP, err := searoute.NewHTTPProvider(cfg.SeaRouteBaseURL, cfg.ProviderTimeout, m)
	if err != nil {
		log.Fatal(err)
	}
	seaRoutes, err := searoute.NewCachedProvider(seaHTTP, st.seaRoutes, m)
	if err != nil {
		log.Fatal(err)
	}

	builder, err := services.NewItineraryBuilder(seaRoutes, network, m)
	if err != nil {
		log.Fatal(err)
	}
	comparator, err := services.NewItineraryComparator(builder)
	if err != nil {
		log.Fatal(err)
	}

	resolver := &services.WaypointResolver{
		Waypoints: waypoints,
		Geocoder:  geocode.NewFallbackResolver(newGeocoder(cfg, st.geocodes, m), cfg.GeocodeTimeout, m),
	}

	rail, closeRail, err := newRailNetwork(cfg, m)
	if err != nil {
		log.Fatal(err)
	}
	defer closeRail()

	router := api.NewRouter(api.Deps{
		Builder:     builder,
		Comparator:  comparator,
		Resolver:    resolver,
		Waypoints:   waypoints,
		RailNetwork: rail,
		Metrics:     m,
	})

	// Write timeout leaves room for a cold sea-route lookup plus geocoding.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: err=%v", err)
		}
	}()

	log.Printf("Server listening addr=:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server stopped: err=%v", err)
	}
}

type stores struct {
	seaRoutes ports.SeaRouteCache
	geocodes  ports.GeocodeCache
}

// openStores prefers Postgres when DATABASE_URL is set and falls back to a
// local SQLite file.
func openStores(cfg config.Config) (*sql.DB, stores, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, stores{}, err
		}
		if err := repositories.InitSchema(conn); err != nil {
			conn.Close()
			return nil, stores{}, err
		}
		log.Println("storage: postgres")
		return conn, stores{
			seaRoutes: cache.NewSQLSeaRouteCache(conn),
			geocodes:  cache.NewSQLGeocodeCache(conn),
		}, nil
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, stores{}, fmt.Errorf("create db dir %q: %w", dir, err)
		}
	}
	conn, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, stores{}, err
	}
	if err := repositories.InitSchema(conn); err != nil {
		conn.Close()
		return nil, stores{}, err
	}
	log.Printf("storage: sqlite path=%s", cfg.DBPath)
	return conn, stores{
		seaRoutes: cache.NewSqliteSeaRouteCache(conn),
		geocodes:  cache.NewSqliteGeocodeCache(conn),
	}, nil
}

// loadWaypoints merges the place tables. Earlier sources win on name clashes:
// ports.json, nodes.json, the Mexican and world port CSVs, then the database.
func loadWaypoints(ctx context.Context, cfg config.Config, repo ports.WaypointRepository) (*dataset.WaypointSet, error) {
	var tables []map[string]domain.Coordinates

	for _, path := range []string{cfg.PortsPath, cfg.NodesPath} {
		if !exists(path) {
			log.Printf("waypoint file missing, skipping: path=%s", path)
			continue
		}
		t, err := dataset.LoadWaypointsJSON(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	for _, path := range []string{cfg.MexPortsCSV, cfg.WorldPortsCSV} {
		if path == "" {
			continue
		}
		t, err := dataset.LoadWaypointsCSV(path, dataset.DefaultCSVColumns)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	stored, err := repo.ListWaypoints(ctx)
	if err != nil {
		return nil, err
	}
	tables = append(tables, stored)

	merged := dataset.Merge(nil, tables...)
	return dataset.NewWaypointSet(merged)
}

func newGeocoder(cfg config.Config, c ports.GeocodeCache, m *metrics.Collector) ports.Geocoder {
	switch cfg.Geocoder {
	case "none", "off":
		log.Println("geocoder disabled; free-text places resolve to their fallback")
		return nil
	case "nominatim":
		return geocode.NewNominatimGeocoder(cfg.NominatimBaseURL, cfg.GeocodeTimeout, m)
	}

	g, err := geocode.NewORSGeocoder("", cfg.ORSAPIKey, "", cfg.GeocodeTimeout, c, m)
	if err != nil {
		log.Printf("ors geocoder unavailable, using nominatim: err=%v", err)
		return geocode.NewNominatimGeocoder(cfg.NominatimBaseURL, cfg.GeocodeTimeout, m)
	}
	return g
}

// newRailNetwork returns nil when no rail source is configured.
func newRailNetwork(cfg config.Config, m *metrics.Collector) (ports.RailNetworkSource, func(), error) {
	noop := func() {}

	var (
		source ports.RailNetworkSource
		key    string
	)
	switch {
	case cfg.ArcGISRailURL != "":
		c, err := dataset.NewArcGISClient(cfg.ArcGISRailURL, 4*cfg.ProviderTimeout, m)
		if err != nil {
			return nil, noop, err
		}
		source, key = c, c.URL()
	case cfg.RailNetworkPath != "":
		source, key = dataset.FileRailNetwork{Path: cfg.RailNetworkPath}, cfg.RailNetworkPath
	default:
		log.Println("rail network not configured")
		return nil, noop, nil
	}

	if cfg.RedisURL == "" {
		return dataset.NewCachedRailNetwork(source, nil, key), noop, nil
	}

	client, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, noop, err
	}
	blobs := cache.NewRedisBlobCache(client, "intermodal:", cfg.RailCacheTTL)
	return dataset.NewCachedRailNetwork(source, blobs, key), func() { _ = client.Close() }, nil
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
