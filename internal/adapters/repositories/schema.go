package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"intermodal-route-service/internal/adapters/dataset"
	"sort"
	"strconv"
)

// Dialect selects the placeholder syntax for the few statements that take parameters.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// InitSchema creates the cache and waypoint tables. The DDL is valid for both
// SQLite and Postgres.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createSeaRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS sea_route_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		geometry TEXT NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		query TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);
	`

	createWaypointsQuery := `
	CREATE TABLE IF NOT EXISTS waypoints (
		name TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_sea_route_cache_destination_origin
	ON sea_route_cache(destination, origin);
	`

	statements := []string{
		createSeaRouteCacheQuery,
		createGeocodeCacheQuery,
		createWaypointsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SeedWaypointsFromJSON upserts the {"name": [lat, lon]} table at jsonPath.
// It returns the number of rows written.
func SeedWaypointsFromJSON(db *sql.DB, dialect Dialect, jsonPath string) (int, error) {
	if db == nil {
		return 0, errors.New("seed waypoints: DB is nil")
	}

	entries, err := dataset.LoadWaypointsJSON(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed waypoints: %w", err)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("seed waypoints: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
	INSERT INTO waypoints (
		name,
		lat,
		lon
	)
	VALUES (%s, %s, %s)
	ON CONFLICT (name) DO UPDATE SET lat = excluded.lat, lon = excluded.lon;
	`, dialect.placeholder(1), dialect.placeholder(2), dialect.placeholder(3))

	stmt, err := tx.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("seed waypoints: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		c := entries[name]
		if _, err := stmt.Exec(name, c.Lat, c.Lon); err != nil {
			return 0, fmt.Errorf("seed waypoints: insert name=%q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed waypoints: commit tx: %w", err)
	}

	return len(names), nil
}
