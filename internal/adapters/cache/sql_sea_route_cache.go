package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
)

const (
	sqlGetSeaRoute = `
	SELECT distance_km, geometry
    FROM sea_route_cache
    WHERE origin = $1
        AND destination = $2;
	`

	sqlPutSeaRoute = `
	INSERT INTO sea_route_cache (origin, destination, distance_km, geometry)
    VALUES ($1, $2, $3, $4)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_km = EXCLUDED.distance_km,
		geometry = EXCLUDED.geometry;
	`
)

// SQLSeaRouteCache is a Postgres-backed cache for origin->destination sea routes.
type SQLSeaRouteCache struct {
	DB *sql.DB
}

func NewSQLSeaRouteCache(db *sql.DB) *SQLSeaRouteCache {
	return &SQLSeaRouteCache{DB: db}
}

// Fetch a cached route for one origin/destination pair.
func (s *SQLSeaRouteCache) GetRoute(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ ports.SeaRoute, _ bool, err error) {
	defer obs.Time(ctx, "searoute.cache.GetRoute")(&err)

	if s.DB == nil {
		return ports.SeaRoute{}, false, errors.New("sea route cache: db is nil")
	}

	var km float64
	var geometry string
	err = s.DB.QueryRowContext(ctx, sqlGetSeaRoute, CoordinateKey(origin), CoordinateKey(destination)).Scan(&km, &geometry)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.SeaRoute{}, false, nil
	}
	if err != nil {
		return ports.SeaRoute{}, false, fmt.Errorf("get sea route cache: query sea_route_cache table: %w", err)
	}

	g, err := decodeGeometry(geometry)
	if err != nil {
		return ports.SeaRoute{}, false, fmt.Errorf("get sea route cache: %w", err)
	}

	return ports.SeaRoute{DistanceKm: km, Geometry: g}, true, nil
}

// Store one route, replacing any existing row for the pair.
func (s *SQLSeaRouteCache) PutRoute(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	route ports.SeaRoute,
) error {
	if s.DB == nil {
		return errors.New("sea route cache: db is nil")
	}

	geometry, err := encodeGeometry(route.Geometry)
	if err != nil {
		return fmt.Errorf("insert sea route cache: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, sqlPutSeaRoute, CoordinateKey(origin), CoordinateKey(destination), route.DistanceKm, geometry)
	if err != nil {
		return fmt.Errorf("insert sea route cache %s -> %s: %w", origin, destination, err)
	}

	return nil
}
