package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/ports"
)

// SQLite backed cache for origin->destination sea routes.
type SqliteSeaRouteCache struct {
	DB *sql.DB
}

func NewSqliteSeaRouteCache(db *sql.DB) *SqliteSeaRouteCache {
	return &SqliteSeaRouteCache{DB: db}
}

func (s *SqliteSeaRouteCache) GetRoute(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (ports.SeaRoute, bool, error) {
	if s.DB == nil {
		return ports.SeaRoute{}, false, errors.New("sea route cache: db is nil")
	}

	q := `
	SELECT
        distance_km,
        geometry
    FROM sea_route_cache
    WHERE origin = ?
        AND destination = ?;
	`

	var km float64
	var geometry string
	err := s.DB.QueryRowContext(ctx, q, CoordinateKey(origin), CoordinateKey(destination)).Scan(&km, &geometry)
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

func (s *SqliteSeaRouteCache) PutRoute(
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

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO sea_route_cache (
        origin,
        destination,
        distance_km,
        geometry
    )
    VALUES (?, ?, ?, ?);
	`, CoordinateKey(origin), CoordinateKey(destination), route.DistanceKm, geometry)
	if err != nil {
		return fmt.Errorf("insert sea route cache %s -> %s: %w", origin, destination, err)
	}

	return nil
}
