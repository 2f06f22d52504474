package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
)

// SQL-backed implementation of the WaypointRepository port.
type SQLWaypointRepository struct{ DB *sql.DB }

func NewSQLWaypointRepository(db *sql.DB) *SQLWaypointRepository {
	return &SQLWaypointRepository{DB: db}
}

// Return every stored waypoint keyed by name.
func (s *SQLWaypointRepository) ListWaypoints(ctx context.Context) (map[string]domain.Coordinates, error) {
	if s.DB == nil {
		return nil, errors.New("sql waypoint repository: DB is nil")
	}

	query := `
	SELECT
		name,
		lat,
		lon
	FROM waypoints
	ORDER BY name;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list waypoints: query waypoints table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, 64)
	for rows.Next() {
		var name string
		var c domain.Coordinates
		if err := rows.Scan(&name, &c.Lat, &c.Lon); err != nil {
			return nil, fmt.Errorf("list waypoints: scan row: %w", err)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("list waypoints: %q: %w", name, err)
		}
		out[name] = c
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list waypoints: row iteration: %w", err)
	}

	return out, nil
}
