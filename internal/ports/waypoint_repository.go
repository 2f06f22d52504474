package ports

import (
	"context"
	"intermodal-route-service/internal/domain"
)

// Read-only table of named places (ports, inland nodes).
type Waypoints interface {
	Lookup(name string) (domain.Coordinates, bool)
	// Names in sorted order.
	Names() []string
}

// Port: a boundary for loading the waypoint table from a data source.
type WaypointRepository interface {
	ListWaypoints(ctx context.Context) (map[string]domain.Coordinates, error)
}
