package ports

import (
	"context"
	"intermodal-route-service/internal/domain"
)

// Navigable sea distance and the path geometry between two coordinates.
type SeaRoute struct {
	DistanceKm float64
	Geometry   []domain.Coordinates
}

// Contract for resolving a sea route between two points.
//
// Inputs are named coordinates; adapters own the conversion to whatever axis
// order their backend expects. Implementations fail with an error wrapping
// domain.ErrRouteUnavailable when no path can be computed.
type SeaRouteProvider interface {
	Route(ctx context.Context, origin, destination domain.Coordinates) (SeaRoute, error)
}

// Persistent store for previously computed sea routes.
type SeaRouteCache interface {
	// Return the cached route and whether it was found.
	GetRoute(ctx context.Context, origin, destination domain.Coordinates) (SeaRoute, bool, error)
	PutRoute(ctx context.Context, origin, destination domain.Coordinates, route SeaRoute) error
}
