package ports

import (
	"context"
	"intermodal-route-service/internal/domain"
)

// Contract for a raw geocoding backend. It may fail.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Coordinates, error)
}

// Contract for geocoding that never fails: on any provider problem the
// supplied fallback is returned instead.
type GeocodeResolver interface {
	Resolve(ctx context.Context, query string, fallback domain.Coordinates) domain.Coordinates
}

// Persistent store mapping normalized queries to coordinates.
type GeocodeCache interface {
	GetMany(ctx context.Context, queries []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
