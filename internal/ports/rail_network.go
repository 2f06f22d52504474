package ports

import (
	"context"
	"encoding/json"
)

// RailNetwork is a GeoJSON FeatureCollection kept as raw features. It is
// served for display only and plays no part in itinerary computation.
type RailNetwork struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type RailNetworkSource interface {
	RailNetwork(ctx context.Context) (*RailNetwork, error)
}

// Shared byte store with expiry, e.g. Redis.
type BlobCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}
