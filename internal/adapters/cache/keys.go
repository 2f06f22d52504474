package cache

import (
	"encoding/json"
	"fmt"
	"intermodal-route-service/internal/domain"
	"strings"
)

// CoordinateKey renders c as "lon,lat" with five decimals (about one metre),
// so nearby float noise maps to the same cache row.
func CoordinateKey(c domain.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f", c.Lon, c.Lat)
}

// NormalizeQuery collapses whitespace and case so equivalent geocode queries share a key.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func encodeGeometry(g []domain.Coordinates) (string, error) {
	pairs := make([][]float64, 0, len(g))
	for _, c := range g {
		pairs = append(pairs, c.CoordsToList())
	}
	b, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("encode geometry: %w", err)
	}
	return string(b), nil
}

func decodeGeometry(s string) ([]domain.Coordinates, error) {
	var pairs [][]float64
	if err := json.Unmarshal([]byte(s), &pairs); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	out := make([]domain.Coordinates, 0, len(pairs))
	for _, p := range pairs {
		c, err := domain.FromLonLat(p)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}
