package services

import (
	"intermodal-route-service/internal/domain"
)

// Line colours per transport mode for map rendering.
var ModeColors = map[domain.TransportMode]string{
	domain.ModeSea:  "#1f78b4",
	domain.ModeRail: "#e31a1c",
	domain.ModeRoad: "#00ff9d",
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// RenderGeoJSON draws an itinerary as one LineString per segment followed by
// a Point marker at every distinct segment endpoint. Positions are [lon, lat].
func RenderGeoJSON(it *domain.Itinerary) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	if it == nil {
		return fc
	}

	for i, s := range it.Segments {
		line := make([][]float64, 0, len(s.Path))
		for _, c := range s.Path {
			line = append(line, c.CoordsToList())
		}
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "LineString", Coordinates: line},
			Properties: map[string]any{
				"index":       i,
				"mode":        string(s.Mode),
				"from":        s.From,
				"to":          s.To,
				"distance_km": s.DistanceKm,
				"duration_h":  s.DurationH,
				"color":       ModeColors[s.Mode],
			},
		})
	}

	seen := map[string]bool{}
	marker := func(label string, c domain.Coordinates) {
		if seen[label] {
			return
		}
		seen[label] = true
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: c.CoordsToList()},
			Properties: map[string]any{"name": label},
		})
	}
	for _, s := range it.Segments {
		if len(s.Path) == 0 {
			continue
		}
		marker(s.From, s.Path[0])
		marker(s.To, s.Path[len(s.Path)-1])
	}

	return fc
}
