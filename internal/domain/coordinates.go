package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinates (WGS84 degrees).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports ErrInvalidCoordinate when either component is out of range or not finite.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Return coordinates as [lat, lon], the ordering used by dataset files.
func (c Coordinates) LatLon() [2]float64 { return [2]float64{c.Lat, c.Lon} }

// FromLonLat builds Coordinates from a GeoJSON-style [lon, lat] pair.
func FromLonLat(pair []float64) (Coordinates, error) {
	if len(pair) < 2 {
		return Coordinates{}, fmt.Errorf("%w: expected [lon, lat], got %d values", ErrInvalidCoordinate, len(pair))
	}
	c := Coordinates{Lat: pair[1], Lon: pair[0]}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.5f, %.5f)", c.Lat, c.Lon)
}

// A named point on an itinerary.
type Waypoint struct {
	Label       string
	Coordinates Coordinates
}
