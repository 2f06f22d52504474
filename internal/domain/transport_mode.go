package domain

import (
	"fmt"
	"strings"
)

type TransportMode string

const (
	ModeSea  TransportMode = "sea"
	ModeRail TransportMode = "rail"
	ModeRoad TransportMode = "road"
)

// ParseTransportMode accepts the canonical names case-insensitively.
func ParseTransportMode(s string) (TransportMode, error) {
	switch TransportMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSea:
		return ModeSea, nil
	case ModeRail:
		return ModeRail, nil
	case ModeRoad:
		return ModeRoad, nil
	}
	return "", fmt.Errorf("unknown transport mode %q", s)
}

// Average speeds per transport mode in km/h.
type Speeds struct {
	Sea  float64
	Rail float64
	Road float64
}

// DefaultSpeeds mirrors typical averages for container vessels, freight rail and trucks.
func DefaultSpeeds() Speeds {
	return Speeds{Sea: 30, Rail: 60, Road: 70}
}

// Validate rejects any speed that would yield a zero, negative or undefined duration.
func (s Speeds) Validate() error {
	for _, mode := range []TransportMode{ModeSea, ModeRail, ModeRoad} {
		v := s.For(mode)
		if !(v > 0) || v > maxSpeedKmh {
			return fmt.Errorf("%w: %s speed must be positive, got %v", ErrInvalidSpeed, mode, v)
		}
	}
	return nil
}

// maxSpeedKmh also rejects +Inf.
const maxSpeedKmh = 1e6

// Return the configured speed for mode, or 0 for an unknown mode.
func (s Speeds) For(mode TransportMode) float64 {
	switch mode {
	case ModeSea:
		return s.Sea
	case ModeRail:
		return s.Rail
	case ModeRoad:
		return s.Road
	}
	return 0
}
