package domain

import (
	"fmt"
	"strings"
)

// EntryPort is the coastal point where the inbound sea leg hands cargo to land transport.
type EntryPort string

const (
	EntryPortSalinaCruz    EntryPort = "Salina Cruz"
	EntryPortCoatzacoalcos EntryPort = "Coatzacoalcos"
)

// ParseEntryPort matches an entry port name ignoring case and surrounding whitespace.
func ParseEntryPort(s string) (EntryPort, error) {
	norm := strings.Join(strings.Fields(s), " ")
	for _, p := range []EntryPort{EntryPortSalinaCruz, EntryPortCoatzacoalcos} {
		if strings.EqualFold(norm, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntryPort, s)
}

// Network describes the fixed land-side topology: where each entry port is and
// which rail corridor is reachable from the corridor port.
type Network struct {
	EntryPorts   map[EntryPort]Coordinates
	CorridorPort EntryPort
	RailMidpoint Waypoint
	CorridorExit Waypoint
}

// DefaultNetwork returns the interoceanic corridor across the Isthmus of Tehuantepec:
// Salina Cruz -> Medias Aguas -> Coatzacoalcos.
func DefaultNetwork() Network {
	return Network{
		EntryPorts: map[EntryPort]Coordinates{
			EntryPortSalinaCruz:    {Lat: 16.17, Lon: -95.20},
			EntryPortCoatzacoalcos: {Lat: 18.15, Lon: -94.43},
		},
		CorridorPort: EntryPortSalinaCruz,
		RailMidpoint: Waypoint{Label: "Medias Aguas", Coordinates: Coordinates{Lat: 17.62, Lon: -95.03}},
		CorridorExit: Waypoint{Label: "Coatzacoalcos", Coordinates: Coordinates{Lat: 18.15, Lon: -94.43}},
	}
}

// Lookup resolves a place name to coordinates.
type Lookup interface {
	Lookup(name string) (Coordinates, bool)
}

// WithWaypoints returns a copy of n whose coordinates are replaced by the
// dataset entries sharing the same names. Names missing from the dataset keep
// their built-in coordinates.
func (n Network) WithWaypoints(l Lookup) Network {
	out := Network{
		EntryPorts:   make(map[EntryPort]Coordinates, len(n.EntryPorts)),
		CorridorPort: n.CorridorPort,
		RailMidpoint: n.RailMidpoint,
		CorridorExit: n.CorridorExit,
	}
	for p, c := range n.EntryPorts {
		if found, ok := l.Lookup(string(p)); ok {
			c = found
		}
		out.EntryPorts[p] = c
	}
	if c, ok := l.Lookup(n.RailMidpoint.Label); ok {
		out.RailMidpoint.Coordinates = c
	}
	if c, ok := l.Lookup(n.CorridorExit.Label); ok {
		out.CorridorExit.Coordinates = c
	}
	return out
}

// EntryWaypoint returns the labelled coordinates of an entry port.
func (n Network) EntryWaypoint(p EntryPort) (Waypoint, error) {
	c, ok := n.EntryPorts[p]
	if !ok {
		return Waypoint{}, fmt.Errorf("%w: %q", ErrUnknownEntryPort, p)
	}
	return Waypoint{Label: string(p), Coordinates: c}, nil
}

// Validate checks every coordinate held by the network.
func (n Network) Validate() error {
	if _, ok := n.EntryPorts[n.CorridorPort]; !ok {
		return fmt.Errorf("network: corridor port %q has no coordinates", n.CorridorPort)
	}
	for p, c := range n.EntryPorts {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("network: entry port %q: %w", p, err)
		}
	}
	if err := n.RailMidpoint.Coordinates.Validate(); err != nil {
		return fmt.Errorf("network: rail midpoint: %w", err)
	}
	if err := n.CorridorExit.Coordinates.Validate(); err != nil {
		return fmt.Errorf("network: corridor exit: %w", err)
	}
	return nil
}
