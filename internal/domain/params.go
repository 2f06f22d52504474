package domain

import "fmt"

// ItineraryParams is the complete, immutable input of one itinerary build.
type ItineraryParams struct {
	EntryPort                      EntryPort
	Origin                         Waypoint
	Destination                    Waypoint
	DestinationIsInternationalPort bool
	UseRailCorridor                bool
	Intermediate                   *Waypoint
	Speeds                         Speeds
}

// Validate performs every check that does not need I/O.
func (p ItineraryParams) Validate() error {
	if err := p.Speeds.Validate(); err != nil {
		return err
	}
	if _, err := ParseEntryPort(string(p.EntryPort)); err != nil {
		return err
	}
	if err := p.Origin.Coordinates.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if err := p.Destination.Coordinates.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if p.Intermediate != nil {
		if err := p.Intermediate.Coordinates.Validate(); err != nil {
			return fmt.Errorf("intermediate node: %w", err)
		}
	}
	return nil
}
