package domain

// Represents a single leg of an itinerary travelled with one transport mode.
// DurationH is always DistanceKm divided by the mode speed used to build it.
// Path holds the display geometry of the leg in traversal order.
type Segment struct {
	Mode       TransportMode
	From       string
	To         string
	DistanceKm float64
	DurationH  float64
	Path       []Coordinates
}

// NewSegment derives the leg duration from distance and speed.
// Callers validate speed beforehand.
func NewSegment(mode TransportMode, from, to Waypoint, distanceKm, speedKmh float64) Segment {
	return Segment{
		Mode:       mode,
		From:       from.Label,
		To:         to.Label,
		DistanceKm: distanceKm,
		DurationH:  distanceKm / speedKmh,
		Path:       []Coordinates{from.Coordinates, to.Coordinates},
	}
}

// Represents the ordered legs between an origin and a destination along with
// aggregate distance and duration. It is immutable planning data: segments are
// appended while building and never changed afterwards.
type Itinerary struct {
	Segments        []Segment
	TotalDistanceKm float64
	TotalDurationH  float64
}

// NewItinerary copies segments and computes totals in traversal order.
func NewItinerary(segments []Segment) *Itinerary {
	it := &Itinerary{Segments: make([]Segment, len(segments))}
	copy(it.Segments, segments)
	for _, s := range it.Segments {
		it.TotalDistanceKm += s.DistanceKm
		it.TotalDurationH += s.DurationH
	}
	return it
}

func (it *Itinerary) TotalDurationDays() float64 { return it.TotalDurationH / 24 }

// Return the transport mode of every segment in order.
func (it *Itinerary) Modes() []TransportMode {
	modes := make([]TransportMode, 0, len(it.Segments))
	for _, s := range it.Segments {
		modes = append(modes, s.Mode)
	}
	return modes
}

// CountMode returns how many segments use mode.
func (it *Itinerary) CountMode(mode TransportMode) int {
	n := 0
	for _, s := range it.Segments {
		if s.Mode == mode {
			n++
		}
	}
	return n
}
