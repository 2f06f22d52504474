package services

import (
	"context"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/geo"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
	"strings"
)

// Topology labels used for metrics and logs.
const (
	TopologyRailCorridor = "rail_corridor"
	TopologyDirect       = "direct"
)

// ItineraryBuilder assembles the fixed multimodal topologies. It holds no
// per-request state and is safe for concurrent use.
type ItineraryBuilder struct {
	SeaRoutes ports.SeaRouteProvider
	Network   domain.Network
	Metrics   *metrics.Collector
}

func NewItineraryBuilder(sea ports.SeaRouteProvider, network domain.Network, m *metrics.Collector) (*ItineraryBuilder, error) {
	if sea == nil {
		return nil, errors.New("itinerary builder: sea route provider is nil")
	}
	if err := network.Validate(); err != nil {
		return nil, fmt.Errorf("itinerary builder: %w", err)
	}
	return &ItineraryBuilder{SeaRoutes: sea, Network: network, Metrics: m}, nil
}

// Build constructs the itinerary described by p.
//
// The inbound sea leg uses the provider's navigable distance; every other leg
// uses the geodesic distance between its endpoints. All validation happens
// before the provider is called, and a provider failure aborts the build.
func (b *ItineraryBuilder) Build(ctx context.Context, p domain.ItineraryParams) (_ *domain.Itinerary, err error) {
	ctx, done := obs.Start(ctx, "itinerary.Build")
	defer done(&err)

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("build itinerary: %w", err)
	}

	entry, err := b.Network.EntryWaypoint(p.EntryPort)
	if err != nil {
		return nil, fmt.Errorf("build itinerary: %w", err)
	}

	origin := labelled(p.Origin, "Origin")
	destination := labelled(p.Destination, "Destination")

	segments := make([]domain.Segment, 0, 5)

	sea, err := b.seaEntryLeg(ctx, origin, entry, p.Speeds.Sea)
	if err != nil {
		return nil, fmt.Errorf("build itinerary: sea leg: %w", err)
	}
	segments = append(segments, sea)

	last := entry
	topology := TopologyDirect

	if b.corridorActive(p) {
		topology = TopologyRailCorridor
		for _, hop := range [][2]domain.Waypoint{
			{entry, b.Network.RailMidpoint},
			{b.Network.RailMidpoint, b.Network.CorridorExit},
		} {
			s, err := geodesicSegment(domain.ModeRail, hop[0], hop[1], p.Speeds.Rail)
			if err != nil {
				return nil, fmt.Errorf("build itinerary: rail leg: %w", err)
			}
			segments = append(segments, s)
		}
		last = b.Network.CorridorExit
	}

	if p.Intermediate != nil {
		node := labelled(*p.Intermediate, "Intermediate node")
		s, err := geodesicSegment(domain.ModeRoad, last, node, p.Speeds.Road)
		if err != nil {
			return nil, fmt.Errorf("build itinerary: intermediate leg: %w", err)
		}
		segments = append(segments, s)
		last = node
	}

	finalMode := domain.ModeRoad
	if p.DestinationIsInternationalPort {
		finalMode = domain.ModeSea
	}
	final, err := geodesicSegment(finalMode, last, destination, p.Speeds.For(finalMode))
	if err != nil {
		return nil, fmt.Errorf("build itinerary: final leg: %w", err)
	}
	segments = append(segments, final)

	it := domain.NewItinerary(segments)
	b.Metrics.ItineraryBuilt(topology)

	return it, nil
}

// corridorActive reports whether the rail corridor applies. Requesting it
// from the other entry port is not an error; the corridor is skipped.
func (b *ItineraryBuilder) corridorActive(p domain.ItineraryParams) bool {
	return p.UseRailCorridor && p.EntryPort == b.Network.CorridorPort
}

func (b *ItineraryBuilder) seaEntryLeg(ctx context.Context, origin, entry domain.Waypoint, speed float64) (domain.Segment, error) {
	route, err := b.SeaRoutes.Route(ctx, origin.Coordinates, entry.Coordinates)
	if err != nil {
		return domain.Segment{}, err
	}
	if !(route.DistanceKm >= 0) {
		return domain.Segment{}, fmt.Errorf("%w: provider returned distance %v", domain.ErrRouteUnavailable, route.DistanceKm)
	}

	s := domain.NewSegment(domain.ModeSea, origin, entry, route.DistanceKm, speed)
	if len(route.Geometry) >= 2 {
		s.Path = append([]domain.Coordinates(nil), route.Geometry...)
	}
	return s, nil
}

func geodesicSegment(mode domain.TransportMode, from, to domain.Waypoint, speed float64) (domain.Segment, error) {
	km, err := geo.Distance(from.Coordinates, to.Coordinates)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("%s -> %s: %w", from.Label, to.Label, err)
	}
	return domain.NewSegment(mode, from, to, km, speed), nil
}

func labelled(w domain.Waypoint, fallback string) domain.Waypoint {
	if strings.TrimSpace(w.Label) == "" {
		w.Label = fallback
	}
	return w
}
