package services

import (
	"context"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/obs"
)

// Comparison holds a built itinerary next to the naive sea-then-road
// alternative. It reports both totals and does not choose between them.
type Comparison struct {
	Primary     *domain.Itinerary
	Alternative *domain.Itinerary

	// Alternative minus primary; negative means the alternative is shorter.
	DeltaDistanceKm float64
	DeltaDurationH  float64
}

type ItineraryComparator struct {
	Builder *ItineraryBuilder
}

func NewItineraryComparator(b *ItineraryBuilder) (*ItineraryComparator, error) {
	if b == nil {
		return nil, errors.New("itinerary comparator: builder is nil")
	}
	return &ItineraryComparator{Builder: b}, nil
}

// Compare builds the itinerary for p and an alternative that reuses its sea
// entry leg and then drives straight from the entry port to the destination,
// ignoring the rail corridor and any intermediate node.
func (c *ItineraryComparator) Compare(ctx context.Context, p domain.ItineraryParams) (_ *Comparison, err error) {
	ctx, done := obs.Start(ctx, "itinerary.Compare")
	defer done(&err)

	primary, err := c.Builder.Build(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("compare itineraries: %w", err)
	}

	entry, err := c.Builder.Network.EntryWaypoint(p.EntryPort)
	if err != nil {
		return nil, fmt.Errorf("compare itineraries: %w", err)
	}

	road, err := geodesicSegment(domain.ModeRoad, entry, labelled(p.Destination, "Destination"), p.Speeds.Road)
	if err != nil {
		return nil, fmt.Errorf("compare itineraries: road leg: %w", err)
	}

	alternative := domain.NewItinerary([]domain.Segment{primary.Segments[0], road})

	return &Comparison{
		Primary:         primary,
		Alternative:     alternative,
		DeltaDistanceKm: alternative.TotalDistanceKm - primary.TotalDistanceKm,
		DeltaDurationH:  alternative.TotalDurationH - primary.TotalDurationH,
	}, nil
}
