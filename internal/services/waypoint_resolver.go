package services

import (
	"context"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrUnknownWaypoint is returned for a name that is neither in the dataset
// nor geocodable with a fallback.
var ErrUnknownWaypoint = errors.New("unknown waypoint")

const maxConcurrentLookups = 5

// PlaceInput describes one place as supplied by a caller. Coordinates win
// over Name; Name is looked up in the dataset first and geocoded otherwise.
type PlaceInput struct {
	Label       string
	Name        string
	Coordinates *domain.Coordinates
	Fallback    *domain.Coordinates
}

type WaypointResolver struct {
	Waypoints ports.Waypoints
	Geocoder  ports.GeocodeResolver
}

type canonicalNamer interface {
	Canonical(name string) (string, bool)
}

// Resolve turns every input into a labelled waypoint. Lookups run
// concurrently; the result order matches the input order.
func (r *WaypointResolver) Resolve(ctx context.Context, inputs ...PlaceInput) (_ []domain.Waypoint, err error) {
	ctx, done := obs.Start(ctx, "waypoints.Resolve")
	defer done(&err)

	out := make([]domain.Waypoint, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)

	for i, in := range inputs {
		g.Go(func() error {
			w, err := r.resolveOne(gctx, in)
			if err != nil {
				return fmt.Errorf("resolve waypoint #%d: %w", i+1, err)
			}
			out[i] = w
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WaypointResolver) resolveOne(ctx context.Context, in PlaceInput) (domain.Waypoint, error) {
	name := strings.Join(strings.Fields(in.Name), " ")
	label := strings.TrimSpace(in.Label)

	if in.Coordinates != nil {
		if err := in.Coordinates.Validate(); err != nil {
			return domain.Waypoint{}, err
		}
		return domain.Waypoint{Label: firstNonEmpty(label, name, in.Coordinates.String()), Coordinates: *in.Coordinates}, nil
	}

	if name == "" {
		return domain.Waypoint{}, fmt.Errorf("%w: no name or coordinates", ErrUnknownWaypoint)
	}

	if r.Waypoints != nil {
		if c, ok := r.Waypoints.Lookup(name); ok {
			if cn, ok := r.Waypoints.(canonicalNamer); ok {
				if canonical, ok := cn.Canonical(name); ok {
					name = canonical
				}
			}
			return domain.Waypoint{Label: firstNonEmpty(label, name), Coordinates: c}, nil
		}
	}

	if r.Geocoder != nil && in.Fallback != nil {
		if err := in.Fallback.Validate(); err != nil {
			return domain.Waypoint{}, fmt.Errorf("fallback for %q: %w", name, err)
		}
		c := r.Geocoder.Resolve(ctx, name, *in.Fallback)
		return domain.Waypoint{Label: firstNonEmpty(label, name), Coordinates: c}, nil
	}

	return domain.Waypoint{}, fmt.Errorf("%w: %q", ErrUnknownWaypoint, name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
