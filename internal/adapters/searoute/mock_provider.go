package searoute

import (
	"context"
	"fmt"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/ports"
	"sync/atomic"
)

type MockPair struct {
	From, To   domain.Coordinates
	DistanceKm float64
}

// MockProvider returns fixed distances for known coordinate pairs and
// ErrRouteUnavailable for anything else. The geometry is the straight
// from/to pair.
type MockProvider struct {
	m     map[[2]domain.Coordinates]float64
	calls atomic.Int64
}

func NewMockProvider(pairs []MockPair) *MockProvider {
	m := make(map[[2]domain.Coordinates]float64, len(pairs))
	for _, p := range pairs {
		m[[2]domain.Coordinates{p.From, p.To}] = p.DistanceKm
	}
	return &MockProvider{m: m}
}

func (p *MockProvider) Route(ctx context.Context, origin, destination domain.Coordinates) (ports.SeaRoute, error) {
	p.calls.Add(1)

	km, ok := p.m[[2]domain.Coordinates{origin, destination}]
	if !ok {
		return ports.SeaRoute{}, fmt.Errorf("%w: no mock route %s -> %s", domain.ErrRouteUnavailable, origin, destination)
	}

	return ports.SeaRoute{
		DistanceKm: km,
		Geometry:   []domain.Coordinates{origin, destination},
	}, nil
}

// Calls returns how many times Route was invoked.
func (p *MockProvider) Calls() int { return int(p.calls.Load()) }
