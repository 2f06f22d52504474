package searoute

import (
	"context"
	"errors"
	"fmt"
	"intermodal-route-service/internal/adapters/cache"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/ports"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedProvider is a read-through decorator over a SeaRouteProvider.
// Concurrent requests for the same origin/destination share one upstream call.
// The shared call is detached from any single caller's cancellation and is
// bounded by the wrapped provider's own timeout; a caller whose context ends
// stops waiting without failing the others.
type CachedProvider struct {
	next    ports.SeaRouteProvider
	cache   ports.SeaRouteCache
	metrics *metrics.Collector
	group   singleflight.Group
}

func NewCachedProvider(next ports.SeaRouteProvider, c ports.SeaRouteCache, m *metrics.Collector) (*CachedProvider, error) {
	if next == nil {
		return nil, errors.New("cached sea route provider: next provider is nil")
	}
	if c == nil {
		c = cache.NewMemorySeaRouteCache()
	}
	return &CachedProvider{next: next, cache: c, metrics: m}, nil
}

func (p *CachedProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (ports.SeaRoute, error) {
	key := cache.CoordinateKey(origin) + "|" + cache.CoordinateKey(destination)
	flightCtx := context.WithoutCancel(ctx)

	ch := p.group.DoChan(key, func() (any, error) {
		return p.fetch(flightCtx, key, origin, destination)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return ports.SeaRoute{}, res.Err
		}
		return res.Val.(ports.SeaRoute), nil
	case <-ctx.Done():
		return ports.SeaRoute{}, fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, ctx.Err())
	}
}

func (p *CachedProvider) fetch(
	ctx context.Context,
	key string,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (ports.SeaRoute, error) {
	start := time.Now()
	hit, ok, err := p.cache.GetRoute(ctx, origin, destination)
	if err != nil {
		log.Printf("sea route cache read failed: key=%s err=%v", key, err)
	} else if ok {
		p.metrics.ObserveProvider(providerName, metrics.OutcomeCacheHit, start)
		return hit, nil
	}

	route, err := p.next.Route(ctx, origin, destination)
	if err != nil {
		return ports.SeaRoute{}, err
	}

	if err := p.cache.PutRoute(ctx, origin, destination, route); err != nil {
		log.Printf("sea route cache write failed: key=%s err=%v", key, err)
	}
	return route, nil
}
