package cache

import (
	"context"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/ports"
	"sync"
)

// MemorySeaRouteCache keeps routes for the lifetime of the process.
type MemorySeaRouteCache struct {
	mu     sync.RWMutex
	routes map[string]ports.SeaRoute
}

func NewMemorySeaRouteCache() *MemorySeaRouteCache {
	return &MemorySeaRouteCache{routes: make(map[string]ports.SeaRoute)}
}

func (m *MemorySeaRouteCache) GetRoute(_ context.Context, origin, destination domain.Coordinates) (ports.SeaRoute, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routes[CoordinateKey(origin)+"|"+CoordinateKey(destination)]
	return r, ok, nil
}

func (m *MemorySeaRouteCache) PutRoute(_ context.Context, origin, destination domain.Coordinates, route ports.SeaRoute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[CoordinateKey(origin)+"|"+CoordinateKey(destination)] = route
	return nil
}
