package geocode

import (
	"context"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
	"log"
	"strings"
	"time"
)

// FallbackResolver turns a fallible Geocoder into a GeocodeResolver.
// Empty queries, provider errors, timeouts and out-of-range answers all
// yield the caller's fallback coordinate.
type FallbackResolver struct {
	geocoder ports.Geocoder
	timeout  time.Duration
	metrics  *metrics.Collector
}

// NewFallbackResolver accepts a nil geocoder, in which case every query
// resolves to its fallback.
func NewFallbackResolver(g ports.Geocoder, timeout time.Duration, m *metrics.Collector) *FallbackResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FallbackResolver{geocoder: g, timeout: timeout, metrics: m}
}

func (r *FallbackResolver) Resolve(ctx context.Context, query string, fallback domain.Coordinates) domain.Coordinates {
	if r.geocoder == nil || strings.TrimSpace(query) == "" {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	c, err := r.geocoder.Geocode(ctx, query)
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		log.Printf("req_id=%s geocode fallback: query=%q fallback=%s err=%v", obs.RequestID(ctx), query, fallback, err)
		r.metrics.GeocodeFallback()
		return fallback
	}

	return c
}
