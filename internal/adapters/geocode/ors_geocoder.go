// Package geocode resolves free-text place names to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"intermodal-route-service/internal/adapters/cache"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/httpx"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrNoResults is returned when the backend knows nothing about the query.
var ErrNoResults = errors.New("no geocode results")

const orsProvider = "ors_geocode"

// ORSGeocoder queries the OpenRouteService /geocode/search endpoint.
// Results are stored under the normalized query when a cache is configured.
type ORSGeocoder struct {
	client  *httpx.Client
	baseURL string
	country string
	cache   ports.GeocodeCache
	metrics *metrics.Collector
}

func NewORSGeocoder(
	baseURL string,
	apiKey string,
	country string,
	timeout time.Duration,
	c ports.GeocodeCache,
	m *metrics.Collector,
	opts ...httpx.Option,
) (*ORSGeocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ors api key is empty")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openrouteservice.org"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts = append([]httpx.Option{httpx.WithHeader("Authorization", apiKey)}, opts...)

	return &ORSGeocoder{
		client:  httpx.New(timeout, opts...),
		baseURL: baseURL,
		country: strings.TrimSpace(country),
		cache:   c,
		metrics: m,
	}, nil
}

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (g *ORSGeocoder) Geocode(ctx context.Context, query string) (_ domain.Coordinates, err error) {
	ctx, done := obs.Start(ctx, "ors.Geocode")
	defer done(&err)

	norm := cache.NormalizeQuery(query)
	if norm == "" {
		return domain.Coordinates{}, errors.New("geocode: empty query")
	}

	start := time.Now()

	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, []string{norm})
		if err != nil {
			log.Printf("geocode cache read failed: query=%q err=%v", norm, err)
		} else if c, ok := hits[norm]; ok {
			g.metrics.ObserveProvider(orsProvider, metrics.OutcomeCacheHit, start)
			return c, nil
		}
	}

	c, err := g.search(ctx, norm)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	g.metrics.ObserveProvider(orsProvider, outcome, start)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if g.cache != nil {
		if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			log.Printf("geocode cache write failed: query=%q err=%v", norm, err)
		}
	}

	return c, nil
}

func (g *ORSGeocoder) search(ctx context.Context, norm string) (domain.Coordinates, error) {
	endpoint := g.baseURL + "/geocode/search"

	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", "1")
		if g.country != "" {
			q.Set("boundary.country", g.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: execute request: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded orsGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: decode response: %w", norm, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, ErrNoResults)
	}

	c, err := domain.FromLonLat(decoded.Features[0].Geometry.Coordinates)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, err)
	}
	return c, nil
}
