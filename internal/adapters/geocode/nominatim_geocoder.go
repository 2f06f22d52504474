package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/httpx"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/platform/obs"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const nominatimProvider = "nominatim"

// NominatimGeocoder queries an OpenStreetMap Nominatim /search endpoint.
// Public instances require an identifying User-Agent.
type NominatimGeocoder struct {
	client  *httpx.Client
	baseURL string
	metrics *metrics.Collector
}

func NewNominatimGeocoder(baseURL string, timeout time.Duration, m *metrics.Collector, opts ...httpx.Option) *NominatimGeocoder {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts = append([]httpx.Option{httpx.WithHeader("User-Agent", "intermodal-route-service/1.0")}, opts...)

	return &NominatimGeocoder{
		client:  httpx.New(timeout, opts...),
		baseURL: baseURL,
		metrics: m,
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "nominatim.Geocode")(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Coordinates{}, errors.New("geocode: empty query")
	}

	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		g.metrics.ObserveProvider(nominatimProvider, outcome, start)
	}()

	endpoint := g.baseURL + "/search"
	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("format", "json")
		q.Set("limit", "1")
		q.Set("q", query)
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim %q: execute request: %w", query, err)
	}
	defer resp.Body.Close()

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim %q: decode response: %w", query, err)
	}
	if len(results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("nominatim %q: %w", query, ErrNoResults)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim %q: parse lat: %w", query, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim %q: parse lon: %w", query, err)
	}

	c := domain.Coordinates{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim %q: %w", query, err)
	}
	return c, nil
}
