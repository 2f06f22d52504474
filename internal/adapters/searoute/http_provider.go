package searoute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/httpx"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const providerName = "searoute"

// HTTPProvider implements SeaRouteProvider against a SeaRoute-compatible HTTP
// service. The service answers GET /route with a GeoJSON LineString feature
// whose properties carry the route length.
//
// The provider is safe for concurrent use.
type HTTPProvider struct {
	client  *httpx.Client
	baseURL string
	timeout time.Duration
	metrics *metrics.Collector
}

func NewHTTPProvider(
	baseURL string,
	timeout time.Duration,
	m *metrics.Collector,
	opts ...httpx.Option,
) (*HTTPProvider, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("searoute base url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("searoute base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &HTTPProvider{
		client:  httpx.New(timeout, opts...),
		baseURL: baseURL,
		timeout: timeout,
		metrics: m,
	}, nil
}

type routeResponse struct {
	Type     string `json:"type"`
	Geometry struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Length float64 `json:"length"`
		Units  string  `json:"units"`
	} `json:"properties"`
}

// lonLatParam is the only place where named coordinates are turned into the
// service's "lon,lat" axis order. Swapping the order here does not fail; it
// silently routes somewhere else.
func lonLatParam(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// Route returns the navigable sea distance in kilometres and its path geometry.
// Invalid input coordinates fail with domain.ErrInvalidCoordinate before any
// request is made. Every failure after that wraps domain.ErrRouteUnavailable.
func (p *HTTPProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ ports.SeaRoute, err error) {
	defer obs.Time(ctx, "searoute.Route")(&err)

	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		p.metrics.ObserveProvider(providerName, outcome, start)
	}()

	if err := origin.Validate(); err != nil {
		return ports.SeaRoute{}, fmt.Errorf("sea route origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return ports.SeaRoute{}, fmt.Errorf("sea route destination: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := p.baseURL + "/route"
	makeReq := func() (*http.Request, error) {
		req, err := p.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("origin", lonLatParam(origin))
		q.Set("destination", lonLatParam(destination))
		q.Set("units", "km")
		req.URL.RawQuery = q.Encode()
		return req, nil
	}

	resp, err := p.client.DoWithRetry(ctx, makeReq)
	if err != nil {
		return ports.SeaRoute{}, fmt.Errorf("%w: %s -> %s: %w", domain.ErrRouteUnavailable, origin, destination, err)
	}
	defer resp.Body.Close()

	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.SeaRoute{}, fmt.Errorf("%w: decode response: %w", domain.ErrRouteUnavailable, err)
	}

	return toSeaRoute(decoded)
}

func toSeaRoute(r routeResponse) (ports.SeaRoute, error) {
	if len(r.Geometry.Coordinates) < 2 {
		return ports.SeaRoute{}, fmt.Errorf("%w: response has %d path points", domain.ErrRouteUnavailable, len(r.Geometry.Coordinates))
	}

	factor, err := kmPerUnit(r.Properties.Units)
	if err != nil {
		return ports.SeaRoute{}, fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, err)
	}
	km := r.Properties.Length * factor
	if !(km >= 0) {
		return ports.SeaRoute{}, fmt.Errorf("%w: invalid length %v", domain.ErrRouteUnavailable, r.Properties.Length)
	}

	geometry := make([]domain.Coordinates, 0, len(r.Geometry.Coordinates))
	for i, pair := range r.Geometry.Coordinates {
		c, err := domain.FromLonLat(pair)
		if err != nil {
			return ports.SeaRoute{}, fmt.Errorf("%w: path point %d: %w", domain.ErrRouteUnavailable, i, err)
		}
		geometry = append(geometry, c)
	}

	return ports.SeaRoute{DistanceKm: km, Geometry: geometry}, nil
}

func kmPerUnit(units string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "", "km":
		return 1, nil
	case "m":
		return 0.001, nil
	case "mi":
		return 1.609344, nil
	case "naut", "nm":
		return 1.852, nil
	}
	return 0, fmt.Errorf("unsupported length units %q", units)
}
