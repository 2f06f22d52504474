package searoute

import (
	"context"
	"errors"
	"intermodal-route-service/internal/adapters/cache"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/platform/httpx"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/ports"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	hongKong   = domain.Coordinates{Lat: 22.3, Lon: 114.2}
	salinaCruz = domain.Coordinates{Lat: 16.17, Lon: -95.20}
)

const featureBody = `{
	"type": "Feature",
	"geometry": {"type": "LineString", "coordinates": [[114.2, 22.3], [150.0, 10.0], [-95.2, 16.17]]},
	"properties": {"length": 14250.5, "units": "km"}
}`

func TestLonLatParamOrder(t *testing.T) {
	if got := lonLatParam(salinaCruz); got != "-95.2,16.17" {
		t.Fatalf("lonLatParam = %q, want lon first", got)
	}
}

func TestHTTPProviderRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/route" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("origin") != "114.2,22.3" {
			t.Errorf("origin = %q, want lon,lat", q.Get("origin"))
		}
		if q.Get("destination") != "-95.2,16.17" {
			t.Errorf("destination = %q, want lon,lat", q.Get("destination"))
		}
		if q.Get("units") != "km" {
			t.Errorf("units = %q", q.Get("units"))
		}
		_, _ = w.Write([]byte(featureBody))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewCollector(reg)
	if err != nil {
		t.Fatalf("collector: %v", err)
	}

	p, err := NewHTTPProvider(srv.URL+"/", time.Second, m)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	route, err := p.Route(context.Background(), hongKong, salinaCruz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.DistanceKm != 14250.5 {
		t.Fatalf("distance = %v", route.DistanceKm)
	}
	if len(route.Geometry) != 3 || route.Geometry[0] != hongKong || route.Geometry[2] != salinaCruz {
		t.Fatalf("geometry not decoded as lon/lat pairs: %v", route.Geometry)
	}
	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues(providerName, metrics.OutcomeOK)); got != 1 {
		t.Fatalf("ok requests = %v", got)
	}
}

func TestHTTPProviderFailuresAreRouteUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"error":"no route"}`},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, body: `{}`},
		{name: "empty geometry", status: http.StatusOK, body: `{"type":"Feature","geometry":{"coordinates":[]},"properties":{"length":0}}`},
		{name: "bad json", status: http.StatusOK, body: `{`},
		{name: "unknown units", status: http.StatusOK, body: `{"geometry":{"coordinates":[[0,0],[1,1]]},"properties":{"length":1,"units":"furlong"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := NewHTTPProvider(srv.URL, time.Second, nil)
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}
			_, err = p.Route(context.Background(), hongKong, salinaCruz)
			if !errors.Is(err, domain.ErrRouteUnavailable) {
				t.Fatalf("expected ErrRouteUnavailable, got %v", err)
			}
		})
	}
}

func TestHTTPProviderRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(featureBody))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, time.Second, nil, httpx.WithRetry(4, time.Millisecond))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := p.Route(context.Background(), hongKong, salinaCruz); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := hits.Load(); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestHTTPProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, 50*time.Millisecond, nil, httpx.WithRetry(1, time.Millisecond))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	_, err = p.Route(context.Background(), hongKong, salinaCruz)
	if !errors.Is(err, domain.ErrRouteUnavailable) {
		t.Fatalf("expected ErrRouteUnavailable on timeout, got %v", err)
	}
}

func TestHTTPProviderRejectsInvalidCoordinates(t *testing.T) {
	p, err := NewHTTPProvider("http://127.0.0.1:0", time.Second, nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	_, err = p.Route(context.Background(), domain.Coordinates{Lat: 120}, salinaCruz)
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if errors.Is(err, domain.ErrRouteUnavailable) {
		t.Fatalf("invalid input reported as route unavailable: %v", err)
	}
}

func TestToSeaRouteConvertsUnits(t *testing.T) {
	var r routeResponse
	r.Geometry.Coordinates = [][]float64{{0, 0}, {1, 0}}
	r.Properties.Length = 100
	r.Properties.Units = "naut"

	route, err := toSeaRoute(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(route.DistanceKm-185.2) > 1e-9 {
		t.Fatalf("distance = %v, want 185.2", route.DistanceKm)
	}
}

type slowProvider struct {
	calls atomic.Int32
	err   error
}

func (s *slowProvider) Route(ctx context.Context, o, d domain.Coordinates) (ports.SeaRoute, error) {
	s.calls.Add(1)
	time.Sleep(20 * time.Millisecond)
	if s.err != nil {
		return ports.SeaRoute{}, s.err
	}
	return ports.SeaRoute{DistanceKm: 42, Geometry: []domain.Coordinates{o, d}}, nil
}

func TestCachedProviderSingleFlightAndHit(t *testing.T) {
	next := &slowProvider{}
	reg := prometheus.NewRegistry()
	m, err := metrics.NewCollector(reg)
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	p, err := NewCachedProvider(next, cache.NewMemorySeaRouteCache(), m)
	if err != nil {
		t.Fatalf("new cached provider: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := p.Route(context.Background(), hongKong, salinaCruz)
			if err != nil || r.DistanceKm != 42 {
				t.Errorf("route = %+v, err = %v", r, err)
			}
		}()
	}
	wg.Wait()

	if n := next.calls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}

	if _, err := p.Route(context.Background(), hongKong, salinaCruz); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := next.calls.Load(); n != 1 {
		t.Fatalf("expected cache hit, got %d upstream calls", n)
	}
	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues(providerName, metrics.OutcomeCacheHit)); got != 1 {
		t.Fatalf("cache hits = %v", got)
	}

	// Reverse direction is a different key.
	if _, err := p.Route(context.Background(), salinaCruz, hongKong); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := next.calls.Load(); n != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", n)
	}
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	next := &slowProvider{err: domain.ErrRouteUnavailable}
	p, err := NewCachedProvider(next, nil, nil)
	if err != nil {
		t.Fatalf("new cached provider: %v", err)
	}

	if _, err := p.Route(context.Background(), hongKong, salinaCruz); !errors.Is(err, domain.ErrRouteUnavailable) {
		t.Fatalf("expected ErrRouteUnavailable, got %v", err)
	}
	next.err = nil
	if _, err := p.Route(context.Background(), hongKong, salinaCruz); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

// gatedProvider blocks until release is closed, or fails early if its
// context ends first.
type gatedProvider struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedProvider) Route(ctx context.Context, o, d domain.Coordinates) (ports.SeaRoute, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
		return ports.SeaRoute{DistanceKm: 42, Geometry: []domain.Coordinates{o, d}}, nil
	case <-ctx.Done():
		return ports.SeaRoute{}, ctx.Err()
	}
}

func TestCachedProviderCancelledCallerDoesNotFailOthers(t *testing.T) {
	next := &gatedProvider{entered: make(chan struct{}), release: make(chan struct{})}
	p, err := NewCachedProvider(next, nil, nil)
	if err != nil {
		t.Fatalf("new cached provider: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := p.Route(ctx, hongKong, salinaCruz)
		first <- err
	}()

	<-next.entered
	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrRouteUnavailable) {
		t.Fatalf("cancelled caller err = %v, want canceled route unavailable", err)
	}

	type result struct {
		route ports.SeaRoute
		err   error
	}
	second := make(chan result, 1)
	go func() {
		r, err := p.Route(context.Background(), hongKong, salinaCruz)
		second <- result{r, err}
	}()
	close(next.release)

	res := <-second
	if res.err != nil || res.route.DistanceKm != 42 {
		t.Fatalf("live caller got route = %+v, err = %v", res.route, res.err)
	}
	if n := next.calls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider([]MockPair{{From: hongKong, To: salinaCruz, DistanceKm: 14000}})

	r, err := p.Route(context.Background(), hongKong, salinaCruz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DistanceKm != 14000 || len(r.Geometry) != 2 {
		t.Fatalf("route = %+v", r)
	}
	if _, err := p.Route(context.Background(), salinaCruz, hongKong); !errors.Is(err, domain.ErrRouteUnavailable) {
		t.Fatalf("expected ErrRouteUnavailable for unknown pair, got %v", err)
	}
	if p.Calls() != 2 {
		t.Fatalf("Calls = %d", p.Calls())
	}
}
