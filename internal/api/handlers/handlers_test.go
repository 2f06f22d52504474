package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"intermodal-route-service/internal/adapters/dataset"
	"intermodal-route-service/internal/adapters/geocode"
	"intermodal-route-service/internal/adapters/searoute"
	"intermodal-route-service/internal/api/dto"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/ports"
	"intermodal-route-service/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var (
	hongKong = domain.Coordinates{Lat: 22.3, Lon: 114.2}
	miami    = domain.Coordinates{Lat: 25.77, Lon: -80.19}
)

type fixture struct {
	handler  *ItineraryHandler
	provider *searoute.MockProvider
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	network := domain.DefaultNetwork()
	provider := searoute.NewMockProvider([]searoute.MockPair{
		{From: hongKong, To: network.EntryPorts[domain.EntryPortSalinaCruz], DistanceKm: 14200},
		{From: hongKong, To: network.EntryPorts[domain.EntryPortCoatzacoalcos], DistanceKm: 16800},
	})

	builder, err := services.NewItineraryBuilder(provider, network, nil)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	comparator, err := services.NewItineraryComparator(builder)
	if err != nil {
		t.Fatalf("comparator: %v", err)
	}
	set, err := dataset.NewWaypointSet(map[string]domain.Coordinates{
		"Hong Kong": hongKong,
		"Miami":     miami,
	})
	if err != nil {
		t.Fatalf("waypoint set: %v", err)
	}

	return fixture{
		handler: &ItineraryHandler{
			Resolver:   &services.WaypointResolver{Waypoints: set, Geocoder: geocode.NewFallbackResolver(nil, 0, nil)},
			Builder:    builder,
			Comparator: comparator,
		},
		provider: provider,
	}
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/itineraries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

const hkToMiami = `{
	"entry_port": "Salina Cruz",
	"origin": {"name": "Hong Kong"},
	"destination": {"name": "Miami"},
	"destination_is_international_port": true,
	"use_rail_corridor": true
}`

func TestBuildItinerary(t *testing.T) {
	f := newFixture(t)

	rec := post(f.handler.Build, hkToMiami)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var res dto.ItineraryResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(res.Segments))
	}
	modes := []string{}
	for _, s := range res.Segments {
		modes = append(modes, s.Mode)
	}
	if strings.Join(modes, ",") != "sea,rail,rail,sea" {
		t.Fatalf("modes = %v", modes)
	}
	if res.Segments[0].DurationH != 14200.0/30 {
		t.Fatalf("sea leg duration = %v, want default sea speed", res.Segments[0].DurationH)
	}
	if res.Segments[0].Path[0][0] != hongKong.Lon {
		t.Fatalf("path must be [lon, lat], got %v", res.Segments[0].Path[0])
	}
	if res.TotalDurationDays != res.TotalDurationH/24 {
		t.Fatalf("days = %v", res.TotalDurationDays)
	}
}

func TestBuildItineraryErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{
			name:   "speed below api range",
			body:   `{"entry_port":"Salina Cruz","origin":{"name":"Hong Kong"},"destination":{"name":"Miami"},"speeds":{"sea":5}}`,
			status: http.StatusBadRequest,
			reason: "invalid speed",
		},
		{
			name:   "zero speed",
			body:   `{"entry_port":"Salina Cruz","origin":{"name":"Hong Kong"},"destination":{"name":"Miami"},"speeds":{"rail":0}}`,
			status: http.StatusBadRequest,
			reason: "invalid speed",
		},
		{
			name:   "unknown entry port",
			body:   `{"entry_port":"Veracruz","origin":{"name":"Hong Kong"},"destination":{"name":"Miami"}}`,
			status: http.StatusBadRequest,
			reason: "unknown entry port",
		},
		{
			name:   "latitude out of range",
			body:   `{"entry_port":"Salina Cruz","origin":{"lat":95,"lon":114.2},"destination":{"name":"Miami"}}`,
			status: http.StatusBadRequest,
			reason: "invalid coordinate",
		},
		{
			name:   "half a coordinate",
			body:   `{"entry_port":"Salina Cruz","origin":{"lat":22.3},"destination":{"name":"Miami"}}`,
			status: http.StatusBadRequest,
			reason: "invalid coordinate",
		},
		{
			name:   "unknown waypoint",
			body:   `{"entry_port":"Salina Cruz","origin":{"name":"Atlantis"},"destination":{"name":"Miami"}}`,
			status: http.StatusBadRequest,
			reason: "unknown waypoint",
		},
		{
			name:   "no sea route",
			body:   `{"entry_port":"Salina Cruz","origin":{"lat":-15.8,"lon":-69.4},"destination":{"name":"Miami"}}`,
			status: http.StatusBadGateway,
			reason: "route unavailable",
		},
		{
			name:   "unknown field",
			body:   `{"entry_port":"Salina Cruz","ship":"Ever Given"}`,
			status: http.StatusBadRequest,
			reason: "invalid json body",
		},
		{
			name:   "two objects",
			body:   hkToMiami + hkToMiami,
			status: http.StatusBadRequest,
			reason: "only one JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := post(f.handler.Build, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.status, rec.Body.String())
			}
			var res map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.Contains(res["error"], tt.reason) {
				t.Fatalf("error = %q, want it to mention %q", res["error"], tt.reason)
			}
		})
	}
}

func TestBuildRejectsSpeedBeforeProviderCall(t *testing.T) {
	f := newFixture(t)
	body := `{"entry_port":"Salina Cruz","origin":{"name":"Hong Kong"},"destination":{"name":"Miami"},"speeds":{"road":0}}`
	if rec := post(f.handler.Build, body); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.provider.Calls() != 0 {
		t.Fatalf("provider called %d times", f.provider.Calls())
	}
}

func TestBuildMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.Build(rec, httptest.NewRequest(http.MethodGet, "/itineraries", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("status = %d allow = %q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestCompareItineraries(t *testing.T) {
	f := newFixture(t)

	rec := post(f.handler.Compare, hkToMiami)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var res dto.ComparisonResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Primary.Segments) != 4 || len(res.Alternative.Segments) != 2 {
		t.Fatalf("segments = %d / %d", len(res.Primary.Segments), len(res.Alternative.Segments))
	}
	if res.Alternative.Segments[1].Mode != "road" {
		t.Fatalf("alternative final leg = %q", res.Alternative.Segments[1].Mode)
	}
	if res.DeltaDurationH != res.Alternative.TotalDurationH-res.Primary.TotalDurationH {
		t.Fatalf("delta = %v", res.DeltaDurationH)
	}
	if f.provider.Calls() != 1 {
		t.Fatalf("expected one provider call, got %d", f.provider.Calls())
	}
}

func TestItineraryGeoJSON(t *testing.T) {
	f := newFixture(t)

	rec := post(f.handler.GeoJSON, hkToMiami)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("content type = %q", ct)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	lines := 0
	for _, f := range fc.Features {
		if f.Geometry.Type == "LineString" {
			lines++
		}
	}
	if fc.Type != "FeatureCollection" || lines != 4 {
		t.Fatalf("type = %q lines = %d", fc.Type, lines)
	}
}

func TestListWaypoints(t *testing.T) {
	set, err := dataset.NewWaypointSet(map[string]domain.Coordinates{
		"Salina Cruz":   {Lat: 16.17, Lon: -95.2},
		"Coatzacoalcos": {Lat: 18.15, Lon: -94.43},
	})
	if err != nil {
		t.Fatalf("waypoint set: %v", err)
	}
	h := &WaypointHandler{Waypoints: set}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/waypoints", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var res dto.ListWaypointsResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Waypoints) != 2 || res.Waypoints[0].Name != "Coatzacoalcos" {
		t.Fatalf("waypoints = %+v", res.Waypoints)
	}
}

type stubRail struct {
	fc  *ports.RailNetwork
	err error
}

func (s stubRail) RailNetwork(ctx context.Context) (*ports.RailNetwork, error) { return s.fc, s.err }

func TestRailNetwork(t *testing.T) {
	tests := []struct {
		name   string
		source ports.RailNetworkSource
		status int
	}{
		{name: "served", source: stubRail{fc: &ports.RailNetwork{Type: "FeatureCollection", Features: []json.RawMessage{}}}, status: http.StatusOK},
		{name: "upstream failure", source: stubRail{err: errors.New("arcgis down")}, status: http.StatusBadGateway},
		{name: "not configured", source: nil, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &RailNetworkHandler{Source: tt.source}
			rec := httptest.NewRecorder()
			h.Get(rec, httptest.NewRequest(http.MethodGet, "/rail-network", nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{}).Get(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got dto.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ok" || got.Waypoints != 0 || got.RailNetwork {
		t.Fatalf("health = %+v, want bare ok", got)
	}

	set, err := dataset.NewWaypointSet(map[string]domain.Coordinates{"Hong Kong": hongKong, "Miami": miami})
	if err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	h := &HealthHandler{Waypoints: set, RailNetwork: stubRail{}}
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	got = dto.HealthResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Waypoints != 2 || !got.RailNetwork {
		t.Fatalf("health = %+v", got)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
