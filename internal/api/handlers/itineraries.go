package handlers

import (
	"context"
	"errors"
	"fmt"
	"intermodal-route-service/internal/api/dto"
	"intermodal-route-service/internal/domain"
	"intermodal-route-service/internal/services"
	"net/http"
)

// Speed bounds accepted from clients, in km/h.
var speedLimits = map[domain.TransportMode][2]float64{
	domain.ModeSea:  {10, 45},
	domain.ModeRail: {30, 100},
	domain.ModeRoad: {40, 110},
}

type ItineraryBuilder interface {
	Build(ctx context.Context, p domain.ItineraryParams) (*domain.Itinerary, error)
}

type ItineraryComparator interface {
	Compare(ctx context.Context, p domain.ItineraryParams) (*services.Comparison, error)
}

type WaypointResolver interface {
	Resolve(ctx context.Context, inputs ...services.PlaceInput) ([]domain.Waypoint, error)
}

// ItineraryHandler turns itinerary requests into builder parameters. Place
// resolution finishes before the builder runs.
type ItineraryHandler struct {
	Resolver   WaypointResolver
	Builder    ItineraryBuilder
	Comparator ItineraryComparator
}

func (h *ItineraryHandler) Build(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ItineraryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params, err := h.params(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "build itinerary", err)
		return
	}

	it, err := h.Builder.Build(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, "build itinerary", err)
		return
	}

	writeJSON(w, r, http.StatusOK, itineraryResponse(it))
}

func (h *ItineraryHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ItineraryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params, err := h.params(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "compare itineraries", err)
		return
	}

	cmp, err := h.Comparator.Compare(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, "compare itineraries", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ComparisonResponse{
		Primary:         itineraryResponse(cmp.Primary),
		Alternative:     itineraryResponse(cmp.Alternative),
		DeltaDistanceKm: cmp.DeltaDistanceKm,
		DeltaDurationH:  cmp.DeltaDurationH,
	})
}

// GeoJSON renders the itinerary as a FeatureCollection for map display.
func (h *ItineraryHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ItineraryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params, err := h.params(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "render itinerary", err)
		return
	}

	it, err := h.Builder.Build(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, "render itinerary", err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	writeJSON(w, r, http.StatusOK, services.RenderGeoJSON(it))
}

// params validates what it can locally, then resolves places.
func (h *ItineraryHandler) params(ctx context.Context, req dto.ItineraryRequest) (domain.ItineraryParams, error) {
	speeds, err := speedsFromRequest(req.Speeds)
	if err != nil {
		return domain.ItineraryParams{}, err
	}

	entry, err := domain.ParseEntryPort(req.EntryPort)
	if err != nil {
		return domain.ItineraryParams{}, err
	}

	places := []dto.PlaceRequest{req.Origin, req.Destination}
	roles := []string{"Origin", "Destination"}
	if req.Intermediate != nil {
		places = append(places, *req.Intermediate)
		roles = append(roles, "Intermediate node")
	}

	inputs := make([]services.PlaceInput, 0, len(places))
	for i, p := range places {
		in, err := placeInput(p, roles[i])
		if err != nil {
			return domain.ItineraryParams{}, err
		}
		inputs = append(inputs, in)
	}

	if h.Resolver == nil {
		return domain.ItineraryParams{}, errors.New("waypoint resolver is not configured")
	}
	waypoints, err := h.Resolver.Resolve(ctx, inputs...)
	if err != nil {
		return domain.ItineraryParams{}, err
	}

	p := domain.ItineraryParams{
		EntryPort:                      entry,
		Origin:                         waypoints[0],
		Destination:                    waypoints[1],
		DestinationIsInternationalPort: req.DestinationIsInternationalPort,
		UseRailCorridor:                req.UseRailCorridor,
		Speeds:                         speeds,
	}
	if len(waypoints) > 2 {
		p.Intermediate = &waypoints[2]
	}
	return p, nil
}

func placeInput(p dto.PlaceRequest, role string) (services.PlaceInput, error) {
	in := services.PlaceInput{Label: p.Label, Name: p.Name}
	if in.Label == "" && in.Name == "" {
		in.Label = role
	}

	switch {
	case p.Lat != nil && p.Lon != nil:
		c := domain.Coordinates{Lat: *p.Lat, Lon: *p.Lon}
		if err := c.Validate(); err != nil {
			return services.PlaceInput{}, fmt.Errorf("%s: %w", role, err)
		}
		in.Coordinates = &c
	case p.Lat != nil || p.Lon != nil:
		return services.PlaceInput{}, fmt.Errorf("%w: %s needs both lat and lon", domain.ErrInvalidCoordinate, role)
	}

	if p.Fallback != nil {
		in.Fallback = &domain.Coordinates{Lat: p.Fallback.Lat, Lon: p.Fallback.Lon}
	}
	return in, nil
}

func speedsFromRequest(req *dto.SpeedsRequest) (domain.Speeds, error) {
	s := domain.DefaultSpeeds()
	if req != nil {
		if req.Sea != nil {
			s.Sea = *req.Sea
		}
		if req.Rail != nil {
			s.Rail = *req.Rail
		}
		if req.Road != nil {
			s.Road = *req.Road
		}
	}

	if err := s.Validate(); err != nil {
		return domain.Speeds{}, err
	}
	for _, mode := range []domain.TransportMode{domain.ModeSea, domain.ModeRail, domain.ModeRoad} {
		v, lim := s.For(mode), speedLimits[mode]
		if v < lim[0] || v > lim[1] {
			return domain.Speeds{}, fmt.Errorf("%w: %s speed %v outside [%v, %v] km/h", domain.ErrInvalidSpeed, mode, v, lim[0], lim[1])
		}
	}
	return s, nil
}

func itineraryResponse(it *domain.Itinerary) dto.ItineraryResponse {
	res := dto.ItineraryResponse{
		Segments:          make([]dto.SegmentResponse, 0, len(it.Segments)),
		TotalDistanceKm:   it.TotalDistanceKm,
		TotalDurationH:    it.TotalDurationH,
		TotalDurationDays: it.TotalDurationDays(),
	}
	for _, s := range it.Segments {
		path := make([][]float64, 0, len(s.Path))
		for _, c := range s.Path {
			path = append(path, c.CoordsToList())
		}
		res.Segments = append(res.Segments, dto.SegmentResponse{
			Mode:       string(s.Mode),
			From:       s.From,
			To:         s.To,
			DistanceKm: s.DistanceKm,
			DurationH:  s.DurationH,
			Path:       path,
		})
	}
	return res
}
