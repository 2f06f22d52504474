package handlers

import (
	"intermodal-route-service/internal/api/dto"
	"intermodal-route-service/internal/ports"
	"net/http"
)

// WaypointHandler exposes the loaded place dataset read-only.
type WaypointHandler struct {
	Waypoints ports.Waypoints
}

func (h *WaypointHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	res := dto.ListWaypointsResponse{Waypoints: []dto.WaypointResponse{}}
	if h.Waypoints != nil {
		for _, name := range h.Waypoints.Names() {
			c, ok := h.Waypoints.Lookup(name)
			if !ok {
				continue
			}
			res.Waypoints = append(res.Waypoints, dto.WaypointResponse{Name: name, Lat: c.Lat, Lon: c.Lon})
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}
