package handlers

import (
	"intermodal-route-service/internal/api/dto"
	"intermodal-route-service/internal/ports"
	"net/http"
)

// HealthHandler reports liveness along with what the process loaded at
// startup. A zero-valued handler is still live.
type HealthHandler struct {
	Waypoints   ports.Waypoints
	RailNetwork ports.RailNetworkSource
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	res := dto.HealthResponse{
		Status:      "ok",
		RailNetwork: h.RailNetwork != nil,
	}
	if h.Waypoints != nil {
		res.Waypoints = len(h.Waypoints.Names())
	}
	writeJSON(w, r, http.StatusOK, res)
}
