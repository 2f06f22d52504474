package handlers

import (
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
	"log"
	"net/http"
)

// RailNetworkHandler serves the rail line geometry for map overlays.
type RailNetworkHandler struct {
	Source ports.RailNetworkSource
}

func (h *RailNetworkHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	if h.Source == nil {
		writeError(w, r, http.StatusNotFound, "rail network not configured")
		return
	}

	fc, err := h.Source.RailNetwork(r.Context())
	if err != nil {
		log.Printf("req_id=%s rail network failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusBadGateway, "rail network unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	writeJSON(w, r, http.StatusOK, fc)
}
