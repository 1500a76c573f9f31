package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/serverwatch/fivewatch/internal/models"
	"github.com/serverwatch/fivewatch/internal/monitoring"
)

// PlayerHandler handles HTTP requests against the player index.
type PlayerHandler struct {
	monitor monitoring.Provider
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(monitor monitoring.Provider) *PlayerHandler {
	return &PlayerHandler{monitor: monitor}
}

// Lookup returns the sighting history for an exact player name. The match
// is case-sensitive and the result is always an array.
func (h *PlayerHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing name parameter", http.StatusBadRequest)
		return
	}

	records := h.monitor.LookupPlayer(name)
	if records == nil {
		records = []models.PlayerRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
