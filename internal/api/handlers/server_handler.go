package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serverwatch/fivewatch/internal/monitoring"
)

// ServerHandler handles HTTP requests related to tracked servers.
type ServerHandler struct {
	monitor monitoring.Provider
}

// NewServerHandler creates a new ServerHandler.
func NewServerHandler(monitor monitoring.Provider) *ServerHandler {
	return &ServerHandler{monitor: monitor}
}

// GetAll lists the configured tracking set.
func (h *ServerHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.monitor.Servers())
}

// Get polls one server on demand and returns its latest known snapshot.
func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := h.monitor.FetchOrCached(id)
	if err != nil {
		if errors.Is(err, monitoring.ErrUnknownServer) {
			http.Error(w, "Server not tracked", http.StatusNotFound)
			return
		}
		http.Error(w, "No state available: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// TriggerPoll runs one polling round over all servers. The round runs in the
// background; the handler returns immediately.
func (h *ServerHandler) TriggerPoll(w http.ResponseWriter, r *http.Request) {
	go h.monitor.TriggerRound()
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"message": "Polling round started"})
}
