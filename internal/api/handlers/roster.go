package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mlhuang/critterchat/internal/service"
)

type RosterHandler struct {
	presence *service.PresenceService
}

func NewRosterHandler(presence *service.PresenceService) *RosterHandler {
	return &RosterHandler{presence: presence}
}

// List returns all known members, online first.
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.presence.Roster(r.Context(), time.Now())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"members": members})
}
