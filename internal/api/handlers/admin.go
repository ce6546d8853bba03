package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mlhuang/critterchat/internal/api/middleware"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/service"
)

type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type KickRequest struct {
	Key     string `json:"key"`
	Minutes int    `json:"minutes"`
}

// Kick temporarily bars a member. The target is not logged out; their
// session shows the unlock time until the ban elapses.
func (h *AdminHandler) Kick(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req KickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Minutes <= 0 {
		http.Error(w, "Kick duration must be positive", http.StatusBadRequest)
		return
	}

	target, err := h.admin.Kick(r.Context(), actor.Key, req.Key, time.Duration(req.Minutes)*time.Minute)
	if err != nil {
		writeAdminError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"key":      target.Key,
		"unlockAt": target.BannedUntil.UTC().Format(timeLayout),
	})
}

type UnbanRequest struct {
	Key string `json:"key"`
}

func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UnbanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.admin.Unban(r.Context(), actor.Key, req.Key); err != nil {
		writeAdminError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAdmin):
		http.Error(w, "Admin role required", http.StatusForbidden)
	case errors.Is(err, domain.ErrIdentityNotFound):
		http.Error(w, "Identity not found", http.StatusNotFound)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
