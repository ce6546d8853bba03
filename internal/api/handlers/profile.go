package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mlhuang/critterchat/internal/api/middleware"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type ProfileUpdateRequest struct {
	PIN       *string       `json:"pin,omitempty"`
	AvatarURL *string       `json:"avatarUrl,omitempty"`
	Theme     *domain.Theme `json:"theme,omitempty"`
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.profiles.Update(r.Context(), identity.Key, service.ProfileUpdateInput{
		PIN:       req.PIN,
		AvatarURL: req.AvatarURL,
		Theme:     req.Theme,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPIN) {
			http.Error(w, "PIN must be 4 to 8 digits", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(identityResponse(updated))
}
