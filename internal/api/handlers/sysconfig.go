package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mlhuang/critterchat/internal/api/middleware"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/service"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	store *directory.Store
	admin *service.AdminService
}

func NewSystemConfigHandler(store *directory.Store, admin *service.AdminService) *SystemConfigHandler {
	return &SystemConfigHandler{
		store: store,
		admin: admin,
	}
}

// Get is public: the login screen shows the app name before any session
// exists. Before bootstrap it reports the default.
func (h *SystemConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	appName := domain.DefaultAppName
	initialized := false

	cfg, err := h.store.SystemConfig(r.Context())
	switch {
	case err == nil:
		appName = cfg.AppName
		initialized = true
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"appName":     appName,
		"initialized": initialized,
	})
}

type RenameRequest struct {
	AppName string `json:"appName"`
}

func (h *SystemConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.AppName) == "" {
		http.Error(w, "App name is required", http.StatusBadRequest)
		return
	}

	cfg, err := h.admin.Rename(r.Context(), actor.Key, strings.TrimSpace(req.AppName))
	if err != nil {
		writeAdminError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"appName": cfg.AppName})
}
