package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mlhuang/critterchat/internal/api/middleware"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/service"
	"github.com/mlhuang/critterchat/internal/session"
)

const timeLayout = time.RFC3339

type AuthHandler struct {
	resolver *service.ResolverService
	sessions *service.SessionService
	manager  *session.Manager
}

func NewAuthHandler(resolver *service.ResolverService, sessions *service.SessionService, manager *session.Manager) *AuthHandler {
	return &AuthHandler{
		resolver: resolver,
		sessions: sessions,
		manager:  manager,
	}
}

type LoginRequest struct {
	Symbols     []string `json:"symbols"`
	PIN         string   `json:"pin"`
	DisplayName string   `json:"displayName"`
}

type IdentityResponse struct {
	Key         string       `json:"key"`
	Symbols     []string     `json:"symbols"`
	DisplayName string       `json:"displayName"`
	Role        domain.Role  `json:"role"`
	AvatarURL   string       `json:"avatarUrl,omitempty"`
	Theme       domain.Theme `json:"theme"`
}

type LoginResponse struct {
	Identity     IdentityResponse `json:"identity"`
	IsNewAccount bool             `json:"isNewAccount"`
}

func identityResponse(identity *domain.Identity) IdentityResponse {
	return IdentityResponse{
		Key:         identity.Key,
		Symbols:     identity.SymbolList(),
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		AvatarURL:   identity.AvatarURL,
		Theme:       identity.Theme,
	}
}

// Login resolves the symbol triple plus PIN against the directory: an
// existing key logs in, a novel key creates an account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.resolver.Resolve(r.Context(), service.ResolveInput{
		Symbols:     req.Symbols,
		PIN:         req.PIN,
		DisplayName: req.DisplayName,
		SessionID:   sessionID,
	})
	if err != nil {
		writeResolveError(w, err)
		return
	}

	resp := LoginResponse{
		Identity:     identityResponse(result.Identity),
		IsNewAccount: result.IsNewAccount,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type ResumeRequest struct {
	Key string `json:"key"`
}

// Resume silently re-authenticates the locally cached key. It only works
// while the caller's session is still the one bound to the record.
func (h *AuthHandler) Resume(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	identity, err := h.resolver.Resume(r.Context(), req.Key, sessionID)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(identityResponse(identity))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.manager.Stop(sessionID)

	if err := h.sessions.End(r.Context(), sessionID); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(identityResponse(identity))
}

func writeResolveError(w http.ResponseWriter, err error) {
	var banned *domain.BannedError
	switch {
	case errors.Is(err, domain.ErrInvalidCredential):
		http.Error(w, "Wrong PIN", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrDisplayNameRequired):
		http.Error(w, "Display name required for a new key", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidKey), errors.Is(err, domain.ErrInvalidPIN):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &banned):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{
			"error":    "kicked",
			"unlockAt": banned.Until.UTC().Format(timeLayout),
		})
	case errors.Is(err, domain.ErrSessionSuperseded):
		http.Error(w, "Another session claimed this identity", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrIdentityNotFound):
		http.Error(w, "Identity not found", http.StatusNotFound)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
