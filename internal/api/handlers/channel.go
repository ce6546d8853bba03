package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mlhuang/critterchat/internal/api/middleware"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/service"
)

type ChannelHandler struct {
	channels *service.ChannelService
	messages *service.MessageService
}

func NewChannelHandler(channels *service.ChannelService, messages *service.MessageService) *ChannelHandler {
	return &ChannelHandler{
		channels: channels,
		messages: messages,
	}
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channels.List(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"channels": channels})
}

type CreateChannelRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	channel, err := h.channels.Create(r.Context(), identity.Key, service.CreateChannelInput{
		ID:    req.ID,
		Name:  req.Name,
		Emoji: req.Emoji,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAdmin):
			http.Error(w, "Admin role required", http.StatusForbidden)
		case errors.Is(err, domain.ErrChannelExists):
			http.Error(w, "Channel already exists", http.StatusConflict)
		case errors.Is(err, domain.ErrInvalidChannel):
			http.Error(w, "Channel id and name are required", http.StatusBadRequest)
		default:
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(channel)
}

func (h *ChannelHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	messages, err := h.messages.List(r.Context(), channelID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			http.Error(w, "Channel not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"messages": messages})
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

// SendMessage posts to a channel; the send also refreshes the sender's
// freshness, exactly like the websocket path.
func (h *ChannelHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	channelID := chi.URLParam(r, "id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.Send(r.Context(), identity, channelID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			http.Error(w, "Message body is empty", http.StatusBadRequest)
		case errors.Is(err, domain.ErrChannelNotFound):
			http.Error(w, "Channel not found", http.StatusNotFound)
		default:
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msg)
}
