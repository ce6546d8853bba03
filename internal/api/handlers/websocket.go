package handlers

import (
	"errors"
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/service"
	"github.com/mlhuang/critterchat/internal/session"
	"github.com/mlhuang/critterchat/internal/websocket"
	"go.uber.org/zap"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub      *websocket.Hub
	store    *directory.Store
	sessions *service.SessionService
	resolver *service.ResolverService
	presence *service.PresenceService
	messages *service.MessageService
	manager  *session.Manager
	log      *zap.SugaredLogger
}

func NewWebSocketHandler(hub *websocket.Hub, store *directory.Store, services *service.Services, manager *session.Manager, log *zap.SugaredLogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		store:    store,
		sessions: services.Session,
		resolver: services.Resolver,
		presence: services.Presence,
		messages: services.Message,
		manager:  manager,
		log:      log,
	}
}

// Handle upgrades an authenticated, resolved session to the event stream.
// The connection owns a session runner: its lifetime is the lifetime of
// the continuous validation subscription and the heartbeat.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	sessionID, err := h.sessions.Validate(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Identity key required", http.StatusUnauthorized)
		return
	}

	identity, err := h.store.GetIdentity(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			http.Error(w, "Identity not found", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if identity.SessionID != sessionID {
		http.Error(w, "Another session claimed this identity", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	runner := session.NewRunner(session.RunnerConfig{
		Store:     h.store,
		Toucher:   h.presence,
		SessionID: sessionID,
		Identity:  identity,
		Logger:    h.log,
	})
	h.manager.Put(sessionID, runner)

	client := websocket.NewClient(h.hub, conn, runner, h.messages, h.log)
	client.OnClose(func() {
		h.manager.Remove(sessionID, runner)
	})
	h.hub.Register(client)

	go client.WritePump()
	go client.SessionPump()
	go client.ReadPump()
}
