package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/service"
	"go.uber.org/zap"
)

// Hub fans the directory store's change feed out to every connected
// client: roster recomputations on identity writes, plus new messages,
// channels and config renames. Per-session state never flows through the
// hub; each client consumes its own session runner.
type Hub struct {
	store    *directory.Store
	presence *service.PresenceService
	log      *zap.SugaredLogger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}
	stopped    bool
	unsub      directory.Unsubscribe
	mu         sync.RWMutex
}

func NewHub(store *directory.Store, presence *service.PresenceService, log *zap.SugaredLogger) *Hub {
	return &Hub{
		store:      store,
		presence:   presence,
		log:        log,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	events, unsub := h.store.Subscribe()
	h.mu.Lock()
	h.unsub = unsub
	h.mu.Unlock()

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			unsub()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if !h.stopped {
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mu.Unlock()

		case ev, ok := <-events:
			if !ok {
				return
			}
			h.handleEvent(ev)
		}
	}
}

// Stop gracefully shuts down the hub. It blocks until Run has exited.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) handleEvent(ev directory.Event) {
	switch ev.Type {
	case directory.EventIdentityCreated, directory.EventIdentityUpdated:
		h.broadcastRoster()
	case directory.EventMessageCreated:
		h.broadcast(MessageTypeMessageNew, MessageNewPayload{Message: ev.Message})
	case directory.EventChannelCreated:
		h.broadcast(MessageTypeChannelNew, ChannelNewPayload{Channel: ev.Channel})
	case directory.EventConfigUpdated:
		h.broadcast(MessageTypeConfigUpdate, ConfigUpdatePayload{AppName: ev.Config.AppName})
	}
}

func (h *Hub) broadcastRoster() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	members, err := h.presence.Roster(ctx, time.Now())
	if err != nil {
		h.log.Errorw("roster recompute failed", "error", err)
		return
	}
	h.broadcast(MessageTypeRosterUpdate, RosterUpdatePayload{Members: members})
}

func (h *Hub) broadcast(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		h.log.Errorw("marshal broadcast failed", "type", msgType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.Send(msg)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister safely removes a client, tolerating a hub that is already
// stopping.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.unregister <- client:
	default:
	}
}
