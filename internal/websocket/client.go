package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/service"
	"github.com/mlhuang/critterchat/internal/session"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one websocket connection bound to one session runner. The
// runner's updates stream renders the session; the hub streams everything
// shared.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	runner   *session.Runner
	messages *service.MessageService
	log      *zap.SugaredLogger

	closeOnce   sync.Once
	cleanupOnce sync.Once
	cleanup     func()
}

func NewClient(hub *Hub, conn *websocket.Conn, runner *session.Runner, messages *service.MessageService, log *zap.SugaredLogger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		runner:   runner,
		messages: messages,
		log:      log,
	}
}

// OnClose registers a teardown hook run exactly once when the connection
// ends, however it ends.
func (c *Client) OnClose(fn func()) {
	c.cleanup = fn
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.runner.Stop()
		c.conn.Close()
		c.runCleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warnw("websocket read failed", "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warnw("unmarshal client message failed", "error", err)
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SessionPump forwards the runner's updates to the connection. It exits
// on the terminal update and closes the socket so the pumps unwind.
func (c *Client) SessionPump() {
	for update := range c.runner.Updates() {
		msg, err := NewMessage(MessageTypeStateSync, StateSyncPayload{
			Model:  update.Model,
			Reason: update.Reason,
		})
		if err != nil {
			c.log.Errorw("marshal state sync failed", "error", err)
			continue
		}
		c.Send(msg)

		if update.Terminal {
			// Give the write pump a moment to flush the final state.
			time.Sleep(100 * time.Millisecond)
			c.conn.Close()
			return
		}
	}
}

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSyncState:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.runner.Sync(ctx)

	case MessageTypeSendMessage:
		var payload SendMessagePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("INVALID_PAYLOAD", "Invalid send message payload")
			return
		}
		c.handleSend(payload)
	}
}

func (c *Client) handleSend(payload SendMessagePayload) {
	if c.runner.State() != domain.StateActive {
		c.sendError("NOT_ACTIVE", "Session is not active")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.messages.Send(ctx, c.runner.Identity(), payload.ChannelID, payload.Body); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			c.sendError("EMPTY_MESSAGE", "Message body is empty")
		case errors.Is(err, domain.ErrChannelNotFound):
			c.sendError("CHANNEL_NOT_FOUND", "Channel does not exist")
		default:
			c.log.Errorw("send message failed", "error", err)
			c.sendError("SEND_FAILED", "Could not send message")
		}
	}
}

func (c *Client) sendError(code, message string) {
	msg, _ := NewMessage(MessageTypeError, ErrorPayload{Code: code, Message: message})
	c.Send(msg)
}

func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Errorw("marshal message failed", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		// Slow consumer; drop rather than stall the hub.
	}
}

// Close shuts the outbound channel. Called by the hub exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

func (c *Client) runCleanup() {
	c.cleanupOnce.Do(func() {
		if c.cleanup != nil {
			c.cleanup()
		}
	})
}
