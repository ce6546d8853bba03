package websocket

import (
	"encoding/json"
	"time"

	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/service"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSyncState   MessageType = "SYNC_STATE"
	MessageTypeSendMessage MessageType = "SEND_MESSAGE"

	// Server to Client
	MessageTypeStateSync    MessageType = "STATE_SYNC"
	MessageTypeRosterUpdate MessageType = "ROSTER_UPDATE"
	MessageTypeMessageNew   MessageType = "MESSAGE_NEW"
	MessageTypeChannelNew   MessageType = "CHANNEL_NEW"
	MessageTypeConfigUpdate MessageType = "CONFIG_UPDATE"
	MessageTypeError        MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type SendMessagePayload struct {
	ChannelID string `json:"channelId"`
	Body      string `json:"body"`
}

// Server to Client payloads

// StateSyncPayload carries the session render model. A terminal sync
// (logged out) includes the reason so the client can distinguish a
// voluntary logout from a superseding login elsewhere.
type StateSyncPayload struct {
	Model  domain.RenderModel `json:"model"`
	Reason string             `json:"reason,omitempty"`
}

type RosterUpdatePayload struct {
	Members []service.Member `json:"members"`
}

type MessageNewPayload struct {
	Message *domain.ChatMessage `json:"message"`
}

type ChannelNewPayload struct {
	Channel *domain.Channel `json:"channel"`
}

type ConfigUpdatePayload struct {
	AppName string `json:"appName"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
