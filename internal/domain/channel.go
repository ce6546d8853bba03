package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultChannelID is the channel provisioned alongside the first identity.
const DefaultChannelID = "general"

type Channel struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Emoji     string    `json:"emoji"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatMessage struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ChannelID    string    `json:"channelId" gorm:"index;not null"`
	SenderKey    string    `json:"senderId" gorm:"not null"`
	SenderName   string    `json:"senderName"`
	SenderSymbol string    `json:"senderSymbol"`
	Body         string    `json:"body" gorm:"not null"`
	SentAt       time.Time `json:"sentAt" gorm:"index"`
}

// SystemConfig is a singleton; its existence is the sole first-user signal.
type SystemConfig struct {
	ID          string    `json:"-" gorm:"primaryKey"`
	Initialized bool      `json:"initialized"`
	AdminKey    string    `json:"adminId"`
	AppName     string    `json:"appName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SystemConfigID is the fixed primary key of the singleton row. The
// bootstrap transaction relies on inserts of this key colliding.
const SystemConfigID = "config"

const DefaultAppName = "Critter Chat"
