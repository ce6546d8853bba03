package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Identity is one chat participant, keyed by the concatenation of the
// three symbols chosen at login. The key never changes once created.
type Identity struct {
	Key         string         `json:"key" gorm:"primaryKey"`
	Symbols     datatypes.JSON `json:"symbols" gorm:"not null"`
	PIN         string         `json:"-" gorm:"column:pin;not null"`
	DisplayName string         `json:"displayName" gorm:"not null"`
	SessionID   uuid.UUID      `json:"-" gorm:"type:uuid"`
	Role        Role           `json:"role" gorm:"not null;default:user"`
	AvatarURL   string         `json:"avatarUrl"`
	Theme       Theme          `json:"theme" gorm:"default:dark"`
	CreatedAt   time.Time      `json:"createdAt"`
	LastLoginAt *time.Time     `json:"lastLoginAt"`
	LastSeenAt  *time.Time     `json:"lastSeenAt"`
	BannedUntil *time.Time     `json:"bannedUntil,omitempty"`
}

// SymbolList decodes the stored symbol triple. A record written by this
// service always decodes cleanly; a corrupt column yields nil.
func (i *Identity) SymbolList() []string {
	var symbols []string
	if err := json.Unmarshal(i.Symbols, &symbols); err != nil {
		return nil
	}
	return symbols
}

// Banned reports whether the identity is in the kicked state at the given
// instant. A past BannedUntil is equivalent to no ban at all.
func (i *Identity) Banned(now time.Time) bool {
	return i.BannedUntil != nil && now.Before(*i.BannedUntil)
}

// IdentityPatch is a partial update of an identity record. Nil fields are
// left untouched; SessionID rebinds follow last-write-wins.
type IdentityPatch struct {
	PIN         *string
	SessionID   *uuid.UUID
	AvatarURL   *string
	Theme       *Theme
	LastLoginAt *time.Time
	LastSeenAt  *time.Time
	BannedUntil *time.Time
	ClearBan    bool
}

// Session is an anonymous session issued before any identity is resolved.
// Its ID is what gets bound to Identity.SessionID at login.
type Session struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	RefreshTokenHash string    `json:"-" gorm:"not null"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"`
}
