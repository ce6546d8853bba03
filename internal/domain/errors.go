package domain

import (
	"errors"
	"fmt"
	"time"
)

// Login and session errors
var (
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrDisplayNameRequired = errors.New("display name required for a new key")
	ErrInvalidKey          = errors.New("key must be three symbols from the alphabet")
	ErrInvalidPIN          = errors.New("pin must be 4 to 8 digits")
	ErrSessionSuperseded   = errors.New("another session claimed this identity")
	ErrSessionNotFound     = errors.New("session not found")
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrStoreUnavailable    = errors.New("directory store unavailable")
)

// Chat and admin errors
var (
	ErrNotAdmin        = errors.New("admin role required")
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelExists   = errors.New("channel already exists")
	ErrInvalidChannel  = errors.New("channel id and name are required")
	ErrEmptyMessage    = errors.New("message body is empty")
)

// BannedError signals the kicked state: the identity is valid but barred
// from chatting until the embedded instant.
type BannedError struct {
	Until time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("temporarily banned until %s", e.Until.Format(time.RFC3339))
}
