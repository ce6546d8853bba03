package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var identitySeq atomic.Int64

// nextSymbols derives a distinct symbol triple per builder so fixtures
// never collide on key within a test database.
func nextSymbols() []string {
	n := int(identitySeq.Add(1))
	size := len(domain.Alphabet)
	return []string{
		domain.Alphabet[n%size],
		domain.Alphabet[(n/size)%size],
		domain.Alphabet[(n/(size*size))%size],
	}
}

// IdentityBuilder creates test identities with a builder pattern
type IdentityBuilder struct {
	symbols     []string
	pin         string
	displayName string
	role        domain.Role
	sessionID   uuid.UUID
	lastSeenAt  *time.Time
	bannedUntil *time.Time
}

// NewIdentityBuilder creates a new IdentityBuilder with default values
func NewIdentityBuilder() *IdentityBuilder {
	return &IdentityBuilder{
		symbols:     nextSymbols(),
		pin:         "1234",
		displayName: fmt.Sprintf("critter_%s", uuid.New().String()[:8]),
		role:        domain.RoleUser,
		sessionID:   uuid.New(),
	}
}

// WithSymbols sets the symbol triple
func (b *IdentityBuilder) WithSymbols(symbols []string) *IdentityBuilder {
	b.symbols = symbols
	return b
}

// WithPIN sets the PIN
func (b *IdentityBuilder) WithPIN(pin string) *IdentityBuilder {
	b.pin = pin
	return b
}

// WithDisplayName sets the display name
func (b *IdentityBuilder) WithDisplayName(name string) *IdentityBuilder {
	b.displayName = name
	return b
}

// WithRole sets the role
func (b *IdentityBuilder) WithRole(role domain.Role) *IdentityBuilder {
	b.role = role
	return b
}

// WithSessionID sets the owning session id
func (b *IdentityBuilder) WithSessionID(sessionID uuid.UUID) *IdentityBuilder {
	b.sessionID = sessionID
	return b
}

// WithLastSeen sets the presence timestamp
func (b *IdentityBuilder) WithLastSeen(at time.Time) *IdentityBuilder {
	b.lastSeenAt = &at
	return b
}

// WithBannedUntil marks the identity as kicked until the given time
func (b *IdentityBuilder) WithBannedUntil(until time.Time) *IdentityBuilder {
	b.bannedUntil = &until
	return b
}

// Build creates the identity in the database and returns it with the raw PIN
func (b *IdentityBuilder) Build(t *testing.T, db *gorm.DB) (*domain.Identity, string) {
	t.Helper()

	symbolsJSON, err := json.Marshal(b.symbols)
	if err != nil {
		t.Fatalf("failed to marshal symbols: %v", err)
	}

	identity := &domain.Identity{
		Key:         domain.DeriveKey(b.symbols),
		Symbols:     datatypes.JSON(symbolsJSON),
		PIN:         b.pin,
		DisplayName: b.displayName,
		SessionID:   b.sessionID,
		Role:        b.role,
		Theme:       domain.ThemeDark,
		CreatedAt:   time.Now(),
		LastSeenAt:  b.lastSeenAt,
		BannedUntil: b.bannedUntil,
	}

	if err := db.Create(identity).Error; err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}

	return identity, b.pin
}

// SessionResponse matches the API session response
type SessionResponse struct {
	SessionID    string `json:"sessionId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IssueSession requests an anonymous session via the API
func IssueSession(t *testing.T, ts *TestServer) *SessionResponse {
	t.Helper()

	resp, err := http.Post(ts.APIURL("/session"), "application/json", nil)
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var session SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return &session
}

// LoginResponse matches the API login response
type LoginResponse struct {
	Identity struct {
		Key         string   `json:"key"`
		Symbols     []string `json:"symbols"`
		DisplayName string   `json:"displayName"`
		Role        string   `json:"role"`
	} `json:"identity"`
	IsNewAccount bool `json:"isNewAccount"`
}

// BuildAndLogin issues a session and resolves the identity via the API,
// returning the login result and the session's access token
func (b *IdentityBuilder) BuildAndLogin(t *testing.T, ts *TestServer) (*LoginResponse, string) {
	t.Helper()

	session := IssueSession(t, ts)

	reqBody := map[string]interface{}{
		"symbols":     b.symbols,
		"pin":         b.pin,
		"displayName": b.displayName,
	}
	body, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(context.Background(), "POST", ts.APIURL("/auth/login"), bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to create login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return &loginResp, session.AccessToken
}

// ChannelBuilder creates test channels
type ChannelBuilder struct {
	id        string
	name      string
	emoji     string
	createdBy string
}

// NewChannelBuilder creates a ChannelBuilder with default values
func NewChannelBuilder() *ChannelBuilder {
	id := fmt.Sprintf("channel%d", time.Now().UnixNano()%100000)
	return &ChannelBuilder{
		id:    id,
		name:  id,
		emoji: "💬",
	}
}

// WithID sets the channel slug
func (b *ChannelBuilder) WithID(id string) *ChannelBuilder {
	b.id = id
	return b
}

// WithName sets the display name
func (b *ChannelBuilder) WithName(name string) *ChannelBuilder {
	b.name = name
	return b
}

// WithCreator sets the creating identity key
func (b *ChannelBuilder) WithCreator(key string) *ChannelBuilder {
	b.createdBy = key
	return b
}

// Build creates the channel in the database
func (b *ChannelBuilder) Build(t *testing.T, db *gorm.DB) *domain.Channel {
	t.Helper()

	channel := &domain.Channel{
		ID:        b.id,
		Name:      b.name,
		Emoji:     b.emoji,
		CreatedBy: b.createdBy,
		CreatedAt: time.Now(),
	}

	if err := db.Create(channel).Error; err != nil {
		t.Fatalf("failed to create channel: %v", err)
	}

	return channel
}

// SeedSystemConfig marks the directory as bootstrapped with the given admin
func SeedSystemConfig(t *testing.T, db *gorm.DB, adminKey string) *domain.SystemConfig {
	t.Helper()

	cfg := &domain.SystemConfig{
		ID:          domain.SystemConfigID,
		Initialized: true,
		AdminKey:    adminKey,
		AppName:     domain.DefaultAppName,
		CreatedAt:   time.Now(),
	}

	if err := db.Create(cfg).Error; err != nil {
		t.Fatalf("failed to create system config: %v", err)
	}

	return cfg
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
