package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
)

// ResolverService maps a symbol triple plus PIN to a durable identity:
// login when the key exists, account creation when it does not.
type ResolverService struct {
	store *directory.Store
}

func NewResolverService(store *directory.Store) *ResolverService {
	return &ResolverService{store: store}
}

type ResolveInput struct {
	Symbols     []string
	PIN         string
	DisplayName string
	SessionID   uuid.UUID
}

type ResolveResult struct {
	Identity     *domain.Identity
	IsNewAccount bool
}

// Resolve logs an existing identity in or creates a new one.
//
// Existing key: the PIN must match exactly and the record must not be
// banned; only then is the session id rebound and freshness refreshed. A
// failed PIN or an active ban performs no mutation at all.
//
// New key: a display name is required; the first identity ever created
// becomes admin and provisions the system config and default channel in
// one atomic write.
func (s *ResolverService) Resolve(ctx context.Context, input ResolveInput) (*ResolveResult, error) {
	if !domain.ValidSymbols(input.Symbols) {
		return nil, domain.ErrInvalidKey
	}
	if !domain.ValidPIN(input.PIN) {
		return nil, domain.ErrInvalidPIN
	}

	key := domain.DeriveKey(input.Symbols)
	now := time.Now()

	identity, err := s.store.GetIdentity(ctx, key)
	switch {
	case err == nil:
		if identity.PIN != input.PIN {
			return nil, domain.ErrInvalidCredential
		}
		if identity.Banned(now) {
			return nil, &domain.BannedError{Until: *identity.BannedUntil}
		}

		identity, err = s.store.PatchIdentity(ctx, key, domain.IdentityPatch{
			SessionID:   &input.SessionID,
			LastLoginAt: &now,
			LastSeenAt:  &now,
		})
		if err != nil {
			return nil, err
		}
		return &ResolveResult{Identity: identity}, nil

	case errors.Is(err, domain.ErrIdentityNotFound):
		return s.create(ctx, key, input, now)

	default:
		return nil, err
	}
}

func (s *ResolverService) create(ctx context.Context, key string, input ResolveInput, now time.Time) (*ResolveResult, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, domain.ErrDisplayNameRequired
	}

	symbols, err := json.Marshal(input.Symbols)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		Key:         key,
		Symbols:     symbols,
		PIN:         input.PIN,
		DisplayName: name,
		SessionID:   input.SessionID,
		Theme:       domain.ThemeDark,
		CreatedAt:   now,
		LastLoginAt: &now,
		LastSeenAt:  &now,
	}
	cfg := &domain.SystemConfig{
		ID:          domain.SystemConfigID,
		Initialized: true,
		AdminKey:    key,
		AppName:     domain.DefaultAppName,
		CreatedAt:   now,
	}
	channel := &domain.Channel{
		ID:        domain.DefaultChannelID,
		Name:      "💬 General",
		Emoji:     "💬",
		CreatedBy: key,
		CreatedAt: now,
	}

	if _, err := s.store.CreateIdentity(ctx, identity, cfg, channel); err != nil {
		return nil, err
	}

	return &ResolveResult{Identity: identity, IsNewAccount: true}, nil
}

// Resume re-authenticates a cached key without a PIN: it succeeds only if
// the record's bound session id is the caller's own.
func (s *ResolverService) Resume(ctx context.Context, key string, sessionID uuid.UUID) (*domain.Identity, error) {
	identity, err := s.store.GetIdentity(ctx, key)
	if err != nil {
		return nil, err
	}
	if identity.SessionID != sessionID {
		return nil, domain.ErrSessionSuperseded
	}
	if identity.Banned(time.Now()) {
		return nil, &domain.BannedError{Until: *identity.BannedUntil}
	}
	return identity, nil
}
