package service

import (
	"context"
	"time"

	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
)

type AdminService struct {
	store *directory.Store
}

func NewAdminService(store *directory.Store) *AdminService {
	return &AdminService{store: store}
}

func (s *AdminService) requireAdmin(ctx context.Context, actorKey string) error {
	actor, err := s.store.GetIdentity(ctx, actorKey)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin {
		return domain.ErrNotAdmin
	}
	return nil
}

// Kick bars an identity from chatting until the given instant. The target
// stays logged in; their session transitions to the kicked state on the
// next snapshot.
func (s *AdminService) Kick(ctx context.Context, actorKey, targetKey string, duration time.Duration) (*domain.Identity, error) {
	if err := s.requireAdmin(ctx, actorKey); err != nil {
		return nil, err
	}

	until := time.Now().Add(duration)
	return s.store.PatchIdentity(ctx, targetKey, domain.IdentityPatch{BannedUntil: &until})
}

func (s *AdminService) Unban(ctx context.Context, actorKey, targetKey string) (*domain.Identity, error) {
	if err := s.requireAdmin(ctx, actorKey); err != nil {
		return nil, err
	}

	return s.store.PatchIdentity(ctx, targetKey, domain.IdentityPatch{ClearBan: true})
}

// Rename updates the application name shown by every client.
func (s *AdminService) Rename(ctx context.Context, actorKey, appName string) (*domain.SystemConfig, error) {
	if err := s.requireAdmin(ctx, actorKey); err != nil {
		return nil, err
	}

	cfg, err := s.store.SystemConfig(ctx)
	if err != nil {
		return nil, err
	}
	cfg.AppName = appName
	if err := s.store.UpdateSystemConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
