package service

import (
	"context"

	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
)

type ProfileService struct {
	store *directory.Store
}

func NewProfileService(store *directory.Store) *ProfileService {
	return &ProfileService{store: store}
}

type ProfileUpdateInput struct {
	PIN       *string
	AvatarURL *string
	Theme     *domain.Theme
}

// Update changes the mutable profile fields. Key, display name and role
// are immutable here.
func (s *ProfileService) Update(ctx context.Context, key string, input ProfileUpdateInput) (*domain.Identity, error) {
	if input.PIN != nil && !domain.ValidPIN(*input.PIN) {
		return nil, domain.ErrInvalidPIN
	}
	if input.Theme != nil && *input.Theme != domain.ThemeDark && *input.Theme != domain.ThemeLight {
		t := domain.ThemeDark
		input.Theme = &t
	}

	return s.store.PatchIdentity(ctx, key, domain.IdentityPatch{
		PIN:       input.PIN,
		AvatarURL: input.AvatarURL,
		Theme:     input.Theme,
	})
}
