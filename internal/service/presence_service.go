package service

import (
	"context"
	"time"

	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
)

// PresenceService reads and refreshes the freshness field the online
// heuristic is computed from. The heuristic itself lives in domain.IsOnline;
// the per-session heartbeat cadence lives in the session runner.
type PresenceService struct {
	store *directory.Store
}

func NewPresenceService(store *directory.Store) *PresenceService {
	return &PresenceService{store: store}
}

// Touch refreshes LastSeenAt for one identity.
func (s *PresenceService) Touch(ctx context.Context, key string) error {
	now := time.Now()
	_, err := s.store.PatchIdentity(ctx, key, domain.IdentityPatch{LastSeenAt: &now})
	return err
}

type Member struct {
	Key         string      `json:"key"`
	DisplayName string      `json:"displayName"`
	Symbols     []string    `json:"symbols"`
	AvatarURL   string      `json:"avatarUrl,omitempty"`
	Role        domain.Role `json:"role"`
	Online      bool        `json:"online"`
}

// Roster returns every known identity, online members first. The sort is
// stable: within each partition the store's arrival order is preserved.
func (s *PresenceService) Roster(ctx context.Context, now time.Time) ([]Member, error) {
	identities, err := s.store.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}

	domain.SortRoster(identities, now)

	members := make([]Member, 0, len(identities))
	for _, identity := range identities {
		members = append(members, Member{
			Key:         identity.Key,
			DisplayName: identity.DisplayName,
			Symbols:     identity.SymbolList(),
			AvatarURL:   identity.AvatarURL,
			Role:        identity.Role,
			Online:      domain.IsOnline(identity.LastSeenAt, now),
		})
	}
	return members, nil
}
