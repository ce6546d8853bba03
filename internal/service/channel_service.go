package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
)

type ChannelService struct {
	store *directory.Store
}

func NewChannelService(store *directory.Store) *ChannelService {
	return &ChannelService{store: store}
}

func (s *ChannelService) List(ctx context.Context) ([]*domain.Channel, error) {
	return s.store.ListChannels(ctx)
}

type CreateChannelInput struct {
	ID    string
	Name  string
	Emoji string
}

// Create adds a channel. Admin only; channel ids are slugs and immutable.
func (s *ChannelService) Create(ctx context.Context, actorKey string, input CreateChannelInput) (*domain.Channel, error) {
	actor, err := s.store.GetIdentity(ctx, actorKey)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrNotAdmin
	}

	id := strings.TrimSpace(strings.ToLower(input.ID))
	name := strings.TrimSpace(input.Name)
	if id == "" || name == "" {
		return nil, domain.ErrInvalidChannel
	}

	if _, err := s.store.GetChannel(ctx, id); err == nil {
		return nil, domain.ErrChannelExists
	} else if !errors.Is(err, domain.ErrChannelNotFound) {
		return nil, err
	}

	channel := &domain.Channel{
		ID:        id,
		Name:      name,
		Emoji:     input.Emoji,
		CreatedBy: actorKey,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateChannel(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}
