// Package directory is the service's sole persistence and notification
// seam: a keyed document view over the repositories, where every write
// fans out to live subscriptions in write order.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/repository"
	"gorm.io/gorm"
)

type Store struct {
	repos    *repository.Repositories
	notifier *Notifier
}

func NewStore(repos *repository.Repositories) *Store {
	return &Store{
		repos:    repos,
		notifier: NewNotifier(),
	}
}

func (s *Store) GetIdentity(ctx context.Context, key string) (*domain.Identity, error) {
	identity, err := s.repos.Identity.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return identity, nil
}

// IdentityBySession finds the identity a session id is currently bound to.
func (s *Store) IdentityBySession(ctx context.Context, sessionID uuid.UUID) (*domain.Identity, error) {
	identity, err := s.repos.Identity.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return identity, nil
}

// CreateIdentity is the full put used only at account creation. The
// first-user decision, system config and default channel all land in the
// same transaction (see BootstrapRepository).
func (s *Store) CreateIdentity(ctx context.Context, identity *domain.Identity, cfg *domain.SystemConfig, channel *domain.Channel) (bool, error) {
	first, err := s.repos.Bootstrap.CreateIdentity(ctx, identity, cfg, channel)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	s.notifier.publish(Event{Type: EventIdentityCreated, Identity: identity})
	if first {
		s.notifier.publish(Event{Type: EventChannelCreated, Channel: channel})
		s.notifier.publish(Event{Type: EventConfigUpdated, Config: cfg})
	}
	return first, nil
}

// PatchIdentity applies a partial update and publishes the record as
// written, so subscribers observe writes in store order.
func (s *Store) PatchIdentity(ctx context.Context, key string, patch domain.IdentityPatch) (*domain.Identity, error) {
	identity, err := s.repos.Identity.Patch(ctx, key, patch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	s.notifier.publish(Event{Type: EventIdentityUpdated, Identity: identity})
	return identity, nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]*domain.Identity, error) {
	identities, err := s.repos.Identity.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return identities, nil
}

func (s *Store) SystemConfig(ctx context.Context) (*domain.SystemConfig, error) {
	cfg, err := s.repos.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return cfg, nil
}

func (s *Store) UpdateSystemConfig(ctx context.Context, cfg *domain.SystemConfig) error {
	if err := s.repos.SystemConfig.Update(ctx, cfg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.notifier.publish(Event{Type: EventConfigUpdated, Config: cfg})
	return nil
}

func (s *Store) CreateChannel(ctx context.Context, channel *domain.Channel) error {
	if err := s.repos.Channel.Create(ctx, channel); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.notifier.publish(Event{Type: EventChannelCreated, Channel: channel})
	return nil
}

func (s *Store) GetChannel(ctx context.Context, id string) (*domain.Channel, error) {
	channel, err := s.repos.Channel.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChannelNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return channel, nil
}

func (s *Store) ListChannels(ctx context.Context) ([]*domain.Channel, error) {
	channels, err := s.repos.Channel.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return channels, nil
}

func (s *Store) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if err := s.repos.Message.Create(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.notifier.publish(Event{Type: EventMessageCreated, Message: msg})
	return nil
}

func (s *Store) ListMessages(ctx context.Context, channelID string, limit int) ([]*domain.ChatMessage, error) {
	messages, err := s.repos.Message.ListByChannel(ctx, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return messages, nil
}

// SubscribeIdentity yields every write to one identity record. The caller
// must invoke the returned Unsubscribe on teardown.
func (s *Store) SubscribeIdentity(key string) (<-chan *domain.Identity, Unsubscribe) {
	return s.notifier.SubscribeIdentity(key)
}

// Subscribe yields every store event for broadcast consumers.
func (s *Store) Subscribe() (<-chan Event, Unsubscribe) {
	return s.notifier.Subscribe()
}

func (s *Store) Close() {
	s.notifier.Close()
}
