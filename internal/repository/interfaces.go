package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/domain"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByKey(ctx context.Context, key string) (*domain.Identity, error)
	// GetBySessionID finds the identity currently bound to a session, if any.
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.Identity, error)
	// Patch applies a partial update and returns the record as written.
	Patch(ctx context.Context, key string, patch domain.IdentityPatch) (*domain.Identity, error)
	// List returns all identities in creation order.
	List(ctx context.Context) ([]*domain.Identity, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

type SystemConfigRepository interface {
	Get(ctx context.Context) (*domain.SystemConfig, error)
	Exists(ctx context.Context) (bool, error)
	Update(ctx context.Context, cfg *domain.SystemConfig) error
}

// BootstrapRepository creates a new identity atomically with the first-user
// decision. The system-config insert is the arbiter: whichever transaction
// lands it first gets the admin role and the default channel.
type BootstrapRepository interface {
	CreateIdentity(ctx context.Context, identity *domain.Identity, cfg *domain.SystemConfig, channel *domain.Channel) (first bool, err error)
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	GetByID(ctx context.Context, id string) (*domain.Channel, error)
	List(ctx context.Context) ([]*domain.Channel, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListByChannel(ctx context.Context, channelID string, limit int) ([]*domain.ChatMessage, error)
}

type Repositories struct {
	Identity     IdentityRepository
	Session      SessionRepository
	SystemConfig SystemConfigRepository
	Bootstrap    BootstrapRepository
	Channel      ChannelRepository
	Message      MessageRepository
}
