package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/domain"
	"gorm.io/gorm"
)

type identityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *identityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

func (r *identityRepository) GetByKey(ctx context.Context, key string) (*domain.Identity, error) {
	var identity domain.Identity
	err := r.db.WithContext(ctx).First(&identity, "key = ?", key).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.Identity, error) {
	var identity domain.Identity
	err := r.db.WithContext(ctx).First(&identity, "session_id = ?", sessionID).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) Patch(ctx context.Context, key string, patch domain.IdentityPatch) (*domain.Identity, error) {
	updates := map[string]interface{}{}
	if patch.PIN != nil {
		updates["pin"] = *patch.PIN
	}
	if patch.SessionID != nil {
		updates["session_id"] = *patch.SessionID
	}
	if patch.AvatarURL != nil {
		updates["avatar_url"] = *patch.AvatarURL
	}
	if patch.Theme != nil {
		updates["theme"] = *patch.Theme
	}
	if patch.LastLoginAt != nil {
		updates["last_login_at"] = *patch.LastLoginAt
	}
	if patch.LastSeenAt != nil {
		updates["last_seen_at"] = *patch.LastSeenAt
	}
	if patch.BannedUntil != nil {
		updates["banned_until"] = *patch.BannedUntil
	}
	if patch.ClearBan {
		updates["banned_until"] = nil
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Identity{}).Where("key = ?", key).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	return r.GetByKey(ctx, key)
}

func (r *identityRepository) List(ctx context.Context) ([]*domain.Identity, error) {
	var identities []*domain.Identity
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&identities).Error
	if err != nil {
		return nil, err
	}
	return identities, nil
}
