package postgres

import (
	"context"

	"github.com/mlhuang/critterchat/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type bootstrapRepository struct {
	db *gorm.DB
}

func NewBootstrapRepository(db *gorm.DB) *bootstrapRepository {
	return &bootstrapRepository{db: db}
}

// CreateIdentity inserts a new identity and settles the first-user question
// in the same transaction. The conditional insert of the singleton config
// row is the arbiter: under concurrent creation exactly one caller wins it,
// becomes admin and provisions the default channel; everyone else lands as
// a plain user.
func (r *bootstrapRepository) CreateIdentity(ctx context.Context, identity *domain.Identity, cfg *domain.SystemConfig, channel *domain.Channel) (bool, error) {
	first := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(cfg)
		if res.Error != nil {
			return res.Error
		}
		first = res.RowsAffected > 0

		if first {
			identity.Role = domain.RoleAdmin
			if err := tx.Create(channel).Error; err != nil {
				return err
			}
		} else {
			identity.Role = domain.RoleUser
		}

		return tx.Create(identity).Error
	})
	if err != nil {
		return false, err
	}

	return first, nil
}
