package postgres

import (
	"context"
	"errors"

	"github.com/mlhuang/critterchat/internal/domain"
	"gorm.io/gorm"
)

type systemConfigRepository struct {
	db *gorm.DB
}

func NewSystemConfigRepository(db *gorm.DB) *systemConfigRepository {
	return &systemConfigRepository{db: db}
}

func (r *systemConfigRepository) Get(ctx context.Context) (*domain.SystemConfig, error) {
	var cfg domain.SystemConfig
	err := r.db.WithContext(ctx).First(&cfg, "id = ?", domain.SystemConfigID).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *systemConfigRepository) Exists(ctx context.Context) (bool, error) {
	_, err := r.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *systemConfigRepository) Update(ctx context.Context, cfg *domain.SystemConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}
