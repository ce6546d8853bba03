package postgres

import (
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	err = db.AutoMigrate(
		&domain.Identity{},
		&domain.Session{},
		&domain.SystemConfig{},
		&domain.Channel{},
		&domain.ChatMessage{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Identity:     NewIdentityRepository(db),
		Session:      NewSessionRepository(db),
		SystemConfig: NewSystemConfigRepository(db),
		Bootstrap:    NewBootstrapRepository(db),
		Channel:      NewChannelRepository(db),
		Message:      NewMessageRepository(db),
	}
}
