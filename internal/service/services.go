package service

import (
	"github.com/mlhuang/critterchat/internal/config"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/repository"
)

type Services struct {
	Session  *SessionService
	Resolver *ResolverService
	Presence *PresenceService
	Profile  *ProfileService
	Admin    *AdminService
	Channel  *ChannelService
	Message  *MessageService
}

func NewServices(repos *repository.Repositories, store *directory.Store, cfg *config.Config) *Services {
	return &Services{
		Session:  NewSessionService(repos.Session, cfg),
		Resolver: NewResolverService(store),
		Presence: NewPresenceService(store),
		Profile:  NewProfileService(store),
		Admin:    NewAdminService(store),
		Channel:  NewChannelService(store),
		Message:  NewMessageService(store),
	}
}
