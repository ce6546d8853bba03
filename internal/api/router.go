package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mlhuang/critterchat/internal/api/handlers"
	"github.com/mlhuang/critterchat/internal/api/middleware"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/service"
	"github.com/mlhuang/critterchat/internal/session"
	"github.com/mlhuang/critterchat/internal/websocket"
	"go.uber.org/zap"
)

func NewRouter(services *service.Services, store *directory.Store, hub *websocket.Hub, manager *session.Manager, log *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(services.Session)
	authHandler := handlers.NewAuthHandler(services.Resolver, services.Session, manager)
	profileHandler := handlers.NewProfileHandler(services.Profile)
	rosterHandler := handlers.NewRosterHandler(services.Presence)
	channelHandler := handlers.NewChannelHandler(services.Channel, services.Message)
	adminHandler := handlers.NewAdminHandler(services.Admin)
	configHandler := handlers.NewSystemConfigHandler(store, services.Admin)
	wsHandler := handlers.NewWebSocketHandler(hub, store, services, manager, log)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Anonymous session issuance
		r.Post("/session", sessionHandler.Issue)
		r.Post("/session/refresh", sessionHandler.Refresh)

		// App config is readable before any identity exists
		r.Get("/config", configHandler.Get)

		// Auth routes need a session but not yet a bound identity
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.Session(services.Session))
			r.Post("/login", authHandler.Login)
			r.Post("/resume", authHandler.Resume)
			r.Post("/logout", authHandler.Logout)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(services.Session))
			r.Use(middleware.Identity(store))

			r.Get("/me", authHandler.Me)
			r.Patch("/profile", profileHandler.Update)
			r.Get("/roster", rosterHandler.List)

			r.Route("/channels", func(r chi.Router) {
				r.Get("/", channelHandler.List)
				r.Post("/", channelHandler.Create)
				r.Get("/{id}/messages", channelHandler.ListMessages)
				r.Post("/{id}/messages", channelHandler.SendMessage)
			})

			r.Patch("/config", configHandler.Update)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/kick", adminHandler.Kick)
				r.Post("/unban", adminHandler.Unban)
			})
		})

		// WebSocket endpoint authenticates via query token
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
