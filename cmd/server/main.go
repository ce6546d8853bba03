package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlhuang/critterchat/internal/api"
	"github.com/mlhuang/critterchat/internal/config"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/logger"
	"github.com/mlhuang/critterchat/internal/repository/postgres"
	"github.com/mlhuang/critterchat/internal/service"
	"github.com/mlhuang/critterchat/internal/session"
	"github.com/mlhuang/critterchat/internal/websocket"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}

	// Initialize repositories and the directory store
	repos := postgres.NewRepositories(db)
	store := directory.NewStore(repos)

	// Initialize services
	services := service.NewServices(repos, store, cfg)

	// Initialize session manager and WebSocket hub
	manager := session.NewManager()
	hub := websocket.NewHub(store, services.Presence, sugar)
	go hub.Run()

	// Initialize router
	router := api.NewRouter(services, store, hub, manager, sugar)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		sugar.Infow("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalw("server forced to shutdown", "error", err)
	}

	// Tear down live sessions and shared state after the listener stops.
	manager.StopAll()
	hub.Stop()
	store.Close()

	sugar.Info("server stopped")
}
