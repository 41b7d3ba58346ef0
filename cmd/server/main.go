// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/cardtable/internal/auth"
	"github.com/cardtable/cardtable/internal/cache"
	"github.com/cardtable/cardtable/internal/config"
	"github.com/cardtable/cardtable/internal/database"
	"github.com/cardtable/cardtable/internal/handlers"
	"github.com/cardtable/cardtable/internal/middleware"
	"github.com/cardtable/cardtable/internal/room"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init error: %v", err)
	}

	ctx := context.Background()

	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect error: %v", err)
	}
	if store == nil {
		logger.Info("No DATABASE_URL set, running with in-memory directory only")
	}

	events, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		// Event publishing is an optional side channel; the table keeps
		// running without it.
		logger.Warnf("Redis unavailable, room events disabled: %v", err)
		events = nil
	}

	manager, err := room.NewManager(store, events, cfg.RoomTTL, cfg.TickInterval, logger)
	if err != nil {
		log.Fatalf("room manager error: %v", err)
	}

	// Seed room for local play.
	if _, err := manager.Create(8, "Test Room", "Admin", "Freestyle"); err != nil {
		logger.Warnf("Failed to create seed room: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.LobbyHandler(logger, manager),
	)))
	mux.Handle("/host-a-game", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.HostGameHandler(logger, manager),
	)))
	mux.Handle("/room/ws/", http.HandlerFunc(
		handlers.RoomWSHandler(logger, manager),
	))

	addr := ":" + cfg.Port
	logger.Infof("Listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
