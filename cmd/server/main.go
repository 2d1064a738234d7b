// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/tkhuang/uno/internal/cache"
	"github.com/tkhuang/uno/internal/database"
	"github.com/tkhuang/uno/internal/handlers"
	"github.com/tkhuang/uno/internal/middleware"
	"github.com/tkhuang/uno/internal/relay"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("action history disabled: %v", err)
		}
	}
	if err := database.Connect(context.Background()); err != nil {
		logger.Warnf("round recording disabled: %v", err)
	}

	srv := handlers.NewGameServer(logger)
	hub := relay.NewHub(logger)

	mux := http.NewServeMux()

	// game websocket
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, srv),
	)))

	// relay-only websocket (no rules engine, pure forwarding)
	mux.Handle("/relay", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.RelayWSHandler(logger, hub),
	)))

	mux.HandleFunc("/health", handlers.HealthHandler)

	addr := ":3000"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("UNO server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
