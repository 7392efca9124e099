package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeit-chatbot/internal/api"
	"codeit-chatbot/internal/api/handlers"
	"codeit-chatbot/internal/app"
	"codeit-chatbot/pkg/config"
	"codeit-chatbot/pkg/logger"

	"go.uber.org/zap"
)

// @title CodeIT Chatbot API
// @version 1.0
// @description FAQ chatbot for CodeIT Institute: rules, fuzzy course matching, semantic search and a generative fallback.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting CodeIT chatbot service")

	if cfg.CORS.CredentialsRequested && !cfg.CORS.AllowCredentials {
		appLogger.Warn("Disabling credentialed CORS because wildcard origins are in use")
	}

	ctx := context.Background()
	container, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize chatbot", zap.Error(err))
	}
	defer container.Close()

	// A failed warm-up aborts startup.
	if err := container.Warmup(ctx); err != nil {
		container.Close()
		appLogger.Fatal("Chatbot warm-up failed", zap.Error(err))
	}

	chatHandler := handlers.NewChatHandler(container.Chat, appLogger)
	server := api.SetupRouter(chatHandler, cfg, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := server.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
