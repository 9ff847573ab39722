package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/api"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/chat"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/kv"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/session"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/whatsapp"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logger
	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	// Load level content
	levels, err := loadLevels(cfg.Game.LevelsDir, logger)
	if err != nil {
		logger.Fatal("Failed to load levels", zap.Error(err))
	}

	// Open game state storage
	store, err := kv.Open(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open storage",
			zap.String("driver", cfg.Storage.Driver),
			zap.Error(err))
	}
	defer store.Close()

	registry := session.NewRegistry(store, levels, cfg.Game, logger)
	handler := api.NewHandler(registry, levels, cfg.Server.BaseURL, logger)

	// WhatsApp players are keyed by their phone number
	if cfg.WhatsApp.Enabled {
		processor := chat.NewProcessor(registry, logger)
		clientManager := whatsapp.NewClientManager(processor, cfg.WhatsApp, logger)
		clientManager.RestoreSessions()
		defer clientManager.DisconnectAll()

		handler.WithWhatsApp(api.WhatsAppRoutes{
			Pairing:  whatsapp.NewQRCodeManager(clientManager, cfg.WhatsApp.StoreDir, logger),
			Sessions: whatsapp.NewSessionManager(cfg.WhatsApp.StoreDir, logger),
			Clients:  clientManager,
		})
		logger.Info("WhatsApp transport enabled", zap.String("store_dir", cfg.WhatsApp.StoreDir))
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler.Routes(),
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(server, logger)
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}

func loadLevels(dir string, logger *zap.Logger) (game.Levels, error) {
	levels, err := game.NewDataLoader(dir).LoadLevels()
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no level files in %s", dir)
	}

	for _, problem := range game.Validate(levels) {
		logger.Warn("Level content problem", zap.Error(problem))
	}
	logger.Info("Loaded levels", zap.Ints("levels", levels.Numbers()))

	return levels, nil
}

func waitForShutdown(server *http.Server, logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Shutting down")
}
