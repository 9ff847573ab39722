package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/kv"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/tui"
)

func main() {
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	logPath := flag.String("log", "", "Write logs to this file (the terminal is taken by the game)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := setupLogger(*logPath, cfg.Server.LogLevel)
	if err != nil {
		fmt.Printf("Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	levels, err := game.NewDataLoader(cfg.Game.LevelsDir).LoadLevels()
	if err != nil {
		fmt.Printf("Error loading levels: %v\n", err)
		os.Exit(1)
	}

	store, err := kv.Open(cfg.Storage)
	if err != nil {
		fmt.Printf("Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	storage := game.NewGameStateStorage(store, cfg.Storage.Key)
	gm := game.NewGameManager(context.Background(), levels, storage, cfg.Game, logger)

	if err := tui.Run(gm); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(path, level string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}

	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	return config.Build()
}
