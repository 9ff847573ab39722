package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// Config holds all configuration for the application
type Config struct {
	// WhatsApp configuration
	WhatsApp WhatsAppConfig `json:"whatsapp"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Game configuration
	Game GameConfig `json:"game"`

	// Server configuration
	Server ServerConfig `json:"server"`
}

// WhatsAppConfig holds WhatsApp specific configuration
type WhatsAppConfig struct {
	// Start the WhatsApp adapter alongside the HTTP server
	Enabled bool `json:"enabled" env:"MAZE_WHATSAPP_ENABLED"`

	// Path to store WhatsApp session data
	StoreDir string `json:"store_dir" env:"MAZE_WHATSAPP_STORE_DIR"`

	// Client device name
	ClientName string `json:"client_name" env:"MAZE_WHATSAPP_CLIENT_NAME"`
}

// StorageConfig selects where game state is persisted
type StorageConfig struct {
	// Driver is one of memory, file, bolt or sqlite3
	Driver string `json:"driver" env:"MAZE_STORAGE_DRIVER"`

	// Path is the file path (file, bolt) or DSN (sqlite3)
	Path string `json:"path" env:"MAZE_STORAGE_PATH"`

	// Key under which a single-player session is stored
	Key string `json:"key" env:"MAZE_STORAGE_KEY"`
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Directory holding level*.yaml content files
	LevelsDir string `json:"levels_dir" env:"MAZE_LEVELS_DIR"`

	// Baseline used for the intro level when level 1 has no data
	DefaultCash      float64 `json:"default_cash" env:"MAZE_DEFAULT_CASH"`
	DefaultDebt      float64 `json:"default_debt" env:"MAZE_DEFAULT_DEBT"`
	DefaultIncome    float64 `json:"default_income" env:"MAZE_DEFAULT_INCOME"`
	DefaultWellBeing int     `json:"default_well_being" env:"MAZE_DEFAULT_WELL_BEING"`
	DefaultAge       float64 `json:"default_age" env:"MAZE_DEFAULT_AGE"`
}

// InitialStats returns the configured default baseline
func (g GameConfig) InitialStats() types.LevelInitialStats {
	return types.LevelInitialStats{
		Cash:      g.DefaultCash,
		Debt:      g.DefaultDebt,
		Income:    g.DefaultIncome,
		WellBeing: g.DefaultWellBeing,
		Age:       g.DefaultAge,
	}
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port" env:"MAZE_PORT"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" env:"MAZE_LOG_LEVEL"`

	// Public base URL used in resume links
	BaseURL string `json:"base_url" env:"MAZE_BASE_URL"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		WhatsApp: WhatsAppConfig{
			Enabled:    false,
			StoreDir:   "./whatsapp-store",
			ClientName: "FINANCIAL MIND MAZE",
		},
		Storage: StorageConfig{
			Driver: "bolt",
			Path:   "./data/game_state.db",
			Key:    "financialMindMazeGameState",
		},
		Game: GameConfig{
			LevelsDir:   "./assets/levels",
			DefaultCash: 5000,
			DefaultAge:  22,
		},
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
			BaseURL:  "http://localhost:8080",
		},
	}
}

// LoadConfig loads configuration from a file, then applies environment
// overrides. A missing file is created with the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return config, applyEnv(&config)
	}

	// Read config file
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}

	return config, applyEnv(&config)
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write config to file
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(config)
}

// applyEnv overrides fields whose MAZE_* variable is set
func applyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
