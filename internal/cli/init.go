// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/libretto and cmd/libretto-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"libretto/internal/config"
	"libretto/internal/log"
	"libretto/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging and sets it as the default.
// An empty component leaves the logger unscoped.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.DefaultConfig())
	if component != "" {
		logger = logger.WithComponent(component)
	}
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured storage backend.
// Returns the store or exits the process on failure.
func OpenStore(logger *log.Logger, cfg *config.Config) storage.Store {
	store, err := storage.Open(cfg.DataBackend, cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store",
			log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return store
}
