// Package cli consolidates the initialization steps shared by
// cmd/finanzas and cmd/finanzas-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"finanzas/internal/config"
	"finanzas/internal/log"
	"finanzas/internal/storage"
)

// Bootstrap loads the optional .env file, installs the default structured
// logger for the given component and loads + validates configuration. The
// process exits on an invalid configuration.
func Bootstrap(component string) (*log.Logger, *config.Config) {
	// .env is for local development; in production the environment is
	// already populated.
	_ = godotenv.Load()

	logCfg := log.DefaultConfig()
	logCfg.Component = component
	logger := log.New(logCfg)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return logger, cfg
}

// InitSQLite opens the SQLite repository or exits the process.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
