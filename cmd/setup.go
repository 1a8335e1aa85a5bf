package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/vibes/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, then initializes the track cache and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing track cache", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Config: %s\n", configPath)
	r.writePlain("✓ Track cache: %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Point backend.url at your discovery backend (currently %s)\n", config.Backend.URL)
	r.writePlain("2. Run 'vibes search \"your song\"' to test the connection\n")
	return nil
}

// Health checks the backend's /health endpoint.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking backend health", "url", r.api.BaseURL())

	health, err := r.api.Health(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Backend is healthy\n")
	r.writePlain("Status: %s\n", health.Status)
	if health.Timestamp != "" {
		r.writePlain("Time: %s\n", health.Timestamp)
	}
	return nil
}
