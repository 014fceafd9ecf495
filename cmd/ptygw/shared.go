package main

import (
	"context"

	"github.com/mfateev/ptygw/internal/app"
	"github.com/mfateev/ptygw/internal/config"
)

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		if _, err := config.ParseLogLevel(logLevel); err != nil {
			return nil, err
		}
		cfg.LogLevel = logLevel
	}
	if homeDir != "" {
		cfg.HomeDir = homeDir
	}
	return cfg, nil
}

// initShared builds the components every subcommand needs. Callers must call
// Cleanup when done.
func initShared(ctx context.Context) (*app.Components, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, cfg.NewLogger())
}
