// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"yashubustudio/sentiment/sentiment"
)

type Config struct {
	AppEnv          string        `env:"APP_ENV" default:"development"`
	Port            string        `env:"PORT" default:"8000"`
	LogLevel        string        `env:"LOG_LEVEL" default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" default:"text"`
	ConfigPath      string        `env:"CONFIG_PATH" default:"config.json"`
	ModelPath       string        `env:"MODEL_PATH"`
	OrtLibraryPath  string        `env:"ORT_LIBRARY_PATH"`
	BodyLimit       string        `env:"BODY_LIMIT" default:"1M"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyModelOverrides lets MODEL_PATH and ORT_LIBRARY_PATH win over config.json.
func (c *Config) ApplyModelOverrides(model *sentiment.Config) {
	if c.ModelPath != "" {
		model.Model.Path = c.ModelPath
		model.Model.ModelID = ""
	}
	if c.OrtLibraryPath != "" {
		model.Model.OrtDLL = c.OrtLibraryPath
	}
}

func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.ConfigPath == "" {
		return fmt.Errorf("CONFIG_PATH must not be empty")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
