package config

import (
	"os"
	"strconv"

	"abx/internal/errors"
)

// Config is the complete application configuration, read from environment
// variables with behavioral defaults preserved.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Diagnostics DiagnosticsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the optional readout-store connection settings.
// An empty URL disables persistence.
type DatabaseConfig struct {
	URL string
}

// DiagnosticsConfig carries the SRM diagnoser thresholds. The defaults
// (0.001 omnibus threshold, 0.05 suspect alpha, 20-category cap) are fixed
// design constants; override only with a reason.
type DiagnosticsConfig struct {
	SRMThreshold  float64
	SuspectAlpha  float64
	TopCategories int
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server:   ServerConfig{Port: envOr("ABX_PORT", "8080")},
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Diagnostics: DiagnosticsConfig{
			SRMThreshold:  0.001,
			SuspectAlpha:  0.05,
			TopCategories: 20,
		},
	}

	var err error
	if cfg.Diagnostics.SRMThreshold, err = envFloat("ABX_SRM_THRESHOLD", cfg.Diagnostics.SRMThreshold); err != nil {
		return nil, err
	}
	if cfg.Diagnostics.SuspectAlpha, err = envFloat("ABX_SUSPECT_ALPHA", cfg.Diagnostics.SuspectAlpha); err != nil {
		return nil, err
	}
	if cfg.Diagnostics.TopCategories, err = envInt("ABX_TOP_CATEGORIES", cfg.Diagnostics.TopCategories); err != nil {
		return nil, err
	}

	if cfg.Diagnostics.SRMThreshold <= 0 || cfg.Diagnostics.SRMThreshold >= 1 {
		return nil, errors.ConfigInvalid("ABX_SRM_THRESHOLD must lie in (0, 1)")
	}
	if cfg.Diagnostics.SuspectAlpha <= 0 || cfg.Diagnostics.SuspectAlpha >= 1 {
		return nil, errors.ConfigInvalid("ABX_SUSPECT_ALPHA must lie in (0, 1)")
	}
	if cfg.Diagnostics.TopCategories <= 0 {
		return nil, errors.ConfigInvalid("ABX_TOP_CATEGORIES must be a positive integer")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be a number")
	}
	return parsed, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer")
	}
	return parsed, nil
}
