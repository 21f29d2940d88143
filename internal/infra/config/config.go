// Package config provides application-wide configuration. Values are read
// from an optional YAML file first, then overridden by environment variables.
// All fields have safe defaults so the binary runs locally without any setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for presetchat.
type Config struct {
	// HTTP
	Host string `yaml:"host"` // PRESETCHAT_HOST — default: "0.0.0.0"
	Port int    `yaml:"port"` // PRESETCHAT_PORT — default: 8080

	// Storage
	DBPath string `yaml:"db_path"` // PRESETCHAT_DB — default: "presetchat.db"

	// Provider
	ProviderBaseURL string `yaml:"provider_base_url"` // PROVIDER_BASE_URL — default: "https://openrouter.ai/api/v1"
	ProviderAPIKey  string `yaml:"provider_api_key"`  // PROVIDER_API_KEY — default: "" (unauthenticated)
	DefaultModel    string `yaml:"default_model"`     // DEFAULT_MODEL — default: "meta-llama/llama-3.3-70b-instruct:free"

	// Policy + limits
	AllowedModelSuffix string        `yaml:"allowed_model_suffix"` // ALLOWED_MODEL_SUFFIX — default: ":free"
	RequestTimeout     time.Duration `yaml:"request_timeout"`      // REQUEST_TIMEOUT — default: 30s (whole stream)
}

const (
	envKeyHost            = "PRESETCHAT_HOST"
	envKeyPort            = "PRESETCHAT_PORT"
	envKeyDBPath          = "PRESETCHAT_DB"
	envKeyProviderBaseURL = "PROVIDER_BASE_URL"
	envKeyProviderAPIKey  = "PROVIDER_API_KEY"
	envKeyDefaultModel    = "DEFAULT_MODEL"
	envKeyAllowedSuffix   = "ALLOWED_MODEL_SUFFIX"
	envKeyRequestTimeout  = "REQUEST_TIMEOUT"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		DBPath:             "presetchat.db",
		ProviderBaseURL:    "https://openrouter.ai/api/v1",
		ProviderAPIKey:     "",
		DefaultModel:       "meta-llama/llama-3.3-70b-instruct:free",
		AllowedModelSuffix: ":free",
		RequestTimeout:     30 * time.Second,
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path (skipped when path is empty or the file does not exist),
// overlaid by environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// loadFile merges the YAML file at path into cfg. A missing file is not an
// error — the config file is optional.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg fields from environment variables.
func applyEnv(cfg *Config) {
	cfg.Host = envOr(envKeyHost, cfg.Host)
	cfg.DBPath = envOr(envKeyDBPath, cfg.DBPath)
	cfg.ProviderBaseURL = envOr(envKeyProviderBaseURL, cfg.ProviderBaseURL)
	cfg.ProviderAPIKey = envOr(envKeyProviderAPIKey, cfg.ProviderAPIKey)
	cfg.DefaultModel = envOr(envKeyDefaultModel, cfg.DefaultModel)
	cfg.AllowedModelSuffix = envOr(envKeyAllowedSuffix, cfg.AllowedModelSuffix)

	if v := os.Getenv(envKeyPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv(envKeyRequestTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
