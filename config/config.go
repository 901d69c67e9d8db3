// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Schemas  SchemasConfig  `yaml:"schemas"`
	Engine   EngineConfig   `yaml:"engine"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// SchemasConfig configures schema configuration loading.
type SchemasConfig struct {
	// Dir holds YAML schema definitions loaded at startup and on reload.
	Dir string `yaml:"dir"`
}

// EngineConfig tunes the pipelines.
type EngineConfig struct {
	// MaxDepth bounds nested-schema recursion.
	MaxDepth int `yaml:"max_depth"`
}

// AuthConfig configures authentication.
type AuthConfig struct {
	// AdminTokenHash is the bcrypt hash privileged Bearer tokens must
	// match. Empty disables privileged access.
	AdminTokenHash string `yaml:"admin_token_hash,omitempty"`

	// BcryptCost tunes token hashing for the admin CLI.
	BcryptCost int `yaml:"bcrypt_cost"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// Useful for container deployments where no config file is mounted.
//
// Environment variables:
//
//	PRISM_SERVER_HOST      - Server host (default: 0.0.0.0)
//	PRISM_SERVER_PORT      - Server port (default: 8080)
//	PRISM_DATABASE_DRIVER  - Database driver: sqlite or memory (default: sqlite)
//	PRISM_DATABASE_DSN     - Database path (default: prism.db)
//	PRISM_SCHEMAS_DIR      - Directory of YAML schema definitions
//	PRISM_ENGINE_MAX_DEPTH - Nested recursion limit (default: 10)
//	PRISM_ADMIN_TOKEN_HASH - Bcrypt hash of the privileged token
//	PRISM_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	PRISM_LOG_FORMAT       - Log format: json or console (default: json)
//	PRISM_METRICS_ENABLED  - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies PRISM_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRISM_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PRISM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PRISM_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("PRISM_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("PRISM_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("PRISM_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("PRISM_SCHEMAS_DIR"); v != "" {
		cfg.Schemas.Dir = v
	}
	if v := os.Getenv("PRISM_ENGINE_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxDepth = n
		}
	}

	if v := os.Getenv("PRISM_ADMIN_TOKEN_HASH"); v != "" {
		cfg.Auth.AdminTokenHash = v
	}

	if v := os.Getenv("PRISM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PRISM_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("PRISM_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1" || v == "yes" || v == "on"
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "prism.db"
	}

	if cfg.Engine.MaxDepth == 0 {
		cfg.Engine.MaxDepth = 10
	}

	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	if cfg.Engine.MaxDepth < 1 {
		return fmt.Errorf("engine.max_depth must be positive, got %d", cfg.Engine.MaxDepth)
	}

	return nil
}
