package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prism.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: memory\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second || cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("timeout defaults = %v/%v", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Engine.MaxDepth != 10 {
		t.Errorf("max depth default = %d", cfg.Engine.MaxDepth)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("bcrypt cost default = %d", cfg.Auth.BcryptCost)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics path default = %s", cfg.Metrics.Path)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
database:
  driver: sqlite
  dsn: /tmp/prism-test.db
schemas:
  dir: ./schemas
engine:
  max_depth: 4
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Database.DSN != "/tmp/prism-test.db" {
		t.Errorf("dsn = %s", cfg.Database.DSN)
	}
	if cfg.Schemas.Dir != "./schemas" {
		t.Errorf("schemas dir = %s", cfg.Schemas.Dir)
	}
	if cfg.Engine.MaxDepth != 4 {
		t.Errorf("max depth = %d", cfg.Engine.MaxDepth)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PRISM_SERVER_PORT", "7070")
	t.Setenv("PRISM_DATABASE_DRIVER", "memory")
	t.Setenv("PRISM_ENGINE_MAX_DEPTH", "3")

	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: sqlite
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %s, want env override memory", cfg.Database.Driver)
	}
	if cfg.Engine.MaxDepth != 3 {
		t.Errorf("max depth = %d, want env override 3", cfg.Engine.MaxDepth)
	}
}

func TestExpandEnvInFile(t *testing.T) {
	t.Setenv("PRISM_TEST_DSN", "/data/expanded.db")
	path := writeConfig(t, "database:\n  driver: sqlite\n  dsn: ${PRISM_TEST_DSN}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.DSN != "/data/expanded.db" {
		t.Errorf("dsn = %s", cfg.Database.DSN)
	}
}

func TestValidateRejectsBadDriver(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: postgres\n")
	if _, err := Load(path); err == nil {
		t.Fatal("unknown driver should fail validation")
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: verbose\n")
	if _, err := Load(path); err == nil {
		t.Fatal("unknown log level should fail validation")
	}
}

func TestValidateRejectsNegativeDepth(t *testing.T) {
	path := writeConfig(t, "engine:\n  max_depth: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("negative max depth should fail validation")
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("PRISM_DATABASE_DRIVER", "memory")

	cfg, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback() error = %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %s", cfg.Database.Driver)
	}
}
