package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
server:
  port: "9090"
postgres:
  url: postgres://file
quiz:
  cache_ttl: 2m
  pin_attempts: 5
auth:
  secret: from-file
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTH_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Postgres.URL != "postgres://file" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Fatalf("expected env override, got %q", cfg.Auth.Secret)
	}
	if cfg.PinAttempts() != 5 {
		t.Fatalf("expected 5 pin attempts, got %d", cfg.PinAttempts())
	}
	if got := TTLDuration(cfg.Quiz.CacheTTL, time.Minute); got != 2*time.Minute {
		t.Fatalf("expected 2m ttl, got %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PinAttempts() != 32 {
		t.Fatalf("expected default pin attempts, got %d", cfg.PinAttempts())
	}
	if got := TTLDuration("bogus", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
