package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "UPLOAD_BASE", "DB_DSN", "DB_HOST", "DB_PORT", "DB_AUTO_MIGRATE", "DB_SEED", "DB_CONNECT_ATTEMPTS", "DB_CONNECT_DELAY", "LOG_LEVEL", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "4000" || cfg.UploadBase != "uploads" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.AutoMigrate || !cfg.Seed {
		t.Fatalf("migrate and seed should default to true")
	}
	if cfg.DB.ConnectAttempts != 10 || cfg.DB.ConnectDelay != 3*time.Second {
		t.Fatalf("unexpected retry defaults: %+v", cfg.DB)
	}
	want := "host=localhost port=5432 user=postgres password=postgres dbname=cartorio sslmode=disable"
	if got := cfg.DB.ConnString(); got != want {
		t.Fatalf("ConnString = %q, want %q", got, want)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected info level")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/x")
	t.Setenv("DB_AUTO_MIGRATE", "no")
	t.Setenv("DB_CONNECT_ATTEMPTS", "3")
	t.Setenv("DB_CONNECT_DELAY", "10ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://example.com ,")
	cfg := Load()
	if cfg.Addr() != ":8081" {
		t.Fatalf("unexpected addr %s", cfg.Addr())
	}
	if cfg.DB.ConnString() != "postgres://u:p@db:5432/x" {
		t.Fatalf("DB_DSN should win, got %s", cfg.DB.ConnString())
	}
	if cfg.AutoMigrate {
		t.Fatalf("DB_AUTO_MIGRATE=no should disable migrations")
	}
	if cfg.DB.ConnectAttempts != 3 || cfg.DB.ConnectDelay != 10*time.Millisecond {
		t.Fatalf("unexpected retry settings %+v", cfg.DB)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}
