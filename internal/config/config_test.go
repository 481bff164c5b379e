package config

import (
	"testing"
	"time"
)

func TestLoadAll_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/doorbell")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Fatalf("expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.Database.PostgresURL != "postgres://localhost/doorbell" {
		t.Fatalf("unexpected postgres url %q", cfg.Database.PostgresURL)
	}
	if cfg.Session.Window != 20*time.Second {
		t.Fatalf("expected default window 20s, got %v", cfg.Session.Window)
	}
	if cfg.Session.PruneInterval != 60*time.Second {
		t.Fatalf("expected default prune interval 60s, got %v", cfg.Session.PruneInterval)
	}
	if cfg.Webhook.ChatOrigin != "http://localhost:8080" {
		t.Fatalf("expected default chat origin, got %q", cfg.Webhook.ChatOrigin)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected redis disabled without REDIS_ADDR")
	}
}

func TestLoadAll_Overrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://db/doorbell")
	t.Setenv("SERVER_ADDRESS", ":9999")
	t.Setenv("SESSION_WINDOW_SECONDS", "45")
	t.Setenv("SESSION_PRUNE_SECONDS", "10")
	t.Setenv("CHAT_ORIGIN", "https://doorbell.example.com")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Server.Address != ":9999" {
		t.Fatalf("expected :9999, got %q", cfg.Server.Address)
	}
	if cfg.Session.Window != 45*time.Second {
		t.Fatalf("expected 45s window, got %v", cfg.Session.Window)
	}
	if cfg.Session.PruneInterval != 10*time.Second {
		t.Fatalf("expected 10s prune interval, got %v", cfg.Session.PruneInterval)
	}
	if cfg.Webhook.ChatOrigin != "https://doorbell.example.com" {
		t.Fatalf("unexpected chat origin %q", cfg.Webhook.ChatOrigin)
	}
}

func TestLoadAll_RedisEnabled(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://db/doorbell")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("NOTIFIED_TTL_SECONDS", "3600")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if !cfg.Redis.Enabled {
		t.Fatalf("expected redis enabled")
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Fatalf("unexpected redis address %q", cfg.Redis.Address)
	}
	if cfg.Redis.Password != "secret" {
		t.Fatalf("unexpected redis password %q", cfg.Redis.Password)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("unexpected redis db %d", cfg.Redis.DB)
	}
	if cfg.Redis.NotifiedTTL != time.Hour {
		t.Fatalf("unexpected notified ttl %v", cfg.Redis.NotifiedTTL)
	}
}

func TestLoadAll_MissingPostgresURLPanics(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")

	expectPanic(t, func() { _, _ = LoadAll() })
}

func TestLoadAll_InvalidValuesPanic(t *testing.T) {
	t.Run("non-numeric window", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://db/doorbell")
		t.Setenv("SESSION_WINDOW_SECONDS", "soon")

		expectPanic(t, func() { _, _ = LoadAll() })
	})

	t.Run("zero window", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://db/doorbell")
		t.Setenv("SESSION_WINDOW_SECONDS", "0")

		expectPanic(t, func() { _, _ = LoadAll() })
	})

	t.Run("zero notified ttl with redis", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://db/doorbell")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("NOTIFIED_TTL_SECONDS", "0")

		expectPanic(t, func() { _, _ = LoadAll() })
	})
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}
