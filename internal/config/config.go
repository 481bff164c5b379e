package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Webhook  WebhookConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	// NotifiedTTL bounds how long dispatched-webhook markers live.
	NotifiedTTL time.Duration
}

type SessionConfig struct {
	// Window is the inactivity window after which a chatting session is
	// force-closed.
	Window time.Duration
	// PruneInterval is how often idle sessions are swept from the
	// manager.
	PruneInterval time.Duration
}

type WebhookConfig struct {
	// ChatOrigin is the base URL deep links in outbound alerts point at.
	ChatOrigin string
}

func LoadAll() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: mustEnv("POSTGRES_URL"),
		},
		Webhook: WebhookConfig{
			ChatOrigin: getEnv("CHAT_ORIGIN", "http://localhost:8080"),
		},
		Session: SessionConfig{
			Window:        time.Duration(getEnvInt("SESSION_WINDOW_SECONDS", 20)) * time.Second,
			PruneInterval: time.Duration(getEnvInt("SESSION_PRUNE_SECONDS", 60)) * time.Second,
		},
		Redis: loadRedisConfig(),
	}

	validate(cfg)
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:     true,
		Address:     addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          getEnvInt("REDIS_DB", 0),
		NotifiedTTL: time.Duration(getEnvInt("NOTIFIED_TTL_SECONDS", 86400)) * time.Second,
	}
}

func validate(cfg *Config) {
	if cfg.Session.Window <= 0 {
		panic("SESSION_WINDOW_SECONDS must be > 0")
	}
	if cfg.Session.PruneInterval <= 0 {
		panic("SESSION_PRUNE_SECONDS must be > 0")
	}
	if cfg.Webhook.ChatOrigin == "" {
		panic("CHAT_ORIGIN must not be empty")
	}
	if cfg.Redis.Enabled && cfg.Redis.NotifiedTTL <= 0 {
		panic("NOTIFIED_TTL_SECONDS must be > 0")
	}
}

func mustEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("missing required env var: %s", key))
	}
	return val
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}
