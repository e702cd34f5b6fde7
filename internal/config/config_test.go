package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.RateLimitMax != 5 || cfg.RateLimitWindowSec != 60 {
		t.Fatalf("expected default bid rate limit of 5 per 60s")
	}
	if cfg.RateLimitBackend != "memory" {
		t.Fatalf("expected memory limiter by default")
	}
	if cfg.SweepMaxAgeHours != 24 {
		t.Fatalf("expected 24h sweep age")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.RateLimitMax != 10 {
		t.Fatalf("expected override rate limit")
	}
	if cfg.RateLimitBackend != "redis" {
		t.Fatalf("expected override limiter backend")
	}
}
