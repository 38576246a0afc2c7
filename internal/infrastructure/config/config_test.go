package config_test

import (
	"testing"
	"time"

	"github.com/finovo/bankcore/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RAZORPAY_KEY_ID", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.SettlementPendingTimeout != 72*time.Hour {
		t.Fatalf("expected default pending timeout of 72h, got %s", cfg.SettlementPendingTimeout)
	}

	if cfg.GatewayEnabled() || cfg.AssistantEnabled() {
		t.Fatalf("expected gateway and assistant to be disabled without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("CORS_ORIGINS", "https://app.finovo.example,https://admin.finovo.example")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_secret")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_POOL_SIZE", "64")
	t.Setenv("DATABASE_CONNECT_RETRIES", "0")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.AuthEnabled {
		t.Fatalf("expected auth settings to be set, got secret=%s enabled=%v", cfg.JWTSecret, cfg.AuthEnabled)
	}

	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.finovo.example" {
		t.Fatalf("expected two CORS origins, got %v", cfg.CORSOrigins)
	}

	if !cfg.GatewayEnabled() {
		t.Fatalf("expected gateway to be enabled with credentials")
	}

	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}

	if cfg.RedisPoolSize != 64 || cfg.DatabaseConnectRetries != 0 {
		t.Fatalf("expected connection overrides, got pool=%d retries=%d", cfg.RedisPoolSize, cfg.DatabaseConnectRetries)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := map[string]string{
		"HTTP_READ_TIMEOUT":     "not-a-duration",
		"REDIS_POOL_SIZE":       "many",
		"RATE_LIMIT_RPS":        "fast",
		"AUTH_ENABLED":          "maybe",
		"REDIS_CONNECT_RETRIES": "1.5",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
