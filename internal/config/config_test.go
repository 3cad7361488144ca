package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CLINIC_API_BASE_URL", "")
	t.Setenv("EVENT_BUS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ClinicAPIBaseURL != "https://mbc.chakravue.co.in" {
		t.Fatalf("expected default base URL, got %s", cfg.ClinicAPIBaseURL)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.EventBus != "memory" {
		t.Fatalf("expected memory bus by default, got %s", cfg.EventBus)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected redis TLS disabled by default")
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins by default, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLINIC_API_BASE_URL", "http://localhost:8000/api")
	t.Setenv("HTTP_TIMEOUT", "45s")
	t.Setenv("EVENT_BUS", "Redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6380")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.ClinicAPIBaseURL != "http://localhost:8000/api" {
		t.Fatalf("expected base URL override, got %s", cfg.ClinicAPIBaseURL)
	}
	if cfg.HTTPTimeout != 45*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.HTTPTimeout)
	}
	if cfg.EventBus != "redis" {
		t.Fatalf("expected lowercased bus override, got %s", cfg.EventBus)
	}
	if cfg.RedisAddr != "127.0.0.1:6380" {
		t.Fatalf("expected redis addr override, got %s", cfg.RedisAddr)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staging.example.com" {
		t.Fatalf("expected trimmed CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}
