package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port: expected 8080, got %s", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl: expected 24h, got %s", cfg.TokenTTL)
	}
	if cfg.JWTSecret != devSecret {
		t.Errorf("expected development secret fallback, got %q", cfg.JWTSecret)
	}
	if !cfg.MetricsEnabled || !cfg.MigrationsEnabled {
		t.Error("expected metrics and migrations enabled by default")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret in production", map[string]string{"APP_ENV": "production", "JWT_SECRET": ""}},
		{"bad ttl", map[string]string{"TOKEN_TTL": "soon"}},
		{"negative ttl", map[string]string{"TOKEN_TTL": "-1h"}},
		{"bad metrics flag", map[string]string{"METRICS_ENABLED": "maybe"}},
		{"bad migrations flag", map[string]string{"MIGRATIONS_ENABLED": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
