package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ACCURO_BASE_URL", "")
	t.Setenv("ACCURO_TOKEN_URL", "")
	t.Setenv("SIMULATED_SCHEDULING", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.AccuroBaseURL != "https://sandbox.accuroemr.com/api" {
		t.Fatalf("expected sandbox base URL, got %s", cfg.AccuroBaseURL)
	}
	if cfg.AccuroTokenURL != "https://sandbox.accuroemr.com/api/oauth2/token" {
		t.Fatalf("expected token URL derived from base, got %s", cfg.AccuroTokenURL)
	}
	if cfg.AccuroTimeout != 15*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.AccuroTimeout)
	}
	if cfg.AccuroTokenMargin != 5*time.Minute {
		t.Fatalf("expected default token margin, got %s", cfg.AccuroTokenMargin)
	}
	if cfg.SimulatedScheduling {
		t.Fatal("expected simulated scheduling disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("RETELL_WEBHOOK_KEY", "retell-key")
	t.Setenv("ACCURO_BASE_URL", "https://emr.example.com/api/")
	t.Setenv("ACCURO_CLIENT_ID", "client-1")
	t.Setenv("ACCURO_CLIENT_SECRET", "secret-1")
	t.Setenv("ACCURO_TIMEOUT", "30s")
	t.Setenv("ACCURO_TOKEN_MARGIN", "2m")
	t.Setenv("SIMULATED_SCHEDULING", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.RetellWebhookKey != "retell-key" {
		t.Fatalf("expected webhook key override, got %s", cfg.RetellWebhookKey)
	}
	if cfg.AccuroBaseURL != "https://emr.example.com/api" {
		t.Fatalf("expected trailing slash stripped, got %s", cfg.AccuroBaseURL)
	}
	if cfg.AccuroTokenURL != "https://emr.example.com/api/oauth2/token" {
		t.Fatalf("expected token URL from overridden base, got %s", cfg.AccuroTokenURL)
	}
	if cfg.AccuroTimeout != 30*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.AccuroTimeout)
	}
	if cfg.AccuroTokenMargin != 2*time.Minute {
		t.Fatalf("expected margin override, got %s", cfg.AccuroTokenMargin)
	}
	if !cfg.SimulatedScheduling {
		t.Fatal("expected simulated scheduling enabled")
	}
}

func TestExplicitTokenURLWins(t *testing.T) {
	t.Setenv("ACCURO_BASE_URL", "https://emr.example.com/api")
	t.Setenv("ACCURO_TOKEN_URL", "https://auth.example.com/oauth2/token")
	cfg := Load()
	if cfg.AccuroTokenURL != "https://auth.example.com/oauth2/token" {
		t.Fatalf("expected explicit token URL, got %s", cfg.AccuroTokenURL)
	}
}
