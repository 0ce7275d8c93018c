package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ServerPort != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.ServerPort)
	}
	if cfg.GroqModel != "llama-3.1-8b-instant" {
		t.Fatalf("unexpected default model %q", cfg.GroqModel)
	}
	if cfg.DemoUserID != "user-1" {
		t.Fatalf("unexpected default demo user %q", cfg.DemoUserID)
	}
	if cfg.AuthMaxAttempts != 3 {
		t.Fatalf("expected 3 auth attempts, got %d", cfg.AuthMaxAttempts)
	}
	if cfg.HistoryTurnCap != 20 {
		t.Fatalf("expected history cap 20, got %d", cfg.HistoryTurnCap)
	}
	if cfg.SessionIdleTTLMinutes != 30 {
		t.Fatalf("expected idle TTL 30, got %d", cfg.SessionIdleTTLMinutes)
	}
	if cfg.SessionSweepSchedule != "@every 1m" {
		t.Fatalf("unexpected sweep schedule %q", cfg.SessionSweepSchedule)
	}
	if cfg.TurnRateLimitPerMinute != 60 {
		t.Fatalf("expected rate limit 60, got %d", cfg.TurnRateLimitPerMinute)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("AUTH_MAX_ATTEMPTS", "5")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/voicebank")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Fatalf("expected overridden port, got %q", cfg.ServerPort)
	}
	if cfg.GroqAPIKey != "gsk_test" {
		t.Fatalf("expected API key from env, got %q", cfg.GroqAPIKey)
	}
	if cfg.AuthMaxAttempts != 5 {
		t.Fatalf("expected 5 auth attempts, got %d", cfg.AuthMaxAttempts)
	}
	if cfg.DatabaseURL != "postgres://localhost:5432/voicebank" {
		t.Fatalf("unexpected database URL %q", cfg.DatabaseURL)
	}
}
