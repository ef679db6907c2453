package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LEADWISE_TOKEN", "")

	// We pass nil for cmd to skip flags
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.LogLevel != DefaultServerLogLevel {
		t.Errorf("Expected default log level %s, got %s", DefaultServerLogLevel, cfg.Server.LogLevel)
	}
	if cfg.Chat.BaseURL != DefaultChatBaseURL {
		t.Errorf("Expected default base url %s, got %s", DefaultChatBaseURL, cfg.Chat.BaseURL)
	}
	if cfg.Chat.StreamPath != DefaultChatStreamPath {
		t.Errorf("Expected default stream path %s, got %s", DefaultChatStreamPath, cfg.Chat.StreamPath)
	}
	if cfg.Chat.DisplayFloor != DefaultChatDisplayFloor {
		t.Errorf("Expected default display floor %s, got %s", DefaultChatDisplayFloor, cfg.Chat.DisplayFloor)
	}
	if cfg.Chat.IdleTimeout != DefaultChatIdleTimeout {
		t.Errorf("Expected default idle timeout %s, got %s", DefaultChatIdleTimeout, cfg.Chat.IdleTimeout)
	}
	if cfg.Store.LockMaxRetry != DefaultStoreLockMaxRetry {
		t.Errorf("Expected default lock max retry %d, got %d", DefaultStoreLockMaxRetry, cfg.Store.LockMaxRetry)
	}
	if cfg.Watch.Schedule != DefaultWatchSchedule {
		t.Errorf("Expected default watch schedule %s, got %s", DefaultWatchSchedule, cfg.Watch.Schedule)
	}
	if cfg.Relay.Provider != DefaultRelayProvider {
		t.Errorf("Expected default relay provider %s, got %s", DefaultRelayProvider, cfg.Relay.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LEADWISE_CHAT_TOKEN", "from-env")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Chat.Token != "from-env" {
		t.Errorf("Expected env override token, got %s", cfg.Chat.Token)
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".leadwise")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	content := []byte("chat:\n  base_url: http://localhost:8480\n  token: test-token\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Chat.BaseURL != "http://localhost:8480" {
		t.Errorf("Expected file override base url, got %s", cfg.Chat.BaseURL)
	}
	if cfg.Chat.Token != "test-token" {
		t.Errorf("Expected file token, got %s", cfg.Chat.Token)
	}
	// Untouched keys keep defaults
	if cfg.Chat.StreamPath != DefaultChatStreamPath {
		t.Errorf("Expected default stream path to survive file load, got %s", cfg.Chat.StreamPath)
	}
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LEADWISE_TOKEN", "env-token")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Chat.Token != "env-token" {
		t.Errorf("Expected token from LEADWISE_TOKEN, got %s", cfg.Chat.Token)
	}
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("", DefaultChatDisplayFloor)
	if err != nil {
		t.Fatalf("parse default: %v", err)
	}
	if d.Milliseconds() != 300 {
		t.Errorf("Expected 300ms, got %s", d)
	}

	if _, err := DurationOrDefault("not-a-duration", "1s"); err == nil {
		t.Error("Expected error for malformed duration")
	}
}
