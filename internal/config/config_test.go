package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != DefaultBackendBaseURL {
		t.Errorf("base_url = %q, want default", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Model != DefaultModel {
		t.Errorf("model = %q, want default", cfg.Backend.Model)
	}
	if cfg.History.MaxChars != DefaultHistoryChars {
		t.Errorf("max_chars = %d, want %d", cfg.History.MaxChars, DefaultHistoryChars)
	}
	if cfg.Telegram.BotToken != "123:abc" {
		t.Errorf("bot_token = %q, want env value", cfg.Telegram.BotToken)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[telegram]
bot_token = "456:def"

[backend]
model = "qwen2-vl"
timeout_seconds = 60

[history]
max_chars = 6000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "456:def" {
		t.Errorf("bot_token = %q", cfg.Telegram.BotToken)
	}
	if cfg.Backend.Model != "qwen2-vl" {
		t.Errorf("model = %q", cfg.Backend.Model)
	}
	if cfg.Backend.TimeoutSeconds != 60 {
		t.Errorf("timeout_seconds = %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Backend.MaxTokens != DefaultMaxTokens {
		t.Errorf("max_tokens = %d, want default retained", cfg.Backend.MaxTokens)
	}
	if cfg.History.MaxChars != 6000 {
		t.Errorf("max_chars = %d", cfg.History.MaxChars)
	}
}

func TestLoadMissingTokenFails(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("Load accepted a config without a bot token")
	}
}

func TestEnvTokenWinsOverFile(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[telegram]\nbot_token = \"file-token\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("bot_token = %q, want env-token", cfg.Telegram.BotToken)
	}
}
