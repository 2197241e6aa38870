package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("default port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Telegram.StateTTL != 5*time.Minute {
		t.Errorf("default state TTL = %v, want 5m", cfg.Telegram.StateTTL)
	}
	if cfg.Helius.BaseURL != "https://api.helius.xyz" {
		t.Errorf("default helius base URL = %q", cfg.Helius.BaseURL)
	}
	if cfg.Redis.Enabled {
		t.Error("redis should be disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
app:
  name: tracker-test
server:
  port: 8080
telegram:
  bot_token: file-token
  state_ttl: 2m
database:
  url: postgres://localhost/test
helius:
  api_key: key123
  webhook_id: wh123
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := defaultConfig()
	if err := loadFromFile(path, cfg); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}

	if cfg.App.Name != "tracker-test" {
		t.Errorf("app name = %q", cfg.App.Name)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Telegram.StateTTL != 2*time.Minute {
		t.Errorf("state TTL = %v, want 2m", cfg.Telegram.StateTTL)
	}
	if !cfg.IsHeliusEnabled() {
		t.Error("helius should be enabled with api_key and webhook_id set")
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("TEST_TRACKER_TOKEN", "secret123")
	defer os.Unsetenv("TEST_TRACKER_TOKEN")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"braced", "token: ${TEST_TRACKER_TOKEN}", "token: secret123"},
		{"bare", "token: $TEST_TRACKER_TOKEN", "token: secret123"},
		{"missing", "token: ${TEST_TRACKER_MISSING}", "token: "},
		{"no vars", "port: 3000", "port: 3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandEnvVars(tt.input); got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	os.Setenv("TELEGRAM_AUTHORIZED_CHAT_IDS", "123, 456,bad,789")
	os.Setenv("REDIS_HOST", "redis.internal")
	defer func() {
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("TELEGRAM_AUTHORIZED_CHAT_IDS")
		os.Unsetenv("REDIS_HOST")
	}()

	cfg := defaultConfig()
	loadFromEnv(cfg)

	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("bot token = %q", cfg.Telegram.BotToken)
	}
	want := []int64{123, 456, 789}
	if len(cfg.Telegram.AuthorizedChatIDs) != len(want) {
		t.Fatalf("chat ids = %v, want %v", cfg.Telegram.AuthorizedChatIDs, want)
	}
	for i, id := range want {
		if cfg.Telegram.AuthorizedChatIDs[i] != id {
			t.Errorf("chat id[%d] = %d, want %d", i, cfg.Telegram.AuthorizedChatIDs[i], id)
		}
	}
	if !cfg.Redis.Enabled {
		t.Error("setting REDIS_HOST should enable redis")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Telegram.BotToken = "tok"
		cfg.Database.URL = "postgres://localhost/db"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing bot token", func(c *Config) { c.Telegram.BotToken = "" }, true},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"redis enabled no host", func(c *Config) { c.Redis.Enabled = true; c.Redis.Host = "" }, true},
		{"helius key without webhook id", func(c *Config) { c.Helius.APIKey = "k" }, true},
		{"helius fully configured", func(c *Config) { c.Helius.APIKey = "k"; c.Helius.WebhookID = "w" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsAuthorized(t *testing.T) {
	open := TelegramConfig{}
	if !open.IsAuthorized(42) {
		t.Error("empty allowlist should authorize everyone")
	}

	gated := TelegramConfig{AuthorizedChatIDs: []int64{1, 2}}
	if !gated.IsAuthorized(2) {
		t.Error("listed chat should be authorized")
	}
	if gated.IsAuthorized(3) {
		t.Error("unlisted chat should be denied")
	}
}
