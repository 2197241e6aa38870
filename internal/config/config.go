package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// Config holds all application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Helius   HeliusConfig   `yaml:"helius"`
	Logger   LoggerConfig   `yaml:"logger"`
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds the inbound webhook HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	// AuthorizedChatIDs optionally gates all command access. Empty means open.
	AuthorizedChatIDs []int64       `yaml:"authorized_chat_ids"`
	Timeout           time.Duration `yaml:"timeout"`
	RetryCount        int           `yaml:"retry_count"`
	// StateTTL bounds how long a pending add/remove conversation step stays valid.
	StateTTL time.Duration `yaml:"state_ttl"`
}

// DatabaseConfig holds the Postgres connection configuration
type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConns       int32         `yaml:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// RedisConfig holds Redis connection configuration for webhook deduplication
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// SeenTTL is how long a processed transaction signature is remembered.
	SeenTTL time.Duration `yaml:"seen_ttl"`
}

// HeliusConfig holds webhook-provider credentials and identifiers
type HeliusConfig struct {
	APIKey     string        `yaml:"api_key"`
	WebhookID  string        `yaml:"webhook_id"`
	WebhookURL string        `yaml:"webhook_url"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	// ResyncInterval enables a periodic full allowlist resync when > 0.
	// Zero disables background reconciliation; the allowlist is then only
	// pushed on subscription mutations.
	ResyncInterval time.Duration `yaml:"resync_interval"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or text
	TimeFormat string `yaml:"time_format"`
}

// Load loads configuration from file and environment variables.
// Load order (later overrides earlier):
// 1. Default values
// 2. .env file (if exists) - loaded into process environment
// 3. YAML config file with ${VAR} expansion
// 4. Environment variable overrides (explicit mappings)
func Load(configPath string) (*Config, error) {
	cfg := defaultConfig()

	loadDotEnv(configPath)

	if configPath != "" {
		if err := loadFromFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads a .env file from common locations without overriding
// variables already present in the environment.
func loadDotEnv(configPath string) {
	envPaths := []string{
		".env",
		".env.local",
	}

	if configPath != "" {
		configDir := filepath.Dir(configPath)
		envPaths = append(envPaths,
			filepath.Join(configDir, ".env"),
			filepath.Join(configDir, "..", ".env"),
		)
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}
}

// defaultConfig returns configuration with default values
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "solana-wallet-tracker",
			Environment: "development",
		},
		Server: ServerConfig{
			Port: 3000,
		},
		Telegram: TelegramConfig{
			Timeout:    30 * time.Second,
			RetryCount: 3,
			StateTTL:   5 * time.Minute,
		},
		Database: DatabaseConfig{
			MaxConns:       5,
			ConnectTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			SeenTTL:      10 * time.Minute,
		},
		Helius: HeliusConfig{
			BaseURL: "https://api.helius.xyz",
			Timeout: 15 * time.Second,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "json",
			TimeFormat: time.RFC3339,
		},
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}

	expanded := expandEnvVars(string(data))

	return yaml.Unmarshal([]byte(expanded), cfg)
}

// expandEnvVars replaces ${VAR} or $VAR with environment variable values
func expandEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return ""
	})
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(cfg *Config) {
	// App
	if v := os.Getenv("APP_NAME"); v != "" {
		cfg.App.Name = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Environment = v
	}

	// Server
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}

	// Telegram
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	// TELEGRAM_AUTHORIZED_CHAT_IDS: comma-separated chat identifiers
	if v := os.Getenv("TELEGRAM_AUTHORIZED_CHAT_IDS"); v != "" {
		cfg.Telegram.AuthorizedChatIDs = parseChatIDs(v)
	}
	if v := os.Getenv("TELEGRAM_STATE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Telegram.StateTTL = d
		}
	}

	// Database
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}

	// Redis
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = n
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}

	// Helius
	if v := os.Getenv("HELIUS_API_KEY"); v != "" {
		cfg.Helius.APIKey = v
	}
	if v := os.Getenv("HELIUS_WEBHOOK_ID"); v != "" {
		cfg.Helius.WebhookID = v
	}
	if v := os.Getenv("HELIUS_WEBHOOK_URL"); v != "" {
		cfg.Helius.WebhookURL = v
	}
	if v := os.Getenv("HELIUS_RESYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Helius.ResyncInterval = d
		}
	}

	// Logger
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
}

// parseChatIDs parses a comma-separated list of chat identifiers,
// skipping anything non-numeric.
func parseChatIDs(value string) []int64 {
	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}
	if c.Helius.APIKey != "" && c.Helius.WebhookID == "" {
		return fmt.Errorf("helius webhook_id is required when api_key is set")
	}
	return nil
}

// IsHeliusEnabled returns true if allowlist synchronization is configured
func (c *Config) IsHeliusEnabled() bool {
	return c.Helius.APIKey != "" && c.Helius.WebhookID != ""
}

// IsAuthorized reports whether a chat may use the bot. An empty allowlist
// authorizes everyone.
func (c *TelegramConfig) IsAuthorized(chatID int64) bool {
	if len(c.AuthorizedChatIDs) == 0 {
		return true
	}
	for _, id := range c.AuthorizedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
