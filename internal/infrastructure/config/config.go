package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	ChatKit   ChatKitConfig
	Retry     RetryConfig
	Transport TransportConfig
	Cookie    CookieConfig
	Assets    AssetConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// ChatKitConfig holds upstream ChatKit API configuration.
//
// APIKey is intentionally not required at load time: a missing key is
// reported per-request so the gateway can boot in partial configurations.
type ChatKitConfig struct {
	APIKey     string `envconfig:"OPENAI_API_KEY"`
	BaseURL    string `envconfig:"CHATKIT_API_BASE" default:"https://api.openai.com"`
	WorkflowID string `envconfig:"CHATKIT_WORKFLOW_ID"`
}

// RetryConfig holds upstream retry configuration.
type RetryConfig struct {
	Max       int           `envconfig:"CHATKIT_RETRY_MAX" default:"3"`
	BaseDelay time.Duration `envconfig:"CHATKIT_RETRY_BASE_DELAY" default:"500ms"`
	MaxDelay  time.Duration `envconfig:"CHATKIT_RETRY_MAX_DELAY" default:"30s"`
	Jitter    bool          `envconfig:"CHATKIT_RETRY_JITTER" default:"true"`
}

// TransportConfig holds per-phase upstream timeout configuration.
type TransportConfig struct {
	ConnectTimeout time.Duration `envconfig:"CHATKIT_CONNECT_TIMEOUT" default:"5s"`
	HeaderTimeout  time.Duration `envconfig:"CHATKIT_HEADER_TIMEOUT" default:"15s"`
	BodyTimeout    time.Duration `envconfig:"CHATKIT_BODY_TIMEOUT" default:"30s"`
}

// CookieConfig holds identity cookie configuration.
type CookieConfig struct {
	Disabled bool `envconfig:"CHATKIT_COOKIE_DISABLED" default:"false"`
	Secure   bool `envconfig:"CHATKIT_COOKIE_SECURE" default:"false"`
}

// AssetConfig holds static widget asset configuration.
type AssetConfig struct {
	Dir      string   `envconfig:"ASSET_DIR" default:"./web/dist"`
	Patterns []string `envconfig:"ASSET_PATTERNS" default:"**"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		ChatKit: ChatKitConfig{
			BaseURL: "https://api.openai.com",
		},
		Retry: RetryConfig{
			Max:       3,
			BaseDelay: 500 * time.Millisecond,
			MaxDelay:  30 * time.Second,
			Jitter:    true,
		},
		Transport: TransportConfig{
			ConnectTimeout: 5 * time.Second,
			HeaderTimeout:  15 * time.Second,
			BodyTimeout:    30 * time.Second,
		},
		Assets: AssetConfig{
			Dir:      "./web/dist",
			Patterns: []string{"**"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
