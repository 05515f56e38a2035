package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds bot credentials and the posting allow-list.
// An empty token is accepted on load: the webhook keeps answering requests
// with a per-request error instead of refusing to start.
type TelegramConfig struct {
	Token           string  `yaml:"token" envconfig:"BOT_TOKEN"`
	AuthorizedUsers []int64 `yaml:"authorized_users" envconfig:"TELEGRAM_AUTHORIZED_USERS"`
}

// WebhookConfig specifies the inbound HTTP listener.
type WebhookConfig struct {
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	Path   string `yaml:"path" envconfig:"WEBHOOK_PATH"`
}

// SessionConfig selects the session store backend and its expiry.
type SessionConfig struct {
	Backend    string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTLMinutes int    `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// WordPressConfig points at the content store REST API.
type WordPressConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"WORDPRESS_BASE_URL"`
	Username       string `yaml:"username" envconfig:"WORDPRESS_USERNAME"`
	AppPassword    string `yaml:"app_password" envconfig:"WORDPRESS_APP_PASSWORD"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"WORDPRESS_TIMEOUT_SECONDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	KeysOrder string `yaml:"keys_order"`
	Dir       string `yaml:"dir"`
	File      string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// DatabaseConfig holds Postgres connection settings for the session store.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

const (
	// BackendPostgres stores sessions in Postgres.
	BackendPostgres = "postgres"
	// BackendMemory keeps sessions in process memory (dev and tests).
	BackendMemory = "memory"

	defaultSessionTTLMinutes = 60
	defaultWebhookPath       = "/telegram/webhook"
	defaultWordPressTimeout  = 10
)

// Config aggregates the full application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Webhook.Listen) == "" {
		cfg.Webhook.Listen = "0.0.0.0"
	}
	if cfg.Webhook.Port <= 0 {
		return fmt.Errorf("webhook.port must be > 0")
	}
	if strings.TrimSpace(cfg.Webhook.Path) == "" {
		cfg.Webhook.Path = defaultWebhookPath
	}
	if !strings.HasPrefix(cfg.Webhook.Path, "/") {
		cfg.Webhook.Path = "/" + cfg.Webhook.Path
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	if backend == "" {
		backend = BackendPostgres
	}
	switch backend {
	case BackendPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("database.host is required when session.backend is 'postgres'")
		}
		if strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.name is required when session.backend is 'postgres'")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: postgres, memory", cfg.Session.Backend)
	}
	cfg.Session.Backend = backend

	if cfg.Session.TTLMinutes < 0 {
		return fmt.Errorf("session.ttl_minutes must be >= 0")
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = defaultSessionTTLMinutes
	}

	if strings.TrimSpace(cfg.WordPress.BaseURL) == "" {
		return fmt.Errorf("wordpress.base_url is required")
	}
	cfg.WordPress.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.WordPress.BaseURL), "/")
	if cfg.WordPress.TimeoutSeconds <= 0 {
		cfg.WordPress.TimeoutSeconds = defaultWordPressTimeout
	}

	return nil
}
