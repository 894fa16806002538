package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dashboard.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Email    EmailConfig    `mapstructure:"email"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr               string   `mapstructure:"addr"`
	Env                string   `mapstructure:"env"`
	StaticDir          string   `mapstructure:"static_dir"`
	TemplatesDir       string   `mapstructure:"templates_dir"`
	CSRFKey            string   `mapstructure:"csrf_key"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second"`
	SlowRequestMS      int      `mapstructure:"slow_request_ms"`
	AdminEmails        []string `mapstructure:"admin_emails"`
}

// DatabaseConfig holds the local SQLite settings.
type DatabaseConfig struct {
	Path        string `mapstructure:"path"`
	SlowQueryMS int    `mapstructure:"slow_query_ms"`
}

// BackendConfig holds the REST backend connection settings.
type BackendConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryCount        int           `mapstructure:"retry_count"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
}

// EmailConfig holds Resend settings. An empty key selects the noop sender.
type EmailConfig struct {
	ResendKey string `mapstructure:"resend_key"`
	From      string `mapstructure:"from"`
	ReplyTo   string `mapstructure:"reply_to"`
}

// OutboxConfig holds retry worker settings.
type OutboxConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// SessionConfig holds login session settings.
type SessionConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	SealKey string        `mapstructure:"seal_key"` // 64 hex chars; random per process when empty
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// IsProduction reports whether the server runs with env=production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Load reads config.yaml from the given directories (if present) and applies
// TUITION_* environment overrides, e.g. TUITION_BACKEND_BASE_URL.
// PRE: none
// POST: Returns a validated Config or an error naming the bad key
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix("TUITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	// Comma separated lists arrive from the environment as a single string.
	if len(cfg.Server.AdminEmails) == 1 && strings.Contains(cfg.Server.AdminEmails[0], ",") {
		cfg.Server.AdminEmails = strings.Split(cfg.Server.AdminEmails[0], ",")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at start-up.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if c.Backend.RequestsPerSecond <= 0 {
		return errors.New("backend.requests_per_second must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Outbox.Interval <= 0 {
		return errors.New("outbox.interval must be positive")
	}
	if c.IsProduction() && c.Server.CSRFKey == "" {
		return errors.New("server.csrf_key is required in production")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps log.level to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q must be debug, info, warn or error", s)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("server.templates_dir", "internal/adapters/http/templates")
	v.SetDefault("server.csrf_key", "")
	v.SetDefault("server.rate_limit_per_second", 10.0)
	v.SetDefault("server.slow_request_ms", 500)
	v.SetDefault("server.admin_emails", []string{})

	v.SetDefault("database.path", "tuition.db")
	v.SetDefault("database.slow_query_ms", 100)

	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.retry_count", 2)
	v.SetDefault("backend.requests_per_second", 20)

	v.SetDefault("email.resend_key", "")
	v.SetDefault("email.from", "Tuition Desk <noreply@example.com>")
	v.SetDefault("email.reply_to", "")

	v.SetDefault("outbox.interval", time.Minute)
	v.SetDefault("outbox.max_attempts", 5)
	v.SetDefault("outbox.base_delay", 30*time.Second)
	v.SetDefault("outbox.max_delay", 30*time.Minute)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.seal_key", "")

	v.SetDefault("log.level", "info")
}
