package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Booking    BookingConfig    `yaml:"booking"`
	Auth       AuthConfig       `yaml:"auth"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Janitor    JanitorConfig    `yaml:"janitor"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" env:"DORM_PORT"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec" env:"DORM_RATE_LIMIT_PER_SEC"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"DORM_CORS_ORIGINS" envSeparator:","`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" env:"DORM_DB_DRIVER"`
	DSN                    string `yaml:"dsn" env:"DORM_DB_DSN"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level" env:"DORM_DB_LOG_LEVEL"`
}

// BookingConfig controls the room selection flow.
type BookingConfig struct {
	PageSize      int    `yaml:"page_size"`
	AllowReassign *bool  `yaml:"allow_reassign"`
	MaxRetries    int    `yaml:"max_retries"`
	Timezone      string `yaml:"timezone" env:"DORM_TIMEZONE"`
}

// Reassign reports whether a student holding a room may book another one.
func (b BookingConfig) Reassign() bool {
	return b.AllowReassign == nil || *b.AllowReassign
}

// AuthConfig holds session and bootstrap account settings.
type AuthConfig struct {
	SessionTTLHours int           `yaml:"session_ttl_hours"`
	SessionTTL      time.Duration `yaml:"-"`
	Bootstrap       StaffAccount  `yaml:"bootstrap"`
}

// StaffAccount is the staff user created on startup when missing.
type StaffAccount struct {
	StudentCode  string `yaml:"student_code" env:"DORM_ADMIN_CODE"`
	NationalCode string `yaml:"national_code"`
	Password     string `yaml:"password" env:"DORM_ADMIN_PASSWORD"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key" env:"DORM_VAPID_PUBLIC_KEY"`
	PrivateKey string `yaml:"vapid_private_key" env:"DORM_VAPID_PRIVATE_KEY"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// JanitorConfig controls the periodic maintenance sweep.
type JanitorConfig struct {
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"DORM_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"DORM_LOG_PRETTY"`
}

// Load reads the configuration from the given path and applies environment overrides.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 300
	}
	c.Server.CacheTTL = time.Duration(c.Server.CacheTTLSeconds) * time.Second

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}

	if c.Booking.PageSize <= 0 {
		c.Booking.PageSize = 20
	}
	if c.Booking.MaxRetries <= 0 {
		c.Booking.MaxRetries = 3
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}

	if c.Auth.SessionTTLHours <= 0 {
		c.Auth.SessionTTLHours = 15 * 24
	}
	c.Auth.SessionTTL = time.Duration(c.Auth.SessionTTLHours) * time.Hour

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.WorkerPool.Size <= 0 {
		log.Warn().Msg("worker_pool.size is not set or invalid; defaulting to 1")
		c.WorkerPool.Size = 1
	}
	if c.WorkerPool.QueueSize <= 0 {
		c.WorkerPool.QueueSize = 64
	}

	if c.Janitor.IntervalSeconds <= 0 {
		c.Janitor.IntervalSeconds = 300
	}
	c.Janitor.Interval = time.Duration(c.Janitor.IntervalSeconds) * time.Second

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid booking.timezone %q: %w", c.Booking.Timezone, err)
	}
	return nil
}
