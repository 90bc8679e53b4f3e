// Package config loads server configuration from a YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ROOMIES_STORAGE_BACKEND.
// The unprefixed name is accepted as well.
const EnvPrefix = "ROOMIES"

// Storage backends for account records.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Remote  RemoteConfig  `yaml:"remote"`
	Search  SearchConfig  `yaml:"search"`
	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects where account and discovery records live.
// Discovery records always live in SQLite; accounts live in SQLite or Redis.
type StorageConfig struct {
	Backend  string `yaml:"backend"`
	DBPath   string `yaml:"db_path"`
	RedisURL string `yaml:"redis_url"`
}

// AuthConfig contains session token settings
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

// RemoteConfig points at the remote profile backend. An empty BaseURL
// disables propagation.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig contains Meilisearch settings. An empty Host disables indexing.
type SearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// AuditConfig schedules the consistency audit. Schedule uses cron syntax,
// including descriptors such as "@every 1h". Repair rebuilds discovery
// records that are missing or have high-severity drift.
type AuditConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Repair   bool   `yaml:"repair"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:  BackendSQLite,
			DBPath:   "./data/roomies.db",
			RedisURL: "redis://localhost:6379/0",
		},
		Auth: AuthConfig{
			TokenDuration: 24 * time.Hour,
		},
		Remote: RemoteConfig{
			Timeout: 10 * time.Second,
		},
		Search: SearchConfig{
			Index: "discovery_profiles",
		},
		Audit: AuditConfig{
			Enabled:  true,
			Schedule: "@every 1h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file, then applies environment
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	env.applyTo(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// envOverrides lists the settings that can come from the environment. Unset
// variables leave the file value alone.
type envOverrides struct {
	ServerAddr      *string        `envconfig:"SERVER_ADDR"`
	ShutdownTimeout *time.Duration `envconfig:"SHUTDOWN_TIMEOUT"`

	StorageBackend *string `envconfig:"STORAGE_BACKEND"`
	DBPath         *string `envconfig:"DB_PATH"`
	RedisURL       *string `envconfig:"REDIS_URL"`

	JWTSecret     *string        `envconfig:"AUTH_JWT_SECRET"`
	TokenDuration *time.Duration `envconfig:"AUTH_TOKEN_DURATION"`

	RemoteURL     *string        `envconfig:"REMOTE_BASE_URL"`
	RemoteAPIKey  *string        `envconfig:"REMOTE_API_KEY"`
	RemoteTimeout *time.Duration `envconfig:"REMOTE_TIMEOUT"`

	MeiliHost   *string `envconfig:"MEILI_HOST"`
	MeiliAPIKey *string `envconfig:"MEILI_API_KEY"`
	MeiliIndex  *string `envconfig:"MEILI_INDEX"`

	AuditEnabled  *bool   `envconfig:"AUDIT_ENABLED"`
	AuditSchedule *string `envconfig:"AUDIT_SCHEDULE"`
	AuditRepair   *bool   `envconfig:"AUDIT_REPAIR"`

	LogLevel *string `envconfig:"LOG_LEVEL"`
}

func (e envOverrides) applyTo(c *Config) {
	set(&c.Server.Addr, e.ServerAddr)
	set(&c.Server.ShutdownTimeout, e.ShutdownTimeout)
	set(&c.Storage.Backend, e.StorageBackend)
	set(&c.Storage.DBPath, e.DBPath)
	set(&c.Storage.RedisURL, e.RedisURL)
	set(&c.Auth.JWTSecret, e.JWTSecret)
	set(&c.Auth.TokenDuration, e.TokenDuration)
	set(&c.Remote.BaseURL, e.RemoteURL)
	set(&c.Remote.APIKey, e.RemoteAPIKey)
	set(&c.Remote.Timeout, e.RemoteTimeout)
	set(&c.Search.Host, e.MeiliHost)
	set(&c.Search.APIKey, e.MeiliAPIKey)
	set(&c.Search.Index, e.MeiliIndex)
	set(&c.Audit.Enabled, e.AuditEnabled)
	set(&c.Audit.Schedule, e.AuditSchedule)
	set(&c.Audit.Repair, e.AuditRepair)
	set(&c.Logging.Level, e.LogLevel)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("storage.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.DBPath == "" {
		return errors.New("storage.db_path is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.TokenDuration <= 0 {
		return errors.New("auth.token_duration must be positive")
	}
	if c.Audit.Enabled && c.Audit.Schedule == "" {
		return errors.New("audit.schedule is required when the audit is enabled")
	}
	return nil
}
