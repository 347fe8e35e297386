// Package config loads layered configuration: built-in defaults, an optional
// YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Store         StoreConfig         `koanf:"store"`
	Auth          AuthConfig          `koanf:"auth"`
	Invites       InviteConfig        `koanf:"invites"`
	Resolver      ResolverConfig      `koanf:"resolver"`
	Audit         AuditConfig         `koanf:"audit"`
	Observability ObservabilityConfig `koanf:"observability"`
	RateLimit     RateLimitConfig     `koanf:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string `koanf:"host"`
	Port         string `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name"`
	SSLMode      string `koanf:"sslmode"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	// AutoMigrate applies pending migrations at server start.
	AutoMigrate bool `koanf:"auto_migrate"`
}

// StoreConfig selects the storage backend
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	Issuer    string        `koanf:"issuer"`
	Audience  string        `koanf:"audience"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// InviteConfig holds invitation configuration
type InviteConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// ResolverConfig bounds schema-resolving reads
type ResolverConfig struct {
	Limit int `koanf:"limit"`
}

// AuditConfig holds audit listing bounds
type AuditConfig struct {
	DefaultLimit int `koanf:"default_limit"`
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string `koanf:"log_level"`
	LogFormat      string `koanf:"log_format"`
	OTELEnabled    bool   `koanf:"otel_enabled"`
	OTELEndpoint   string `koanf:"otel_endpoint"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"rps"`
	Burst             int     `koanf:"burst"`
}

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             8080,
	"server.read_timeout":     "15s",
	"server.write_timeout":    "15s",
	"server.idle_timeout":     "60s",
	"server.request_timeout":  "60s",
	"server.shutdown_timeout": "15s",

	"database.host":           "localhost",
	"database.port":           "5432",
	"database.user":           "clubcore",
	"database.name":           "clubcore",
	"database.sslmode":        "disable",
	"database.max_open_conns": 25,
	"database.max_idle_conns": 5,
	"database.auto_migrate":   false,

	"store.driver": DriverPostgres,

	"auth.issuer":    "clubcore",
	"auth.audience":  "clubcore-api",
	"auth.token_ttl": "24h",

	"invites.ttl": "168h",

	"resolver.limit": 1000,

	"audit.default_limit": 100,

	"observability.log_level":       "info",
	"observability.log_format":      "json",
	"observability.otel_enabled":    false,
	"observability.service_name":    "clubcore",
	"observability.service_version": "0.1.0",

	"rate_limit.rps":   10,
	"rate_limit.burst": 20,
}

var envKeyMap = map[string]string{
	"SERVER_HOST":                 "server.host",
	"SERVER_PORT":                 "server.port",
	"SERVER_READ_TIMEOUT":         "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":        "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":         "server.idle_timeout",
	"SERVER_REQUEST_TIMEOUT":      "server.request_timeout",
	"SERVER_SHUTDOWN_TIMEOUT":     "server.shutdown_timeout",
	"DB_HOST":                     "database.host",
	"DB_PORT":                     "database.port",
	"DB_USER":                     "database.user",
	"DB_PASSWORD":                 "database.password",
	"DB_NAME":                     "database.name",
	"DB_SSLMODE":                  "database.sslmode",
	"DB_MAX_OPEN_CONNS":           "database.max_open_conns",
	"DB_MAX_IDLE_CONNS":           "database.max_idle_conns",
	"DB_AUTO_MIGRATE":             "database.auto_migrate",
	"STORE_DRIVER":                "store.driver",
	"JWT_SECRET":                  "auth.jwt_secret",
	"JWT_ISSUER":                  "auth.issuer",
	"JWT_AUDIENCE":                "auth.audience",
	"JWT_TOKEN_TTL":               "auth.token_ttl",
	"INVITE_TTL":                  "invites.ttl",
	"RESOLVER_LIMIT":              "resolver.limit",
	"AUDIT_DEFAULT_LIMIT":         "audit.default_limit",
	"LOG_LEVEL":                   "observability.log_level",
	"LOG_FORMAT":                  "observability.log_format",
	"OTEL_ENABLED":                "observability.otel_enabled",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "observability.otel_endpoint",
	"OTEL_SERVICE_NAME":           "observability.service_name",
	"OTEL_SERVICE_VERSION":        "observability.service_version",
	"RATELIMIT_RPS":               "rate_limit.rps",
	"RATELIMIT_BURST":             "rate_limit.burst",
}

func envKeyReplacer(s string) string {
	return envKeyMap[s]
}

// Load reads defaults, then the YAML file at path when path is not empty,
// then the environment, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Store.Driver))
	}

	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Invites.TTL <= 0 {
		errs = append(errs, errors.New("invites.ttl must be positive"))
	}
	if c.Resolver.Limit < 1 || c.Resolver.Limit > 1000 {
		errs = append(errs, errors.New("resolver.limit must be between 1 and 1000"))
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.request_timeout":  c.Server.RequestTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit.rps and rate_limit.burst must be positive"))
	}

	return errors.Join(errs...)
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
