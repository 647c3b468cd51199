// Package config loads grading service settings from defaults, an optional
// YAML file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the full service configuration.
type Config struct {
	Application ApplicationConfig `yaml:"application"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Cache       CacheConfig       `yaml:"cache"`
	Logging     LoggingConfig     `yaml:"logging"`
	Security    SecurityConfig    `yaml:"security"`
	Audit       AuditConfig       `yaml:"audit"`
}

// ApplicationConfig names the application in alert headers.
type ApplicationConfig struct {
	Name string `yaml:"name" env:"APP_NAME"`
}

// ServerConfig controls the HTTP listener. Timeouts are in seconds.
type ServerConfig struct {
	Host            string `yaml:"host" env:"SERVER_HOST"`
	Port            int    `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     int    `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    int    `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the subject store. ConnMaxLifetime is in seconds.
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN             string `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
	MigrateOnStart  bool   `yaml:"migrate_on_start" env:"DATABASE_MIGRATE_ON_START"`
}

// CacheConfig enables the redis read-through cache when Addr is set. TTL is in seconds.
type CacheConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	TTL      int    `yaml:"ttl" env:"CACHE_TTL"`
}

// Enabled reports whether a redis address is configured.
func (c CacheConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// LoggingConfig mirrors logger.LoggingConfig.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// SecurityConfig holds CORS and rate limit settings. A zero RateLimitRPS
// disables rate limiting. TrustProxyHeaders lets X-Forwarded-For and X-Real-IP
// replace the peer address; enable it only behind a proxy that sets them.
type SecurityConfig struct {
	CORSOrigins       []string `yaml:"cors_origins"`
	CORSOriginsEnv    string   `yaml:"-" env:"CORS_ALLOWED_ORIGINS"`
	RateLimitRPS      int      `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst    int      `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	TrustProxyHeaders bool     `yaml:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS"`
}

// AuditConfig controls the in-memory audit buffer and its optional JSONL file.
type AuditConfig struct {
	File       string `yaml:"file" env:"AUDIT_FILE"`
	BufferSize int    `yaml:"buffer_size" env:"AUDIT_BUFFER_SIZE"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Application: ApplicationConfig{Name: "gradingSystemApp"},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver:          DriverMemory,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			MigrateOnStart:  true,
		},
		Cache: CacheConfig{TTL: 300},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Security: SecurityConfig{
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   50,
			RateLimitBurst: 100,
		},
		Audit: AuditConfig{BufferSize: 200},
	}
}

// Load builds the configuration. path overrides the CONFIG_FILE variable;
// when both are empty no YAML file is read.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := New()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if raw := strings.TrimSpace(cfg.Security.CORSOriginsEnv); raw != "" {
		cfg.Security.CORSOrigins = splitList(raw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database dsn is required for driver %s", c.Database.Driver)
		}
		if c.Database.MigrateOnStart {
			if err := validateMigrationDSN(c.Database.Driver, c.Database.DSN); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Security.RateLimitRPS < 0 || c.Security.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	if strings.TrimSpace(c.Application.Name) == "" {
		return fmt.Errorf("application name is required")
	}
	return nil
}

// validateMigrationDSN rejects DSNs the migrator cannot open or that would
// migrate a different database from the one the store uses.
func validateMigrationDSN(driver, dsn string) error {
	dsn = strings.TrimSpace(dsn)
	switch driver {
	case DriverPostgres:
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return fmt.Errorf("postgres dsn must be a postgres:// URL when migrate_on_start is set")
		}
	case DriverSQLite:
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			return fmt.Errorf("in-memory sqlite cannot be migrated on start; use a file dsn")
		}
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
