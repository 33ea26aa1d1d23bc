// Package config loads application configuration from environment
// variables. Every setting has a development default, so a bare
// `go run ./cmd/api` starts against in-memory stores; production
// deployments set DATABASE_URL, REDIS_* and SESSION_SECRET.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/postgres"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENVIRONMENT
// ══════════════════════════════════════════════════════════════════════════════

// Environment is the deployment environment of the application.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// IsProduction reports whether the app runs in production.
func (e Environment) IsProduction() bool { return e == EnvProduction }

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG SECTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Config is the root configuration of the placement hub.
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	HTTP          HTTPConfig
	Observability ObservabilityConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	// Name is the service name used in logs.
	Name string

	// Environment is one of development, staging, production.
	Environment Environment

	// Debug enables verbose logging.
	Debug bool

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	// URL is a full connection string. When set it wins over the
	// individual DB_* fields.
	URL string

	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration

	// Disabled switches persistence to the in-memory stores. Meant for
	// local development and tests only.
	Disabled bool

	// MigrateOnStart runs pending migrations during boot.
	MigrateOnStart bool
}

// PoolConfig converts the section into the postgres package config.
func (c DatabaseConfig) PoolConfig() postgres.Config {
	cfg := postgres.DefaultConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.Database = c.Name
	cfg.User = c.User
	cfg.Password = c.Password
	cfg.SSLMode = c.SSLMode
	cfg.MaxConns = c.MaxConns
	cfg.MinConns = c.MinConns
	cfg.MaxConnLifetime = c.MaxConnLifetime
	cfg.MaxConnIdleTime = c.MaxConnIdleTime
	cfg.ConnectTimeout = c.ConnectTimeout
	return cfg
}

// RedisConfig holds Redis settings for the idempotency store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int

	// Disabled falls back to the in-memory idempotency store. Safe only
	// for single-instance deployments.
	Disabled bool
}

// ClientConfig converts the section into the redis package config.
func (c RedisConfig) ClientConfig() redis.Config {
	cfg := redis.DefaultConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.Password = c.Password
	cfg.DB = c.DB
	if c.PoolSize > 0 {
		cfg.PoolSize = c.PoolSize
	}
	return cfg
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	EnableCORS     bool
	AllowedOrigins []string

	// RateLimitPerMinute is requests per minute per IP (0 disables).
	RateLimitPerMinute int

	// SessionSecret signs session cookies. Required in production.
	SessionSecret string

	// SessionMaxAge is the cookie lifetime in seconds.
	SessionMaxAge int

	// SecureCookies marks cookies Secure; enable behind TLS.
	SecureCookies bool
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogCaller annotates log lines with the calling file and line.
	LogCaller bool
}

// ══════════════════════════════════════════════════════════════════════════════
// LOADING
// ══════════════════════════════════════════════════════════════════════════════

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		App:           loadAppConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		HTTP:          loadHTTPConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func loadAppConfig() AppConfig {
	return AppConfig{
		Name:            getEnv("APP_NAME", "placement-hub"),
		Environment:     Environment(getEnv("APP_ENV", string(EnvDevelopment))),
		Debug:           getEnvBool("APP_DEBUG", false),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("DATABASE_URL", ""),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		Name:            getEnv("DB_NAME", "placement_hub"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
		MinConns:        int32(getEnvInt("DB_MIN_CONNS", 2)),
		MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		Disabled:        getEnvBool("DB_DISABLED", false),
		MigrateOnStart:  getEnvBool("DB_MIGRATE_ON_START", true),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		Disabled: getEnvBool("REDIS_DISABLED", false),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:               getEnv("HTTP_HOST", "0.0.0.0"),
		Port:               getEnvInt("HTTP_PORT", 8080),
		ReadTimeout:        getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		EnableCORS:         getEnvBool("HTTP_ENABLE_CORS", true),
		AllowedOrigins:     getEnvList("HTTP_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("HTTP_RATE_LIMIT_PER_MINUTE", 100),
		SessionSecret:      getEnv("SESSION_SECRET", "dev-insecure-session-secret"),
		SessionMaxAge:      getEnvInt("SESSION_MAX_AGE", 86400*7),
		SecureCookies:      getEnvBool("SESSION_SECURE_COOKIES", false),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogCaller: getEnvBool("LOG_CALLER", false),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid APP_ENV %q", c.App.Environment)
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTP.Port)
	}

	if c.App.Environment.IsProduction() {
		if c.Database.Disabled {
			return errors.New("DB_DISABLED is not allowed in production")
		}
		if c.Database.URL == "" && c.Database.Password == "" {
			return errors.New("DATABASE_URL or DB_PASSWORD is required in production")
		}
		if c.HTTP.SessionSecret == "" || c.HTTP.SessionSecret == "dev-insecure-session-secret" {
			return errors.New("SESSION_SECRET is required in production")
		}
	}

	if !c.Database.Disabled && c.Database.URL == "" && c.Database.Host == "" {
		return errors.New("DB_HOST or DATABASE_URL is required")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENV HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
