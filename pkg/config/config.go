package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/folio/pkg/observability"
)

// MinJWTSecretLength is the shortest accepted HMAC signing secret in bytes
const MinJWTSecretLength = 16

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Auth configuration
	Auth AuthConfig

	// Login/register throttling
	RateLimit RateLimitConfig

	// Observability configuration
	Observability ObservabilityConfig

	// SeedFile is an optional YAML file of demo users loaded at startup
	SeedFile string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// CORS allowed origins
	AllowedOrigins []string

	// TrustedProxies are CIDRs or addresses whose forwarding headers are
	// believed when resolving the client IP
	TrustedProxies []string
}

// DatabaseConfig holds PostgreSQL connection settings. URL, when set,
// takes precedence over the individual parts.
type DatabaseConfig struct {
	URL            string
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConns       int
	MinConns       int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// VerifyAccountStatus makes the auth guard re-read account status on
	// every protected request
	VerifyAccountStatus bool
}

// RateLimitConfig holds login/register throttling settings
type RateLimitConfig struct {
	Requests int
	Window   time.Duration

	// RedisURL enables the distributed limiter when set
	RedisURL string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  observability.LogLevel
	LogFormat string

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Auth:          loadAuthConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
		SeedFile:      getEnv("FOLIO_SEED_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("FOLIO_HOST", "0.0.0.0"),
		Port:            getEnv("FOLIO_PORT", "3000"),
		ReadTimeout:     getEnvDuration("FOLIO_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("FOLIO_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("FOLIO_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("FOLIO_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("FOLIO_HEALTH_PORT", "9090"),
		AllowedOrigins:  getEnvList("FOLIO_FRONTEND_URL", []string{"http://localhost:8000"}),
		TrustedProxies:  getEnvList("FOLIO_TRUSTED_PROXIES", nil),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:            getEnv("FOLIO_DB_URL", ""),
		Host:           getEnv("FOLIO_DB_HOST", "localhost"),
		Port:           getEnv("FOLIO_DB_PORT", "5432"),
		Name:           getEnv("FOLIO_DB_NAME", "publisher_db"),
		User:           getEnv("FOLIO_DB_USER", "postgres"),
		Password:       getEnv("FOLIO_DB_PASSWORD", ""),
		SSLMode:        getEnv("FOLIO_DB_SSLMODE", "disable"),
		MaxConns:       getEnvInt("FOLIO_DB_MAX_CONNS", 20),
		MinConns:       getEnvInt("FOLIO_DB_MIN_CONNS", 2),
		IdleTimeout:    getEnvDuration("FOLIO_DB_IDLE_TIMEOUT", 30*time.Second),
		ConnectTimeout: getEnvDuration("FOLIO_DB_CONNECT_TIMEOUT", 2*time.Second),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:           getEnv("FOLIO_JWT_SECRET", ""),
		TokenTTL:            getEnvDuration("FOLIO_JWT_EXPIRES_IN", 7*24*time.Hour),
		BcryptCost:          getEnvInt("FOLIO_BCRYPT_COST", 10),
		VerifyAccountStatus: getEnvBool("FOLIO_AUTH_VERIFY_ACCOUNT_STATUS", false),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests: getEnvInt("FOLIO_LOGIN_RATE_LIMIT", 10),
		Window:   getEnvDuration("FOLIO_LOGIN_RATE_WINDOW", time.Minute),
		RedisURL: getEnv("FOLIO_REDIS_URL", ""),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("FOLIO_LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("FOLIO_LOG_FORMAT", observability.FormatJSON)),
		MetricsEnabled:     getEnvBool("FOLIO_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("FOLIO_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("FOLIO_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("FOLIO_OTEL_SERVICE_NAME", "folio-api"),
		OTelServiceVersion: getEnv("FOLIO_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("FOLIO_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	for _, p := range c.Server.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("invalid trusted proxy %q (want CIDR or IP)", p)
		}
	}

	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return fmt.Errorf("database URL or host and name are required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database min connections (%d) exceeds max connections (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (FOLIO_JWT_SECRET)")
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT secret must be at least %d bytes", MinJWTSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("login rate limit must allow at least one request per positive window")
	}

	switch c.Observability.LogFormat {
	case observability.FormatJSON, observability.FormatText:
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Observability.LogFormat)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func validProxy(p string) bool {
	if _, _, err := net.ParseCIDR(p); err == nil {
		return true
	}
	return net.ParseIP(p) != nil
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	if d.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(d.ConnectTimeout.Seconds()+0.5)))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the API listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// HealthAddr returns the health/metrics listen address
func (s ServerConfig) HealthAddr() string {
	return net.JoinHostPort(s.Host, s.HealthPort)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
