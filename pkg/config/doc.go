// Package config provides application configuration management from environment variables.
//
// # Overview
//
// LoadConfig reads FOLIO_* variables once at startup, applies defaults, and
// validates the result. The returned *Config is passed by pointer into every
// component that needs it; nothing reads the environment after startup.
//
// # Configuration Structure
//
// Server settings:
//
//	FOLIO_HOST="0.0.0.0"
//	FOLIO_PORT="3000"
//	FOLIO_HEALTH_PORT="9090"
//	FOLIO_FRONTEND_URL="http://localhost:8000"  # CORS origins, comma separated
//
// Database settings:
//
//	FOLIO_DB_URL="postgres://postgres@localhost:5432/publisher_db?sslmode=disable"
//	FOLIO_DB_HOST, FOLIO_DB_PORT, FOLIO_DB_NAME, FOLIO_DB_USER, FOLIO_DB_PASSWORD
//	FOLIO_DB_MAX_CONNS="20"
//	FOLIO_DB_IDLE_TIMEOUT="30s"
//	FOLIO_DB_CONNECT_TIMEOUT="2s"
//
// Auth settings:
//
//	FOLIO_JWT_SECRET="..."          # required, at least 16 bytes
//	FOLIO_JWT_EXPIRES_IN="168h"
//	FOLIO_BCRYPT_COST="10"
//	FOLIO_AUTH_VERIFY_ACCOUNT_STATUS="false"
//	FOLIO_LOGIN_RATE_LIMIT="10"
//	FOLIO_LOGIN_RATE_WINDOW="1m"
//	FOLIO_REDIS_URL="redis://localhost:6379/0"
//
// Observability settings:
//
//	FOLIO_LOG_LEVEL="info"
//	FOLIO_LOG_FORMAT="json"  # or text
//	FOLIO_METRICS_ENABLED="true"
//	FOLIO_OTEL_ENABLED="false"
//	FOLIO_OTEL_ENDPOINT="localhost:4317"
//
// # Related Packages
//
//   - pkg/observability: Logging levels and formats
//   - pkg/storage/postgres: Consumes DatabaseConfig
//   - pkg/auth: Consumes AuthConfig
package config
