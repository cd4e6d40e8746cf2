package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"tho/simplercv/internal/core/rcv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App       AppSettings
	HTTP      HTTPSettings
	Auth      AuthSettings
	Log       LogSettings
	Database  DatabaseSettings
	SimpleAPI SimpleAPISettings
	Sync      SyncSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // Must exceed Sync.Timeout, a full period can take minutes
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

// DatabaseSettings points at the hosted PostgreSQL datastore.
// Key is used as the connection password when URL carries none.
type DatabaseSettings struct {
	URL             string
	Key             string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// SimpleAPISettings configures the outbound RCV client. SII credentials are
// read per sync by LoadCredentials.
type SimpleAPISettings struct {
	BaseURL     string
	Timeout     time.Duration
	LogBodies   bool
	MaxBodySize int
	// RequestsPerMinute throttles outbound calls; 0 disables throttling.
	RequestsPerMinute int
	// BreakerFailures consecutive failures open the circuit for
	// BreakerCooldown; 0 disables the breaker.
	BreakerFailures int
	BreakerCooldown time.Duration
}

type SyncSettings struct {
	Timeout      time.Duration
	UFFallback   decimal.Decimal
	RateCacheTTL time.Duration
}

// Load resolves the application configuration from environment variables.
// A .env file is loaded first when present; variables already set in the
// environment take precedence over it.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "simplercv"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 6*time.Minute),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			URL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
			Key:             strings.TrimSpace(os.Getenv("DATABASE_KEY")),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 0),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		SimpleAPI: SimpleAPISettings{
			BaseURL:           getEnv("SIMPLEAPI_BASE_URL", "https://servicios.simpleapi.cl"),
			Timeout:           getEnvAsDuration("SIMPLEAPI_TIMEOUT", 60*time.Second),
			LogBodies:         getEnvAsBool("SIMPLEAPI_LOG_BODIES", false),
			MaxBodySize:       getEnvAsInt("SIMPLEAPI_LOG_MAX_BODY_SIZE", 16384),
			RequestsPerMinute: getEnvAsInt("SIMPLEAPI_REQUESTS_PER_MINUTE", 6),
			BreakerFailures:   getEnvAsInt("SIMPLEAPI_BREAKER_FAILURES", 3),
			BreakerCooldown:   getEnvAsDuration("SIMPLEAPI_BREAKER_COOLDOWN", 5*time.Minute),
		},
		Sync: SyncSettings{
			Timeout:      getEnvAsDuration("SYNC_TIMEOUT", 5*time.Minute),
			RateCacheTTL: getEnvAsDuration("UF_CACHE_TTL", 10*time.Minute),
		},
	}

	fallback, err := decimal.NewFromString(getEnv("UF_FALLBACK_VALUE", "38000"))
	if err != nil {
		return cfg, fmt.Errorf("invalid config: UF_FALLBACK_VALUE: %w", err)
	}
	if !fallback.IsPositive() {
		return cfg, errors.New("invalid config: UF_FALLBACK_VALUE must be greater than 0")
	}
	cfg.Sync.UFFallback = fallback

	if cfg.SimpleAPI.RequestsPerMinute < 0 {
		return cfg, errors.New("invalid config: SIMPLEAPI_REQUESTS_PER_MINUTE must not be negative")
	}
	if cfg.SimpleAPI.BreakerFailures < 0 {
		return cfg, errors.New("invalid config: SIMPLEAPI_BREAKER_FAILURES must not be negative")
	}

	if cfg.Database.MaxConns <= 0 {
		return cfg, errors.New("invalid config: DB_MAX_CONNS must be greater than 0")
	}
	if cfg.Database.MinConns < 0 || cfg.Database.MinConns > cfg.Database.MaxConns {
		return cfg, errors.New("invalid config: DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// LoadCredentials reads the SimpleAPI credentials from the environment.
// It runs on every sync so rotated secrets apply without a restart; the
// values are not validated here, SimpleAPI rejects bad ones.
func LoadCredentials() rcv.Credentials {
	return rcv.Credentials{
		APIKey:      strings.TrimSpace(os.Getenv("SIMPLEAPI_API_KEY")),
		RutUsuario:  strings.TrimSpace(os.Getenv("SII_RUT_USUARIO")),
		PasswordSII: os.Getenv("SII_PASSWORD"),
		RutEmpresa:  strings.TrimSpace(os.Getenv("SII_RUT_EMPRESA")),
	}
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
