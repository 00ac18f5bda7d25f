package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// minSecretLength matches the HS256 key size required by the token signer.
const minSecretLength = 32

// Config contains runtime configuration values.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPPort    string `env:"PORT" envDefault:"3000"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	NodeID          int64         `env:"NODE_ID" envDefault:"1"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"168h"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"reservation-api"`

	PasswordCost int           `env:"PASSWORD_COST" envDefault:"10"`
	LockTTL      time.Duration `env:"LOCK_TTL" envDefault:"30s"`

	AdminEmail         string `env:"ADMIN_EMAIL"`
	AdminPassword      string `env:"ADMIN_PASSWORD"`
	DefaultCompanyName string `env:"DEFAULT_COMPANY_NAME" envDefault:"Default Company"`

	ServiceName       string  `env:"SERVICE_NAME" envDefault:"reservation-api"`
	RateLimitRPM      int     `env:"RATE_LIMIT_RPM" envDefault:"100"`
	TelemetryEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TelemetryInsecure bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	TelemetrySampling float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`

	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CORSAllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envDefault:"GET,POST,PATCH,DELETE,OPTIONS" envSeparator:","`
	CORSAllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envDefault:"Authorization,Content-Type" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
}

// Load reads configuration from the environment, after merging an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads configuration from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.CORSAllowedOrigins = cleanList(cfg.CORSAllowedOrigins)
	cfg.CORSAllowedMethods = cleanList(cfg.CORSAllowedMethods)
	cfg.CORSAllowedHeaders = cleanList(cfg.CORSAllowedHeaders)
	return cfg, nil
}

// Validate checks required keys and value ranges.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DatabaseURL) == "":
		return errors.New("DATABASE_URL is required")
	case strings.TrimSpace(c.RedisURL) == "":
		return errors.New("REDIS_URL is required")
	case strings.TrimSpace(c.JWTSecret) == "":
		return errors.New("JWT_SECRET is required")
	case len(c.JWTSecret) < minSecretLength:
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	case c.JWTTTL <= 0:
		return errors.New("JWT_TTL must be positive")
	case c.LockTTL <= 0:
		return errors.New("LOCK_TTL must be positive")
	case c.TelemetrySampling < 0 || c.TelemetrySampling > 1:
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// Development reports whether the service runs with development defaults.
func (c Config) Development() bool {
	return c.Environment == "development"
}

func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
