package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IgnacioAroza/reservation-api/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/reservations")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "config-test-secret-0123456789abcdef")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Parse()
	require.NoError(t, err)
	require.Equal(t, "3000", cfg.HTTPPort)
	require.Equal(t, 168*time.Hour, cfg.JWTTTL)
	require.Equal(t, 30*time.Second, cfg.LockTTL)
	require.Equal(t, 100, cfg.RateLimitRPM)
	require.Equal(t, 10, cfg.PasswordCost)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, int64(1), cfg.NodeID)
	require.InDelta(t, 1.0, cfg.TelemetrySampling, 0)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.Development())
}

func TestParseOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, ,https://b.test")

	cfg, err := config.Parse()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, time.Hour, cfg.JWTTTL)
	require.False(t, cfg.Development())
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
}

func TestParseRequiresSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := config.Parse()
	require.EqualError(t, err, "JWT_SECRET is required")
}

func TestParseRequiresAdminPair(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_EMAIL", "admin@example.com")

	_, err := config.Parse()
	require.Error(t, err)
}

func TestParseRejectsSamplingOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")

	_, err := config.Parse()
	require.EqualError(t, err, "OTEL_TRACES_SAMPLER_ARG must be between 0 and 1")
}

func TestParseRejectsShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "short-secret")

	_, err := config.Parse()
	require.EqualError(t, err, "JWT_SECRET must be at least 32 bytes")
}
