package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"AUTH_JWT_SECRET", "AUTH_TOKEN_TTL_MINUTES", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR", "POSTGRES_DSN", "APP_ENV"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginFailureWindow())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 5, cfg.Auth.LoginMaxFailures)
	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Len(t, cfg.CORS.AllowedOrigins, 4)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "90")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://kheyma.app , ,https://admin.kheyma.app")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost, "unparsable values fall back")
	assert.Equal(t, []string{"https://kheyma.app", "https://admin.kheyma.app"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
}

func TestLoad_RejectsWeakSecrets(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		t.Setenv("AUTH_JWT_SECRET", "dev-secret")
		_, err := Load()
		assert.ErrorContains(t, err, "AUTH_JWT_SECRET")
	})

	t.Run("default in production", func(t *testing.T) {
		t.Setenv("AUTH_JWT_SECRET", "")
		t.Setenv("APP_ENV", "production")
		_, err := Load()
		assert.ErrorContains(t, err, "must be set in production")
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{
		Auth:   AuthConfig{JWTSecret: DevJWTSecret, TokenTTLMinutes: 0, BcryptCost: 40},
		Logger: LoggerConfig{Format: "xml"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_TOKEN_TTL_MINUTES")
	assert.Contains(t, err.Error(), "AUTH_BCRYPT_COST")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}
