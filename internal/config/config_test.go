package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "audiobooks")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BCRYPT_COST", "4")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.example, ,http://b.example")

	cfg := Load()
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	require.Len(t, cfg.CORSOrigins, 2)
	assert.Equal(t, "http://b.example", cfg.CORSOrigins[1])
}

func TestDatabaseOptions(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PASS", "p@ss")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")

	opts := Load().Database()
	assert.Equal(t, "app", opts.User)
	assert.Equal(t, "p@ss", opts.Pass)
	assert.Equal(t, "localhost", opts.Host)
	assert.Equal(t, "3306", opts.Port)
	assert.Equal(t, "audiobooks", opts.Name)
	assert.Equal(t, 25, opts.MaxOpenConns)
}

func TestRateLimitNormalize(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "garbage")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 6*time.Second, cfg.RefillInterval)
	assert.Equal(t, 30*time.Second, cfg.TTL)
}
