package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads config with defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/foyer")
		t.Setenv("REDIS_URL", "redis://localhost:6379")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 24, cfg.InviteTTLHours)
		assert.Equal(t, 15, cfg.MagicLinkTTLMins)
	})

	t.Run("fails without required values", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("REDIS_URL", "")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL: "postgres://localhost:5432/foyer",
		RedisURL:    "rediss://localhost:6379",
	}

	t.Run("production requires strong session secret", func(t *testing.T) {
		cfg := base
		cfg.SessionSecret = "short"
		cfg.JWTSecret = "0123456789012345678901234567890123456789"

		err := cfg.Validate(true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_SECRET")
	})

	t.Run("production rejects known weak secrets", func(t *testing.T) {
		cfg := base
		cfg.SessionSecret = "0123456789012345678901234567890123456789"
		cfg.JWTSecret = "change-me"

		err := cfg.Validate(true)
		// "change-me" is also shorter than 32 chars, either check may fire
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("development allows empty secrets", func(t *testing.T) {
		cfg := base
		assert.NoError(t, cfg.Validate(false))
	})
}

func TestAddr(t *testing.T) {
	cfg := Config{Port: 9000}
	assert.Equal(t, ":9000", cfg.Addr())
}

func TestServerTimeouts(t *testing.T) {
	// Every server-side deadline must be finite so a stalled client cannot
	// pin a connection open indefinitely.
	assert.Positive(t, ServerReadTimeout)
	assert.Positive(t, ServerWriteTimeout)
	assert.Positive(t, ServerIdleTimeout)
	// Responses are written after the handler runs, so the write deadline
	// must cover the full request budget.
	assert.GreaterOrEqual(t, ServerWriteTimeout, ServerRequestTimeout)
}
