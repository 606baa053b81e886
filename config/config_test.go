package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SESSION_COOKIE_SECURE", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Contains(t, cfg.DatabaseURL, "harborlight")
	assert.Empty(t, cfg.SessionSecret)
	assert.False(t, cfg.SecureCookies)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/override")
	t.Setenv("PORT", "9191")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_COOKIE_SECURE", "TRUE")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "postgres://db/override", cfg.DatabaseURL)
	assert.Equal(t, ":9191", cfg.Addr)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.True(t, cfg.SecureCookies)
	assert.Equal(t, "debug", cfg.LogLevel)
}
