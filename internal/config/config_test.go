package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLYDEBATE_API_URL", "http://backend.test:5000/")
	t.Setenv("SESSION_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend.test:5000", cfg.API.BaseURL)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 20, cfg.Feed.PageSize)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
}

func TestLoadRejectsRelativeAPIURL(t *testing.T) {
	t.Setenv("POLYDEBATE_API_URL", "/api")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLYDEBATE_API_URL")
}

func TestLoadPostgresBackendNeedsDatabaseURL(t *testing.T) {
	t.Setenv("POLYDEBATE_API_URL", "http://localhost:5000")
	t.Setenv("SESSION_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("FEED_PAGE_SIZE", "many")
	assert.Equal(t, 7, getEnvAsInt("FEED_PAGE_SIZE", 7))
}
