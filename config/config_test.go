package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "placement-hub", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.False(t, cfg.Redis.Disabled)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("REDIS_DISABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.App.Environment)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
	assert.True(t, cfg.Redis.Disabled)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
}

func TestValidate_Production(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	t.Run("requires session secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://app:secret@db/placement")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_SECRET")
	})

	t.Run("requires database credentials", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "prod-secret")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("rejects disabled database", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "prod-secret")
		t.Setenv("DATABASE_URL", "postgres://app:secret@db/placement")
		t.Setenv("DB_DISABLED", "true")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_DISABLED")
	})

	t.Run("accepts full production config", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "prod-secret")
		t.Setenv("DATABASE_URL", "postgres://app:secret@db/placement")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.Environment.IsProduction())
	})
}

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "qa")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ENV")
}
