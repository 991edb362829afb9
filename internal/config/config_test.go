package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, "securecookie", cfg.SessionCodec)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "a3persistence", cfg.MongoDatabase)
	assert.Equal(t, "mongodb://127.0.0.1:27017", cfg.MongoURI)
	assert.False(t, cfg.CookieSecure)
	assert.False(t, cfg.Production())
	assert.Empty(t, cfg.CORSOrigins)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"PORT":          "8081",
		"HOST":          "127.0.0.1",
		"STORAGE_TYPE":  "Redis",
		"REDIS_URL":     "redis://localhost:6379/0",
		"SESSION_CODEC": "JWT",
		"LOG_LEVEL":     "debug",
		"CORS_ORIGINS":  " http://a.test , ,http://b.test",
		"BCRYPT_COST":   "12",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "redis", cfg.StorageType)
	assert.Equal(t, "jwt", cfg.SessionCodec)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestProductionImpliesSecureCookie(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"APP_ENV": "production"}))
	require.NoError(t, err)
	assert.True(t, cfg.CookieSecure)

	cfg, err = FromEnv(envOf(map[string]string{"APP_ENV": "production", "COOKIE_SECURE": "false"}))
	require.NoError(t, err)
	assert.False(t, cfg.CookieSecure)
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":          {"PORT": "http"},
		"port out of range": {"PORT": "70000"},
		"bad bool":          {"COOKIE_SECURE": "maybe"},
		"bad level":         {"LOG_LEVEL": "loud"},
		"unknown storage":   {"STORAGE_TYPE": "floppy"},
		"redis without url": {"STORAGE_TYPE": "redis"},
		"postgres no dsn":   {"STORAGE_TYPE": "postgres"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}
