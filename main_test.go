package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOGGING", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := LoadConfig()
	require.Equal(t, "8080", cfg.Port)
	require.False(t, cfg.Logging)
	require.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOGGING", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg := LoadConfig()
	require.Equal(t, "9090", cfg.Port)
	require.True(t, cfg.Logging)
	require.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoadConfigTrimsOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,,")

	cfg := LoadConfig()
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}
