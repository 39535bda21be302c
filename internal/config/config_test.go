package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TIKTOK_USERNAME", "somestreamer")
	t.Setenv("ADMIN_TOKEN", "0123456789abcdef0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	validEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DefaultCooldownMs, cfg.CooldownMs)
	assert.Equal(t, "repeatEnd", cfg.StreakMode)
	assert.True(t, cfg.SpawnEnabled)
	assert.Equal(t, DefaultFeedURL, cfg.FeedURL)
}

func TestLoad_MissingIdentityIsFatal(t *testing.T) {
	t.Setenv("TIKTOK_USERNAME", "")
	t.Setenv("ADMIN_TOKEN", "0123456789abcdef0123456789abcdef")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TikTokUsername")
}

func TestLoad_MissingAdminTokenIsFatal(t *testing.T) {
	t.Setenv("TIKTOK_USERNAME", "somestreamer")
	t.Setenv("ADMIN_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AdminToken")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "not-a-port"},
		{"bad cooldown", "COOLDOWN_MS", "soon"},
		{"bad spawn flag", "SPAWN_ENABLED", "perhaps"},
		{"negative cooldown", "COOLDOWN_MS", "-5"},
		{"unknown streak mode", "STREAK_MODE", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetDBConnString(t *testing.T) {
	cfg := &Config{
		DBUser:     "u",
		DBPassword: "p",
		DBHost:     "h",
		DBPort:     "5432",
		DBName:     "d",
	}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.GetDBConnString())
}
