package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

// setupEnv sets environment variables for the duration of the test.
// An empty value leaves the variable effectively unset.
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

// TestLoadDefaults verifies that Load fills every optional field with its default.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, map[string]string{
		"CONCENTRATION_AUTH_TOKEN_SECRET": testSecret,
		"CONCENTRATION_SERVER_PORT":       "",
		"CONCENTRATION_SERVER_LOG_LEVEL":  "",
		ConfigFileEnv:                     "",
	})

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, GameConfig{
		TimeLimit:    30,
		TickInterval: time.Second,
		FlashDelay:   400 * time.Millisecond,
		RevertDelay:  1200 * time.Millisecond,
	}, cfg.Game)
	assert.Equal(t, SessionsConfig{
		MaxGames:      1000,
		IdleTTL:       30 * time.Minute,
		SweepInterval: time.Minute,
		QueueSize:     64,
	}, cfg.Sessions)
	assert.Equal(t, testSecret, cfg.Auth.TokenSecret)
	assert.Equal(t, 120, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, StreamConfig{
		EventBuffer:  64,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, cfg.Stream)
}

// TestLoadFromEnv verifies that environment variables override defaults.
func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"CONCENTRATION_SERVER_PORT":         "9090",
		"CONCENTRATION_SERVER_LOG_LEVEL":    "debug",
		"CONCENTRATION_GAME_TIME_LIMIT":     "45",
		"CONCENTRATION_GAME_FLASH_DELAY":    "250ms",
		"CONCENTRATION_GAME_REVERT_DELAY":   "2s",
		"CONCENTRATION_SESSIONS_MAX_GAMES":  "10",
		"CONCENTRATION_AUTH_TOKEN_SECRET":   testSecret,
		"CONCENTRATION_STREAM_EVENT_BUFFER": "8",
		ConfigFileEnv:                       "",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 45, cfg.Game.TimeLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.FlashDelay)
	assert.Equal(t, 2*time.Second, cfg.Game.RevertDelay)
	assert.Equal(t, 10, cfg.Sessions.MaxGames)
	assert.Equal(t, 8, cfg.Stream.EventBuffer)
}

// TestLoadValidationErrors verifies that Load rejects invalid configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Missing token secret",
			envVars: map[string]string{"CONCENTRATION_AUTH_TOKEN_SECRET": ""},
		},
		{
			name: "Invalid port number",
			envVars: map[string]string{
				"CONCENTRATION_SERVER_PORT":       "999999",
				"CONCENTRATION_AUTH_TOKEN_SECRET": testSecret,
			},
		},
		{
			name: "Invalid log level",
			envVars: map[string]string{
				"CONCENTRATION_SERVER_LOG_LEVEL":  "invalid-level",
				"CONCENTRATION_AUTH_TOKEN_SECRET": testSecret,
			},
		},
		{
			name:    "Short token secret",
			envVars: map[string]string{"CONCENTRATION_AUTH_TOKEN_SECRET": "tooshort"},
		},
		{
			name: "Revert before flash",
			envVars: map[string]string{
				"CONCENTRATION_GAME_FLASH_DELAY":  "1s",
				"CONCENTRATION_GAME_REVERT_DELAY": "500ms",
				"CONCENTRATION_AUTH_TOKEN_SECRET": testSecret,
			},
		},
		{
			name: "Zero time limit",
			envVars: map[string]string{
				"CONCENTRATION_GAME_TIME_LIMIT":   "0",
				"CONCENTRATION_AUTH_TOKEN_SECRET": testSecret,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(ConfigFileEnv, "")
			setupEnv(t, tc.envVars)

			cfg, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
			assert.Nil(t, cfg)
		})
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const fileConfig = `
server:
  port: 7070
  log_level: warn
game:
  time_limit: 60
  tick_interval: 500ms
auth:
  token_secret: file-secret-that-is-at-least-32-characters
`

func TestLoadFromFile(t *testing.T) {
	t.Setenv("CONCENTRATION_AUTH_TOKEN_SECRET", "")
	path := writeConfigFile(t, fileConfig)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, 60, cfg.Game.TimeLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.TickInterval)
	assert.Equal(t, 400*time.Millisecond, cfg.Game.FlashDelay, "unset keys keep their default")
	assert.Equal(t, "file-secret-that-is-at-least-32-characters", cfg.Auth.TokenSecret)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, fileConfig)
	setupEnv(t, map[string]string{
		ConfigFileEnv:               path,
		"CONCENTRATION_SERVER_PORT": "6060",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile("")
	assert.Error(t, err)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
