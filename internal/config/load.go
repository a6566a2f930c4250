package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment variable the server reads
	EnvPrefix = "CONCENTRATION"

	// ConfigFileEnv names the environment variable holding an explicit config file path
	ConfigFileEnv = "CONCENTRATION_CONFIG_FILE"

	defaultConfigFile = "config.yaml"
)

var defaults = map[string]interface{}{
	"server.port":                 8080,
	"server.log_level":            "info",
	"game.time_limit":             30,
	"game.tick_interval":          time.Second,
	"game.flash_delay":            400 * time.Millisecond,
	"game.revert_delay":           1200 * time.Millisecond,
	"sessions.max_games":          1000,
	"sessions.idle_ttl":           30 * time.Minute,
	"sessions.sweep_interval":     time.Minute,
	"sessions.queue_size":         64,
	"auth.token_lifetime_minutes": 120,
	"stream.event_buffer":         64,
	"stream.ping_interval":        30 * time.Second,
	"stream.write_timeout":        10 * time.Second,
}

// keys without a default that must still be bindable from the environment
var requiredKeys = []string{
	"auth.token_secret",
}

// Load configuration from environment variables and optionally a config file.
// The file is taken from CONCENTRATION_CONFIG_FILE, or ./config.yaml when it
// exists. Environment variables take precedence over values from the file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	path := os.Getenv(ConfigFileEnv)
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	return load(path)
}

// LoadFromFile loads configuration from the given file, with environment
// variables still taking precedence.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file path is empty")
	}
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range requiredKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
