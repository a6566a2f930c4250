package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Game     GameConfig     `mapstructure:"game" validate:"required"`
	Sessions SessionsConfig `mapstructure:"sessions" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Stream   StreamConfig   `mapstructure:"stream" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// GameConfig contains the timing of a round.
type GameConfig struct {
	// TimeLimit is the countdown start value in ticks
	TimeLimit    int           `mapstructure:"time_limit" validate:"required,gt=0"`
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"required,gt=0"`
	FlashDelay   time.Duration `mapstructure:"flash_delay" validate:"required,gt=0"`
	// RevertDelay is measured from the mismatch, not from the flash
	RevertDelay time.Duration `mapstructure:"revert_delay" validate:"required,gtfield=FlashDelay"`
}

// SessionsConfig bounds the games hosted by one server.
type SessionsConfig struct {
	MaxGames      int           `mapstructure:"max_games" validate:"required,gt=0"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl" validate:"required,gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required,gt=0"`
	// QueueSize is the capacity of each game's command queue
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}

// AuthConfig contains the game token settings.
type AuthConfig struct {
	TokenSecret          string `mapstructure:"token_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// StreamConfig contains settings shared by the SSE and WebSocket streams.
type StreamConfig struct {
	// EventBuffer is the per-subscriber event buffer
	EventBuffer  int           `mapstructure:"event_buffer" validate:"required,gt=0"`
	PingInterval time.Duration `mapstructure:"ping_interval" validate:"required,gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required,gt=0"`
}
