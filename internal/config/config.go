package config

import "time"

// ReconnectConfig bounds the exponential backoff used when the room
// connection drops. Once MaxElapsedTime is spent retrying, the session
// stays closed.
type ReconnectConfig struct {
	Enabled         bool          `mapstructure:"enabled" yaml:"enabled"`
	InitialInterval time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time" yaml:"max_elapsed_time"`
}

// Config holds client configuration values.
type Config struct {
	// ServerURL is the WebSocket base, e.g. ws://localhost:8000. The
	// room path is appended per session.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	// APIBaseURL is the HTTP base for the upload side-channel and the
	// room directory, e.g. http://localhost:8000.
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`
	// Sender is the display identity attached to outbound envelopes.
	// Empty means derive it from Token, falling back to a generated name.
	Sender string `mapstructure:"sender" yaml:"sender"`
	// Token is an optional bearer token forwarded to the server.
	Token string `mapstructure:"token" yaml:"token"`

	TypingTimeout time.Duration `mapstructure:"typing_timeout" yaml:"typing_timeout"`
	// TypingTTL prunes remote typing entries not refreshed within the
	// window. Zero disables pruning.
	TypingTTL time.Duration `mapstructure:"typing_ttl" yaml:"typing_ttl"`

	Reconnect ReconnectConfig `mapstructure:"reconnect" yaml:"reconnect"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:     "ws://localhost:8000",
		APIBaseURL:    "http://localhost:8000",
		TypingTimeout: 2 * time.Second,
		TypingTTL:     5 * time.Second,
		Reconnect: ReconnectConfig{
			Enabled:         true,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     15 * time.Second,
			MaxElapsedTime:  2 * time.Minute,
		},
		LogLevel: "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.APIBaseURL != "" {
		c.APIBaseURL = other.APIBaseURL
	}
	if other.Sender != "" {
		c.Sender = other.Sender
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.TypingTimeout != 0 {
		c.TypingTimeout = other.TypingTimeout
	}
	if other.TypingTTL != 0 {
		c.TypingTTL = other.TypingTTL
	}
	if other.Reconnect.InitialInterval != 0 {
		c.Reconnect.InitialInterval = other.Reconnect.InitialInterval
	}
	if other.Reconnect.MaxInterval != 0 {
		c.Reconnect.MaxInterval = other.Reconnect.MaxInterval
	}
	if other.Reconnect.MaxElapsedTime != 0 {
		c.Reconnect.MaxElapsedTime = other.Reconnect.MaxElapsedTime
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
