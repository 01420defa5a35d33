package config

import (
	"errors"
	"time"
)

// ServerConfig defines the inbound HTTP listener.
type ServerConfig struct {
	Address                string `json:"address"`
	ReadTimeoutSeconds     int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `json:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"`
	// LogsToken protects the prediction log endpoint when set.
	LogsToken string `json:"logs_token"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 15
	}
	// Must outlast the predictor timeout.
	if c.WriteTimeoutSeconds <= 0 {
		c.WriteTimeoutSeconds = 30
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = 10
	}
}

func (c ServerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("server.address is required")
	}
	return nil
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
