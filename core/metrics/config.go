package metrics

import (
	"fmt"

	"github.com/kilianp07/wellcast/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// Path serves the Prometheus handler when a prometheus sink is configured.
	Path string `json:"path"`
}

func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
	}
	return nil
}
