// Package config loads the service configuration from a YAML or JSON file
// with K_ prefixed environment overrides (K_PREDICTOR__BASE_URL sets
// predictor.base_url).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/wellcast/core/metrics"
	"github.com/kilianp07/wellcast/infra/mqtt"
	"github.com/kilianp07/wellcast/infra/predictor"
)

type Config struct {
	Server    ServerConfig        `json:"server"`
	Predictor predictor.Config    `json:"predictor"`
	Band      BandConfig          `json:"band"`
	Baseline  BaselineConfig      `json:"baseline"`
	Fallback  FallbackConfig      `json:"fallback"`
	Metrics   metrics.Config      `json:"metrics"`
	Logging   PredictionLogConfig `json:"logging"`
	Publisher mqtt.Config         `json:"publisher"`
	Sentry    SentryConfig        `json:"sentry"`
}

// Default returns a complete configuration without reading any file.
func Default() *Config {
	cfg := &Config{Predictor: predictor.DefaultConfig(), Band: DefaultBandConfig()}
	cfg.SetDefaults()
	return cfg
}

// Load reads path (when non-empty) and environment overrides on top of
// Default, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Baseline tables are left nil here so a configured table replaces the
	// default instead of being merged into it element by element. The band
	// MAE is seeded so an explicit mae: 0 survives.
	cfg := &Config{Predictor: predictor.DefaultConfig(), Band: DefaultBandConfig()}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Predictor.SetDefaults()
	c.Baseline.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	c.Publisher.SetDefaults()
}

func (c *Config) Validate() error {
	validators := []func() error{
		c.Server.Validate,
		c.Predictor.Validate,
		c.Band.Validate,
		c.Baseline.Validate,
		c.Metrics.Validate,
		c.Logging.Validate,
		c.Publisher.Validate,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}
