package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/wellcast/core/factory"
)

// PredictionLogConfig defines where prediction outcomes are recorded.
type PredictionLogConfig struct {
	// Backend selects the store: memory, jsonl, rotating_jsonl or sqlite.
	Backend string `json:"backend"`
	// Path is the file location for file backends.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
	// MaxRecords bounds the memory backend.
	MaxRecords int `json:"max_records"`
	// RetentionDays prunes older records on stores that support it. Zero
	// keeps everything.
	RetentionDays int `json:"retention_days"`
}

// Retention returns the pruning horizon, zero when disabled.
func (c PredictionLogConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func (c *PredictionLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		switch c.Backend {
		case "jsonl", "rotating_jsonl":
			c.Path = "predictions.jsonl"
		case "sqlite":
			c.Path = "predictions.db"
		}
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = 1000
	}
}

func (c PredictionLogConfig) Validate() error {
	switch c.Backend {
	case "memory":
	case "jsonl", "rotating_jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("logging.path is required for %s", c.Backend)
		}
	default:
		return fmt.Errorf("unknown logging backend %s", c.Backend)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("logging.retention_days must be >= 0")
	}
	return nil
}

// Module converts the settings into a store module definition.
func (c PredictionLogConfig) Module() factory.ModuleConfig {
	conf := map[string]any{"max_records": c.MaxRecords}
	if c.Path != "" {
		conf["path"] = c.Path
	}
	if c.MaxSizeMB > 0 {
		conf["max_size_mb"] = c.MaxSizeMB
	}
	if c.MaxBackups > 0 {
		conf["max_backups"] = c.MaxBackups
	}
	if c.MaxAgeDays > 0 {
		conf["max_age_days"] = c.MaxAgeDays
	}
	return factory.ModuleConfig{Type: c.Backend, Conf: conf}
}
