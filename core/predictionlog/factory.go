package predictionlog

import (
	"errors"

	"github.com/kilianp07/wellcast/core/factory"
)

var storeRegistry = factory.NewRegistry[LogStore]()

func init() {
	_ = storeRegistry.Register("memory", func(conf map[string]any) (LogStore, error) {
		var c struct {
			MaxRecords int `json:"max_records"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMemoryStore(c.MaxRecords), nil
	})
	_ = storeRegistry.Register("jsonl", func(conf map[string]any) (LogStore, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("path is required")
		}
		return NewJSONLStore(c.Path)
	})
	_ = storeRegistry.Register("rotating_jsonl", func(conf map[string]any) (LogStore, error) {
		c := struct {
			Path       string `json:"path"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
			MaxAgeDays int    `json:"max_age_days"`
		}{MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("path is required")
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	_ = storeRegistry.Register("sqlite", func(conf map[string]any) (LogStore, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("path is required")
		}
		return NewSQLiteStore(c.Path)
	})
}

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[LogStore]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates the configured store. An empty type yields a bounded
// in-memory store.
func NewStore(cfg factory.ModuleConfig) (LogStore, error) {
	if cfg.Type == "" {
		return NewMemoryStore(1000), nil
	}
	return storeRegistry.Create(cfg)
}
