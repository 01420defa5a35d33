package predictor

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kilianp07/wellcast/auth"
	"github.com/kilianp07/wellcast/core/prediction"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 10 * time.Second
)

// Config holds the external predictor settings.
type Config struct {
	Mode           prediction.Mode `json:"mode"`
	BaseURL        string          `json:"base_url"`
	TimeoutSeconds float64         `json:"timeout_seconds"`
	MaxBodyBytes   int64           `json:"max_body_bytes"`

	// StrictResponse validates and normalizes the predictor's answer. When
	// false the parsed object is relayed unchanged.
	StrictResponse bool `json:"strict_response"`

	// RetryTransport allows one extra attempt after a transport failure.
	RetryTransport bool `json:"retry_transport"`

	// Auth attaches an OAuth2 client-credentials token when configured.
	Auth auth.Conf `json:"auth"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Mode:           prediction.ModeRemote,
		BaseURL:        DefaultBaseURL,
		TimeoutSeconds: DefaultTimeout.Seconds(),
		StrictResponse: true,
		MaxBodyBytes:   1 << 20,
	}
}

func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = prediction.ModeRemote
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeout.Seconds()
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
}

func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("predictor.mode must be %q or %q, got %q", prediction.ModeRemote, prediction.ModeBaseline, c.Mode)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("predictor.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("predictor.base_url must be http or https, got %q", c.BaseURL)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("predictor.timeout_seconds must be >= 0")
	}
	return c.Auth.Validate()
}

// Timeout returns the per-attempt deadline.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}
