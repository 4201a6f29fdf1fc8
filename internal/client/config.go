package client

import (
	"fmt"
	"net/url"
	"time"

	"github.com/yildizm/NgramLens/internal/apperr"
)

const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultUserAgent  = "ngramlens"
)

// Config configures the analysis service client
type Config struct {
	BaseURL    string        `json:"base_url"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
	UserAgent  string        `json:"user_agent"`

	// Fallback returns the localized message used when an error response
	// carries no detail. Nil means a generic English message.
	Fallback func(op Operation) string `json:"-"`
}

// DefaultConfig returns a client config for a local service
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		UserAgent:  DefaultUserAgent,
	}
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return apperr.NewValidationError("base_url", "", "base URL is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return apperr.NewValidationError("base_url", c.BaseURL, fmt.Sprintf("invalid base URL: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.NewValidationError("base_url", c.BaseURL, "base URL must use http or https")
	}

	if c.Timeout < 0 {
		return apperr.NewValidationError("timeout", c.Timeout.String(), "timeout must be non-negative")
	}

	if c.MaxRetries < 0 {
		return apperr.NewValidationError("max_retries", fmt.Sprint(c.MaxRetries), "max retries must be non-negative")
	}

	return nil
}
