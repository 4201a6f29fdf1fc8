package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version  string         `yaml:"version" json:"version" toml:"version"`
	Service  ServiceConfig  `yaml:"service" json:"service" toml:"service"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis" toml:"analysis"`
	Output   OutputConfig   `yaml:"output" json:"output" toml:"output"`
	Notice   NoticeConfig   `yaml:"notice" json:"notice" toml:"notice"`
	Workflow WorkflowConfig `yaml:"workflow" json:"workflow" toml:"workflow"`
}

// ServiceConfig configures the analysis service connection
type ServiceConfig struct {
	Endpoint   string        `yaml:"endpoint" json:"endpoint" toml:"endpoint"`          // base URL of the service
	Timeout    time.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`             // per-request timeout
	MaxRetries int           `yaml:"max_retries" json:"max_retries" toml:"max_retries"` // retries on network failure only
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay" toml:"retry_delay"` // first retry backoff
}

// AnalysisConfig holds the defaults for analyze and filter requests
type AnalysisConfig struct {
	MinN             int    `yaml:"min_n" json:"min_n" toml:"min_n"`
	MaxN             int    `yaml:"max_n" json:"max_n" toml:"max_n"`
	Mode             string `yaml:"mode" json:"mode" toml:"mode"` // all|common
	Sort             string `yaml:"sort" json:"sort" toml:"sort"` // asc|desc
	IncludeAllCommon bool   `yaml:"include_all_common" json:"include_all_common" toml:"include_all_common"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat   string `yaml:"default_format" json:"default_format" toml:"default_format"`       // text|json|markdown|csv
	ColorMode       string `yaml:"color_mode" json:"color_mode" toml:"color_mode"`                   // auto|always|never
	Verbose         bool   `yaml:"verbose" json:"verbose" toml:"verbose"`                            // default verbosity
	Language        string `yaml:"language" json:"language" toml:"language"`                         // ko|en|zh
	Directory       string `yaml:"directory" json:"directory" toml:"directory"`                      // where downloads are saved
	OpenViewer      bool   `yaml:"open_viewer" json:"open_viewer" toml:"open_viewer"`                // open word clouds and highlights
	ExportFormat    string `yaml:"export_format" json:"export_format" toml:"export_format"`          // txt|html|docx|hwp
	HighlightFormat string `yaml:"highlight_format" json:"highlight_format" toml:"highlight_format"` // html|txt|docx|hwp
	Theme           string `yaml:"theme" json:"theme" toml:"theme"`                                  // default|high-contrast
}

// NoticeConfig configures the notification area
type NoticeConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout" toml:"timeout"` // auto-dismiss delay
}

// WorkflowConfig configures workflow dispatch
type WorkflowConfig struct {
	// Exclusive rejects a workflow while the same one is still loading
	Exclusive bool `yaml:"exclusive" json:"exclusive" toml:"exclusive"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Service: ServiceConfig{
			Endpoint:   "http://localhost:8000",
			Timeout:    120 * time.Second,
			MaxRetries: 2,
			RetryDelay: 500 * time.Millisecond,
		},
		Analysis: AnalysisConfig{
			MinN: 1,
			MaxN: 3,
			Mode: "all",
			Sort: "asc",
		},
		Output: OutputConfig{
			DefaultFormat:   "text",
			ColorMode:       "auto",
			Verbose:         false,
			Language:        "ko",
			Directory:       ".",
			OpenViewer:      true,
			ExportFormat:    "html",
			HighlightFormat: "html",
			Theme:           "default",
		},
		Notice: NoticeConfig{
			Timeout: 5 * time.Second,
		},
		Workflow: WorkflowConfig{
			Exclusive: false,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateServiceConfig(); err != nil {
		return err
	}
	if err := c.validateAnalysisConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateNoticeConfig(); err != nil {
		return err
	}
	return nil
}

// validateServiceConfig validates service connection settings
func (c *Config) validateServiceConfig() error {
	if c.Service.Endpoint == "" {
		return fmt.Errorf("service endpoint is required")
	}
	u, err := url.Parse(c.Service.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid service endpoint: %s (must be an http or https URL)", c.Service.Endpoint)
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("service timeout must be non-negative")
	}
	if c.Service.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.Service.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative")
	}
	return nil
}

// validateAnalysisConfig validates analysis defaults
func (c *Config) validateAnalysisConfig() error {
	if c.Analysis.MinN < 1 {
		return fmt.Errorf("min_n must be greater than 0")
	}
	if c.Analysis.MaxN < c.Analysis.MinN {
		return fmt.Errorf("max_n must be greater than or equal to min_n")
	}
	if c.Analysis.Mode != "" && c.Analysis.Mode != "all" && c.Analysis.Mode != "common" {
		return fmt.Errorf("invalid mode: %s (must be one of: all, common)", c.Analysis.Mode)
	}
	if c.Analysis.Sort != "" && c.Analysis.Sort != "asc" && c.Analysis.Sort != "desc" {
		return fmt.Errorf("invalid sort: %s (must be one of: asc, desc)", c.Analysis.Sort)
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	exportFormats := map[string]bool{"txt": true, "html": true, "docx": true, "hwp": true}
	if c.Output.ExportFormat != "" && !exportFormats[c.Output.ExportFormat] {
		return fmt.Errorf("invalid export format: %s (must be one of: txt, html, docx, hwp)", c.Output.ExportFormat)
	}
	if c.Output.HighlightFormat != "" && !exportFormats[c.Output.HighlightFormat] {
		return fmt.Errorf("invalid highlight format: %s (must be one of: txt, html, docx, hwp)", c.Output.HighlightFormat)
	}
	if c.Output.Theme != "" && c.Output.Theme != "default" && c.Output.Theme != "high-contrast" {
		return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast)", c.Output.Theme)
	}
	return nil
}

// validateNoticeConfig validates notification settings
func (c *Config) validateNoticeConfig() error {
	if c.Notice.Timeout < 0 {
		return fmt.Errorf("notice timeout must be non-negative")
	}
	return nil
}
