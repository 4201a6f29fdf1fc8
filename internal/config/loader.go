package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.ngramlens.yaml",               // Project-specific config (highest priority)
	"~/.config/ngramlens/config.yaml", // User config
	"/etc/ngramlens/config.yaml",      // System config (lowest priority)
}

// EnvPrefix prefixes every environment override
const EnvPrefix = "NGRAMLENS_"

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	warn        func(format string, args ...any)
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		warn: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		},
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.ngramlens.yaml
// 4. ~/.config/ngramlens/config.yaml
// 5. /etc/ngramlens/config.yaml
// 6. Built-in defaults
//
// A custom path replaces the search paths and may be YAML or TOML.
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// lowest priority first so higher ones overlay it
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				l.warn("Failed to load config from %s: %v", expandedPath, err)
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile decodes a config file over config. Keys absent from the file
// keep their current value, so defaults and lower-priority files survive.
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if isTOML(path) {
		meta, err := toml.Decode(string(data), config)
		if err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
		for _, key := range meta.Undecoded() {
			l.warn("unknown config key %q in %s", key.String(), path)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Service Config
		"SERVICE_ENDPOINT":    func(v string) error { config.Service.Endpoint = v; return nil },
		"SERVICE_TIMEOUT":     func(v string) error { return parseDuration(v, &config.Service.Timeout) },
		"SERVICE_MAX_RETRIES": func(v string) error { return parseInt(v, &config.Service.MaxRetries) },
		"SERVICE_RETRY_DELAY": func(v string) error { return parseDuration(v, &config.Service.RetryDelay) },

		// Analysis Config
		"ANALYSIS_MIN_N":              func(v string) error { return parseInt(v, &config.Analysis.MinN) },
		"ANALYSIS_MAX_N":              func(v string) error { return parseInt(v, &config.Analysis.MaxN) },
		"ANALYSIS_MODE":               func(v string) error { config.Analysis.Mode = v; return nil },
		"ANALYSIS_SORT":               func(v string) error { config.Analysis.Sort = v; return nil },
		"ANALYSIS_INCLUDE_ALL_COMMON": func(v string) error { return parseBool(v, &config.Analysis.IncludeAllCommon) },

		// Output Config
		"OUTPUT_DEFAULT_FORMAT":   func(v string) error { config.Output.DefaultFormat = v; return nil },
		"OUTPUT_COLOR_MODE":       func(v string) error { config.Output.ColorMode = v; return nil },
		"OUTPUT_VERBOSE":          func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"OUTPUT_LANGUAGE":         func(v string) error { config.Output.Language = v; return nil },
		"OUTPUT_DIRECTORY":        func(v string) error { config.Output.Directory = v; return nil },
		"OUTPUT_OPEN_VIEWER":      func(v string) error { return parseBool(v, &config.Output.OpenViewer) },
		"OUTPUT_EXPORT_FORMAT":    func(v string) error { config.Output.ExportFormat = v; return nil },
		"OUTPUT_HIGHLIGHT_FORMAT": func(v string) error { config.Output.HighlightFormat = v; return nil },
		"OUTPUT_THEME":            func(v string) error { config.Output.Theme = v; return nil },

		"NOTICE_TIMEOUT":     func(v string) error { return parseDuration(v, &config.Notice.Timeout) },
		"WORKFLOW_EXCLUSIVE": func(v string) error { return parseBool(v, &config.Workflow.Exclusive) },
	}

	for suffix, setter := range envMappings {
		envVar := EnvPrefix + suffix
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	return nil
}

// Save writes config to path as YAML, or TOML for a .toml path
func Save(config *Config, path string) error {
	if err := validateConfigPath(path); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to encode TOML: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(config); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" && ext != ".toml" {
		return fmt.Errorf("config file must have .yaml, .yml or .toml extension")
	}

	absPath, err := filepath.Abs(expandPath(cleanPath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ExpandPath expands a leading ~/ in a user-supplied path
func ExpandPath(path string) string {
	return expandPath(path)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
