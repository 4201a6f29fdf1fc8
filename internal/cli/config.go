package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yildizm/NgramLens/internal/config"
	"github.com/yildizm/NgramLens/internal/emoji"
)

// newConfigCommand creates the config command with subcommands
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage NgramLens configuration",
		Long: `Manage NgramLens configuration files and settings.

The config command provides subcommands for initializing, viewing,
validating, and locating configuration files.`,
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

// newConfigInitCommand creates the config init subcommand
func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		minimal    bool
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new NgramLens configuration file with default values.

By default, creates a full YAML configuration with all options and comments.
Use --minimal for a compact configuration with only essential settings. A
path ending in .toml writes the defaults as TOML instead.`,
		Example: `  # Create full config in current directory
  ngramlens config init

  # Create minimal config
  ngramlens config init --minimal

  # Create a TOML config for the current user
  ngramlens config init --output ~/.config/ngramlens/config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = ".ngramlens.yaml"
			}
			outputPath = config.ExpandPath(outputPath)

			if !force && fileExists(outputPath) {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
			}

			if err := writeInitialConfig(outputPath, minimal); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Configuration file created at: %s\n", emoji.GetEmoji("success"), outputPath)
			if minimal {
				fmt.Fprintf(out, "%s Created minimal configuration with essential settings\n", emoji.GetEmoji("file"))
			} else {
				fmt.Fprintf(out, "%s Created full configuration with all options\n", emoji.GetEmoji("file"))
			}
			return nil
		},
	}

	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path for config file (default: .ngramlens.yaml)")
	initCmd.Flags().BoolVarP(&minimal, "minimal", "m", false, "create minimal configuration")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing config file")

	return initCmd
}

// writeInitialConfig writes the commented sample, or the encoded defaults for TOML
func writeInitialConfig(path string, minimal bool) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return config.Save(config.DefaultConfig(), path)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	content := config.SampleConfig()
	if minimal {
		content = config.MinimalSampleConfig()
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current effective configuration after loading from all sources.

Shows the merged configuration from defaults, config files and
NGRAMLENS_ environment variable overrides.`,
		Example: `  # Show config in YAML format
  ngramlens config show

  # Show config in JSON format
  ngramlens config show --format json

  # Show config from specific file
  ngramlens --config /path/to/config.toml config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			data, err := marshalConfig(cfg, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	showCmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json, toml)")

	return showCmd
}

func marshalConfig(cfg *config.Config, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		return data, nil
	case "toml":
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use yaml, json or toml)", format)
	}
}

// newConfigValidateCommand creates the config validate subcommand
func newConfigValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate a NgramLens configuration file for syntax and semantic errors.

Checks the configuration file for:
- Valid YAML or TOML syntax
- A well-formed service endpoint
- A valid n-gram range
- Known enum values (mode, sort, formats, language)`,
		Example: `  # Validate current config
  ngramlens config validate

  # Validate specific config file
  ngramlens --config /path/to/config.yaml config validate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				fmt.Fprintf(out, "%s Configuration validation failed:\n", emoji.GetEmoji("error"))
				fmt.Fprintf(out, "   %v\n", err)
				return err
			}

			fmt.Fprintf(out, "%s Configuration is valid\n", emoji.GetEmoji("success"))
			fmt.Fprintf(out, "%s Configuration summary:\n", emoji.GetEmoji("info"))
			fmt.Fprintf(out, "   Version: %s\n", cfg.Version)
			fmt.Fprintf(out, "   Service: %s\n", cfg.Service.Endpoint)
			fmt.Fprintf(out, "   N-gram range: %d-%d\n", cfg.Analysis.MinN, cfg.Analysis.MaxN)
			fmt.Fprintf(out, "   Language: %s\n", cfg.Output.Language)
			fmt.Fprintf(out, "   Output Format: %s\n", cfg.Output.DefaultFormat)

			return nil
		},
	}

	return validateCmd
}

// newConfigPathCommand creates the config path subcommand
func newConfigPathCommand() *cobra.Command {
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		Long: `Display the list of paths NgramLens searches for configuration files.

Shows the search order and indicates which files exist.`,
		Example: `  # Show config search paths
  ngramlens config path`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration file search paths (in priority order):")
			fmt.Fprintln(out)

			priority := []string{"Highest", "Medium", "Lowest"}
			for i, path := range config.GetConfigPaths() {
				exists := " (not found)"
				if fileExists(path) {
					exists = " " + emoji.GetEmoji("checked") + " (exists)"
				}

				fmt.Fprintf(out, "  %d. %s%s\n", i+1, path, exists)
				if i < len(priority) {
					fmt.Fprintf(out, "     Priority: %s\n", priority[i])
				}
				fmt.Fprintln(out)
			}

			if currentConfig, found := config.FindConfigFile(); found {
				fmt.Fprintf(out, "Current config file: %s\n", currentConfig)
			} else {
				fmt.Fprintln(out, "No config file found, using defaults")
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "Environment variables with %s prefix will override file settings\n", config.EnvPrefix)
		},
	}

	return pathCmd
}

// Helper function to check if file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
