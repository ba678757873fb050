package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimex/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage claimex configuration",
	Long: `Manage claimex configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CLAIMEX_*, e.g. CLAIMEX_BACKEND_KIND)
3. Config file (~/.claimex/config.yaml)
4. Defaults

Credentials are never read from the config file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, environment and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "No configuration file found (using defaults)\n\n")
		}

		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.claimex/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".claimex", "config.yaml")
		if err := initConfigFile(configPath); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", configPath)
		fmt.Fprintf(out, "\nTo view the configuration:\n")
		fmt.Fprintf(out, "  claimex config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

const configHeader = `# claimex configuration
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (CLAIMEX_*)
#   3. This config file
#   4. Built-in defaults
#
# Durations are in nanoseconds when written by claimex; strings such as
# "90s" are accepted too.

`

const configFooter = `
# Credentials are read from the environment only:
#   export GEMINI_API_KEY=...      (or GOOGLE_API_KEY)
#   export OPENAI_API_KEY=sk-...   (backend.kind: openai)
#   export ANTHROPIC_API_KEY=...   (backend.kind: anthropic)
`

// initConfigFile writes the default configuration; it refuses to overwrite
func initConfigFile(path string) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'claimex config show' to view it, or delete it first to recreate", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	if _, err := f.WriteString(configHeader); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	if err := writeConfig(f, model.DefaultConfig()); err != nil {
		return err
	}
	if _, err := f.WriteString(configFooter); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}

func writeConfig(w io.Writer, cfg *model.Config) error {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if _, err := w.Write(yamlData); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}
