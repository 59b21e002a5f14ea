package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/curatai/curatai/internal/config"
)

var cliConfig *config.Config

// GetDefaultConfigPath returns the default path for the config file
// It uses the OS-specific config directory (e.g., ~/.config/curatai on Linux)
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "curatai", config.DefaultConfigFile), nil
}

// LoadConfig loads the configuration from file. With no file the default
// location is tried, and when nothing is there the configuration comes
// from the environment alone.
func LoadConfig(file string) error {
	if file == "" {
		def, err := GetDefaultConfigPath()
		if err == nil {
			if _, statErr := os.Stat(def); statErr == nil {
				file = def
			}
		}
	} else if _, err := os.Stat(file); err != nil {
		return err
	}
	c, err := config.LoadConfig(file)
	if err != nil {
		return err
	}
	cliConfig = c
	return nil
}

// GetConfig returns the current configuration
func GetConfig() *config.Config {
	return cliConfig
}

// WriteConfig writes cfg as TOML. An existing file is kept unless force is set.
func WriteConfig(cfg *config.Config, file string, force bool) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}
	if _, err := os.Stat(file); err == nil && !force {
		return fmt.Errorf("config file %s already exists, use --force to overwrite", file)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	defer f.Close()
	return encodeConfig(f, cfg)
}

func encodeConfig(w io.Writer, cfg *config.Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the curatai configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Long: `Print the effective configuration: the config file, if any, with
environment overrides applied. The catalog password and API keys are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig().Redacted()
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), cfg)
				return nil
			}
			out := cmd.OutOrStdout()
			if err := encodeConfig(out, cfg); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n# %s=%s\n", config.EnvAnthropicKey, cfg.Agent.AnthropicAPIKey)
			fmt.Fprintf(out, "# %s=%s\n", config.EnvOpenAIKey, cfg.Agent.OpenAIAPIKey)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a configuration file with default values",
		Long: `Write a configuration file with default values. Without a file argument
the default location is used. Credentials can be filled in afterwards or
supplied through ALATION_USERNAME, ALATION_PASSWORD and ALATION_BASE_URL.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			file := configFile
			if len(args) == 1 {
				file = args[0]
			}
			if file == "" {
				var err error
				if file, err = GetDefaultConfigPath(); err != nil {
					return err
				}
			}
			if err := WriteConfig(config.Default(), file, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", file)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
