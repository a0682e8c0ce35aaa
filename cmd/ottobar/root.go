package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/ottobar/internal/config"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
	envPath    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ottobar",
		Short:         "Self-service cocktail dispenser",
		Long:          "Runs the cocktail dispenser and talks to a running one over MQTT.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "ottobar.yaml", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envPath, "env", ".env", "dotenv file with overrides (may be missing)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newRequestCommand(opts))
	cmd.AddCommand(newPostCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	return cmd
}

// loadConfig reads the config file and environment. The default config
// file may be absent; one named on the command line may not.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		explicit := cmd.Flag("config") != nil && cmd.Flag("config").Changed
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return cfg, err
		}
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(opts.envPath); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
