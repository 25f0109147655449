package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/beacondash/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values at the path given by
--config, $BEACONDASH_CONFIG or ~/.beacondash/config.yaml. A --tavern-url
given on the command line is written into the new file.`,
		Example: `  # Create the default configuration
  beacondash config init

  # Point the new configuration at a Tavern server
  beacondash config init --tavern-url https://tavern.example.com/graphql

  # Create configuration, overwriting existing
  beacondash config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")

	return cmd
}

func initConfig(cmd *cobra.Command, force bool) error {
	path := config.GetGlobalConfig().ConfigPath()
	if path == "" {
		resolved, err := config.ResolveConfigPath()
		if err != nil {
			return err
		}
		path = resolved
	}

	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access config path %s: %w", path, err)
		}
	}

	cfg := config.Defaults()
	if cmd.Flags().Changed("tavern-url") {
		cfg.Tavern.URL, _ = cmd.Flags().GetString("tavern-url")
	}
	cfg.SetConfigPath(path)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := config.EnsureSubDirs(); err != nil {
		return fmt.Errorf("failed to create beacondash directories: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", path)
	return nil
}
