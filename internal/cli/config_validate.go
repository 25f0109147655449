package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/beacondash/internal/config"
)

// newConfigValidateCmd creates the config validate command for validating configuration.
func newConfigValidateCmd(opts *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration for syntax and semantic correctness.

This includes:
- YAML syntax of the config file
- Schema version compatibility
- Tavern endpoint URL
- Table geometry, poll interval and page size bounds
- Cache TTL and logging level/format`,
		Example: `  # Validate current configuration
  beacondash config validate

  # Validate and show detailed information
  beacondash config validate --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, opts, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

func runConfigValidate(cmd *cobra.Command, opts *rootOptions, verbose bool) error {
	if opts.loadErr != nil {
		return fmt.Errorf("configuration validation failed: %w", opts.loadErr)
	}
	cfg := config.GetGlobalConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")
	if verbose {
		printVerboseDetails(cmd, cfg)
	}
	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", cfg.ConfigPath())
	cmd.Printf("  Tavern URL: %s\n", config.GetTavernURL())
	cmd.Printf("  Token: %s\n", tokenState(cfg.Tavern.Token))
	cmd.Printf("  Table: height %d, overscan %d, poll %s, page size %d\n",
		cfg.Table.Height, cfg.Table.Overscan, cfg.Table.PollInterval, cfg.Table.PageSize)
	if cfg.Cache.Enabled {
		cmd.Printf("  Cache: enabled, ttl %s\n", cfg.CacheTTL())
	} else {
		cmd.Println("  Cache: disabled")
	}
	cmd.Printf("  Logging level: %s\n", config.GetLogLevel())
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)
}

func tokenState(token string) string {
	if token == "" {
		return "not set"
	}
	return "set"
}
