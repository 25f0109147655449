package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/beacondash/internal/config"
)

const redacted = "<redacted>"

// NewConfigGetCmd creates the config get command. It prints the effective
// value after the config file, environment and flags are applied.
func NewConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print an effective configuration value",
		Example: `  beacondash config get tavern.url
  beacondash config get table.page_size
  beacondash config get table`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *config.GetGlobalConfig()
			if cfg.Tavern.Token != "" {
				cfg.Tavern.Token = redacted
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}
