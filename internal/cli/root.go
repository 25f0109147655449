package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/beacondash/internal/config"
	"github.com/rshade/beacondash/internal/logging"
	"github.com/rshade/beacondash/internal/tavern"
	"github.com/rshade/beacondash/internal/tui"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// annotationDashboard marks commands that may take over the terminal.
const annotationDashboard = "beacondash/dashboard"

// rootOptions holds the persistent flags and the state PersistentPreRunE
// derives from them.
type rootOptions struct {
	debug      bool
	configPath string
	overlay    string
	tavernURL  string
	plain      bool

	// loadErr is a config file that failed to parse. Only commands that talk
	// to Tavern refuse to run with it.
	loadErr error
}

// outputMode resolves the mode for cmd. Only dashboard commands are ever
// interactive.
func (o *rootOptions) outputMode(cmd *cobra.Command) tui.OutputMode {
	if cmd.Annotations[annotationDashboard] == "" {
		return tui.OutputPlain
	}
	return tui.DetectOutputMode(o.plain)
}

// NewRootCmd creates the root Cobra command for the beacondash CLI.
// It wires up configuration, logging and tracing, and the resource and
// config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var (
		opts      rootOptions
		logResult *logging.LogPathResult
	)

	cmd := &cobra.Command{
		Use:   "beacondash",
		Short: "Terminal dashboard for Tavern hosts, tasks, quests and assets",
		Long: `beacondash browses a Tavern server from the terminal.

Each resource opens as a scrollable table that only fetches the rows on
screen, keeps them fresh while they stay visible, and pages in more ids as
you scroll. Without a terminal (or with --plain) the same listing is printed
as a static table.`,
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, &opts)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd, &opts)
			logResult = &result
			if opts.loadErr != nil {
				logger.Warn().Ctx(cmd.Context()).Err(opts.loadErr).Msg("config file ignored")
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file (default $BEACONDASH_CONFIG or ~/.beacondash/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.overlay, "config-overlay", "",
		"YAML file whose top-level sections replace those of the config file")
	cmd.PersistentFlags().StringVar(&opts.tavernURL, "tavern-url", "",
		"Tavern GraphQL endpoint (overrides config and $BEACONDASH_TAVERN_URL)")
	cmd.PersistentFlags().BoolVar(&opts.plain, "plain", false,
		"print a static table instead of the interactive dashboard")

	cmd.AddCommand(
		newResourceCmd(&opts, tavern.KindHosts, "List hosts and their beacons", hostsExample),
		newResourceCmd(&opts, tavern.KindTasks, "List tasks with quest, beacon and status", tasksExample),
		newResourceCmd(&opts, tavern.KindQuests, "List quests with task progress", questsExample),
		newResourceCmd(&opts, tavern.KindAssets, "List assets and their download links", assetsExample),
		newConfigCmd(&opts),
	)
	return cmd
}

// loadConfig builds the effective configuration: defaults, the config file,
// the overlay, environment variables, then flags. A malformed config file is
// recorded in opts instead of failing so `config init --force` still works.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg := config.Defaults()

	path := opts.configPath
	if path == "" {
		resolved, err := config.ResolveConfigPath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	cfg.SetConfigPath(path)

	opts.loadErr = nil
	if err := cfg.Load(); err != nil {
		opts.loadErr = err
		cfg = config.Defaults()
		cfg.SetConfigPath(path)
	}

	if opts.overlay != "" {
		if err := config.ShallowMergeYAML(cfg, opts.overlay); err != nil {
			return nil, fmt.Errorf("applying --config-overlay: %w", err)
		}
	}

	cfg.ApplyEnv()

	if cmd.Flags().Changed("tavern-url") {
		cfg.Tavern.URL = opts.tavernURL
	}
	return cfg, nil
}

const rootCmdExample = `  # Browse hosts interactively
  beacondash hosts

  # Tasks of quests whose name contains "recon", oldest first
  beacondash tasks --filter recon --sort created_at:asc

  # Print the 20 largest assets as a static table
  beacondash assets --plain --sort size --limit 20

  # Use another Tavern server for one run
  beacondash quests --tavern-url https://tavern.example.com/graphql

  # Initialize configuration
  beacondash config init`

const (
	hostsExample = `  beacondash hosts
  beacondash hosts --filter web --sort last_seen_at:asc
  beacondash hosts --plain --limit 100`

	tasksExample = `  beacondash tasks
  beacondash tasks --filter recon
  beacondash tasks --plain --sort exec_finished_at --limit 50`

	questsExample = `  beacondash quests
  beacondash quests --sort name:asc`

	assetsExample = `  beacondash assets
  beacondash assets --plain --sort size:desc --limit 20`
)

// newConfigCmd creates the config command group.
func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigGetCmd(), newConfigValidateCmd(opts))
	return cmd
}
