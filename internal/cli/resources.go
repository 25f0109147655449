package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/beacondash/internal/cli/pagination"
	"github.com/rshade/beacondash/internal/config"
	"github.com/rshade/beacondash/internal/engine/cache"
	"github.com/rshade/beacondash/internal/logging"
	"github.com/rshade/beacondash/internal/tavern"
	"github.com/rshade/beacondash/internal/tui"
	listview "github.com/rshade/beacondash/internal/tui/list"
)

// fallbackWidth is the dashboard width before the first resize.
const fallbackWidth = 100

// newResourceCmd creates the listing command for one Tavern resource.
func newResourceCmd(opts *rootOptions, kind tavern.Kind, short, example string) *cobra.Command {
	params := pagination.NewParams()

	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
		Long: short + `.

Opens the interactive dashboard on this resource when stdout is a terminal.
With --plain, or when output is redirected, every page of ids is walked and
the details are loaded in batches into one static table.`,
		Example:     example,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationDashboard: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResource(cmd, opts, kind, params)
		},
	}
	params.AddFlags(cmd)
	return cmd
}

func runResource(cmd *cobra.Command, opts *rootOptions, kind tavern.Kind, params *pagination.Params) error {
	if opts.loadErr != nil {
		return fmt.Errorf("loading configuration: %w", opts.loadErr)
	}
	cfg := config.GetGlobalConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cmd.Flags().Changed("page-size") {
		params.PageSize = config.GetPageSize()
	}
	if err := params.Validate(); err != nil {
		return err
	}

	r, err := tavern.Lookup(kind)
	if err != nil {
		return err
	}
	query, err := params.PageQuery(r)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}

	if opts.outputMode(cmd) == tui.OutputPlain {
		return runPlain(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), fetcher, kind, *params, query)
	}
	return runDashboard(ctx, cfg, fetcher, kind, *params, query)
}

// newFetcher builds the Tavern client behind the deduplicating, caching
// fetcher.
func newFetcher(ctx context.Context, cfg *config.Config) (tavern.Fetcher, error) {
	client, err := tavern.NewClient(tavern.Options{
		Endpoint:    cfg.Tavern.URL,
		Token:       cfg.Tavern.Token,
		TokenHeader: cfg.Tavern.TokenHeader,
		Timeout:     cfg.Tavern.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return tavern.NewCachedFetcher(client, openCache(ctx, cfg), client.Endpoint(), tavern.NetworkFirst), nil
}

// openCache opens the detail cache and drops expired entries. A cache that
// cannot be opened is disabled rather than failing the command.
func openCache(ctx context.Context, cfg *config.Config) *cache.FileStore {
	log := logging.FromContext(ctx)
	disabled, _ := cache.NewFileStore(cache.Options{})
	if !cfg.Cache.Enabled {
		return disabled
	}

	dir, err := cfg.CacheDirectory()
	if err != nil {
		log.Warn().Str(logging.FieldComponent, "cache").Err(err).Msg("cache disabled")
		return disabled
	}
	store, err := cache.NewFileStore(cache.Options{
		Directory: dir,
		Enabled:   true,
		TTL:       cfg.CacheTTL(),
		MaxSizeMB: cfg.Cache.MaxSizeMB,
	})
	if err != nil {
		log.Warn().Str(logging.FieldComponent, "cache").Err(err).Msg("cache disabled")
		return disabled
	}

	if n, pruneErr := store.Prune(); pruneErr != nil {
		log.Debug().Str(logging.FieldComponent, "cache").Err(pruneErr).Msg("cache prune failed")
	} else if n > 0 {
		log.Debug().Str(logging.FieldComponent, "cache").Int("removed", n).Msg("pruned expired entries")
	}
	return store
}

func runPlain(
	ctx context.Context,
	out, errOut io.Writer,
	f tavern.Fetcher,
	kind tavern.Kind,
	params pagination.Params,
	query tavern.PageQuery,
) error {
	res, err := tui.RenderPlain(ctx, out, f, tui.PlainOptions{
		Kind:  kind,
		Query: query,
		Limit: params.Limit,
		Width: tui.TerminalWidth(0),
	})
	if err != nil {
		return err
	}

	meta := pagination.NewMeta(params, res.Shown, res.Total, res.Requests, res.HasMore)
	logger.Debug().Ctx(ctx).
		Str(logging.FieldResource, string(kind)).
		Int("shown", meta.Shown).
		Int("total", meta.Total).
		Int("requests", meta.Requests).
		Msg("listing printed")

	summary := fmt.Sprintf("\nShowing %s of %s %s", tui.FormatNumber(int64(meta.Shown)),
		tui.FormatNumber(int64(meta.Total)), kind)
	if meta.Truncated {
		summary += fmt.Sprintf(" (%s more, raise --limit to see them)", tui.FormatNumber(int64(meta.Remaining())))
	}
	_, err = fmt.Fprintln(errOut, summary)
	return err
}

func runDashboard(
	ctx context.Context,
	cfg *config.Config,
	f tavern.Fetcher,
	kind tavern.Kind,
	params pagination.Params,
	query tavern.PageQuery,
) error {
	d := tui.NewDashboard(tui.DashboardConfig{
		Context: ctx,
		Fetcher: f,
		Table: listview.Options{
			Height:            cfg.Table.Height,
			MinHeight:         cfg.Table.MinHeight,
			Width:             tui.TerminalWidth(fallbackWidth),
			EstimateItemSize:  cfg.Table.EstimateRowHeight,
			Overscan:          cfg.Table.Overscan,
			PollInterval:      cfg.Table.PollInterval,
			LoadMoreThreshold: cfg.Table.LoadMoreThreshold,
		},
		PageSize: params.PageSize,
		Initial:  kind,
		Filter:   query.Filter,
		Order:    query.Order,
	})
	defer d.Close()

	p := tea.NewProgram(d, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}
	return nil
}
