package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rshade/beacondash/internal/engine"
	"github.com/rshade/beacondash/internal/engine/batch"
	"github.com/rshade/beacondash/internal/logging"
	"github.com/rshade/beacondash/internal/tavern"
)

// PlainOptions configures a non-interactive listing.
type PlainOptions struct {
	Kind  tavern.Kind
	Query tavern.PageQuery

	// Limit caps the rows printed. Zero prints every page.
	Limit int

	// BatchSize is the number of ids per batched detail query.
	BatchSize int

	// Concurrency bounds the batched detail queries in flight.
	Concurrency int

	// Width constrains the table; zero lets it size to content.
	Width int

	// Now defaults to time.Now.
	Now func() time.Time
}

// PlainResult summarises what RenderPlain printed.
type PlainResult struct {
	Shown    int
	Total    int
	Requests int
	HasMore  bool
}

// RenderPlain walks the id pages of a resource, loads the details in
// concurrent batches and writes one static table.
func RenderPlain(ctx context.Context, w io.Writer, f tavern.Fetcher, opts PlainOptions) (PlainResult, error) {
	switch opts.Kind {
	case tavern.KindHosts:
		return renderPlain(ctx, w, f, hostSpec(), opts)
	case tavern.KindTasks:
		return renderPlain(ctx, w, f, taskSpec(), opts)
	case tavern.KindQuests:
		return renderPlain(ctx, w, f, questSpec(), opts)
	case tavern.KindAssets:
		return renderPlain(ctx, w, f, assetSpec(), opts)
	default:
		return PlainResult{}, fmt.Errorf("%w: %q", tavern.ErrUnknownResource, opts.Kind)
	}
}

func renderPlain[T, R any](
	ctx context.Context,
	w io.Writer,
	f tavern.Fetcher,
	spec resourceSpec[T, R],
	opts PlainOptions,
) (PlainResult, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = batch.DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = batch.DefaultConcurrency
	}
	log := logging.FromContext(ctx)
	kind := string(spec.resource.Kind)

	list, err := engine.CollectIDs(ctx, f, spec.resource, opts.Query, opts.Limit)
	if err != nil {
		return PlainResult{Requests: list.Requests}, fmt.Errorf("listing %s: %w", kind, err)
	}
	result := PlainResult{Total: list.Total, Requests: list.Requests, HasMore: list.HasMore}

	proc, err := batch.NewProcessor[string](opts.BatchSize)
	if err != nil {
		return result, err
	}
	proc.WithProgressCallback(func(s batch.ProgressSnapshot) {
		log.Debug().
			Str(logging.FieldComponent, "plain").
			Str(logging.FieldResource, kind).
			Int("processed", s.ProcessedItems).
			Int("total", s.TotalItems).
			Msg("loaded detail batch")
	})

	items, err := batch.Collect(ctx, proc, list.IDs, opts.Concurrency,
		func(ctx context.Context, ids []string) ([]T, error) {
			return tavern.FetchBatch[T](ctx, f, spec.resource, ids)
		})
	result.Requests += len(proc.CalculateBatches(len(list.IDs)))
	if err != nil {
		return result, fmt.Errorf("loading %s details: %w", kind, err)
	}

	// Batches return server order; print in list order and skip ids that
	// vanished between the two queries.
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[spec.id(it)] = it
	}

	columns := spec.columns(opts.Now)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Label
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderStyle(SubtleStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		}).
		Headers(headers...)
	if opts.Width > 0 {
		t = t.Width(opts.Width)
	}

	for _, id := range list.IDs {
		item, ok := byID[id]
		if !ok {
			continue
		}
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = c.Render(item)
		}
		t.Row(cells...)
		result.Shown++
	}

	if result.Shown == 0 {
		_, err = fmt.Fprintln(w, spec.emptyText)
		return result, err
	}
	_, err = fmt.Fprintln(w, t.Render())
	return result, err
}
