package engine

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/beacondash/internal/logging"
	"github.com/rshade/beacondash/internal/tavern"
	listview "github.com/rshade/beacondash/internal/tui/list"
)

// DefaultPageSize is the number of ids requested per page.
const DefaultPageSize = 50

// PageLoadedMsg carries one id page back to the pager that requested it.
type PageLoadedMsg struct {
	Pager      uint64
	Generation uint64
	Page       tavern.IDPage
	Err        error
}

// PagerConfig configures an IDPager.
type PagerConfig struct {
	Fetcher  tavern.Fetcher
	Resource tavern.Resource

	// PageSize defaults to DefaultPageSize.
	PageSize int

	// Context is the parent of every page request and carries the logger.
	Context context.Context
}

//nolint:gochecknoglobals // Process-wide pager identity counter.
var pagerIDs atomic.Uint64

// IDPager owns the ordered id list of one resource and walks its cursor
// pages. Reload starts over; LoadMore appends the page after the end cursor.
type IDPager struct {
	id  uint64
	cfg PagerConfig

	filter string
	order  *tavern.Order

	ids      []string
	cursor   string
	state    listview.LoadMoreState
	total    int
	err      error
	loading  bool
	gen      uint64
	requests int
}

// NewIDPager creates an empty pager. Call Reload to fetch the first page.
func NewIDPager(cfg PagerConfig) *IDPager {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	return &IDPager{id: pagerIDs.Add(1), cfg: cfg}
}

// Resource returns the listed resource.
func (p *IDPager) Resource() tavern.Resource { return p.cfg.Resource }

// IDs returns the loaded ids in server order. The slice must not be modified.
func (p *IDPager) IDs() []string { return p.ids }

// State returns the load-more state handed to the table.
func (p *IDPager) State() listview.LoadMoreState { return p.state }

// Total returns the server's totalCount from the latest page.
func (p *IDPager) Total() int { return p.total }

// Err returns the error of the latest page request, if it failed.
func (p *IDPager) Err() error { return p.err }

// Loading reports whether the first page of a reload is outstanding.
func (p *IDPager) Loading() bool { return p.loading }

// Requests returns the number of page requests issued.
func (p *IDPager) Requests() int { return p.requests }

// Filter returns the active name filter.
func (p *IDPager) Filter() string { return p.filter }

// SetFilter sets the name filter used by the next Reload.
func (p *IDPager) SetFilter(filter string) { p.filter = filter }

// Order returns the effective sort order.
func (p *IDPager) Order() tavern.Order {
	if p.order != nil {
		return *p.order
	}
	return p.cfg.Resource.DefaultOrder
}

// SetOrder sets the sort order used by the next Reload. nil restores the
// resource default.
func (p *IDPager) SetOrder(order *tavern.Order) {
	if order == nil {
		p.order = nil
		return
	}
	o := *order
	p.order = &o
}

// Reload clears the list and cursor and fetches the first page. Pages still in
// flight from before are dropped when they arrive.
func (p *IDPager) Reload() tea.Cmd {
	p.gen++
	p.ids = nil
	p.cursor = ""
	p.total = 0
	p.err = nil
	p.state = listview.LoadMoreState{}
	p.loading = true
	return p.fetch("")
}

// LoadMore fetches the page after the end cursor. IsLoadingMore is set before
// the command is returned, so a second call before the page arrives is a
// no-op.
func (p *IDPager) LoadMore() tea.Cmd {
	if p.loading || !p.state.HasMore || p.state.IsLoadingMore {
		return nil
	}
	p.state.IsLoadingMore = true
	return p.fetch(p.cursor)
}

func (p *IDPager) fetch(after string) tea.Cmd {
	p.requests++
	pager, gen := p.id, p.gen
	ctx := p.cfg.Context
	f, r := p.cfg.Fetcher, p.cfg.Resource
	q := tavern.PageQuery{First: p.cfg.PageSize, After: after, Filter: p.filter, Order: p.order}
	return func() tea.Msg {
		page, err := tavern.FetchIDPage(ctx, f, r, q)
		return PageLoadedMsg{Pager: pager, Generation: gen, Page: page, Err: err}
	}
}

// Update applies a PageLoadedMsg addressed to this pager. It reports whether
// the id list or load state changed.
func (p *IDPager) Update(msg tea.Msg) (bool, tea.Cmd) {
	loaded, ok := msg.(PageLoadedMsg)
	if !ok || loaded.Pager != p.id || loaded.Generation != p.gen {
		return false, nil
	}
	p.loading = false
	p.state.IsLoadingMore = false

	if loaded.Err != nil {
		p.err = loaded.Err
		logging.FromContext(p.cfg.Context).Warn().
			Str(logging.FieldComponent, "pager").
			Str(logging.FieldResource, string(p.cfg.Resource.Kind)).
			Err(loaded.Err).
			Msg("id page request failed")
		return true, nil
	}

	p.err = nil
	p.ids = append(p.ids, loaded.Page.IDs...)
	p.cursor = loaded.Page.EndCursor
	p.total = loaded.Page.TotalCount
	p.state.HasMore = loaded.Page.HasNextPage
	return true, nil
}

// IDList is the outcome of walking a resource's pages synchronously.
type IDList struct {
	IDs      []string
	Total    int
	HasMore  bool
	Requests int
}

// CollectIDs walks pages of r starting at q until the server reports no next
// page or limit ids are gathered. A zero limit collects everything.
func CollectIDs(ctx context.Context, f tavern.Fetcher, r tavern.Resource, q tavern.PageQuery, limit int) (IDList, error) {
	if q.First <= 0 {
		q.First = DefaultPageSize
	}
	var out IDList
	for {
		if limit > 0 {
			q.First = min(q.First, limit-len(out.IDs))
		}
		page, err := tavern.FetchIDPage(ctx, f, r, q)
		out.Requests++
		if err != nil {
			return out, err
		}
		out.IDs = append(out.IDs, page.IDs...)
		out.Total = page.TotalCount
		out.HasMore = page.HasNextPage

		if !page.HasNextPage || page.EndCursor == "" || len(page.IDs) == 0 {
			return out, nil
		}
		if limit > 0 && len(out.IDs) >= limit {
			out.IDs = out.IDs[:limit]
			return out, nil
		}
		q.After = page.EndCursor
	}
}
