package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/beacondash/internal/engine"
	"github.com/rshade/beacondash/internal/tavern"
	"github.com/rshade/beacondash/internal/tui/detail"
	listview "github.com/rshade/beacondash/internal/tui/list"
)

// ErrItemGone is reported when an item disappeared before its details loaded.
var ErrItemGone = errors.New("item no longer exists")

// openDetailMsg asks the dashboard to open the detail pane for an item.
type openDetailMsg struct {
	Kind tavern.Kind
	ID   string
}

// inspectLoadedMsg carries the rendered detail pane of one item.
type inspectLoadedMsg struct {
	Kind  tavern.Kind
	ID    string
	Seq   uint64
	Title string
	Body  string
	Err   error
}

// tab is one resource list of the dashboard. Only the active tab mounts rows.
type tab interface {
	Resource() tavern.Resource
	Pager() *engine.IDPager
	Activate(width, height int) tea.Cmd
	Deactivate()
	Active() bool
	Reload() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	HandleKey(msg tea.KeyMsg) tea.Cmd
	SetSize(width, height int) tea.Cmd
	KeyMap() listview.KeyMap
	SelectedID() string
	Inspect(id string, seq uint64) tea.Cmd
	View() string
	Close()
}

// tabDeps are the collaborators shared by every tab.
type tabDeps struct {
	ctx      context.Context
	fetcher  tavern.Fetcher
	options  listview.Options
	pageSize int
	now      func() time.Time
	tick     detail.TickFunc
}

// resourceTab pairs an id pager with a virtualized table for one resource.
type resourceTab[T, R any] struct {
	spec    resourceSpec[T, R]
	deps    tabDeps
	pager   *engine.IDPager
	list    *listview.Model[T, R]
	active  bool
	started bool
}

func newResourceTab[T, R any](spec resourceSpec[T, R], deps tabDeps) *resourceTab[T, R] {
	t := &resourceTab[T, R]{spec: spec, deps: deps}
	t.pager = engine.NewIDPager(engine.PagerConfig{
		Fetcher:  deps.fetcher,
		Resource: spec.resource,
		PageSize: deps.pageSize,
		Context:  deps.ctx,
	})

	styles := tableStyles()
	cfg := listview.Config[T, R]{
		Options: deps.options,
		Columns: spec.columns(deps.now),
		Fetch: func(ctx context.Context, vars detail.Variables) (R, error) {
			return tavern.Query[R](ctx, deps.fetcher, spec.resource.DetailQuery, vars)
		},
		Extract: spec.extract,
		Tick:    deps.tick,
		Context: deps.ctx,
		OnSelect: func(itemID string, _ *T) tea.Cmd {
			kind := spec.resource.Kind
			return func() tea.Msg { return openDetailMsg{Kind: kind, ID: itemID} }
		},
		LoadMore:  func() tea.Cmd { return t.pager.LoadMore() },
		Styles:    &styles,
		EmptyText: spec.emptyText,
	}
	if spec.expand != nil {
		cfg.Expandable = &listview.Expandable[T]{
			Render:       func(item T, _ int) string { return spec.expand(item, deps.now()) },
			IsExpandable: spec.expandable,
		}
	}
	t.list = listview.NewModel(cfg)
	t.list.Blur()
	return t
}

func (t *resourceTab[T, R]) Resource() tavern.Resource { return t.spec.resource }
func (t *resourceTab[T, R]) Pager() *engine.IDPager { return t.pager }
func (t *resourceTab[T, R]) Active() bool { return t.active }
func (t *resourceTab[T, R]) KeyMap() listview.KeyMap { return t.list.KeyMap() }
func (t *resourceTab[T, R]) SelectedID() string { return t.list.SelectedID() }
func (t *resourceTab[T, R]) Model() *listview.Model[T, R] { return t.list }

// Activate mounts the visible rows. The first activation loads page one.
func (t *resourceTab[T, R]) Activate(width, height int) tea.Cmd {
	t.active = true
	t.list.Focus()
	cmds := []tea.Cmd{t.list.SetSize(width, height), t.sync()}
	if !t.started {
		cmds = append(cmds, t.Reload())
	}
	return tea.Batch(cmds...)
}

// Deactivate unmounts every row so nothing polls while the tab is hidden.
func (t *resourceTab[T, R]) Deactivate() {
	t.active = false
	t.list.Blur()
	t.list.Close()
}

// Reload clears the list and fetches the first page with the current filter
// and order.
func (t *resourceTab[T, R]) Reload() tea.Cmd {
	t.started = true
	cmd := t.pager.Reload()
	return tea.Batch(cmd, t.sync())
}

// Update applies page results and row fetch messages.
func (t *resourceTab[T, R]) Update(msg tea.Msg) tea.Cmd {
	if changed, cmd := t.pager.Update(msg); changed {
		return tea.Batch(cmd, t.sync())
	}
	if !t.active {
		return nil
	}
	_, cmd := t.list.Update(msg)
	return tea.Batch(cmd, t.syncState())
}

// HandleKey forwards table navigation keys.
func (t *resourceTab[T, R]) HandleKey(msg tea.KeyMsg) tea.Cmd {
	_, cmd := t.list.Update(msg)
	return tea.Batch(cmd, t.syncState())
}

// SetSize resizes the table. Hidden tabs pick the size up on activation.
func (t *resourceTab[T, R]) SetSize(width, height int) tea.Cmd {
	if !t.active {
		return nil
	}
	return t.list.SetSize(width, height)
}

// sync pushes the pager's ids and load state into the table.
func (t *resourceTab[T, R]) sync() tea.Cmd {
	if !t.active {
		return nil
	}
	return tea.Batch(t.list.SetItems(t.pager.IDs()), t.list.SetLoadMoreState(t.pager.State()))
}

func (t *resourceTab[T, R]) syncState() tea.Cmd {
	if !t.active || t.list.LoadMoreState() == t.pager.State() {
		return nil
	}
	return t.list.SetLoadMoreState(t.pager.State())
}

// Inspect fetches the extended detail query for id and renders the pane.
func (t *resourceTab[T, R]) Inspect(id string, seq uint64) tea.Cmd {
	spec, deps := t.spec, t.deps
	return func() tea.Msg {
		msg := inspectLoadedMsg{Kind: spec.resource.Kind, ID: id, Seq: seq}
		resp, err := tavern.Query[R](deps.ctx, deps.fetcher, spec.resource.InspectQuery,
			spec.resource.DetailVariables(id))
		if err != nil {
			msg.Err = err
			return msg
		}
		item := spec.extract(resp, id)
		if item == nil {
			msg.Err = ErrItemGone
			return msg
		}
		msg.Title = spec.title(*item)
		msg.Body = spec.describe(*item, deps.now())
		return msg
	}
}

func (t *resourceTab[T, R]) View() string { return t.list.View() }

// Close releases every row binding.
func (t *resourceTab[T, R]) Close() { t.list.Close() }
