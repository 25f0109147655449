package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/beacondash/internal/logging"
	"github.com/rshade/beacondash/internal/tavern"
	"github.com/rshade/beacondash/internal/tui/detail"
	listview "github.com/rshade/beacondash/internal/tui/list"
)

// ViewState is the dashboard screen.
type ViewState int

// Dashboard screens.
const (
	ViewStateList ViewState = iota
	ViewStateDetail
	ViewStateQuitting
)

const filterCharLimit = 128

// DashboardConfig configures a Dashboard.
type DashboardConfig struct {
	// Context is the parent of every request and carries the logger.
	Context context.Context

	Fetcher tavern.Fetcher

	// Table holds the table geometry and poll timing.
	Table listview.Options

	// PageSize is the number of ids per page request.
	PageSize int

	// Initial selects the first tab. Empty opens hosts.
	Initial tavern.Kind

	// Filter and Order apply to the initial tab.
	Filter string
	Order  *tavern.Order

	// Now defaults to time.Now.
	Now func() time.Time

	// Tick defaults to tea.Tick.
	Tick detail.TickFunc
}

// Dashboard is the top-level Bubble Tea model: one tab per Tavern resource,
// each a virtualized table fed by a cursor pager.
type Dashboard struct {
	ctx  context.Context
	keys KeyMap

	tabs   []tab
	active int
	state  ViewState

	width  int
	height int

	filter     textinput.Model
	showFilter bool
	spinner    spinner.Model
	spinning   bool
	help       help.Model

	detail        viewport.Model
	detailKind    tavern.Kind
	detailID      string
	detailTitle   string
	detailErr     error
	detailLoading bool
	inspectSeq    uint64
}

// NewDashboard builds the dashboard. No request is issued until Init.
func NewDashboard(cfg DashboardConfig) *Dashboard {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	deps := tabDeps{
		ctx:      cfg.Context,
		fetcher:  cfg.Fetcher,
		options:  cfg.Table,
		pageSize: cfg.PageSize,
		now:      cfg.Now,
		tick:     cfg.Tick,
	}

	d := &Dashboard{
		ctx:  cfg.Context,
		keys: DefaultKeyMap(),
		tabs: []tab{
			newResourceTab(hostSpec(), deps),
			newResourceTab(taskSpec(), deps),
			newResourceTab(questSpec(), deps),
			newResourceTab(assetSpec(), deps),
		},
		width:   defaultWidth,
		height:  defaultHeight,
		filter:  newFilterInput(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SubtleStyle)),
		help:    help.New(),
		detail:  viewport.New(defaultWidth, defaultHeight-chromeHeight),
	}
	if cfg.Table.Height > 0 {
		d.height = cfg.Table.Height + chromeHeight
	}
	if cfg.Table.Width > 0 {
		d.width = cfg.Table.Width
	}

	for i, t := range d.tabs {
		if t.Resource().Kind == cfg.Initial {
			d.active = i
		}
	}
	p := d.tabs[d.active].Pager()
	p.SetFilter(cfg.Filter)
	p.SetOrder(cfg.Order)
	return d
}

func newFilterInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "name contains..."
	ti.Prompt = "/ "
	ti.CharLimit = filterCharLimit
	return ti
}

// Init activates the initial tab, which loads its first page.
func (d *Dashboard) Init() tea.Cmd {
	w, h := d.tableSize()
	return tea.Batch(d.tabs[d.active].Activate(w, h), d.startSpinner())
}

// Update handles keys, resizes, page results and row fetches.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return d, d.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		return d, d.handleKey(msg)
	case spinner.TickMsg:
		if !d.loading() {
			d.spinning = false
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd
	case openDetailMsg:
		return d, d.openDetail(msg.Kind, msg.ID)
	case inspectLoadedMsg:
		d.applyInspect(msg)
		return d, nil
	case tea.MouseMsg:
		if d.state == ViewStateDetail {
			var cmd tea.Cmd
			d.detail, cmd = d.detail.Update(msg)
			return d, cmd
		}
		return d, d.current().Update(msg)
	}

	cmds := make([]tea.Cmd, 0, len(d.tabs)+1)
	for _, t := range d.tabs {
		cmds = append(cmds, t.Update(msg))
	}
	cmds = append(cmds, d.startSpinner())
	return d, tea.Batch(cmds...)
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		d.state = ViewStateQuitting
		return tea.Quit
	}
	if d.showFilter {
		return d.handleFilterKey(msg)
	}
	if d.state == ViewStateDetail {
		return d.handleDetailKey(msg)
	}

	switch {
	case key.Matches(msg, d.keys.Quit):
		d.state = ViewStateQuitting
		return tea.Quit
	case key.Matches(msg, d.keys.NextTab):
		return d.switchTab((d.active + 1) % len(d.tabs))
	case key.Matches(msg, d.keys.PrevTab):
		return d.switchTab((d.active + len(d.tabs) - 1) % len(d.tabs))
	case key.Matches(msg, d.keys.Filter):
		d.showFilter = true
		d.filter.SetValue(d.current().Pager().Filter())
		d.filter.CursorEnd()
		return d.filter.Focus()
	case key.Matches(msg, d.keys.Sort):
		p := d.current().Pager()
		next := d.current().Resource().NextOrder(p.Order())
		p.SetOrder(&next)
		return d.reload("sort")
	case key.Matches(msg, d.keys.Refresh):
		return d.reload("refresh")
	case key.Matches(msg, d.keys.Help):
		d.help.ShowAll = !d.help.ShowAll
		return d.resize(d.width, d.height)
	case key.Matches(msg, d.keys.Back):
		if d.current().Pager().Filter() != "" {
			d.current().Pager().SetFilter("")
			return d.reload("clear filter")
		}
		return nil
	}
	for i, b := range d.keys.tabKeys() {
		if key.Matches(msg, b) {
			return d.switchTab(i)
		}
	}
	return tea.Batch(d.current().HandleKey(msg), d.startSpinner())
}

func (d *Dashboard) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type { //nolint:exhaustive // Other keys edit the input.
	case tea.KeyEnter:
		d.showFilter = false
		d.filter.Blur()
		value := strings.TrimSpace(d.filter.Value())
		if value == d.current().Pager().Filter() {
			return nil
		}
		d.current().Pager().SetFilter(value)
		return d.reload("filter")
	case tea.KeyEsc:
		d.showFilter = false
		d.filter.Blur()
		return nil
	}
	var cmd tea.Cmd
	d.filter, cmd = d.filter.Update(msg)
	return cmd
}

func (d *Dashboard) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.Back):
		d.state = ViewStateList
		d.inspectSeq++
		return nil
	case key.Matches(msg, d.keys.Quit):
		d.state = ViewStateQuitting
		return tea.Quit
	case key.Matches(msg, d.keys.Refresh):
		return d.openDetail(d.detailKind, d.detailID)
	}
	var cmd tea.Cmd
	d.detail, cmd = d.detail.Update(msg)
	return cmd
}

func (d *Dashboard) switchTab(i int) tea.Cmd {
	if i == d.active {
		return nil
	}
	d.current().Deactivate()
	d.active = i
	logging.FromContext(d.ctx).Debug().
		Str(logging.FieldComponent, "dashboard").
		Str(logging.FieldResource, string(d.current().Resource().Kind)).
		Msg("switched tab")
	w, h := d.tableSize()
	return tea.Batch(d.current().Activate(w, h), d.startSpinner())
}

func (d *Dashboard) reload(reason string) tea.Cmd {
	p := d.current().Pager()
	logging.FromContext(d.ctx).Debug().
		Str(logging.FieldComponent, "dashboard").
		Str(logging.FieldOperation, reason).
		Str(logging.FieldResource, string(d.current().Resource().Kind)).
		Str("filter", p.Filter()).
		Str("order", p.Order().String()).
		Msg("reloading list")
	return tea.Batch(d.current().Reload(), d.startSpinner())
}

func (d *Dashboard) openDetail(kind tavern.Kind, id string) tea.Cmd {
	if kind != d.current().Resource().Kind || id == "" {
		return nil
	}
	if d.detailKind != kind || d.detailID != id {
		d.detailTitle = id
		d.detail.SetContent("")
	}
	d.state = ViewStateDetail
	d.inspectSeq++
	d.detailKind, d.detailID = kind, id
	d.detailErr = nil
	d.detailLoading = true
	return tea.Batch(d.current().Inspect(id, d.inspectSeq), d.startSpinner())
}

func (d *Dashboard) applyInspect(msg inspectLoadedMsg) {
	if msg.Seq != d.inspectSeq || d.state != ViewStateDetail {
		return
	}
	d.detailLoading = false
	d.detailErr = msg.Err
	if msg.Err != nil {
		logging.FromContext(d.ctx).Warn().
			Str(logging.FieldComponent, "dashboard").
			Str(logging.FieldItemID, msg.ID).
			Err(msg.Err).
			Msg("detail fetch failed")
		return
	}
	d.detailTitle = msg.Title
	d.detail.SetContent(msg.Body)
	d.detail.GotoTop()
}

func (d *Dashboard) resize(width, height int) tea.Cmd {
	d.width, d.height = width, height
	d.help.Width = width
	d.filter.Width = max(0, width-len(d.filter.Prompt)-1)
	d.detail.Width = max(0, width-borderPadding)
	d.detail.Height = max(1, height-chromeHeight)
	w, h := d.tableSize()
	return d.current().SetSize(w, h)
}

// tableSize returns the room left for the table after the chrome.
func (d *Dashboard) tableSize() (int, int) {
	chrome := chromeHeight
	if d.help.ShowAll {
		chrome += len(d.keys.FullHelp()[0]) - 1
	}
	return d.width, max(1, d.height-chrome)
}

// loading reports whether a page request is outstanding on the active tab or
// a detail pane is loading.
func (d *Dashboard) loading() bool {
	p := d.current().Pager()
	return p.Loading() || p.State().IsLoadingMore || (d.state == ViewStateDetail && d.detailLoading)
}

func (d *Dashboard) startSpinner() tea.Cmd {
	if d.spinning || !d.loading() {
		return nil
	}
	d.spinning = true
	return d.spinner.Tick
}

func (d *Dashboard) current() tab { return d.tabs[d.active] }

// Active returns the kind of the visible tab.
func (d *Dashboard) Active() tavern.Kind { return d.current().Resource().Kind }

// State returns the current screen.
func (d *Dashboard) State() ViewState { return d.state }

// Close releases every row binding.
func (d *Dashboard) Close() {
	for _, t := range d.tabs {
		t.Close()
	}
}
