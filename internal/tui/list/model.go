package listview

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/beacondash/internal/tui/detail"
)

const (
	// defaultOverscan is the number of extra rows mounted above and below the viewport.
	defaultOverscan = 5

	// defaultHeight is the table height used when none is configured.
	defaultHeight = 10

	// maxMeasurePasses bounds re-layout when measured sizes move the window.
	maxMeasurePasses = 3

	gutterWidth    = 2
	expandedIndent = 4
)

const (
	gutterCollapsed = "▸ "
	gutterExpanded  = "▾ "
	gutterNone      = "  "
)

// Options is the table geometry and timing supplied at construction.
type Options struct {
	// Height is the table height in lines, header included.
	Height int

	// MinHeight is the smallest height SetSize will apply.
	MinHeight int

	// Width is the table width in cells.
	Width int

	// EstimateItemSize is the collapsed row height. Values below one use one.
	EstimateItemSize int

	// Overscan is the number of rows mounted beyond each viewport edge.
	Overscan int

	// PollInterval is the refresh interval for visible rows.
	PollInterval time.Duration

	// DynamicSizing measures every rendered row instead of trusting the estimate.
	DynamicSizing bool

	// LoadMoreThreshold is the load-more distance in items. Zero uses
	// DefaultLoadMoreThreshold.
	LoadMoreThreshold int

	// ExpandedItemSize fixes the height of expanded rows. Zero measures them.
	ExpandedItemSize int
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		Height:            defaultHeight,
		EstimateItemSize:  defaultItemSize,
		Overscan:          defaultOverscan,
		PollInterval:      detail.DefaultPollInterval,
		LoadMoreThreshold: DefaultLoadMoreThreshold,
	}
}

// Expandable enables per-row expansion.
type Expandable[T any] struct {
	// Render returns the expanded content below the row, one or more lines.
	Render func(item T, width int) string

	// IsExpandable reports whether an item has anything to expand. Nil
	// treats every loaded item as expandable.
	IsExpandable func(item T) bool
}

// Config wires a Model to its collaborators. T is the row item and R the
// response of one detail fetch.
type Config[T, R any] struct {
	Options

	Columns []Column[T]

	Variables detail.VariablesFunc
	Fetch     detail.FetchFunc[R]
	Extract   detail.ExtractFunc[T, R]

	// Tick defaults to tea.Tick.
	Tick detail.TickFunc

	// Context is the parent context of every row fetch.
	Context context.Context

	Expandable *Expandable[T]

	// OnSelect is called when the selected row is activated.
	OnSelect func(itemID string, item *T) tea.Cmd

	// LoadMore requests the next page of item ids.
	LoadMore func() tea.Cmd

	KeyMap *KeyMap
	Styles *Styles

	// EmptyText is shown when there are no items.
	EmptyText string
}

// Model is a virtualized table. Only rows in the rendered window are mounted;
// each mounted row owns a detail.Binding keyed by its item id that fetches the
// row's data and polls while the row intersects the viewport.
type Model[T, R any] struct {
	cfg    Config[T, R]
	keys   KeyMap
	styles Styles

	ids     []string
	indexOf map[string]int

	layout   *Layout
	window   Window
	scroll   int
	height   int
	width    int
	selected int
	focused  bool
	dynamic  bool

	bindings  map[string]*detail.Binding[T, R]
	tracker   VisibilityTracker
	visible   VisibleSet
	expansion *ExpansionState
	loadMore  *LoadMoreController
	loadState LoadMoreState
}

// NewModel creates an empty table. Call SetItems to populate it.
func NewModel[T, R any](cfg Config[T, R]) *Model[T, R] {
	if cfg.EstimateItemSize < 1 {
		cfg.EstimateItemSize = defaultItemSize
	}
	if cfg.Overscan < 0 {
		cfg.Overscan = 0
	}
	if cfg.LoadMoreThreshold <= 0 {
		cfg.LoadMoreThreshold = DefaultLoadMoreThreshold
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}

	keys := DefaultKeyMap()
	if cfg.KeyMap != nil {
		keys = *cfg.KeyMap
	}
	styles := DefaultStyles()
	if cfg.Styles != nil {
		styles = *cfg.Styles
	}

	return &Model[T, R]{
		cfg:       cfg,
		keys:      keys,
		styles:    styles,
		indexOf:   make(map[string]int),
		layout:    NewLayout(FixedSize(cfg.EstimateItemSize), cfg.Overscan),
		height:    max(cfg.Height, cfg.MinHeight),
		width:     cfg.Width,
		focused:   true,
		dynamic:   cfg.DynamicSizing || (cfg.Expandable != nil && cfg.ExpandedItemSize <= 0),
		bindings:  make(map[string]*detail.Binding[T, R]),
		visible:   VisibleSet{},
		expansion: NewExpansionState(),
		loadMore:  NewLoadMoreController(),
	}
}

// Init runs the first layout pass.
func (m *Model[T, R]) Init() tea.Cmd {
	return m.relayout()
}

// Update handles navigation, resize and row fetch messages.
func (m *Model[T, R]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		if !m.focused || msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button { //nolint:exhaustive // Only the wheel scrolls the table.
		case tea.MouseButtonWheelUp:
			return m, m.ScrollBy(-wheelStep)
		case tea.MouseButtonWheelDown:
			return m, m.ScrollBy(wheelStep)
		}
	case detail.FetchedMsg[R]:
		return m, m.routeToBinding(msg.ItemID, msg)
	case detail.PollMsg:
		return m, m.routeToBinding(msg.ItemID, msg)
	}
	return m, nil
}

func (m *Model[T, R]) handleKey(msg tea.KeyMsg) tea.Cmd {
	if len(m.ids) == 0 {
		return nil
	}
	page := max(1, m.window.VisibleEnd-m.window.VisibleStart)

	switch {
	case key.Matches(msg, m.keys.Up):
		return m.SetSelected(m.selected - 1)
	case key.Matches(msg, m.keys.Down):
		return m.SetSelected(m.selected + 1)
	case key.Matches(msg, m.keys.PageUp):
		return m.SetSelected(m.selected - page)
	case key.Matches(msg, m.keys.PageDown):
		return m.SetSelected(m.selected + page)
	case key.Matches(msg, m.keys.Home):
		return m.SetSelected(0)
	case key.Matches(msg, m.keys.End):
		return m.SetSelected(len(m.ids) - 1)
	case key.Matches(msg, m.keys.Toggle):
		return m.ToggleExpanded(m.ids[m.selected])
	case key.Matches(msg, m.keys.Select):
		if m.cfg.OnSelect == nil {
			return nil
		}
		return m.cfg.OnSelect(m.ids[m.selected], m.SelectedItem())
	}
	return nil
}

// routeToBinding delivers a row message to the binding currently mounted for
// itemID. Messages for unmounted rows are dropped.
func (m *Model[T, R]) routeToBinding(itemID string, msg tea.Msg) tea.Cmd {
	b, ok := m.bindings[itemID]
	if !ok {
		return nil
	}
	changed, cmd := b.Update(msg)
	if !changed {
		return cmd
	}
	if m.dropRejectedExpansion(itemID) || m.dynamic {
		return tea.Batch(cmd, m.relayout())
	}
	return cmd
}

// dropRejectedExpansion collapses a row that was expanded while unmounted and
// whose loaded data turned out to have nothing to expand.
func (m *Model[T, R]) dropRejectedExpansion(itemID string) bool {
	if !m.expansion.IsExpanded(itemID) || m.isExpandable(itemID) {
		return false
	}
	if b := m.bindings[itemID]; b == nil || b.Data() == nil {
		return false
	}
	m.expansion.Collapse(itemID)
	if i, ok := m.indexOf[itemID]; ok && !m.dynamic {
		m.layout.ResetSize(i)
	}
	return true
}

// SetItems replaces the item list. A list that extends the current one keeps
// layout, scroll and expansion; anything else resets the table.
func (m *Model[T, R]) SetItems(ids []string) tea.Cmd {
	appended := len(ids) >= len(m.ids) && slices.Equal(ids[:len(m.ids)], m.ids)
	start := len(m.ids)
	m.ids = slices.Clone(ids)

	if !appended {
		start = 0
		clear(m.indexOf)
		m.layout.Reset()
		m.loadMore.Rearm()
		m.scroll = 0
		m.selected = 0
	}
	for i := start; i < len(m.ids); i++ {
		m.indexOf[m.ids[i]] = i
	}
	m.layout.SetCount(len(m.ids))
	if !appended && !m.dynamic && m.cfg.ExpandedItemSize > 0 {
		m.expansion.Each(func(id string) {
			if i, ok := m.indexOf[id]; ok {
				m.layout.SetSize(i, m.cfg.ExpandedItemSize)
			}
		})
	}
	m.selected = min(m.selected, max(0, len(m.ids)-1))
	return m.relayout()
}

// SetLoadMoreState updates the caller-owned pagination state.
func (m *Model[T, R]) SetLoadMoreState(state LoadMoreState) tea.Cmd {
	m.loadState = state
	return m.loadMore.MaybeLoadMore(m.window.Items, len(m.ids), m.cfg.LoadMoreThreshold, m.loadState, m.cfg.LoadMore)
}

// ToggleExpanded flips the expansion of itemID. Off-screen ids may be toggled;
// rows without expandable content are left alone.
func (m *Model[T, R]) ToggleExpanded(itemID string) tea.Cmd {
	if !m.expansion.Toggle(itemID, m.isExpandable) {
		return nil
	}
	if !m.dynamic {
		if i, ok := m.indexOf[itemID]; ok {
			if m.expansion.IsExpanded(itemID) {
				m.layout.SetSize(i, m.cfg.ExpandedItemSize)
			} else {
				m.layout.ResetSize(i)
			}
		}
	}
	return m.relayout()
}

// IsExpanded reports whether itemID is expanded.
func (m *Model[T, R]) IsExpanded(itemID string) bool {
	return m.expansion.IsExpanded(itemID)
}

func (m *Model[T, R]) isExpandable(itemID string) bool {
	exp := m.cfg.Expandable
	if exp == nil {
		return false
	}
	if exp.IsExpandable == nil {
		return true
	}
	b, ok := m.bindings[itemID]
	if !ok {
		return true
	}
	if b.Data() == nil {
		return false
	}
	return exp.IsExpandable(*b.Data())
}

// SetSize resizes the table.
func (m *Model[T, R]) SetSize(width, height int) tea.Cmd {
	m.width = width
	m.height = max(height, m.cfg.MinHeight)
	return m.relayout()
}

// ScrollTo moves the viewport to offset lines from the top.
func (m *Model[T, R]) ScrollTo(offset int) tea.Cmd {
	m.scroll = offset
	return m.relayout()
}

// ScrollBy moves the viewport by delta lines.
func (m *Model[T, R]) ScrollBy(delta int) tea.Cmd {
	return m.ScrollTo(m.scroll + delta)
}

// SetSelected selects index and scrolls it into view.
func (m *Model[T, R]) SetSelected(index int) tea.Cmd {
	if len(m.ids) == 0 {
		m.selected = 0
		return nil
	}
	m.selected = max(0, min(index, len(m.ids)-1))
	m.scroll = m.layout.Reveal(m.selected, m.scroll, m.bodyHeight())
	return m.relayout()
}

// relayout recomputes the window, mounts and unmounts row bindings, rederives
// the visible set, gates polling and checks the load-more edge. It runs
// synchronously with whatever changed its inputs.
func (m *Model[T, R]) relayout() tea.Cmd {
	body := m.bodyHeight()
	m.layout.SetCount(len(m.ids))
	m.window = m.layout.Compute(m.scroll, body)

	if m.dynamic {
		for range maxMeasurePasses {
			changed := false
			for _, it := range m.window.Items {
				if m.layout.Measure(it.Index, len(m.rowLines(it.Index, nil))) {
					changed = true
				}
			}
			if !changed {
				break
			}
			m.window = m.layout.Compute(m.scroll, body)
		}
	}
	m.scroll = m.window.ScrollOffset

	cmds := m.reconcile()

	m.visible = DeriveVisible(m.window.Items, m.ids, m.scroll, body)
	entered, left := m.tracker.Update(m.visible)
	for _, id := range left {
		if b, ok := m.bindings[id]; ok {
			cmds = append(cmds, b.SetVisible(false))
		}
	}
	for _, id := range entered {
		if b, ok := m.bindings[id]; ok {
			cmds = append(cmds, b.SetVisible(true))
		}
	}

	cmds = append(cmds, m.loadMore.MaybeLoadMore(
		m.window.Items, len(m.ids), m.cfg.LoadMoreThreshold, m.loadState, m.cfg.LoadMore))
	return tea.Batch(cmds...)
}

// reconcile gives every rendered row a binding. Bindings of rows that left the
// rendered window are rebound to rows that entered it; the rest are closed.
func (m *Model[T, R]) reconcile() []tea.Cmd {
	mounted := make(map[string]struct{}, len(m.window.Items))
	for _, it := range m.window.Items {
		mounted[m.ids[it.Index]] = struct{}{}
	}

	var spare []*detail.Binding[T, R]
	for id, b := range m.bindings {
		if _, ok := mounted[id]; !ok {
			delete(m.bindings, id)
			spare = append(spare, b)
		}
	}

	var cmds []tea.Cmd
	for _, it := range m.window.Items {
		id := m.ids[it.Index]
		if _, ok := m.bindings[id]; ok {
			continue
		}
		if n := len(spare); n > 0 {
			b := spare[n-1]
			spare = spare[:n-1]
			// Hidden until the tracker reports the new id as entered.
			b.SetVisible(false)
			m.bindings[id] = b
			cmds = append(cmds, b.Rebind(id))
			continue
		}
		b := detail.New(id, detail.Config[T, R]{
			Variables:    m.cfg.Variables,
			Fetch:        m.cfg.Fetch,
			Extract:      m.cfg.Extract,
			PollInterval: m.cfg.PollInterval,
			Tick:         m.cfg.Tick,
			Context:      m.cfg.Context,
		})
		m.bindings[id] = b
		cmds = append(cmds, b.Start())
	}
	for _, b := range spare {
		b.Close()
	}
	return cmds
}

// Close unmounts every row.
func (m *Model[T, R]) Close() {
	for id, b := range m.bindings {
		b.Close()
		delete(m.bindings, id)
	}
	m.visible = VisibleSet{}
	m.tracker.Update(m.visible)
}

// View renders the header and the rows intersecting the viewport.
func (m *Model[T, R]) View() string {
	body := m.bodyHeight()
	widths := ResolveWidths(m.cfg.Columns, m.contentWidth())
	lines := make([]string, 0, body+1)

	if m.hasHeader() {
		labels := make([]string, len(m.cfg.Columns))
		for i, c := range m.cfg.Columns {
			labels[i] = fitCell(c.Label, widths[i])
		}
		lines = append(lines, m.styles.Header.Render(m.gutter()+joinCells(labels)))
	}

	if len(m.ids) == 0 {
		if m.cfg.EmptyText != "" {
			lines = append(lines, m.styles.Empty.Render(m.cfg.EmptyText))
		}
		return strings.Join(lines, "\n")
	}

	top, bottom := m.scroll, m.scroll+body
	for _, it := range m.window.Items {
		if it.End <= top || it.Start >= bottom {
			continue
		}
		rows := m.rowLines(it.Index, widths)
		if !m.dynamic {
			rows = fitLines(rows, it.Size)
		}
		for j, row := range rows {
			if y := it.Start + j; y >= top && y < bottom {
				lines = append(lines, row)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// rowLines paints one row. Nil widths resolve them, which measurement uses.
// A row whose item vanished paints nothing; a failed fetch without data keeps
// the skeleton.
func (m *Model[T, R]) rowLines(index int, widths []int) []string {
	if widths == nil {
		widths = ResolveWidths(m.cfg.Columns, m.contentWidth())
	}
	id := m.ids[index]
	b := m.bindings[id]

	var data *T
	if b != nil {
		data = b.Data()
		if data == nil && !b.Loading() && b.Err() == nil && b.Fetches() > 0 {
			return nil
		}
	}

	cells := make([]string, len(m.cfg.Columns))
	for i, c := range m.cfg.Columns {
		switch {
		case data != nil && c.Render != nil:
			cells[i] = fitCell(c.Render(*data), widths[i])
		case data == nil && c.RenderSkeleton != nil:
			cells[i] = m.styles.Skeleton.Render(fitCell(c.RenderSkeleton(), widths[i]))
		case data == nil:
			cells[i] = m.styles.Skeleton.Render(fitCell(defaultSkeleton(widths[i]), widths[i]))
		default:
			cells[i] = fitCell("", widths[i])
		}
	}

	gutter := m.gutter()
	canExpand := m.cfg.Expandable != nil && data != nil && m.isExpandable(id)
	expanded := canExpand && m.expansion.IsExpanded(id)
	if canExpand {
		gutter = gutterCollapsed
		if expanded {
			gutter = gutterExpanded
		}
	}

	style := m.styles.Row
	if index == m.selected && m.focused {
		style = m.styles.Selected
	}
	lines := []string{style.Render(m.styles.Gutter.Render(gutter) + joinCells(cells))}

	if expanded && m.cfg.Expandable.Render != nil {
		indent := strings.Repeat(" ", expandedIndent)
		content := m.cfg.Expandable.Render(*data, max(0, m.width-expandedIndent))
		for line := range strings.SplitSeq(strings.TrimRight(content, "\n"), "\n") {
			lines = append(lines, m.styles.Expanded.Render(indent+line))
		}
	}
	return lines
}

// fitLines pads or truncates rows to exactly size lines.
func fitLines(rows []string, size int) []string {
	if len(rows) > size {
		return rows[:size]
	}
	for len(rows) < size {
		rows = append(rows, "")
	}
	return rows
}

func (m *Model[T, R]) hasHeader() bool {
	for _, c := range m.cfg.Columns {
		if c.Label != "" {
			return true
		}
	}
	return false
}

func (m *Model[T, R]) gutter() string {
	if m.cfg.Expandable == nil {
		return ""
	}
	return gutterNone
}

func (m *Model[T, R]) contentWidth() int {
	if m.cfg.Expandable != nil {
		return max(0, m.width-gutterWidth)
	}
	return max(0, m.width)
}

func (m *Model[T, R]) bodyHeight() int {
	h := m.height
	if m.hasHeader() {
		h--
	}
	return max(0, h)
}

// Focus enables keyboard handling and the selection highlight.
func (m *Model[T, R]) Focus() { m.focused = true }

// Blur disables keyboard handling.
func (m *Model[T, R]) Blur() { m.focused = false }

// Focused reports whether the table handles keys.
func (m *Model[T, R]) Focused() bool { return m.focused }

// ItemCount returns the number of items.
func (m *Model[T, R]) ItemCount() int { return len(m.ids) }

// Selected returns the selected index.
func (m *Model[T, R]) Selected() int { return m.selected }

// SelectedID returns the selected item id, or "" when empty.
func (m *Model[T, R]) SelectedID() string {
	if len(m.ids) == 0 {
		return ""
	}
	return m.ids[m.selected]
}

// SelectedItem returns the loaded data of the selected row, or nil.
func (m *Model[T, R]) SelectedItem() *T {
	b, ok := m.bindings[m.SelectedID()]
	if !ok {
		return nil
	}
	return b.Data()
}

// Window returns the result of the last layout pass.
func (m *Model[T, R]) Window() Window { return m.window }

// Item returns the geometry of the item at index.
func (m *Model[T, R]) Item(index int) (VirtualItem, bool) { return m.layout.Item(index) }

// TotalExtent returns the scrollable height of the table body.
func (m *Model[T, R]) TotalExtent() int { return m.layout.TotalExtent() }

// ScrollOffset returns the current, clamped, scroll offset.
func (m *Model[T, R]) ScrollOffset() int { return m.scroll }

// Visible returns the ids intersecting the viewport.
func (m *Model[T, R]) Visible() VisibleSet { return m.visible }

// Binding returns the binding mounted for itemID.
func (m *Model[T, R]) Binding(itemID string) (*detail.Binding[T, R], bool) {
	b, ok := m.bindings[itemID]
	return b, ok
}

// MountedCount returns the number of mounted rows.
func (m *Model[T, R]) MountedCount() int { return len(m.bindings) }

// KeyMap returns the table's key bindings.
func (m *Model[T, R]) KeyMap() KeyMap { return m.keys }

// LoadMoreState returns the last pagination state set by the caller.
func (m *Model[T, R]) LoadMoreState() LoadMoreState { return m.loadState }
