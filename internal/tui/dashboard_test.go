package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/beacondash/internal/tavern"
	listview "github.com/rshade/beacondash/internal/tui/list"
)

// fakeTavern answers id pages with n items per resource and detail queries
// with a node named after the id. Batch queries answer in reverse order and
// leave out ids listed in gone.
type fakeTavern struct {
	n    int
	gone map[string]bool

	mu    sync.Mutex
	calls map[string]int
	vars  map[string]map[string]any
	fail  error
}

func newFakeTavern(n int) *fakeTavern {
	return &fakeTavern{n: n, calls: map[string]int{}, vars: map[string]map[string]any{}}
}

func (f *fakeTavern) Raw(_ context.Context, op tavern.Operation, vars map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op.Name]++
	f.vars[op.Name] = vars
	if f.fail != nil {
		return nil, f.fail
	}

	field := fieldForOperation(op.Name)
	switch {
	case strings.HasSuffix(op.Name, "Ids") && !strings.HasSuffix(op.Name, "ByIds"):
		offset := 0
		if after, ok := vars["after"].(string); ok {
			_, _ = fmt.Sscanf(after, "c%d", &offset)
		}
		first, _ := vars["first"].(int)
		end := min(offset+first, f.n)
		edges := make([]string, 0, end-offset)
		for i := offset; i < end; i++ {
			edges = append(edges, fmt.Sprintf(`{"node":{"id":"%c%d"}}`, field[0], i))
		}
		return json.RawMessage(fmt.Sprintf(
			`{%q:{"pageInfo":{"hasNextPage":%t,"endCursor":"c%d"},"totalCount":%d,"edges":[%s]}}`,
			field, end < f.n, end, f.n, strings.Join(edges, ","))), nil
	case strings.HasSuffix(op.Name, "ByIds"):
		ids, _ := vars["ids"].([]string)
		edges := make([]string, 0, len(ids))
		for i := len(ids) - 1; i >= 0; i-- {
			if f.gone[ids[i]] {
				continue
			}
			edges = append(edges, fmt.Sprintf(`{"node":{"id":%q,"name":"name-%s"}}`, ids[i], ids[i]))
		}
		return json.RawMessage(fmt.Sprintf(`{%q:{"edges":[%s]}}`, field, strings.Join(edges, ","))), nil
	default:
		id, _ := vars["id"].(string)
		return json.RawMessage(fmt.Sprintf(
			`{%q:{"edges":[{"node":{"id":%q,"name":"name-%s"}}]}}`, field, id, id)), nil
	}
}

func (f *fakeTavern) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeTavern) lastVars(op string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vars[op]
}

func (f *fakeTavern) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func fieldForOperation(name string) string {
	for _, kind := range []string{"Host", "Task", "Quest", "Asset"} {
		if strings.Contains(name, kind) {
			return strings.ToLower(kind) + "s"
		}
	}
	return "unknown"
}

// noTick disables row polling so commands can be drained synchronously.
func noTick(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }

func newTestDashboard(t *testing.T, f tavern.Fetcher) *Dashboard {
	t.Helper()
	opts := listview.DefaultOptions()
	opts.Height = 10
	opts.Width = 100
	d := NewDashboard(DashboardConfig{
		Fetcher:  f,
		Table:    opts,
		PageSize: 50,
		Now:      func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) },
		Tick:     noTick,
	})
	t.Cleanup(d.Close)
	return d
}

// drain runs cmd and feeds every resulting message back into the dashboard
// until no work is left. Spinner ticks are dropped.
func drain(t *testing.T, d *Dashboard, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 10000, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, more := d.Update(msg)
			queue = append(queue, more)
		}
	}
}

func press(t *testing.T, d *Dashboard, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		filtering := d.showFilter
		_, cmd := d.Update(msg)
		if d.showFilter || (filtering && msg.Type != tea.KeyEnter) {
			// Only cursor blinks are pending while the prompt is open.
			continue
		}
		drain(t, d, cmd)
	}
}

func hostsTab(t *testing.T, d *Dashboard) *resourceTab[tavern.Host, tavern.HostsResponse] {
	t.Helper()
	tab, ok := d.tabs[0].(*resourceTab[tavern.Host, tavern.HostsResponse])
	require.True(t, ok)
	return tab
}

func TestDashboard_InitLoadsFirstPageAndVisibleRows(t *testing.T) {
	f := newFakeTavern(120)
	d := newTestDashboard(t, f)
	drain(t, d, d.Init())

	assert.Equal(t, tavern.KindHosts, d.Active())
	p := d.current().Pager()
	assert.Len(t, p.IDs(), 50)
	assert.Equal(t, 120, p.Total())
	assert.Equal(t, 1, f.count("GetHostIds"))

	list := hostsTab(t, d).Model()
	assert.Positive(t, list.MountedCount())
	assert.Equal(t, list.MountedCount(), f.count("GetHostDetail"), "one fetch per mounted row")
	assert.Zero(t, f.count("GetTaskIds"), "hidden tabs load lazily")

	view := d.View()
	assert.Contains(t, view, "name-h0")
	assert.Contains(t, view, "Hosts (120)")
	assert.Contains(t, view, "50 of 120 loaded")
}

func TestDashboard_ScrollingToEndLoadsMore(t *testing.T) {
	f := newFakeTavern(120)
	d := newTestDashboard(t, f)
	drain(t, d, d.Init())

	press(t, d, "G")
	p := d.current().Pager()
	assert.Len(t, p.IDs(), 100)
	assert.Equal(t, "c50", f.lastVars("GetHostIds")["after"])
	assert.Equal(t, 2, f.count("GetHostIds"))

	press(t, d, "G")
	assert.Len(t, p.IDs(), 120)
	assert.False(t, p.State().HasMore)
	assert.Contains(t, d.View(), "End of list")

	press(t, d, "G")
	assert.Equal(t, 3, f.count("GetHostIds"), "no request past the last page")
}

func TestDashboard_SortAndFilterReload(t *testing.T) {
	f := newFakeTavern(10)
	d := newTestDashboard(t, f)
	drain(t, d, d.Init())

	press(t, d, "s")
	assert.Equal(t, []tavern.Order{{Field: "LAST_SEEN_AT", Direction: tavern.Asc}},
		f.lastVars("GetHostIds")["orderBy"])
	assert.Contains(t, d.View(), "Sort: last_seen_at:asc")

	press(t, d, "/", "web", "enter")
	assert.Equal(t, map[string]any{"nameContains": "web"}, f.lastVars("GetHostIds")["where"])
	assert.Contains(t, d.View(), "Filter: web")
	assert.Equal(t, 3, f.count("GetHostIds"))

	press(t, d, "esc")
	assert.Equal(t, map[string]any{}, f.lastVars("GetHostIds")["where"])
	assert.Empty(t, d.current().Pager().Filter())
}

func TestDashboard_FilterEscCancels(t *testing.T) {
	f := newFakeTavern(10)
	d := newTestDashboard(t, f)
	drain(t, d, d.Init())

	press(t, d, "/", "db", "esc")
	assert.Empty(t, d.current().Pager().Filter())
	assert.Equal(t, 1, f.count("GetHostIds"))
	assert.False(t, d.showFilter)
}

func TestDashboard_SwitchingTabsUnmountsRows(t *testing.T) {
	f := newFakeTavern(30)
	d := newTestDashboard(t, f)
	drain(t, d, d.Init())
	hosts := hostsTab(t, d).Model()
	require.Positive(t, hosts.MountedCount())

	press(t, d, "2")
	assert.Equal(t, tavern.KindTasks, d.Active())
	assert.Zero(t, hosts.MountedCount(), "hidden tab stops polling")
	assert.Equal(t, 1, f.count("GetTaskIds"))

	press(t, d, "tab", "tab", "tab")
	assert.Equal(t, tavern.KindHosts, d.Active())
	assert.Positive(t, hosts.MountedCount())
	assert.Equal(t, 1, f.count("GetHostIds"), "returning to a tab keeps its list")
}

func TestDashboard_DetailPane(t *testing.T) {
	f := newFakeTavern(5)
	d := newTestDashboard(t, f)
	drain(t, d, d.Init())

	press(t, d, "j", "enter")
	require.Equal(t, ViewStateDetail, d.State())
	assert.Equal(t, 1, f.count("InspectHost"))
	assert.Equal(t, "h1", f.lastVars("InspectHost")["id"])

	view := d.View()
	assert.Contains(t, view, "HOSTS / name-h1")
	assert.Contains(t, view, "Primary IP")

	press(t, d, "esc")
	assert.Equal(t, ViewStateList, d.State())
}

func TestDashboard_StaleInspectIgnored(t *testing.T) {
	f := newFakeTavern(5)
	d := newTestDashboard(t, f)
	drain(t, d, d.Init())

	_, _ = d.Update(openDetailMsg{Kind: tavern.KindHosts, ID: "h2"})
	d.applyInspect(inspectLoadedMsg{Kind: tavern.KindHosts, ID: "h1", Seq: d.inspectSeq - 1, Title: "old"})
	assert.Equal(t, "h2", d.detailTitle)
	assert.True(t, d.detailLoading)
}

func TestDashboard_ListErrorShowsBanner(t *testing.T) {
	f := newFakeTavern(5)
	f.setFail(errors.New("tavern unreachable"))
	d := newTestDashboard(t, f)
	drain(t, d, d.Init())

	assert.Empty(t, d.current().Pager().IDs())
	view := d.View()
	assert.Contains(t, view, "Error: tavern unreachable")
	assert.Contains(t, view, "No hosts match.")

	f.setFail(nil)
	press(t, d, "r")
	assert.NoError(t, d.current().Pager().Err())
	assert.Len(t, d.current().Pager().IDs(), 5)
}

func TestDashboard_Quit(t *testing.T) {
	d := newTestDashboard(t, newFakeTavern(1))
	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, d.View())
}
