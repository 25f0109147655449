package tui

import (
	"github.com/charmbracelet/bubbles/key"

	listview "github.com/rshade/beacondash/internal/tui/list"
)

// KeyMap holds the dashboard bindings. Table navigation comes from the
// active tab's listview.KeyMap.
type KeyMap struct {
	NextTab key.Binding
	PrevTab key.Binding
	Hosts   key.Binding
	Tasks   key.Binding
	Quests  key.Binding
	Assets  key.Binding
	Filter  key.Binding
	Sort    key.Binding
	Refresh key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding

	table listview.KeyMap
}

// DefaultKeyMap returns the dashboard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextTab: key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev tab")),
		Hosts:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "hosts")),
		Tasks:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "tasks")),
		Quests:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "quests")),
		Assets:  key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "assets")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Sort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		table:   listview.DefaultKeyMap(),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.table.Select, k.table.Toggle, k.NextTab, k.Filter, k.Sort, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.table.Up, k.table.Down, k.table.PageUp, k.table.PageDown, k.table.Home, k.table.End},
		{k.table.Select, k.table.Toggle, k.Back},
		{k.NextTab, k.PrevTab, k.Hosts, k.Tasks, k.Quests, k.Assets},
		{k.Filter, k.Sort, k.Refresh, k.Help, k.Quit},
	}
}

// tabKeys returns the direct tab bindings in tab order.
func (k KeyMap) tabKeys() []key.Binding {
	return []key.Binding{k.Hosts, k.Tasks, k.Quests, k.Assets}
}
