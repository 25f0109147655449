package listview

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// wheelStep is the number of lines one mouse wheel notch scrolls.
const wheelStep = 3

// KeyMap defines the table's key bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Select   key.Binding
	Toggle   key.Binding
}

// DefaultKeyMap returns arrow, page and vim-style navigation bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "page down")),
		Home:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g/home", "top")),
		End:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G/end", "bottom")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Toggle}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Home, k.End, k.Select, k.Toggle},
	}
}

// Styles holds the table's lipgloss styles.
type Styles struct {
	Header   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Skeleton lipgloss.Style
	Expanded lipgloss.Style
	Gutter   lipgloss.Style
	Empty    lipgloss.Style
}

// DefaultStyles returns the table's default styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Row:      lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Reverse(true),
		Skeleton: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Expanded: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Gutter:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Empty:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")),
	}
}
