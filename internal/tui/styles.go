package tui

import (
	"github.com/charmbracelet/lipgloss"

	listview "github.com/rshade/beacondash/internal/tui/list"
)

// Palette.
const (
	ColorAccent  = lipgloss.Color("39")
	ColorOK      = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("241")
	ColorText    = lipgloss.Color("252")
)

// Layout constants.
const (
	defaultWidth  = 100
	defaultHeight = 24
	borderPadding = 2

	// chromeHeight is the lines taken by tabs, status line and footer.
	chromeHeight = 4
)

//nolint:gochecknoglobals // Shared lipgloss styles.
var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	LabelStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	SubtleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	OKStyle     = lipgloss.NewStyle().Foreground(ColorOK)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle  = lipgloss.NewStyle().Foreground(ColorError)

	ErrorBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(ColorError).
				Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(ColorAccent).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Padding(0, 1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)
)

// tableStyles adapts the shared palette to the virtualized table.
func tableStyles() listview.Styles {
	s := listview.DefaultStyles()
	s.Header = s.Header.Foreground(ColorAccent)
	s.Selected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(ColorAccent)
	return s
}
