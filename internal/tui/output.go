package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode selects how list commands render.
type OutputMode int

const (
	// OutputInteractive runs the Bubble Tea dashboard.
	OutputInteractive OutputMode = iota
	// OutputPlain prints a static table.
	OutputPlain
)

// String returns the mode name.
func (m OutputMode) String() string {
	if m == OutputInteractive {
		return "interactive"
	}
	return "plain"
}

// DetectOutputMode returns OutputPlain when forced, when stdout is not a
// terminal, or when TERM is "dumb"; otherwise OutputInteractive.
func DetectOutputMode(forcePlain bool) OutputMode {
	if forcePlain || os.Getenv("TERM") == "dumb" {
		return OutputPlain
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // File descriptors fit in int.
		return OutputPlain
	}
	return OutputInteractive
}

// TerminalWidth returns the stdout width, or fallback when unknown.
func TerminalWidth(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // File descriptors fit in int.
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
