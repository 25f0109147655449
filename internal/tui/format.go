package tui

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats counts with English thousands separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// placeholder marks a missing value.
const placeholder = "-"

// FormatNumber formats an integer with thousands separators.
// Example: FormatNumber(18248) returns "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatBytes renders a size in binary units: "512 B", "1.5 KiB", "3.0 MiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return printer.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 5; m /= unit {
		div *= unit
		exp++
	}
	return printer.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatRelative renders t relative to now: "just now", "42s ago", "5m ago",
// "3h ago", "2d ago". Future times read "in 5m". A nil time is "never".
func FormatRelative(now time.Time, t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	d := now.Sub(*t)
	future := d < 0
	if future {
		d = -d
	}
	var s string
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		s = fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		s = fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		s = FormatNumber(int64(d/(24*time.Hour))) + "d"
	}
	if future {
		return "in " + s
	}
	return s + " ago"
}

// FormatTimestamp renders an absolute time in UTC, or the placeholder.
func FormatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return placeholder
	}
	return t.UTC().Format("2006-01-02 15:04:05Z")
}

// FormatRatio renders "done/total" with separators.
func FormatRatio(done, total int) string {
	return FormatNumber(int64(done)) + "/" + FormatNumber(int64(total))
}

// orDash returns s, or the placeholder when s is blank.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// shortHash abbreviates a content hash for table cells.
func shortHash(h string) string {
	const n = 12
	if len(h) <= n {
		return orDash(h)
	}
	return h[:n]
}
