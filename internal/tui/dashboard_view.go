package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current screen (Bubble Tea interface).
func (d *Dashboard) View() string {
	switch d.state {
	case ViewStateQuitting:
		return ""
	case ViewStateDetail:
		return d.renderDetailView()
	case ViewStateList:
		return d.renderListView()
	default:
		return ""
	}
}

func (d *Dashboard) renderListView() string {
	sections := []string{d.renderTabs(), d.renderStatusBar(), d.current().View()}

	if d.showFilter {
		sections = append(sections, d.filter.View())
	} else {
		sections = append(sections, d.renderFooter())
	}
	sections = append(sections, d.help.View(d.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTabs draws the resource tabs with their loaded counts.
func (d *Dashboard) renderTabs() string {
	parts := make([]string, 0, len(d.tabs))
	for i, t := range d.tabs {
		label := fmt.Sprintf("%d %s", i+1, t.Resource().Title)
		if total := t.Pager().Total(); total > 0 {
			label += " (" + FormatNumber(int64(total)) + ")"
		}
		if i == d.active {
			parts = append(parts, ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, InactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderStatusBar shows the sort order, filter and how much is loaded. A
// failed page request replaces it with an error banner.
func (d *Dashboard) renderStatusBar() string {
	p := d.current().Pager()
	if err := p.Err(); err != nil {
		return ErrorBannerStyle.Render("Error: " + firstLine(err.Error()) + " (r to retry)")
	}
	var b strings.Builder
	b.WriteString("Sort: " + p.Order().String())
	if f := p.Filter(); f != "" {
		b.WriteString(" | Filter: " + f)
	}
	switch {
	case p.Loading():
		b.WriteString(" | Loading...")
	default:
		fmt.Fprintf(&b, " | %s of %s loaded",
			FormatNumber(int64(len(p.IDs()))), FormatNumber(int64(p.Total())))
	}
	return SubtleStyle.Render(b.String())
}

// renderFooter shows the load-more spinner or the end-of-list marker.
func (d *Dashboard) renderFooter() string {
	p := d.current().Pager()
	switch {
	case p.Loading():
		return d.spinner.View() + " Loading " + strings.ToLower(d.current().Resource().Title) + "..."
	case p.State().IsLoadingMore:
		return d.spinner.View() + " Loading more..."
	case p.State().HasMore:
		return SubtleStyle.Render("Scroll down to load more")
	case len(p.IDs()) > 0:
		return SubtleStyle.Render("End of list")
	default:
		return ""
	}
}

func (d *Dashboard) renderDetailView() string {
	var header strings.Builder
	header.WriteString(HeaderStyle.Render(strings.ToUpper(string(d.detailKind)) + " / " + d.detailTitle))

	switch {
	case d.detailLoading:
		header.WriteString("  " + d.spinner.View())
	case d.detailErr != nil:
		header.WriteString("\n" + ErrorBannerStyle.Render("Error: "+d.detailErr.Error()))
	}

	footer := SubtleStyle.Render(fmt.Sprintf("%3.f%% | esc back | r refresh | q quit", d.detail.ScrollPercent()*100)) //nolint:mnd // Percent.
	return lipgloss.JoinVertical(lipgloss.Left, header.String(), d.detail.View(), footer)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
