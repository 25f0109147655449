package listview

import tea "github.com/charmbracelet/bubbletea"

// DefaultLoadMoreThreshold is how close, in items, the last rendered row must
// come to the end of the loaded list before the next page is requested.
const DefaultLoadMoreThreshold = 5

// LoadMoreState is owned by the caller. IsLoadingMore is authoritative: while
// it is set no further page is requested.
type LoadMoreState struct {
	HasMore       bool
	IsLoadingMore bool
}

// LoadMoreController fires the caller's load-more function when the trailing
// edge of the rendered window approaches the end of the loaded items.
//
// Each threshold crossing fires at most once. The latch re-arms when the item
// count changes or the trailing edge leaves the threshold zone.
type LoadMoreController struct {
	firedAt int
}

// NewLoadMoreController creates an armed controller.
func NewLoadMoreController() *LoadMoreController {
	return &LoadMoreController{firedAt: -1}
}

// MaybeLoadMore invokes loadMore iff the highest rendered index is within
// threshold items of the end, state.HasMore is set and state.IsLoadingMore is
// not. It returns whatever command loadMore returns.
func (c *LoadMoreController) MaybeLoadMore(
	items []VirtualItem,
	itemCount, threshold int,
	state LoadMoreState,
	loadMore func() tea.Cmd,
) tea.Cmd {
	if loadMore == nil || len(items) == 0 || itemCount == 0 {
		return nil
	}
	if threshold < 0 {
		threshold = 0
	}

	last := items[len(items)-1].Index
	if last < itemCount-threshold {
		c.firedAt = -1
		return nil
	}
	if !state.HasMore || state.IsLoadingMore {
		return nil
	}
	if c.firedAt == itemCount {
		return nil
	}

	c.firedAt = itemCount
	return loadMore()
}

// Rearm clears the latch, e.g. after the caller resets its list.
func (c *LoadMoreController) Rearm() {
	c.firedAt = -1
}
