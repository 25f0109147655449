package listview

import "sort"

// defaultItemSize is the estimated height of a collapsed row in terminal lines.
const defaultItemSize = 1

// VirtualItem is the computed geometry of one row, independent of its data.
// End is always Start+Size.
type VirtualItem struct {
	Index int
	Start int
	End   int
	Size  int
}

// SizeEstimator returns the default size of the item at index when no
// measurement exists for it.
type SizeEstimator func(index int) int

// FixedSize returns an estimator that reports size for every item.
func FixedSize(size int) SizeEstimator {
	return func(int) int { return size }
}

// Window is the result of one layout pass.
type Window struct {
	// Items is the rendered range, overscan included.
	Items []VirtualItem

	// TotalExtent is the scrollable height of the whole list.
	TotalExtent int

	// ScrollOffset is the requested offset after clamping.
	ScrollOffset int

	// ViewportSize is the height the pass was computed for.
	ViewportSize int

	// VisibleStart and VisibleEnd bound the items intersecting the viewport
	// (inclusive). Both are -1 when the list is empty.
	VisibleStart int
	VisibleEnd   int
}

// FirstIndex returns the first rendered index, or -1 when nothing is rendered.
func (w Window) FirstIndex() int {
	if len(w.Items) == 0 {
		return -1
	}
	return w.Items[0].Index
}

// LastIndex returns the last rendered index, or -1 when nothing is rendered.
func (w Window) LastIndex() int {
	if len(w.Items) == 0 {
		return -1
	}
	return w.Items[len(w.Items)-1].Index
}

// Layout caches per-index sizes and start offsets across layout passes.
//
// offsets[i] is the start of item i and offsets[len(sizes)] is the total
// extent. Only offsets[0..valid] are current; later entries are re-stacked
// lazily, so a pass after a size change costs O(n-k) for the earliest changed
// index k and a pass without changes costs O(log n + window).
type Layout struct {
	estimate SizeEstimator
	overscan int

	sizes    []int
	measured []bool
	offsets  []int
	valid    int
}

// NewLayout creates an empty layout. A nil estimator defaults to one line per
// item and a negative overscan is treated as zero.
func NewLayout(estimate SizeEstimator, overscan int) *Layout {
	if estimate == nil {
		estimate = FixedSize(defaultItemSize)
	}
	if overscan < 0 {
		overscan = 0
	}
	return &Layout{
		estimate: estimate,
		overscan: overscan,
		offsets:  []int{0},
	}
}

// Compute runs a single stateless layout pass. measured maps item indexes to
// sizes that override the estimator.
func Compute(
	itemCount int,
	estimate SizeEstimator,
	measured map[int]int,
	overscan, scrollOffset, viewportSize int,
) Window {
	l := NewLayout(estimate, overscan)
	l.SetCount(itemCount)
	for index, size := range measured {
		l.Measure(index, size)
	}
	return l.Compute(scrollOffset, viewportSize)
}

// Count returns the number of items in the layout.
func (l *Layout) Count() int {
	return len(l.sizes)
}

// Overscan returns the number of extra items rendered on each side.
func (l *Layout) Overscan() int {
	return l.overscan
}

// SetCount grows or shrinks the layout. Sizes of surviving items are kept, so
// appending a page only stacks the new items.
func (l *Layout) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	n := len(l.sizes)
	switch {
	case count > n:
		for i := n; i < count; i++ {
			l.sizes = append(l.sizes, clampSize(l.estimate(i)))
			l.measured = append(l.measured, false)
			l.offsets = append(l.offsets, 0)
		}
	case count < n:
		l.sizes = l.sizes[:count]
		l.measured = l.measured[:count]
		l.offsets = l.offsets[:count+1]
		if l.valid > count {
			l.valid = count
		}
	}
}

// Reset drops every size and measurement.
func (l *Layout) Reset() {
	l.sizes = l.sizes[:0]
	l.measured = l.measured[:0]
	l.offsets = l.offsets[:1]
	l.valid = 0
}

// Measure records the rendered size of an item. It reports whether the size
// changed; a change invalidates the offsets of every later item.
func (l *Layout) Measure(index, size int) bool {
	if index < 0 || index >= len(l.sizes) {
		return false
	}
	size = clampSize(size)
	l.measured[index] = true
	if l.sizes[index] == size {
		return false
	}
	l.sizes[index] = size
	if index < l.valid {
		l.valid = index
	}
	return true
}

// SetSize overrides the size of an item. It behaves like Measure.
func (l *Layout) SetSize(index, size int) bool {
	return l.Measure(index, size)
}

// ResetSize drops the measurement of an item and falls back to the estimate.
func (l *Layout) ResetSize(index int) bool {
	if index < 0 || index >= len(l.sizes) {
		return false
	}
	changed := l.Measure(index, l.estimate(index))
	l.measured[index] = false
	return changed
}

// IsMeasured reports whether the size of index came from a measurement.
func (l *Layout) IsMeasured(index int) bool {
	return index >= 0 && index < len(l.measured) && l.measured[index]
}

// TotalExtent returns the scrollable height of the whole list.
func (l *Layout) TotalExtent() int {
	l.ensure(len(l.sizes))
	return l.offsets[len(l.sizes)]
}

// Item returns the geometry of one item.
func (l *Layout) Item(index int) (VirtualItem, bool) {
	if index < 0 || index >= len(l.sizes) {
		return VirtualItem{}, false
	}
	l.ensure(index + 1)
	return l.item(index), true
}

// Compute returns the rendered window for the given scroll offset and
// viewport height. Out of range offsets are clamped.
func (l *Layout) Compute(scrollOffset, viewportSize int) Window {
	count := len(l.sizes)
	l.ensure(count)
	total := l.offsets[count]

	if viewportSize < 0 {
		viewportSize = 0
	}
	scroll := clampScroll(scrollOffset, total, viewportSize)

	w := Window{
		TotalExtent:  total,
		ScrollOffset: scroll,
		ViewportSize: viewportSize,
		VisibleStart: -1,
		VisibleEnd:   -1,
	}
	if count == 0 {
		return w
	}

	first := sort.Search(count, func(i int) bool { return l.offsets[i+1] > scroll })
	if first >= count {
		first = count - 1
	}
	last := first
	if viewportSize > 0 {
		bottom := scroll + viewportSize
		last = sort.Search(count, func(i int) bool { return l.offsets[i] >= bottom }) - 1
		if last < first {
			last = first
		}
	}
	w.VisibleStart, w.VisibleEnd = first, last

	from := max(0, first-l.overscan)
	to := min(count-1, last+l.overscan)
	w.Items = make([]VirtualItem, 0, to-from+1)
	for i := from; i <= to; i++ {
		w.Items = append(w.Items, l.item(i))
	}
	return w
}

// Reveal returns the scroll offset that brings index fully into a viewport of
// the given height, moving as little as possible. Items taller than the
// viewport are aligned to their start.
func (l *Layout) Reveal(index, scrollOffset, viewportSize int) int {
	it, ok := l.Item(index)
	if !ok {
		return scrollOffset
	}
	switch {
	case it.Start < scrollOffset:
		return it.Start
	case it.Size >= viewportSize:
		return it.Start
	case it.End > scrollOffset+viewportSize:
		return it.End - viewportSize
	default:
		return scrollOffset
	}
}

func (l *Layout) item(i int) VirtualItem {
	start := l.offsets[i]
	size := l.sizes[i]
	return VirtualItem{Index: i, Start: start, End: start + size, Size: size}
}

// ensure re-stacks offsets so that offsets[0..upTo] are current.
func (l *Layout) ensure(upTo int) {
	if upTo <= l.valid {
		return
	}
	for i := l.valid; i < upTo; i++ {
		l.offsets[i+1] = l.offsets[i] + l.sizes[i]
	}
	l.valid = upTo
}

func clampSize(size int) int {
	if size < 0 {
		return 0
	}
	return size
}

func clampScroll(scroll, total, viewport int) int {
	maxScroll := total - viewport
	if maxScroll < 0 {
		maxScroll = 0
	}
	switch {
	case scroll < 0:
		return 0
	case scroll > maxScroll:
		return maxScroll
	default:
		return scroll
	}
}
