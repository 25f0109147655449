package listview

import "sort"

// VisibleSet is the set of item ids intersecting the viewport.
type VisibleSet map[string]struct{}

// Has reports whether id is visible.
func (s VisibleSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of visible ids.
func (s VisibleSet) Len() int {
	return len(s)
}

// IDs returns the visible ids in sorted order.
func (s VisibleSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeriveVisible returns the ids whose [Start, End) interval intersects
// [scrollTop, scrollTop+viewportHeight). A zero-size item counts when its
// offset lies strictly inside the viewport. Overscan items outside the
// viewport are never included. The set is rebuilt from scratch on every call.
func DeriveVisible(items []VirtualItem, ids []string, scrollTop, viewportHeight int) VisibleSet {
	set := make(VisibleSet)
	if viewportHeight <= 0 {
		return set
	}
	bottom := scrollTop + viewportHeight
	for _, it := range items {
		if it.Index < 0 || it.Index >= len(ids) {
			continue
		}
		if it.End > scrollTop && it.Start < bottom {
			set[ids[it.Index]] = struct{}{}
		}
	}
	return set
}

// VisibilityTracker remembers the last derived VisibleSet so that membership
// changes can be reported as edges.
type VisibilityTracker struct {
	current VisibleSet
}

// Update replaces the tracked set and returns the ids that entered and left
// it, both sorted.
//
//nolint:nonamedreturns // Named returns document which slice is which.
func (t *VisibilityTracker) Update(next VisibleSet) (entered, left []string) {
	if next == nil {
		next = VisibleSet{}
	}
	for id := range next {
		if !t.current.Has(id) {
			entered = append(entered, id)
		}
	}
	for id := range t.current {
		if !next.Has(id) {
			left = append(left, id)
		}
	}
	sort.Strings(entered)
	sort.Strings(left)
	t.current = next
	return entered, left
}

// Current returns the last tracked set.
func (t *VisibilityTracker) Current() VisibleSet {
	if t.current == nil {
		return VisibleSet{}
	}
	return t.current
}
