package listview

// ExpandablePredicate reports whether the row for an item id has expandable
// content. A nil predicate treats every row as expandable.
type ExpandablePredicate func(itemID string) bool

// ExpansionState tracks which item ids are expanded. It is keyed by id, not
// by position, so expansion survives scrolling and page appends.
type ExpansionState struct {
	expanded map[string]struct{}
}

// NewExpansionState creates an empty expansion state.
func NewExpansionState() *ExpansionState {
	return &ExpansionState{expanded: make(map[string]struct{})}
}

// IsExpanded reports whether itemID is expanded.
func (e *ExpansionState) IsExpanded(itemID string) bool {
	_, ok := e.expanded[itemID]
	return ok
}

// IsExpandable evaluates pred for itemID.
func (e *ExpansionState) IsExpandable(itemID string, pred ExpandablePredicate) bool {
	if pred == nil {
		return true
	}
	return pred(itemID)
}

// Toggle flips the expansion of itemID and reports whether anything changed.
// Collapsing is always allowed; expanding a row pred rejects is a no-op.
func (e *ExpansionState) Toggle(itemID string, pred ExpandablePredicate) bool {
	if e.IsExpanded(itemID) {
		delete(e.expanded, itemID)
		return true
	}
	if !e.IsExpandable(itemID, pred) {
		return false
	}
	e.expanded[itemID] = struct{}{}
	return true
}

// Collapse removes itemID and reports whether it was expanded.
func (e *ExpansionState) Collapse(itemID string) bool {
	if !e.IsExpanded(itemID) {
		return false
	}
	delete(e.expanded, itemID)
	return true
}

// Len returns the number of expanded ids.
func (e *ExpansionState) Len() int {
	return len(e.expanded)
}

// Each calls fn for every expanded id.
func (e *ExpansionState) Each(fn func(itemID string)) {
	for id := range e.expanded {
		fn(id)
	}
}
