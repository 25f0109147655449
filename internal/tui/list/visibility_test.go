package listview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	listview "github.com/rshade/beacondash/internal/tui/list"
)

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('A' + i%26))
		if i >= 26 {
			out[i] += string(rune('a' + i/26%26))
		}
	}
	return out
}

// TestDeriveVisible_ExcludesOverscan tests that only rows intersecting the viewport are visible.
func TestDeriveVisible_ExcludesOverscan(t *testing.T) {
	list := ids(40)
	w := listview.Compute(len(list), listview.FixedSize(1), nil, 5, 10, 5)
	set := listview.DeriveVisible(w.Items, list, w.ScrollOffset, 5)

	assert.Len(t, w.Items, 15)
	assert.Equal(t, list[10:15], set.IDs())
}

// TestDeriveVisible_PartialIntersection tests half-open interval semantics.
func TestDeriveVisible_PartialIntersection(t *testing.T) {
	items := []listview.VirtualItem{
		{Index: 0, Start: 0, End: 3, Size: 3},
		{Index: 1, Start: 3, End: 6, Size: 3},
		{Index: 2, Start: 6, End: 6, Size: 0},
		{Index: 3, Start: 6, End: 9, Size: 3},
	}
	list := []string{"a", "b", "c", "d"}

	tests := []struct {
		name   string
		top    int
		height int
		want   []string
	}{
		{"end is exclusive", 3, 3, []string{"b"}},
		{"partial rows count", 2, 2, []string{"a", "b"}},
		{"zero size rows inside the viewport count", 5, 4, []string{"b", "c", "d"}},
		{"zero size rows on the top edge do not", 6, 3, []string{"d"}},
		{"empty viewport", 0, 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listview.DeriveVisible(items, list, tt.top, tt.height).IDs())
		})
	}
}

// TestVisibilityTracker_Edges tests entered and left reporting.
func TestVisibilityTracker_Edges(t *testing.T) {
	var tr listview.VisibilityTracker
	assert.Equal(t, 0, tr.Current().Len())

	entered, left := tr.Update(listview.VisibleSet{"a": {}, "b": {}})
	assert.Equal(t, []string{"a", "b"}, entered)
	assert.Empty(t, left)

	entered, left = tr.Update(listview.VisibleSet{"b": {}, "c": {}})
	assert.Equal(t, []string{"c"}, entered)
	assert.Equal(t, []string{"a"}, left)

	entered, left = tr.Update(listview.VisibleSet{"b": {}, "c": {}})
	assert.Empty(t, entered)
	assert.Empty(t, left)

	entered, left = tr.Update(nil)
	assert.Empty(t, entered)
	assert.Equal(t, []string{"b", "c"}, left)
	assert.True(t, !tr.Current().Has("b"))
}
