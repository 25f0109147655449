package listview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Column width units.
const (
	frSuffix       = "fr"
	minmaxPrefix   = "minmax("
	columnGap      = 2
	ellipsis       = "…"
	skeletonGlyph  = "░"
	skeletonDivide = 2
)

// ErrInvalidWidth is returned for width specs that cannot be parsed.
var ErrInvalidWidth = errors.New("invalid column width")

// Column describes one table column. Render and RenderSkeleton return a
// single line; extra lines are dropped and long lines are truncated.
type Column[T any] struct {
	// Key uniquely identifies the column.
	Key string

	// Label is shown in the header row.
	Label string

	// Width is "N" (fixed cells), "Nfr" (share of the free space) or
	// "minmax(N,Mfr)".
	Width string

	// Render paints the cell for a loaded item.
	Render func(item T) string

	// RenderSkeleton paints the cell while the row is loading. Nil uses a
	// shaded placeholder of half the column width.
	RenderSkeleton func() string
}

// WidthSpec is a parsed Column.Width. Fr is zero for fixed columns.
type WidthSpec struct {
	Fixed int
	Min   int
	Fr    float64
}

// ParseWidth parses a column width spec.
func ParseWidth(spec string) (WidthSpec, error) {
	s := strings.ReplaceAll(strings.TrimSpace(spec), " ", "")
	if s == "" {
		return WidthSpec{Fr: 1}, nil
	}

	if strings.HasPrefix(s, minmaxPrefix) && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[len(minmaxPrefix):len(s)-1], ",")
		if len(parts) != 2 { //nolint:mnd // minmax takes exactly two arguments.
			return WidthSpec{}, fmt.Errorf("%w: %q", ErrInvalidWidth, spec)
		}
		lo, err := strconv.Atoi(parts[0])
		if err != nil || lo < 0 {
			return WidthSpec{}, fmt.Errorf("%w: %q", ErrInvalidWidth, spec)
		}
		hi, err := ParseWidth(parts[1])
		if err != nil {
			return WidthSpec{}, err
		}
		if hi.Fr == 0 {
			return WidthSpec{Fixed: max(lo, hi.Fixed)}, nil
		}
		return WidthSpec{Min: lo, Fr: hi.Fr}, nil
	}

	if strings.HasSuffix(s, frSuffix) {
		fr, err := strconv.ParseFloat(strings.TrimSuffix(s, frSuffix), 64)
		if err != nil || fr <= 0 {
			return WidthSpec{}, fmt.Errorf("%w: %q", ErrInvalidWidth, spec)
		}
		return WidthSpec{Fr: fr}, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return WidthSpec{}, fmt.Errorf("%w: %q", ErrInvalidWidth, spec)
	}
	return WidthSpec{Fixed: n}, nil
}

// ResolveWidths distributes total cells across columns. Fixed columns get
// their width, fractional columns share what is left in proportion to their
// fr, never dropping below their minimum. Unparseable specs count as 1fr.
func ResolveWidths[T any](cols []Column[T], total int) []int {
	widths := make([]int, len(cols))
	if len(cols) == 0 {
		return widths
	}

	specs := make([]WidthSpec, len(cols))
	free := total - columnGap*(len(cols)-1)
	for i, c := range cols {
		spec, err := ParseWidth(c.Width)
		if err != nil {
			spec = WidthSpec{Fr: 1}
		}
		specs[i] = spec
		if spec.Fr == 0 {
			widths[i] = spec.Fixed
			free -= spec.Fixed
		}
	}

	// Columns whose share falls under their minimum are pinned and the
	// remaining space is re-divided among the others.
	flexible := make(map[int]bool)
	for i, s := range specs {
		if s.Fr > 0 {
			flexible[i] = true
		}
	}
	for len(flexible) > 0 {
		var frSum float64
		for i := range flexible {
			frSum += specs[i].Fr
		}
		unit := float64(max(free, 0)) / frSum
		pinned := false
		for i := range flexible {
			if share := int(specs[i].Fr * unit); share < specs[i].Min {
				widths[i] = specs[i].Min
				free -= specs[i].Min
				delete(flexible, i)
				pinned = true
			}
		}
		if pinned {
			continue
		}

		used, lastFlex := 0, -1
		for i := range specs {
			if !flexible[i] {
				continue
			}
			widths[i] = int(specs[i].Fr * unit)
			used += widths[i]
			lastFlex = i
		}
		if lastFlex >= 0 && free > used {
			widths[lastFlex] += free - used
		}
		break
	}
	return widths
}

// fitCell truncates s to its first line and width cells, then pads it.
func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = ansi.Truncate(s, width, ellipsis)
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// defaultSkeleton is the placeholder for columns without RenderSkeleton.
func defaultSkeleton(width int) string {
	return strings.Repeat(skeletonGlyph, max(1, width/skeletonDivide))
}

// joinCells joins rendered cells with the column gap.
func joinCells(cells []string) string {
	return strings.Join(cells, strings.Repeat(" ", columnGap))
}
