package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/beacondash/internal/tavern"
)

// Flag defaults and validation limits.
const (
	DefaultLimit    = 0
	MaxLimit        = 100000
	DefaultPageSize = 50
	MinPageSize     = 1
	MaxPageSize     = 500
	SortOrderAsc    = "asc"
	SortOrderDesc   = "desc"

	// DefaultSortOrder applies when --sort names only a field.
	DefaultSortOrder = SortOrderDesc
)

// Common validation errors.
var (
	ErrInvalidLimit      = fmt.Errorf("limit must be between 0 and %d", MaxLimit)
	ErrInvalidPageSize   = fmt.Errorf("page-size must be between %d and %d", MinPageSize, MaxPageSize)
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'last_seen_at:desc')")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
)

// Params holds the list flags of a resource command.
type Params struct {
	// Limit caps the rows printed in plain mode. Zero prints everything.
	Limit int

	// PageSize is the number of ids requested per page.
	PageSize int

	// Sort is "field" or "field:order". Empty uses the resource default.
	Sort string

	// Filter is a case-sensitive name substring.
	Filter string
}

// NewParams creates Params with default values.
func NewParams() *Params {
	return &Params{
		Limit:    DefaultLimit,
		PageSize: DefaultPageSize,
	}
}

// AddFlags registers the list flags on cmd.
func (p *Params) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Limit, "limit", p.Limit, "maximum rows to print in plain mode (0 = all)")
	cmd.Flags().IntVar(&p.PageSize, "page-size", p.PageSize, "ids fetched per request")
	cmd.Flags().StringVar(&p.Sort, "sort", p.Sort, "sort as field[:asc|desc], e.g. last_seen_at:desc")
	cmd.Flags().StringVar(&p.Filter, "filter", p.Filter, "only show items whose name contains this text")
}

// Validate checks the flag values.
func (p Params) Validate() error {
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	if p.Sort != "" {
		if _, _, err := ParseSort(p.Sort); err != nil {
			return err
		}
	}
	return nil
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses a sort string in the format "field" or "field:order".
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}

// Order resolves Sort against r. An empty Sort returns nil so the resource
// default applies.
func (p Params) Order(r tavern.Resource) (*tavern.Order, error) {
	if strings.TrimSpace(p.Sort) == "" {
		return nil, nil //nolint:nilnil // nil order selects the resource default.
	}
	field, order, err := ParseSort(p.Sort)
	if err != nil {
		return nil, err
	}
	gqlField, err := r.ParseOrderField(field)
	if err != nil {
		return nil, err
	}
	dir := tavern.Desc
	if order == SortOrderAsc {
		dir = tavern.Asc
	}
	return &tavern.Order{Field: gqlField, Direction: dir}, nil
}

// PageQuery builds the first-page query for r.
func (p Params) PageQuery(r tavern.Resource) (tavern.PageQuery, error) {
	order, err := p.Order(r)
	if err != nil {
		return tavern.PageQuery{}, err
	}
	first := p.PageSize
	if p.Limit > 0 && p.Limit < first {
		first = p.Limit
	}
	return tavern.PageQuery{First: first, Filter: p.Filter, Order: order}, nil
}
