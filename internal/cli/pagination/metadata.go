package pagination

// Meta summarises what a plain listing printed.
type Meta struct {
	Shown     int  `json:"shown"      yaml:"shown"`
	Total     int  `json:"total"      yaml:"total"`
	Requests  int  `json:"requests"   yaml:"requests"`
	HasMore   bool `json:"has_more"   yaml:"has_more"`
	Truncated bool `json:"truncated"  yaml:"truncated"`
}

// NewMeta builds the summary. total is the server's totalCount; hasMore is
// the last page's hasNextPage.
func NewMeta(params Params, shown, total, requests int, hasMore bool) Meta {
	return Meta{
		Shown:     shown,
		Total:     total,
		Requests:  requests,
		HasMore:   hasMore,
		Truncated: params.Limit > 0 && shown >= params.Limit && (hasMore || total > shown),
	}
}

// Remaining returns how many items were not printed.
func (m Meta) Remaining() int {
	return max(m.Total-m.Shown, 0)
}
