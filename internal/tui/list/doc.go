// Package listview provides the virtualized table used by every dashboard view.
//
// The table renders only the slice of a server-paginated id list that
// intersects the viewport, plus a few overscan rows:
//   - Layout caches per-row sizes and offsets and answers window queries with
//     a binary search, re-stacking offsets only from the earliest changed row
//   - DeriveVisible computes the ids on screen after every layout pass; the
//     result gates row polling
//   - every mounted row owns a detail.Binding keyed by item id, created when
//     the row enters the rendered window and closed when it leaves
//   - LoadMoreController asks the caller for the next page once per approach
//     to the end of the loaded ids
//   - ExpansionState keeps expanded rows by id and feeds their size back into
//     Layout
//
// Sizes are terminal lines. All state changes happen inside Bubble Tea's
// Update loop, so the package uses no locks.
package listview
