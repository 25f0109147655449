// Package detail binds one table row to its own asynchronous detail fetch.
//
// A Binding issues a fetch for a single item id when its row is mounted, keeps
// the last response it extracted, and re-fetches on an interval only while the
// row intersects the viewport. Polling is driven by Bubble Tea tick commands,
// and every fetch and tick message is tagged with the binding generation, the
// item id and a sequence number. Messages that no longer match are dropped, so a
// late response can never land on a recycled or closed row.
//
// Fetch failures are not retried here. The previous data stays in place and
// the error is exposed through Err for rendering.
package detail
