// Package tavern is a small GraphQL-over-HTTP client for the Tavern operator
// API.
//
// It knows the four resources the dashboard lists (hosts, tasks, quests and
// assets): how to page their ids with relay cursors, how to fetch one item's
// detail, and how to fetch many items at once for plain output. CachedFetcher
// layers request deduplication and an on-disk stale fallback over the client.
package tavern
