// Package cache persists Tavern detail responses on disk.
//
// Entries are JSON files under ~/.beacondash/cache keyed by a SHA-256 of the
// endpoint, operation and variables of the query that produced them. An entry
// past its TTL is reported as expired by Get but stays readable through
// GetStale until Prune removes it, which lets the Tavern client serve the last
// known row data while the server is unreachable.
package cache
