package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached response.
type Entry struct {
	// Key is the SHA-256 cache key.
	Key string `json:"key"`

	// Operation is the GraphQL operation that produced Data.
	Operation string `json:"operation,omitempty"`

	// Data is the raw response payload.
	Data json.RawMessage `json:"data"`

	// StoredAt is when the response was written.
	StoredAt time.Time `json:"stored_at"`

	// ExpiresAt is when the entry stops being fresh.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry creates an entry stored at now that stays fresh for ttl.
func NewEntry(key, operation string, data json.RawMessage, now time.Time, ttl time.Duration) *Entry {
	return &Entry{
		Key:       key,
		Operation: operation,
		Data:      data,
		StoredAt:  now.UTC(),
		ExpiresAt: now.Add(ttl).UTC(),
	}
}

// IsExpired reports whether the entry is stale at now.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age(now time.Time) time.Duration {
	return max(0, now.Sub(e.StoredAt))
}
