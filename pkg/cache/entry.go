// Package cache provides an optional Redis-backed response cache for
// idempotent GET exchanges. GraphQL POSTs are never cached.
package cache

import "time"

// Entry is a cached HTTP response body.
type Entry struct {
	// Body is the response body.
	Body []byte `json:"body"`

	// StatusCode is the HTTP status of the cached response.
	StatusCode int `json:"status_code"`

	// FetchedAt is when the response was fetched from the remote API.
	FetchedAt time.Time `json:"fetched_at"`
}

// Age returns how long ago the entry was fetched.
func (e *Entry) Age() time.Duration {
	return time.Since(e.FetchedAt)
}

// Expired returns true once the entry is older than ttl.
func (e *Entry) Expired(ttl time.Duration) bool {
	return e.Age() > ttl
}
