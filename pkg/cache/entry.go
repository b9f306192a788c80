// Package cache provides an optional Redis-backed cache for Okta GET
// responses. Okta does not publish cache lifetimes the way some APIs do,
// so entries live for a client-configured TTL rather than a server-driven
// expiry.
package cache

import (
	"net/http"
	"time"
)

// DefaultTTL is the fallback entry lifetime when none is configured.
const DefaultTTL = 60 * time.Second

// Entry represents a cached API response.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Header holds the response headers
	Header http.Header `json:"header"`

	// CachedAt is when the response was stored
	CachedAt time.Time `json:"cached_at"`

	// ExpiresAt is when the entry becomes stale
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the entry has passed its expiry.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiry, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
