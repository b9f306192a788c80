// Package ratelimit tracks Okta's per-endpoint request quota from the
// X-Rate-Limit-Remaining and X-Rate-Limit-Reset response headers and
// gates outbound requests before the provider starts returning 429s.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining      = "okta:rate_limit:remaining"
	RedisKeyLimit          = "okta:rate_limit:limit"
	RedisKeyResetTimestamp = "okta:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "okta:rate_limit:last_update"
)

// Thresholds for rate limit decisions, as a fraction of the window quota.
const (
	// CriticalFraction blocks all requests when the remaining quota falls
	// below this fraction of the limit. Stops traffic before Okta does.
	CriticalFraction = 0.02

	// WarningFraction applies throttling when the remaining quota falls
	// below this fraction of the limit.
	WarningFraction = 0.10
)

// State represents the current Okta rate limit state. It is shared
// across all client instances via Redis.
type State struct {
	// Remaining is the number of requests left in the current window.
	// Extracted from the X-Rate-Limit-Remaining header.
	Remaining int `json:"remaining"`

	// Limit is the total request quota of the window.
	// Extracted from the X-Rate-Limit-Limit header.
	Limit int `json:"limit"`

	// ResetAt is the timestamp when the quota window resets.
	// The X-Rate-Limit-Reset header carries it as epoch seconds.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is the timestamp when this state was last updated.
	LastUpdate time.Time `json:"last_update"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked until the
// window resets.
func (s *State) NeedsCriticalBlock() bool {
	if s.Limit <= 0 {
		return false
	}
	if time.Now().After(s.ResetAt) {
		// Window already rolled over, assume a fresh quota.
		return false
	}
	return float64(s.Remaining) < float64(s.Limit)*CriticalFraction
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	if s.Limit <= 0 || s.NeedsCriticalBlock() {
		return false
	}
	if time.Now().After(s.ResetAt) {
		return false
	}
	return float64(s.Remaining) < float64(s.Limit)*WarningFraction
}

// TimeUntilReset returns the duration until the quota window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
