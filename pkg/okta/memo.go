package okta

import (
	"time"
)

// memoCache is a small capacity-bounded, time-bounded cache for derived
// entity properties. Each assignment entity owns its own cache; nothing
// is shared across instances. Entries are reused for the configured
// window even if the underlying data changes — a deliberate staleness
// trade-off for properties whose recomputation costs a round trip.
//
// Not safe for concurrent use; the client's resource model is
// single-caller.
type memoCache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]memoEntry
}

type memoEntry struct {
	value    any
	storedAt time.Time
}

// newMemoCache creates a cache with the given capacity and entry
// lifetime. Non-positive inputs fall back to defaults.
func newMemoCache(capacity int, ttl time.Duration) *memoCache {
	if capacity <= 0 {
		capacity = 16
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &memoCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]memoEntry),
	}
}

// get returns the cached value for key if it is still within its window.
func (m *memoCache) get(key string) (any, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(entry.storedAt) > m.ttl {
		delete(m.entries, key)
		return nil, false
	}
	return entry.value, true
}

// put stores a value, evicting the oldest entry when at capacity.
func (m *memoCache) put(key string, value any) {
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.capacity {
		var oldestKey string
		var oldest time.Time
		for k, e := range m.entries {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey = k
				oldest = e.storedAt
			}
		}
		delete(m.entries, oldestKey)
	}
	m.entries[key] = memoEntry{value: value, storedAt: m.now()}
}
