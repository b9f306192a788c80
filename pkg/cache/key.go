package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response by request URL. Query parameters are
// normalized so that equivalent URLs map to the same entry.
type Key struct {
	// URL is the full request URL including query parameters.
	URL string
}

// String generates a deterministic cache key string.
// Format: okta:host/path:param1=val1:param2=val2
func (k Key) String() string {
	parts := []string{"okta"}

	u, err := url.Parse(k.URL)
	if err != nil {
		// Unparseable URLs still get a stable key.
		return "okta:" + k.URL
	}

	location := u.Host + strings.TrimRight(u.Path, "/")
	if location != "" {
		parts = append(parts, location)
	}

	query := u.Query()
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, key+"="+query.Get(key))
		}
	}

	return strings.Join(parts, ":")
}
