package transport

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Response is a fully-read API response. The body is buffered so that it
// can be decoded more than once and so no caller has to manage closing.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the response has a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the raw body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Links parses the Link header into a relation-name to URL mapping.
// Format: <https://host/api/v1/users?after=x>; rel="next", <...>; rel="self"
func (r *Response) Links() map[string]string {
	links := make(map[string]string)
	for _, header := range r.Header.Values("Link") {
		for _, part := range strings.Split(header, ",") {
			sections := strings.Split(part, ";")
			if len(sections) < 2 {
				continue
			}
			target := strings.TrimSpace(sections[0])
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}
			target = strings.Trim(target, "<>")
			for _, param := range sections[1:] {
				key, value, found := strings.Cut(strings.TrimSpace(param), "=")
				if !found || strings.TrimSpace(key) != "rel" {
					continue
				}
				rel := strings.Trim(strings.TrimSpace(value), `"`)
				if rel != "" {
					links[rel] = target
				}
			}
		}
	}
	return links
}

// NextLink returns the rel="next" link, if present. Absence is the normal
// end-of-collection condition for paginated endpoints.
func (r *Response) NextLink() (string, bool) {
	link, ok := r.Links()["next"]
	return link, ok
}
