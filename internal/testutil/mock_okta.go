// Package testutil provides testing utilities for the Okta client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// MockOkta is a configurable mock Okta API server for testing.
type MockOkta struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount      int
	pathCounts        map[string]int
	lastRequestHeader http.Header
}

// NewMockOkta creates a new mock Okta server. By default it accepts the
// identity probe on /api/v1/users/me/ and returns the provider's 404
// error shape for anything else.
func NewMockOkta() *MockOkta {
	mock := &MockOkta{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

func (m *MockOkta) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/api/v1/users/me/" {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"id": "00u0000000000000000", "status": "ACTIVE"}`)
		return
	}
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"errorCode": "E0000007", "errorSummary": "Not found: %s"}`, r.URL.Path)
}

// URL returns the mock server URL.
func (m *MockOkta) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOkta) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and custom handlers.
func (m *MockOkta) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastRequestHeader = nil
	m.handlers = make(map[string]http.HandlerFunc)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockOkta) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetJSONResponse configures a fixed JSON response for a path.
func (m *MockOkta) SetJSONResponse(path string, status int, body string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

// SetPages configures a Link-header paginated collection at path. Page i
// serves pages[i] and carries a rel="next" link to the following page;
// the last page carries no next link.
func (m *MockOkta) SetPages(path string, pages []string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 0
		if raw := r.URL.Query().Get("page"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				page = parsed
			}
		}
		if page >= len(pages) {
			page = len(pages) - 1
		}

		w.Header().Set("Content-Type", "application/json")
		if page < len(pages)-1 {
			next := fmt.Sprintf("%s%s?page=%d", m.server.URL, path, page+1)
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, pages[page])
	})
}

// RequestCount returns the total number of requests received.
func (m *MockOkta) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// CountFor returns the number of requests received for a path.
func (m *MockOkta) CountFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockOkta) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}
