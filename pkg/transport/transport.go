// Package transport provides the authenticated HTTP layer for the Okta
// API: header injection, response buffering, Link-relation parsing, rate
// limit gating, optional response caching, and 429 backoff middleware.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/schubergphilis/oktalib-go/pkg/cache"
	"github.com/schubergphilis/oktalib-go/pkg/ratelimit"
)

// Prometheus metrics for API requests.
var (
	oktaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "okta_requests_total",
		Help: "Total Okta API requests by method and status",
	}, []string{"method", "status"})

	oktaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "okta_request_duration_seconds",
		Help:    "Okta API request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})
)

// Doer issues a single HTTP request. *http.Client satisfies it; the
// backoff middleware wraps it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the transport configuration.
type Config struct {
	// Token is the Okta API token, sent as "Authorization: SSWS <token>".
	Token string

	// HTTPClient is the underlying HTTP client. Defaults to an
	// *http.Client with a 30 second timeout.
	HTTPClient Doer

	// Backoff configures 429 retry behavior.
	Backoff BackoffConfig

	// RateLimiter optionally gates requests on shared quota state.
	RateLimiter *ratelimit.Tracker

	// Cache optionally serves GET responses from a Redis-backed cache.
	Cache *cache.Manager

	// Logger receives transport events.
	Logger zerolog.Logger
}

// Transport issues authenticated requests against the Okta API. It is
// not safe for concurrent use from multiple goroutines without external
// synchronization; callers needing parallelism should run independent
// sessions.
type Transport struct {
	doer    Doer
	token   string
	limiter *ratelimit.Tracker
	cache   *cache.Manager
	logger  zerolog.Logger
}

// New creates a transport with the backoff middleware wired around the
// HTTP client at construction time.
func New(cfg Config) *Transport {
	inner := cfg.HTTPClient
	if inner == nil {
		inner = &http.Client{Timeout: 30 * time.Second}
	}

	return &Transport{
		doer:    NewBackoffDoer(inner, cfg.Backoff, cfg.Logger),
		token:   cfg.Token,
		limiter: cfg.RateLimiter,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

// RequestOptions carries optional per-request inputs.
type RequestOptions struct {
	// Params are merged into the URL query string.
	Params url.Values

	// Body is JSON-encoded into the request body when non-nil.
	Body any

	// Headers are added after the standard auth/content headers.
	Headers http.Header
}

// Request performs an HTTP call against the API and returns the buffered
// response. Transport-level failures are returned as errors; non-2xx
// statuses are returned as a normal Response for the caller to interpret.
func (t *Transport) Request(ctx context.Context, method, rawurl string, opts *RequestOptions) (*Response, error) {
	target, err := mergeParams(rawurl, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		oktaRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	if t.limiter != nil {
		allowed, err := t.limiter.ShouldAllowRequest(ctx)
		if err != nil {
			t.logger.Error().Err(err).Msg("Rate limit check failed")
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			oktaRequestsTotal.WithLabelValues(method, "blocked").Inc()
			return nil, fmt.Errorf("request blocked: rate limit critical")
		}
	}

	cacheable := t.cache != nil && method == http.MethodGet
	key := cache.Key{URL: target}
	if cacheable {
		if entry, err := t.cache.Get(ctx, key); err == nil {
			t.logger.Debug().Str("url", target).Msg("Serving response from cache")
			return &Response{
				StatusCode: entry.StatusCode,
				Header:     entry.Header,
				Body:       entry.Data,
			}, nil
		} else if err != cache.ErrCacheMiss {
			t.logger.Warn().Err(err).Str("url", target).Msg("Cache get error")
		}
	}

	req, err := t.newRequest(ctx, method, target, opts)
	if err != nil {
		return nil, err
	}

	t.logger.Debug().
		Str("method", method).
		Str("url", target).
		Msg("Executing Okta request")

	httpResp, err := t.doer.Do(req)
	if err != nil {
		oktaRequestsTotal.WithLabelValues(method, "transport_error").Inc()
		return nil, err
	}
	defer httpResp.Body.Close()

	if t.limiter != nil {
		if err := t.limiter.UpdateFromHeaders(ctx, httpResp.Header); err != nil {
			t.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		oktaRequestsTotal.WithLabelValues(method, "read_error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	oktaRequestsTotal.WithLabelValues(method, fmt.Sprintf("%d", httpResp.StatusCode)).Inc()

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       body,
	}

	if cacheable && resp.OK() {
		if err := t.cache.Store(ctx, key, resp.StatusCode, resp.Header, body); err != nil {
			t.logger.Warn().Err(err).Str("url", target).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// newRequest builds the HTTP request with auth and content negotiation
// headers injected.
func (t *Transport) newRequest(ctx context.Context, method, target string, opts *RequestOptions) (*http.Request, error) {
	var body io.Reader
	if opts != nil && opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "SSWS "+t.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if opts != nil {
		for name, values := range opts.Headers {
			for _, value := range values {
				req.Header.Add(name, value)
			}
		}
	}

	return req, nil
}

// Get performs a GET request with optional query parameters.
func (t *Transport) Get(ctx context.Context, rawurl string, params url.Values) (*Response, error) {
	return t.Request(ctx, http.MethodGet, rawurl, &RequestOptions{Params: params})
}

// Post performs a POST request with an optional JSON body.
func (t *Transport) Post(ctx context.Context, rawurl string, payload any) (*Response, error) {
	return t.Request(ctx, http.MethodPost, rawurl, &RequestOptions{Body: payload})
}

// Put performs a PUT request with an optional JSON body.
func (t *Transport) Put(ctx context.Context, rawurl string, payload any) (*Response, error) {
	return t.Request(ctx, http.MethodPut, rawurl, &RequestOptions{Body: payload})
}

// Delete performs a DELETE request.
func (t *Transport) Delete(ctx context.Context, rawurl string) (*Response, error) {
	return t.Request(ctx, http.MethodDelete, rawurl, nil)
}

// mergeParams folds opts.Params into the URL query string.
func mergeParams(rawurl string, opts *RequestOptions) (string, error) {
	if opts == nil || len(opts.Params) == 0 {
		return rawurl, nil
	}

	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawurl, err)
	}

	query := u.Query()
	for name, values := range opts.Params {
		for _, value := range values {
			query.Set(name, value)
		}
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
