package transport

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate-limit retries.
var (
	oktaRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "okta_retries_total",
		Help: "Total number of retry attempts after a 429 response",
	})

	oktaRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "okta_retry_backoff_seconds",
		Help:    "Backoff duration before rate-limit retries",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	oktaRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "okta_retry_exhausted_total",
		Help: "Total number of calls that exhausted the rate-limit retry budget",
	})
)

// BackoffConfig holds the configuration for rate-limit retry behavior.
type BackoffConfig struct {
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between consecutive retries.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64

	// MaxElapsed is the total retry budget for a single call. Once the
	// elapsed time would exceed it, the rate-limit condition is surfaced
	// to the caller as a fatal error.
	MaxElapsed time.Duration

	// Jitter randomizes each delay by ±20% to avoid synchronized retries.
	Jitter bool
}

// DefaultBackoffConfig returns the default retry configuration.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		MaxElapsed:        60 * time.Second,
		Jitter:            true,
	}
}

// backoffDoer wraps an inner Doer with rate-limit retry behavior. Only a
// 429 response triggers a retry; every other response or transport error
// passes through unchanged on the first attempt. Wired at construction
// time: Transport -> backoffDoer -> HTTP client.
type backoffDoer struct {
	inner  Doer
	config BackoffConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewBackoffDoer wraps inner with exponential-backoff retry on 429.
func NewBackoffDoer(inner Doer, config BackoffConfig, logger zerolog.Logger) Doer {
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 1 * time.Second
	}
	if config.BackoffMultiplier <= 1 {
		config.BackoffMultiplier = 2.0
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.MaxElapsed <= 0 {
		config.MaxElapsed = 60 * time.Second
	}
	return &backoffDoer{
		inner:  inner,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Do issues the request, retrying on 429 until the elapsed-time budget is
// exceeded. Retried calls are re-issued as-is; deduplication of
// side-effecting writes is the caller's responsibility.
func (b *backoffDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := b.inner.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	start := b.now()
	backoff := b.config.InitialBackoff

	for attempt := 1; ; attempt++ {
		resp.Body.Close()

		wait := backoff
		if b.config.Jitter {
			// ±20% randomness
			wait = time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		}

		if b.now().Sub(start)+wait > b.config.MaxElapsed {
			oktaRetryExhaustedTotal.Inc()
			b.logger.Warn().
				Str("url", req.URL.String()).
				Int("attempts", attempt).
				Dur("budget", b.config.MaxElapsed).
				Msg("Rate limit retry budget exhausted")
			return nil, fmt.Errorf("%w: retry budget %s exhausted after %d attempts",
				ErrRateLimited, b.config.MaxElapsed, attempt)
		}

		oktaRetriesTotal.Inc()
		oktaRetryBackoffSeconds.Observe(wait.Seconds())

		b.logger.Warn().
			Str("url", req.URL.String()).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Rate limited, retrying after backoff")

		select {
		case <-req.Context().Done():
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, req.Context().Err())
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * b.config.BackoffMultiplier)
		if backoff > b.config.MaxBackoff {
			backoff = b.config.MaxBackoff
		}

		retry := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			retry.Body = body
		}

		resp, err = b.inner.Do(retry)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			b.logger.Info().
				Str("url", req.URL.String()).
				Int("attempts", attempt+1).
				Msg("Recovered from rate limit")
			return resp, nil
		}
	}
}
