package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	oktaRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "okta_rate_limit_remaining",
		Help: "Requests remaining in the current Okta rate limit window",
	})

	oktaRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "okta_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to critical quota exhaustion",
	})

	oktaRateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "okta_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to low remaining quota",
	})
)

// Tracker monitors Okta rate limit headers and gates requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current rate limit state from Redis.
// Returns a default healthy state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	remaining, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	limit, err := t.redis.Get(ctx, RedisKeyLimit).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get limit: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	if err == redis.Nil {
		t.logger.Debug().Msg("No rate limit state in Redis, returning default healthy state")
		return &State{
			Remaining:  0,
			Limit:      0, // Limit 0 means no gating until real headers arrive
			ResetAt:    time.Now().Add(60 * time.Second),
			LastUpdate: time.Now(),
		}, nil
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	return &State{
		Remaining:  remaining,
		Limit:      limit,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}, nil
}

// UpdateFromHeaders parses Okta rate limit headers and updates Redis state.
// Responses without the headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get("X-Rate-Limit-Remaining")
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-Rate-Limit-Remaining header: %w", err)
	}

	limit := 0
	if limitStr := headers.Get("X-Rate-Limit-Limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return fmt.Errorf("parse X-Rate-Limit-Limit header: %w", err)
		}
	}

	resetStr := headers.Get("X-Rate-Limit-Reset")
	if resetStr == "" {
		return fmt.Errorf("X-Rate-Limit-Reset header missing")
	}

	// Okta publishes the reset as epoch seconds.
	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse X-Rate-Limit-Reset header: %w", err)
	}

	now := time.Now()
	state := &State{
		Remaining:  remain,
		Limit:      limit,
		ResetAt:    time.Unix(resetEpoch, 0),
		LastUpdate: now,
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, remain, 0)
	pipe.Set(ctx, RedisKeyLimit, limit, 0)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), 0)

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	oktaRateLimitRemaining.Set(float64(remain))

	logEvent := t.logger.Info().
		Int("remaining", remain).
		Int("limit", limit).
		Time("reset_at", state.ResetAt)

	if state.NeedsCriticalBlock() {
		logEvent = t.logger.Error().Int("remaining", remain).Int("limit", limit)
		logEvent.Msg("Okta quota critical - requests will be blocked")
	} else if state.NeedsThrottling() {
		logEvent = t.logger.Warn().Int("remaining", remain).Int("limit", limit)
		logEvent.Msg("Okta quota low - requests will be throttled")
	} else {
		logEvent.Msg("Okta rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on the
// current rate limit state. Returns false if the request should be blocked
// until the window resets. Returns true but sleeps briefly when the
// remaining quota is low.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Okta quota critical - blocking request")

		oktaRateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Okta quota low - throttling request")

		oktaRateLimitThrottlesTotal.Inc()
		time.Sleep(1 * time.Second)
	}

	return true, nil
}
