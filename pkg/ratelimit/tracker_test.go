package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis connects to a local Redis on a dedicated test DB and
// skips the test when none is available. Integration tests use
// testcontainers-go instead.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func rateLimitHeaders(remaining, limit int, resetAt time.Time) http.Header {
	header := http.Header{}
	header.Set("X-Rate-Limit-Remaining", fmt.Sprintf("%d", remaining))
	header.Set("X-Rate-Limit-Limit", fmt.Sprintf("%d", limit))
	header.Set("X-Rate-Limit-Reset", fmt.Sprintf("%d", resetAt.Unix()))
	return header
}

func TestTracker_UpdateAndGetState(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())
	ctx := context.Background()

	resetAt := time.Now().Add(45 * time.Second)
	if err := tracker.UpdateFromHeaders(ctx, rateLimitHeaders(480, 600, resetAt)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 480 {
		t.Errorf("Remaining = %d, want 480", state.Remaining)
	}
	if state.Limit != 600 {
		t.Errorf("Limit = %d, want 600", state.Limit)
	}
	if state.ResetAt.Unix() != resetAt.Unix() {
		t.Errorf("ResetAt = %v, want %v", state.ResetAt, resetAt)
	}
}

func TestTracker_GetStateWithoutData(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Limit != 0 {
		t.Errorf("Limit = %d, want 0 (no gating before real headers)", state.Limit)
	}
	if state.NeedsCriticalBlock() || state.NeedsThrottling() {
		t.Error("empty state must not gate requests")
	}
}

func TestTracker_UpdateFromHeaders_Validation(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name      string
		header    http.Header
		wantError bool
	}{
		{
			name:      "no headers is a no-op",
			header:    http.Header{},
			wantError: false,
		},
		{
			name: "unparsable remaining",
			header: http.Header{
				"X-Rate-Limit-Remaining": []string{"lots"},
			},
			wantError: true,
		},
		{
			name: "missing reset",
			header: http.Header{
				"X-Rate-Limit-Remaining": []string{"100"},
			},
			wantError: true,
		},
		{
			name: "unparsable reset",
			header: http.Header{
				"X-Rate-Limit-Remaining": []string{"100"},
				"X-Rate-Limit-Reset":     []string{"soon"},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tracker.UpdateFromHeaders(ctx, tt.header)
			if (err != nil) != tt.wantError {
				t.Errorf("UpdateFromHeaders() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestTracker_ShouldAllowRequest(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())
	ctx := context.Background()

	resetAt := time.Now().Add(60 * time.Second)

	// Healthy quota: allowed.
	if err := tracker.UpdateFromHeaders(ctx, rateLimitHeaders(500, 600, resetAt)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}
	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("ShouldAllowRequest() = false for a healthy quota")
	}

	// Critical quota: blocked.
	if err := tracker.UpdateFromHeaders(ctx, rateLimitHeaders(2, 600, resetAt)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}
	allowed, err = tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("ShouldAllowRequest() = true for a critical quota")
	}
}
