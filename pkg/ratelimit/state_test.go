package ratelimit

import (
	"testing"
	"time"
)

func TestState_NeedsCriticalBlock(t *testing.T) {
	future := time.Now().Add(60 * time.Second)

	tests := []struct {
		name      string
		remaining int
		limit     int
		resetAt   time.Time
		want      bool
	}{
		{name: "healthy quota", remaining: 500, limit: 600, resetAt: future, want: false},
		{name: "below critical fraction", remaining: 5, limit: 600, resetAt: future, want: true},
		{name: "exactly at critical fraction", remaining: 12, limit: 600, resetAt: future, want: false},
		{name: "zero remaining", remaining: 0, limit: 600, resetAt: future, want: true},
		{name: "no limit known yet", remaining: 0, limit: 0, resetAt: future, want: false},
		{name: "window already reset", remaining: 0, limit: 600, resetAt: time.Now().Add(-time.Second), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{Remaining: tt.remaining, Limit: tt.limit, ResetAt: tt.resetAt}
			if got := state.NeedsCriticalBlock(); got != tt.want {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_NeedsThrottling(t *testing.T) {
	future := time.Now().Add(60 * time.Second)

	tests := []struct {
		name      string
		remaining int
		limit     int
		resetAt   time.Time
		want      bool
	}{
		{name: "healthy quota", remaining: 500, limit: 600, resetAt: future, want: false},
		{name: "below warning fraction", remaining: 30, limit: 600, resetAt: future, want: true},
		{name: "critical takes precedence", remaining: 5, limit: 600, resetAt: future, want: false},
		{name: "no limit known yet", remaining: 0, limit: 0, resetAt: future, want: false},
		{name: "window already reset", remaining: 30, limit: 600, resetAt: time.Now().Add(-time.Second), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{Remaining: tt.remaining, Limit: tt.limit, ResetAt: tt.resetAt}
			if got := state.NeedsThrottling(); got != tt.want {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	state := &State{ResetAt: time.Now().Add(30 * time.Second)}
	if d := state.TimeUntilReset(); d <= 0 || d > 30*time.Second {
		t.Errorf("TimeUntilReset() = %v", d)
	}

	past := &State{ResetAt: time.Now().Add(-time.Second)}
	if d := past.TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0 for a past reset", d)
	}
}

func TestState_IsStale(t *testing.T) {
	fresh := &State{LastUpdate: time.Now()}
	if fresh.IsStale(time.Minute) {
		t.Error("IsStale() = true for a fresh state")
	}

	stale := &State{LastUpdate: time.Now().Add(-2 * time.Minute)}
	if !stale.IsStale(time.Minute) {
		t.Error("IsStale() = false for an old state")
	}
}
