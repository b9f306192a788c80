package cache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
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

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager did not panic with a nil redis client")
		}
	}()
	NewManager(nil, time.Minute)
}

func TestNewManager_DefaultTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client, 0)
	if manager.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", manager.ttl, DefaultTTL)
	}
}

func TestManager_StoreAndGet(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	key := Key{URL: "https://example.okta.com/api/v1/groups?limit=100"}
	header := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`[{"id": "g1"}]`)

	if err := manager.Store(ctx, key, 200, header, body); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	entry, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry.StatusCode != 200 {
		t.Errorf("StatusCode = %d", entry.StatusCode)
	}
	if string(entry.Data) != string(body) {
		t.Errorf("Data = %s", entry.Data)
	}
	if entry.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Header = %v", entry.Header)
	}
}

func TestManager_GetMiss(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	_, err := manager.Get(context.Background(), Key{URL: "https://example.okta.com/api/v1/never"})
	if err != ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_ExpiredEntryIsMiss(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	key := Key{URL: "https://example.okta.com/api/v1/groups"}
	entry := &Entry{
		Data:       []byte(`[]`),
		StatusCode: 200,
		CachedAt:   time.Now().Add(-2 * time.Minute),
		ExpiresAt:  time.Now().Add(-time.Minute),
	}
	// Set refuses already-expired entries, so nothing lands in Redis and
	// the read must come back as a miss.
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := manager.Get(ctx, key); err != ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Delete(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	key := Key{URL: "https://example.okta.com/api/v1/users"}
	if err := manager.Store(ctx, key, 200, nil, []byte(`[]`)); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := manager.Get(ctx, key); err != ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss after delete", err)
	}
}

func TestManager_SetNilEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	if err := manager.Set(context.Background(), Key{URL: "x"}, nil); err == nil {
		t.Error("Set() error = nil for a nil entry")
	}
}
