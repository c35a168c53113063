package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestViews(t *testing.T) *Views {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		client.Del(context.Background(), keyGeneration)
		client.Close()
	})
	return NewViews(client, zap.NewNop(), time.Minute)
}

func TestViewsSetGet(t *testing.T) {
	views := newTestViews(t)
	ctx := context.Background()
	key := KeyDashboard + ":" + uuid.New().String()[:8]

	views.Set(ctx, key, map[string]int{"total_orders": 1})

	var cached map[string]int
	if !views.Get(ctx, key, &cached) {
		t.Fatal("expected cache hit after Set")
	}
	if cached["total_orders"] != 1 {
		t.Errorf("expected total_orders=1, got %v", cached)
	}
}

func TestInvalidateAllDropsPresetKeys(t *testing.T) {
	views := newTestViews(t)
	ctx := context.Background()

	// 每个时间窗预设各占一个键，失效必须覆盖全部
	suffix := uuid.New().String()[:8]
	keys := []string{
		KeyDashboard + ":TODAY-" + suffix,
		KeyDashboard + ":THIS_WEEK-" + suffix,
		KeyReport + ":" + suffix,
	}
	for _, key := range keys {
		views.Set(ctx, key, map[string]int{"total_orders": 1})
	}
	for _, key := range keys {
		var cached map[string]int
		if !views.Get(ctx, key, &cached) {
			t.Fatalf("expected cache hit for %s before invalidation", key)
		}
	}

	views.InvalidateAll(ctx)

	for _, key := range keys {
		var cached map[string]int
		if views.Get(ctx, key, &cached) {
			t.Errorf("key %s survived InvalidateAll: %v", key, cached)
		}
	}
}

func TestNilClientNoOps(t *testing.T) {
	views := NewViews(nil, zap.NewNop(), time.Minute)
	ctx := context.Background()

	views.Set(ctx, KeyDashboard+":ALL", map[string]int{"total_orders": 1})
	views.InvalidateAll(ctx)

	var cached map[string]int
	if views.Get(ctx, KeyDashboard+":ALL", &cached) {
		t.Error("nil-client Views must never report a cache hit")
	}
}
