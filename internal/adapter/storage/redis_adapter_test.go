package storage

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) (*RedisAdapter, *redis.Client) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewRedisAdapter(client), client
}

func TestGetStock_MissingKey(t *testing.T) {
	adapter, client := setupRedis(t)
	ctx := context.Background()

	client.Del(ctx, "wh_test:ghost")

	qty, ok, err := adapter.GetStock(ctx, "wh_test", "ghost")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok || qty != 0 {
		t.Errorf("expected absent entry, got qty=%d ok=%v", qty, ok)
	}
}

func TestSetAndGetStock(t *testing.T) {
	adapter, client := setupRedis(t)
	ctx := context.Background()

	t.Cleanup(func() { client.Del(ctx, "wh_test:apple") })

	if err := adapter.SetStock(ctx, "wh_test", "apple", 42); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	qty, ok, err := adapter.GetStock(ctx, "wh_test", "apple")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || qty != 42 {
		t.Errorf("expected qty=42, got qty=%d ok=%v", qty, ok)
	}
}

func TestWarehouseStock_ScansAllItems(t *testing.T) {
	adapter, client := setupRedis(t)
	ctx := context.Background()

	seed := map[string]int{"apple": 10, "milk": 0, "bread": 7}
	for item, qty := range seed {
		if err := adapter.SetStock(ctx, "wh_scan", item, qty); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}
	t.Cleanup(func() {
		for item := range seed {
			client.Del(ctx, "wh_scan:"+item)
		}
	})

	levels, err := adapter.WarehouseStock(ctx, "wh_scan")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(levels) != len(seed) {
		t.Fatalf("expected %d levels, got %d", len(seed), len(levels))
	}
	for _, lvl := range levels {
		if want, ok := seed[lvl.ItemID]; !ok || lvl.Quantity != want {
			t.Errorf("unexpected level %+v", lvl)
		}
	}
}
