package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/swiftkart/dispatch/internal/core/domain"
)

// RedisAdapter is the fast inventory copy read by the availability resolver.
// Keys are "<warehouse_id>:<item_id>", values plain integers.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func stockKey(warehouseID, itemID string) string {
	return warehouseID + ":" + itemID
}

func (r *RedisAdapter) GetStock(ctx context.Context, warehouseID, itemID string) (int, bool, error) {
	val, err := r.client.Get(ctx, stockKey(warehouseID, itemID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get stock: %w", err)
	}

	qty, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("parse stock value %q: %w", val, err)
	}
	return qty, true, nil
}

func (r *RedisAdapter) SetStock(ctx context.Context, warehouseID, itemID string, quantity int) error {
	return r.client.Set(ctx, stockKey(warehouseID, itemID), quantity, 0).Err()
}

func (r *RedisAdapter) WarehouseStock(ctx context.Context, warehouseID string) ([]domain.StockLevel, error) {
	prefix := warehouseID + ":"

	var levels []domain.StockLevel
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		itemID := strings.TrimPrefix(iter.Val(), prefix)
		qty, ok, err := r.GetStock(ctx, warehouseID, itemID)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Expired between scan and get.
			continue
		}
		levels = append(levels, domain.StockLevel{
			WarehouseID: warehouseID,
			ItemID:      itemID,
			Quantity:    qty,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan stock keys: %w", err)
	}
	return levels, nil
}
