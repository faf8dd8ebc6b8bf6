package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusCache is a read-through cache for public order status views.
// A miss is (nil, nil).
type StatusCache interface {
	Get(ctx context.Context, orderID string) (*OrderStatusView, error)
	Set(ctx context.Context, view *OrderStatusView) error
	Invalidate(ctx context.Context, orderID string) error
}

type NoopStatusCache struct{}

func (NoopStatusCache) Get(context.Context, string) (*OrderStatusView, error) { return nil, nil }
func (NoopStatusCache) Set(context.Context, *OrderStatusView) error { return nil }
func (NoopStatusCache) Invalidate(context.Context, string) error { return nil }

type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatusCache(client *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{client: client, ttl: ttl}
}

func statusKey(orderID string) string {
	return fmt.Sprintf("payable_orders:status:%s", orderID)
}

func (c *RedisStatusCache) Get(ctx context.Context, orderID string) (*OrderStatusView, error) {
	raw, err := c.client.Get(ctx, statusKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var view OrderStatusView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("decode cached status: %w", err)
	}
	return &view, nil
}

func (c *RedisStatusCache) Set(ctx context.Context, view *OrderStatusView) error {
	js, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKey(view.OrderID), js, c.ttl).Err()
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, orderID string) error {
	return c.client.Del(ctx, statusKey(orderID)).Err()
}
