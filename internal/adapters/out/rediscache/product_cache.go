package rediscache

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix = "crm:product:mpn:"

	DefaultProductTTL = 24 * time.Hour
)

// ProductIDCache keeps CRM product ids by manufacturer part number.
type ProductIDCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.ProductIDCache = (*ProductIDCache)(nil)

func NewProductIDCache(client *redis.Client, ttl time.Duration) *ProductIDCache {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &ProductIDCache{client: client, ttl: ttl}
}

// Get reports false when the mpn was never cached or has expired.
func (c *ProductIDCache) Get(ctx context.Context, mpn string) (string, bool, error) {
	if mpn == "" {
		return "", false, nil
	}
	id, err := c.client.Get(ctx, productKeyPrefix+mpn).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (c *ProductIDCache) Set(ctx context.Context, mpn, productID string) error {
	if mpn == "" || productID == "" {
		return nil
	}
	return c.client.Set(ctx, productKeyPrefix+mpn, productID, c.ttl).Err()
}
