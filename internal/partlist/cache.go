package partlist

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pos/internal/pos"
)

// cacheKey stores the serialized part-list products.
const cacheKey = "pos:partlists:v1"

// Cache keeps the part-list catalog in Redis so restarts and sibling
// instances reuse the last fetched snapshot within the staleness window.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client yields a no-op cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get loads the cached part-list products. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context) ([]pos.Product, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var products []pos.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, err
	}
	return products, true, nil
}

// Set stores the part-list products with the configured TTL.
func (c *Cache) Set(ctx context.Context, products []pos.Product) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey, data, c.ttl).Err()
}
