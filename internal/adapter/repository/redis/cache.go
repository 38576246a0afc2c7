package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache implements usecase.Cache using Redis. Keys live under
// "cache:<namespace>:" so one Redis can serve several caches.
type Cache struct {
	client redis.UniversalClient
	prefix string
}

// NewCache creates a cache. An empty namespace stores keys under "cache:".
func NewCache(client redis.UniversalClient, namespace string) *Cache {
	prefix := "cache:"
	if namespace != "" {
		prefix += namespace + ":"
	}
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get returns the cached bytes. A miss returns nil, nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores value for ttl. A zero ttl keeps the key until it is deleted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Delete drops a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
