package formcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/listforge/listforge-be/internal/domain"
)

// RedisCache implements Cache on go-redis/v9. Entries expire after ttl so
// stale form structures age out even without an explicit re-detection.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache writing entries with the given TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, directoryID int64) (*domain.FormCacheEntry, bool, error) {
	val, err := c.client.Get(ctx, Key(directoryID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry domain.FormCacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

func (c *RedisCache) Put(ctx context.Context, directoryID int64, entry *domain.FormCacheEntry) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(directoryID), val, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, directoryID int64) error {
	return c.client.Del(ctx, Key(directoryID)).Err()
}
