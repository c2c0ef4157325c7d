package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const nextAvailablePrefix = "opatam:next_available:"

// NextAvailableCache stores search answers for a short while. Implementations
// treat a missing entry as (nil, false, nil).
type NextAvailableCache interface {
	Get(ctx context.Context, key string) (*NextAvailable, bool, error)
	Set(ctx context.Context, key string, value *NextAvailable) error
	// Invalidate drops every cached answer of providerID.
	Invalidate(ctx context.Context, providerID string) error
}

type RedisNextAvailableCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisNextAvailableCache(client *redis.Client, ttl time.Duration) *RedisNextAvailableCache {
	return &RedisNextAvailableCache{client: client, ttl: ttl}
}

func cacheKey(q NextAvailableQuery, from string, horizon int) string {
	member := q.MemberID
	if member == "" {
		member = "any"
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%d", nextAvailablePrefix, q.ProviderID, q.ServiceID, member, from, horizon)
}

func (c *RedisNextAvailableCache) Get(ctx context.Context, key string) (*NextAvailable, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var v NextAvailable
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode cached next available: %w", err)
	}
	return &v, true, nil
}

func (c *RedisNextAvailableCache) Set(ctx context.Context, key string, value *NextAvailable) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *RedisNextAvailableCache) Invalidate(ctx context.Context, providerID string) error {
	iter := c.client.Scan(ctx, 0, nextAvailablePrefix+providerID+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
