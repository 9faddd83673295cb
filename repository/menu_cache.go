package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/websitedesigna/tastygrill/models"
)

const menuCacheKey = "menu:categories:v1"

type RedisMenuCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMenuCache(client *redis.Client, ttl time.Duration) *RedisMenuCache {
	return &RedisMenuCache{client: client, ttl: ttl}
}

// Get returns ok=false on a cache miss.
func (c *RedisMenuCache) Get(ctx context.Context) ([]models.MenuCategory, bool, error) {
	data, err := c.client.Get(ctx, menuCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var categories []models.MenuCategory
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, false, err
	}
	return categories, true, nil
}

func (c *RedisMenuCache) Set(ctx context.Context, categories []models.MenuCategory) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, menuCacheKey, data, c.ttl).Err()
}

func (c *RedisMenuCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, menuCacheKey).Err()
}
