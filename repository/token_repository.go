package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenDenylist records revoked token ids until they would have
// expired anyway.
type RedisTokenDenylist struct {
	client *redis.Client
}

func NewRedisTokenDenylist(client *redis.Client) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client}
}

func (d *RedisTokenDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, "auth:revoked:"+tokenID, "1", ttl).Err()
}

func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, "auth:revoked:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
