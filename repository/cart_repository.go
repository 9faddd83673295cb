package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/websitedesigna/tastygrill/models"
)

// RedisCartRepository keeps one JSON document per cart session. Every save
// refreshes the TTL.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func (r *RedisCartRepository) key(cartID string) string {
	return fmt.Sprintf("cart:session:%s", cartID)
}

// Load returns the stored cart, or an empty cart when none exists.
func (r *RedisCartRepository) Load(ctx context.Context, cartID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.key(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewCart(cartID), nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", cartID, err)
	}
	cart.ID = cartID
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func (r *RedisCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(cart.ID), data, r.ttl).Err()
}

func (r *RedisCartRepository) Delete(ctx context.Context, cartID string) error {
	return r.client.Del(ctx, r.key(cartID)).Err()
}
