package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/websitedesigna/tastygrill/models"
)

// releaseLock deletes the lock only if it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCheckoutStore holds checkout attempts, the per-user submit lock and
// idempotency keys.
type RedisCheckoutStore struct {
	client     *redis.Client
	attemptTTL time.Duration
	idemTTL    time.Duration
}

func NewRedisCheckoutStore(client *redis.Client, attemptTTL, idemTTL time.Duration) *RedisCheckoutStore {
	return &RedisCheckoutStore{client: client, attemptTTL: attemptTTL, idemTTL: idemTTL}
}

func attemptKey(authorizationID string) string {
	return "checkout:attempt:" + authorizationID
}

func lockKey(userID uuid.UUID) string {
	return "checkout:lock:" + userID.String()
}

func idemKey(key string) string {
	return "idem:checkout:" + key
}

func (s *RedisCheckoutStore) SaveAttempt(ctx context.Context, attempt *models.CheckoutAttempt) error {
	attempt.UpdatedAt = time.Now().UTC()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = attempt.UpdatedAt
	}
	data, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, attemptKey(attempt.AuthorizationID), data, s.attemptTTL).Err()
}

func (s *RedisCheckoutStore) GetAttempt(ctx context.Context, authorizationID string) (*models.CheckoutAttempt, error) {
	data, err := s.client.Get(ctx, attemptKey(authorizationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var attempt models.CheckoutAttempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return nil, fmt.Errorf("decode checkout attempt: %w", err)
	}
	return &attempt, nil
}

// AcquireLock takes the user's submit lock. It returns the token needed to
// release it, or ok=false when another submit holds it.
func (s *RedisCheckoutStore) AcquireLock(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(userID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (s *RedisCheckoutStore) ReleaseLock(ctx context.Context, userID uuid.UUID, token string) error {
	return releaseLock.Run(ctx, s.client, []string{lockKey(userID)}, token).Err()
}

// GetIdempotency returns the order id recorded for key, or "" if none.
func (s *RedisCheckoutStore) GetIdempotency(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, idemKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisCheckoutStore) SetIdempotency(ctx context.Context, key, orderID string) error {
	return s.client.Set(ctx, idemKey(key), orderID, s.idemTTL).Err()
}
