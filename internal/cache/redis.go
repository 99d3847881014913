package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL    = 15 * time.Minute
	maxTTLJitter  = 5 * time.Minute
	cartKeyPrefix = "cart:"
)

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: defaultTTL,
	}
}

type RedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	return &cart, nil
}

// Set stores the cart with a jittered TTL so entries written together do not
// expire together.
func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + rand.N(maxTTLJitter)
	if err := r.client.Set(ctx, cacheKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(userID string) string {
	return cartKeyPrefix + userID
}
