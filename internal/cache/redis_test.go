package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client), mr
}

func testCart(userID string) *domain.Cart {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{ProductID: "665f1c2e9b1d4a0f8c3e2a11", Quantity: 2, AddedAt: now},
			{ProductID: "665f1c2e9b1d4a0f8c3e2a12", Quantity: 1, AddedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSetThenGet(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()
	cart := testCart("user123")

	require.NoError(t, cache.Set(ctx, "user123", cart))

	got, err := cache.Get(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, cart.UserID, got.UserID)
	assert.Equal(t, cart.Items, got.Items)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("user123"), `{"user_id":`))

	_, err := cache.Get(context.Background(), "user123")

	require.ErrorContains(t, err, "unmarshal cart failed")
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_WithJitteredTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, cache.Set(context.Background(), "user789", domain.NewCart("user789")))

	ttl := mr.TTL(cacheKey("user789"))
	assert.GreaterOrEqual(t, ttl, defaultTTL)
	assert.Less(t, ttl, defaultTTL+maxTTLJitter)
}

func TestSet_RedisDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	err := cache.Set(context.Background(), "user1", domain.NewCart("user1"))

	require.ErrorContains(t, err, "redis set failed")
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "user999", testCart("user999")))
	require.True(t, mr.Exists(cacheKey("user999")))

	require.NoError(t, cache.Delete(ctx, "user999"))
	assert.False(t, mr.Exists(cacheKey("user999")))

	// deleting a missing key is not an error
	assert.NoError(t, cache.Delete(ctx, "nonexistent"))
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "cart:test123", cacheKey("test123"))
}
