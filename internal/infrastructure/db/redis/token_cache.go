package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/platformkit/identity/internal/core/domain"
)

// TokenCache implements ports.TokenCache on Redis string keys holding a
// decimal user id. Expiry is left to Redis.
type TokenCache struct {
	client redis.Cmdable
}

// NewTokenCache creates a TokenCache wrapping the given Redis client.
func NewTokenCache(client redis.Cmdable) *TokenCache {
	return &TokenCache{client: client}
}

func (c *TokenCache) SetEX(ctx context.Context, key string, userID int64, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return fmt.Errorf("token cache set: %w", err)
	}
	return nil
}

func (c *TokenCache) Get(ctx context.Context, key string) (int64, error) {
	return parseUserID(c.client.Get(ctx, key).Result())
}

// GetDel reads and removes the key in one round trip, so a token can be
// redeemed once.
func (c *TokenCache) GetDel(ctx context.Context, key string) (int64, error) {
	return parseUserID(c.client.GetDel(ctx, key).Result())
}

func (c *TokenCache) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("token cache del: %w", err)
	}
	return nil
}

func (c *TokenCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func parseUserID(v string, err error) (int64, error) {
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("token cache read: %w", err)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token cache value %q: %w", v, err)
	}
	return id, nil
}
