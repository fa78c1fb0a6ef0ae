package signing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"rentrihub/pkg/requestcontext"
)

// RedisCache shares bearer tokens across instances. Entries carry a Redis TTL
// matching the token expiry, so a Get hit is always usable; the signer still
// applies its own safety margin.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) key(key CacheKey) string {
	return fmt.Sprintf("rentri:token:%s:%s", key.CertificateID, key.Audience)
}

func (c *RedisCache) Get(ctx context.Context, key CacheKey) (CachedToken, bool) {
	pipe := c.client.Pipeline()
	getCmd := pipe.Get(ctx, c.key(key))
	ttlCmd := pipe.TTL(ctx, c.key(key))
	if _, err := pipe.Exec(ctx); err != nil {
		if err != redis.Nil {
			c.logger.Warn("token cache read failed", slog.String("error", err.Error()))
		}
		return CachedToken{}, false
	}

	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return CachedToken{}, false
	}
	return CachedToken{
		Value:     getCmd.Val(),
		ExpiresAt: requestcontext.Now(ctx).Add(ttl),
	}, true
}

func (c *RedisCache) Set(ctx context.Context, key CacheKey, token CachedToken) {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, c.key(key), token.Value, ttl).Err(); err != nil {
		// A cache write failure must never fail the signing operation.
		c.logger.Warn("token cache write failed", slog.String("error", err.Error()))
	}
}
