package visibility

import (
	"context"
	"log/slog"
	"time"

	platformredis "kesher/internal/platform/redis"
	id "kesher/pkg/domain"
)

const canViewTTL = 5 * time.Minute

// RedisCache caches CanView results in Redis. Errors are logged and treated
// as misses so an unhealthy Redis never blocks photo serving.
type RedisCache struct {
	client *platformredis.Client
	logger *slog.Logger
}

func NewRedisCache(client *platformredis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func canViewKey(ownerID, requesterID id.UserID) string {
	return "kesher:vis:" + ownerID.String() + ":" + requesterID.String()
}

func (c *RedisCache) GetCanView(ctx context.Context, ownerID, requesterID id.UserID) (bool, bool) {
	val, err := c.client.Get(ctx, canViewKey(ownerID, requesterID)).Result()
	if err != nil {
		if err != platformredis.Nil {
			c.logger.WarnContext(ctx, "visibility cache read failed", "error", err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *RedisCache) SetCanView(ctx context.Context, ownerID, requesterID id.UserID, canView bool) {
	val := "0"
	if canView {
		val = "1"
	}
	if err := c.client.Set(ctx, canViewKey(ownerID, requesterID), val, canViewTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "visibility cache write failed", "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, ownerID, requesterID id.UserID) {
	if err := c.client.Del(ctx, canViewKey(ownerID, requesterID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "visibility cache invalidation failed", "error", err)
	}
}
