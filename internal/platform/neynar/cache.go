package neynar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"beamr-points-backend/internal/common/logger"
	platformredis "beamr-points-backend/internal/platform/redis"
)

const userKeyPrefix = "beamr:neynarusers:user:"

// UserCache caches Neynar profiles in Redis. Failures are logged and treated
// as cache misses.
type UserCache struct {
	redis *platformredis.Client
	ttl   time.Duration
}

func NewUserCache(redis *platformredis.Client, ttl time.Duration) *UserCache {
	return &UserCache{redis: redis, ttl: ttl}
}

func (c *UserCache) Get(ctx context.Context, fid int64) *User {
	data, err := c.redis.Get(ctx, userKey(fid)).Bytes()
	if err != nil {
		return nil
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		logger.Warn().Err(err).Int64("fid", fid).Msg("Failed to decode cached user")
		return nil
	}
	return &user
}

func (c *UserCache) Set(ctx context.Context, user *User) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, userKey(user.FID), data, c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Int64("fid", user.FID).Msg("Failed to cache user")
	}
}

func userKey(fid int64) string {
	return fmt.Sprintf("%s%d", userKeyPrefix, fid)
}
