package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"beamr-points-backend/internal/platform/redis"
)

// Service is a small JSON cache over Redis.
type Service struct {
	redisClient *redis.Client
}

func NewService(redisClient *redis.Client) *Service {
	return &Service{redisClient: redisClient}
}

// Get reads a cached value into dest. Returns an error on miss.
func (c *Service) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Set stores a value with a TTL.
func (c *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redisClient.Set(ctx, key, string(data), ttl).Err()
}

// Delete removes a key.
func (c *Service) Delete(ctx context.Context, key string) error {
	return c.redisClient.Del(ctx, key).Err()
}
