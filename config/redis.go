package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/table-reservation/utils"
)

// NewRedisClient connects to Redis when REDIS_ADDR is set. It returns nil
// when Redis is not configured or unreachable; callers degrade to the
// database uniqueness checks alone.
func NewRedisClient(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		utils.ErrorLogger.Warnf("redis at %s unreachable, payment claims disabled: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}
