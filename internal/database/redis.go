package database

import (
	"context"
	"encoding/json"
	"time"

	"hunteros-backend/config"
	"hunteros-backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	RedisClient *redis.Client
	Ctx         = context.Background()
)

func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisFullAddr(),
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})

	_, err := RedisClient.Ping(Ctx).Result()
	return err
}

// CacheGet decodes the JSON value at key into dst. Misses, a missing client
// and undecodable values all report false; the cache is never authoritative.
func CacheGet(ctx context.Context, key string, dst interface{}) bool {
	if RedisClient == nil {
		return false
	}
	val, err := RedisClient.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(val, dst) == nil
}

// CacheSet stores v as JSON for ttl. Failures are logged and ignored.
func CacheSet(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if RedisClient == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := RedisClient.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// CacheDel removes keys. Failures are logged and ignored.
func CacheDel(ctx context.Context, keys ...string) {
	if RedisClient == nil || len(keys) == 0 {
		return
	}
	if err := RedisClient.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
