package services

import (
	"errors"
	"time"

	"hunteros-backend/internal/database"

	"github.com/go-redis/redis/v8"
)

const denylistPrefix = "denylist:"

func AddToDenylist(tokenString string, expiration time.Duration) error {
	if database.RedisClient == nil {
		return errors.New("redis is not connected")
	}
	return database.RedisClient.Set(database.Ctx, denylistPrefix+tokenString, 1, expiration).Err()
}

// IsDenylisted reports whether a token was revoked by logout. Without Redis
// no token can have been revoked.
func IsDenylisted(tokenString string) (bool, error) {
	if database.RedisClient == nil {
		return false, nil
	}
	val, err := database.RedisClient.Get(database.Ctx, denylistPrefix+tokenString).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}
