package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"CutRoom/logger"

	"github.com/redis/go-redis/v9"
)

// The zoom level is the only UI preference the workbench persists; the rest
// of a session is local until an explicit save.

const zoomKeyPrefix = "prefs:zoom:"

// SaveZoom persists a user's pixels-per-second zoom level.
func SaveZoom(userID int64, pixelsPerSecond float64) error {
	if RedisClient == nil {
		return fmt.Errorf("redis not connected")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := zoomKeyPrefix + strconv.FormatInt(userID, 10)
	if err := RedisClient.Set(ctx, key, pixelsPerSecond, 0).Err(); err != nil {
		logger.Error("failed to persist zoom preference",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		return err
	}
	return nil
}

// LoadZoom returns the persisted zoom level, or fallback when none is stored.
func LoadZoom(userID int64, fallback float64) float64 {
	if RedisClient == nil {
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := zoomKeyPrefix + strconv.FormatInt(userID, 10)
	val, err := RedisClient.Get(ctx, key).Float64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("failed to load zoom preference",
				logger.Int64("userId", userID),
				logger.ErrorField(err))
		}
		return fallback
	}
	return val
}
