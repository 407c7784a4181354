package cache

import (
	"context"
	"fmt"
	"time"

	"codearena/internal/platform/config"
	"codearena/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var RDB *redis.Client

// ConnectRedis dials Redis with the configured address. Redis only backs the
// leaderboard cache and the reseed lock, so a failed ping is logged rather
// than fatal; callers degrade to direct database reads.
func ConnectRedis() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("could not connect to redis at %s: %w", config.AppConfig.RedisAddr, err)
	}
	logger.L().Info("connected to redis", zap.String("addr", config.AppConfig.RedisAddr))
	return nil
}

func CloseRedis() {
	if RDB != nil {
		if err := RDB.Close(); err != nil {
			logger.L().Warn("closing redis", zap.Error(err))
			return
		}
		logger.L().Info("redis connection closed")
	}
}
