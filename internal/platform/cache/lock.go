package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codearena/internal/common"
	"codearena/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker is a single-key mutual exclusion lock built on SET NX with a TTL.
type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

// Acquire takes the lock at key for at most ttl. It returns
// common.ErrLockNotAcquired when another holder owns the key. The returned
// release func is safe to call after the TTL expired.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s is held: %w", key, common.ErrLockNotAcquired)
	}

	release := func() {
		// The caller's ctx may already be cancelled by the time we release.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		deleted, err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.L().Error("failed to release lock", zap.String("key", key), zap.Error(err))
			return
		}
		if deleted == 0 {
			logger.L().Warn("lock expired before release", zap.String("key", key))
		}
	}
	return release, nil
}
