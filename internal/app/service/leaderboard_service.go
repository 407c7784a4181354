package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
	"codearena/internal/platform/logger"
	"codearena/internal/platform/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// The cached board lives under a key that embeds a generation number.
// Invalidate bumps the generation, so a reader that raced a write can only
// ever fill a key nobody will read again.
const (
	leaderboardVersionKey = "leaderboard:version"
	leaderboardKeyPrefix  = "leaderboard:v"
)

type LeaderboardService struct {
	repo  repository.LeaderboardRepository
	rdb   *redis.Client
	ttl   time.Duration
	limit int
}

// NewLeaderboardService builds the service. rdb may be nil, which disables
// caching.
func NewLeaderboardService(repo repository.LeaderboardRepository, rdb *redis.Client, ttl time.Duration, limit int) *LeaderboardService {
	if limit <= 0 {
		limit = 50
	}
	return &LeaderboardService{repo: repo, rdb: rdb, ttl: ttl, limit: limit}
}

// SortEntries orders entries by points then solved count, both descending,
// with account age and id as final tie-breaks, and assigns 1-based ranks.
func SortEntries(entries []model.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.SolvedCount != b.SolvedCount {
			return a.SolvedCount > b.SolvedCount
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.UserID < b.UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	key, cacheOK := s.cacheKey(ctx)
	if cacheOK {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var entries []model.LeaderboardEntry
			if err := json.Unmarshal(raw, &entries); err == nil {
				metrics.LeaderboardCache.WithLabelValues("hit").Inc()
				return entries, nil
			}
			logger.L().Warn("discarding corrupt leaderboard cache entry", zap.String("key", key))
		case errors.Is(err, redis.Nil):
		default:
			logger.L().Warn("leaderboard cache read failed", zap.Error(err))
			cacheOK = false
		}
	}
	metrics.LeaderboardCache.WithLabelValues("miss").Inc()

	entries, err := s.repo.Top(ctx, s.limit)
	if err != nil {
		return nil, err
	}
	SortEntries(entries)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	if cacheOK {
		if raw, err := json.Marshal(entries); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				logger.L().Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}
	return entries, nil
}

func (s *LeaderboardService) cacheKey(ctx context.Context) (string, bool) {
	if s.rdb == nil || s.ttl <= 0 {
		return "", false
	}
	version, err := s.rdb.Get(ctx, leaderboardVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.L().Warn("leaderboard cache version read failed", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("%s%d", leaderboardKeyPrefix, version), true
}

// Invalidate makes the next read go to the database.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, leaderboardVersionKey).Err(); err != nil {
		logger.L().Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}
