package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codearena/internal/api"
	"codearena/internal/app/service"
	"codearena/internal/common/security"
	"codearena/internal/domain/repository"
	"codearena/internal/platform/cache"
	"codearena/internal/platform/config"
	"codearena/internal/platform/database"
	"codearena/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig

	// 2. Initialize Logger
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	// 3. Initialize JWT
	security.InitJWT()

	// 4. Initialize Database
	ctx := context.Background()
	if err := database.Connect(ctx); err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer database.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, database.DB); err != nil {
			log.Fatal("schema migration failed", zap.Error(err))
		}
		log.Info("schema applied")
	}

	// 5. Initialize Redis
	if err := cache.ConnectRedis(); err != nil {
		log.Warn("redis unavailable, leaderboard cache disabled until it recovers", zap.Error(err))
	}
	defer cache.CloseRedis()

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	ledgerRepo := repository.NewPgLedgerRepository(database.DB)
	storeRepo := repository.NewPgStoreRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	leaderboardRepo := repository.NewPgLeaderboardRepository(database.DB)
	contestRepo := repository.NewPgContestRepository(database.DB)

	// 7. Initialize Services
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, cache.RDB, cfg.LeaderboardCacheTTL, cfg.LeaderboardLimit)
	ledgerService := service.NewLedgerService(ledgerRepo, problemRepo, leaderboardService)
	storeService := service.NewStoreService(storeRepo, ledgerService, cache.NewRedisLocker(cache.RDB),
		cfg.SeedLockKey, time.Duration(cfg.SeedLockTTLSeconds)*time.Second)

	services := api.Services{
		Auth:        service.NewAuthService(userRepo, storeRepo, leaderboardService),
		Ledger:      ledgerService,
		Store:       storeService,
		Leaderboard: leaderboardService,
		Problem:     service.NewProblemService(problemRepo),
		Submission:  service.NewSubmissionService(submissionRepo, problemRepo, ledgerService, service.PlaceholderJudge{}),
		Contest:     service.NewContestService(contestRepo, problemRepo),
	}

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(services, api.RouterOptions{
		AllowedOrigins:   cfg.AllowedOrigins,
		StoreSeedEnabled: cfg.StoreSeedEnabled,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server starting", zap.String("port", cfg.APIPort), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		return
	}
	log.Info("server stopped gracefully")
}
