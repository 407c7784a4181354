package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
	"codearena/internal/platform/logger"
	"codearena/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxPointAward caps a single award so balances stay well inside BIGINT.
const MaxPointAward = math.MaxInt32

const maxReasonLength = 100

// LeaderboardInvalidator is told about every committed balance change.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type LedgerService struct {
	ledgerRepo  repository.LedgerRepository
	problemRepo repository.ProblemRepository
	leaderboard LeaderboardInvalidator
}

func NewLedgerService(
	ledgerRepo repository.LedgerRepository,
	problemRepo repository.ProblemRepository,
	leaderboard LeaderboardInvalidator,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:  ledgerRepo,
		problemRepo: problemRepo,
		leaderboard: leaderboard,
	}
}

type SolveCredit struct {
	Credited bool `json:"credited"`
	Awarded  int  `json:"awarded"`
	Points   int  `json:"points"`
}

// PointsForDifficulty maps a problem difficulty to its solve award.
// Unknown difficulties earn the Easy amount.
func PointsForDifficulty(d model.ProblemDifficulty) int {
	switch d {
	case model.DifficultyMedium:
		return 20
	case model.DifficultyHard:
		return 50
	default:
		return 10
	}
}

// ParsePointAmount accepts a JSON number or numeric string and returns it as
// a non-negative whole number of points.
func ParsePointAmount(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("points is required: %w", common.ErrInvalidInput)
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("points must be a number: %w", common.ErrInvalidInput)
		}
		s = strings.TrimSpace(str)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("points must be a number: %w", common.ErrInvalidInput)
	}
	if f < 0 {
		return 0, fmt.Errorf("points must not be negative: %w", common.ErrInvalidInput)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("points must be a whole number: %w", common.ErrInvalidInput)
	}
	if f > MaxPointAward {
		return 0, fmt.Errorf("points must be at most %d: %w", MaxPointAward, common.ErrInvalidInput)
	}
	return int(f), nil
}

func normalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.PointReasonManual
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		reason = string([]rune(reason)[:maxReasonLength])
	}
	return reason
}

func requireID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid %s id: %w", kind, common.ErrInvalidInput)
	}
	return nil
}

func (s *LedgerService) invalidateLeaderboard(ctx context.Context) {
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
}

// AwardPoints credits amount to the user and returns the new balance.
func (s *LedgerService) AwardPoints(ctx context.Context, userID string, amount int, reason string) (int, error) {
	if err := requireID("user", userID); err != nil {
		return 0, err
	}
	if amount < 0 || amount > MaxPointAward {
		return 0, fmt.Errorf("points must be between 0 and %d: %w", MaxPointAward, common.ErrInvalidInput)
	}
	reason = normalizeReason(reason)

	balance, err := s.ledgerRepo.AddPoints(ctx, userID, amount, reason, "")
	if err != nil {
		return 0, err
	}

	metrics.PointsAwarded.WithLabelValues(model.PointReasonManual).Add(float64(amount))
	s.invalidateLeaderboard(ctx)
	logger.L().Info("points awarded",
		zap.String("user_id", userID), zap.Int("amount", amount), zap.String("reason", reason), zap.Int("balance", balance))
	return balance, nil
}

// CreditSolve awards the problem's difficulty points the first time the user
// solves it. Later calls for the same pair change nothing.
func (s *LedgerService) CreditSolve(ctx context.Context, userID, problemID string) (*SolveCredit, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	if err := requireID("problem", problemID); err != nil {
		return nil, err
	}

	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	award := PointsForDifficulty(problem.Difficulty)

	credited, balance, err := s.ledgerRepo.CreditSolve(ctx, userID, problemID, award)
	if err != nil {
		return nil, err
	}
	if !credited {
		return &SolveCredit{Points: balance}, nil
	}

	metrics.SolvesCredited.WithLabelValues(string(problem.Difficulty)).Inc()
	metrics.PointsAwarded.WithLabelValues(model.PointReasonSolve).Add(float64(award))
	s.invalidateLeaderboard(ctx)
	logger.L().Info("solve credited",
		zap.String("user_id", userID), zap.String("problem_id", problemID), zap.Int("award", award))
	return &SolveCredit{Credited: true, Awarded: award, Points: balance}, nil
}

// DebitForPurchase charges the item's price and appends it to the inventory.
func (s *LedgerService) DebitForPurchase(ctx context.Context, userID, itemID string) (*model.Purchase, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	if err := requireID("item", itemID); err != nil {
		return nil, err
	}

	purchase, err := s.ledgerRepo.DebitForPurchase(ctx, userID, itemID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInsufficientFunds):
			metrics.Purchases.WithLabelValues("insufficient_funds").Inc()
		case errors.Is(err, common.ErrNotFound):
			metrics.Purchases.WithLabelValues("not_found").Inc()
		default:
			metrics.Purchases.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.Purchases.WithLabelValues("ok").Inc()
	s.invalidateLeaderboard(ctx)
	logger.L().Info("purchase completed",
		zap.String("user_id", userID), zap.String("item_id", itemID), zap.Int("balance", purchase.Points))
	return purchase, nil
}

func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]model.PointEvent, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.ledgerRepo.ListEvents(ctx, userID, limit)
}
