package service

import (
	"context"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
	"codearena/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	ledger         *LedgerService
	judge          Judge
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	problemRepo repository.ProblemRepository,
	ledger *LedgerService,
	judge Judge,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		problemRepo:    problemRepo,
		ledger:         ledger,
		judge:          judge,
	}
}

type CreateSubmissionRequest struct {
	ProblemID string `json:"problemId" validate:"required"`
	Code      string `json:"code" validate:"required,max=65536"`
	Language  string `json:"language" validate:"required,max=50"`
}

type SubmissionResult struct {
	*model.Submission
	PointsAwarded int `json:"pointsAwarded"`
}

// Submit records a submission and, when it is accepted, credits the solve.
// Crediting is idempotent per (user, problem), so resubmitting an already
// solved problem awards nothing.
func (s *SubmissionService) Submit(ctx context.Context, userID string, req CreateSubmissionRequest) (*SubmissionResult, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireID("problem", req.ProblemID); err != nil {
		return nil, err
	}

	problem, err := s.problemRepo.FindByID(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}

	verdict := s.judge.Evaluate(ctx, problem, req.Code, req.Language)
	sub := &model.Submission{
		ID:              uuid.NewString(),
		UserID:          userID,
		ProblemID:       problem.ID,
		Code:            req.Code,
		Language:        req.Language,
		Status:          verdict.Status,
		ExecutionTimeMs: verdict.ExecutionTimeMs,
		MemoryKb:        verdict.MemoryKb,
		ProblemTitle:    problem.Title,
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	result := &SubmissionResult{Submission: sub}
	if sub.Status != model.StatusAccepted {
		return result, nil
	}

	credit, err := s.ledger.CreditSolve(ctx, userID, problem.ID)
	if err != nil {
		logger.L().Error("accepted submission could not be credited",
			zap.String("submission_id", sub.ID), zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to credit solve: %w", err)
	}
	result.PointsAwarded = credit.Awarded
	return result, nil
}

func (s *SubmissionService) ListForUser(ctx context.Context, userID string) ([]model.Submission, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	return s.submissionRepo.ListByUser(ctx, userID)
}

// Get returns one of the caller's own submissions. Other users' submissions
// are reported as not found.
func (s *SubmissionService) Get(ctx context.Context, userID, submissionID string) (*model.Submission, error) {
	if err := requireID("submission", submissionID); err != nil {
		return nil, err
	}
	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, fmt.Errorf("submission not found: %w", common.ErrNotFound)
	}
	return sub, nil
}
