package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"

	"github.com/google/uuid"
)

type ContestService struct {
	contestRepo repository.ContestRepository
	problemRepo repository.ProblemRepository
	now         func() time.Time
}

func NewContestService(contestRepo repository.ContestRepository, problemRepo repository.ProblemRepository) *ContestService {
	return &ContestService{contestRepo: contestRepo, problemRepo: problemRepo, now: time.Now}
}

type CreateContestRequest struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	ProblemIDs  []string  `json:"problems" validate:"dive,uuid"`
}

type RegistrationResult struct {
	ContestID         string `json:"contestId"`
	AlreadyRegistered bool   `json:"alreadyRegistered"`
	Message           string `json:"message"`
}

func (s *ContestService) List(ctx context.Context) ([]model.Contest, error) {
	return s.contestRepo.List(ctx)
}

func (s *ContestService) Get(ctx context.Context, id string) (*model.Contest, error) {
	if err := requireID("contest", id); err != nil {
		return nil, err
	}
	return s.contestRepo.FindByID(ctx, id)
}

func (s *ContestService) Create(ctx context.Context, req CreateContestRequest) (*model.Contest, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.ProblemIDs))
	for _, id := range req.ProblemIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("problem %s listed twice: %w", id, common.ErrInvalidInput)
		}
		seen[id] = struct{}{}
	}
	if len(req.ProblemIDs) > 0 {
		n, err := s.problemRepo.CountExisting(ctx, req.ProblemIDs)
		if err != nil {
			return nil, err
		}
		if n != len(req.ProblemIDs) {
			return nil, fmt.Errorf("one or more problems not found: %w", common.ErrNotFound)
		}
	}

	contest := &model.Contest{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		ProblemIDs:  append([]string{}, req.ProblemIDs...),
	}
	if err := s.contestRepo.Create(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

// Register adds the user to the contest's participant set. Registering twice
// is not an error.
func (s *ContestService) Register(ctx context.Context, contestID, userID string) (*RegistrationResult, error) {
	if err := requireID("contest", contestID); err != nil {
		return nil, err
	}
	if err := requireID("user", userID); err != nil {
		return nil, err
	}

	contest, err := s.contestRepo.FindByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if contest.HasEnded(s.now()) {
		return nil, fmt.Errorf("contest has already ended: %w", common.ErrBadRequest)
	}

	added, err := s.contestRepo.Register(ctx, contestID, userID)
	if err != nil {
		return nil, err
	}
	res := &RegistrationResult{ContestID: contestID, AlreadyRegistered: !added, Message: "Registered for contest"}
	if !added {
		res.Message = "Already registered for contest"
	}
	return res, nil
}
