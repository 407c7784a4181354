package service

import (
	"context"
	"fmt"
	"strings"

	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug" // For slug generation
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
}

func NewProblemService(problemRepo repository.ProblemRepository) *ProblemService {
	return &ProblemService{problemRepo: problemRepo}
}

type TestCaseInput struct {
	Input    string `json:"input"`
	Output   string `json:"output" validate:"required"`
	IsPublic bool   `json:"isPublic"`
}

type CreateProblemRequest struct {
	Title       string                  `json:"title" validate:"required,max=255"`
	Description string                  `json:"description" validate:"required"`
	Difficulty  model.ProblemDifficulty `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Template    string                  `json:"template"`
	TestCases   []TestCaseInput         `json:"testCases" validate:"dive"`
}

type ProblemPage struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, req CreateProblemRequest) (*model.Problem, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Template:    req.Template,
	}
	if problem.Slug == "" {
		return nil, fmt.Errorf("title must contain letters or digits: %w", common.ErrInvalidInput)
	}
	for _, tc := range req.TestCases {
		problem.TestCases = append(problem.TestCases, model.TestCase{
			ID:       uuid.NewString(),
			Input:    tc.Input,
			Output:   tc.Output,
			IsPublic: tc.IsPublic,
		})
	}

	if err := s.problemRepo.Create(ctx, problem); err != nil {
		return nil, err
	}
	return problem, nil
}

// GetProblem looks a problem up by id or slug. Hidden test cases are only
// included for admins.
func (s *ProblemService) GetProblem(ctx context.Context, idOrSlug, role string) (*model.Problem, error) {
	var (
		problem *model.Problem
		err     error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		problem, err = s.problemRepo.FindByID(ctx, idOrSlug)
	} else {
		problem, err = s.problemRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}

	cases, err := s.problemRepo.GetTestCases(ctx, problem.ID, role == model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	problem.TestCases = cases
	return problem, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, difficulty model.ProblemDifficulty, search string, page, pageSize int) (*ProblemPage, error) {
	if difficulty != "" && !difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q: %w", difficulty, common.ErrInvalidInput)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	problems, total, err := s.problemRepo.List(ctx, model.ProblemFilter{
		Difficulty: difficulty,
		Search:     strings.TrimSpace(search),
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ProblemPage{Problems: problems, Total: total, Page: page, PageSize: pageSize}, nil
}
