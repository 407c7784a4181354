package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	// ListByUser returns the user's submissions newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, code, language, status, execution_time_ms, memory_kb)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING submitted_at`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.UserID, s.ProblemID, s.Code, s.Language, s.Status, s.ExecutionTimeMs, s.MemoryKb,
	).Scan(&s.SubmittedAt)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return fmt.Errorf("user or problem not found: %w", common.ErrNotFound)
		}
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT s.id, s.user_id, s.problem_id, s.code, s.language, s.status,
	                 s.execution_time_ms, s.memory_kb, s.submitted_at, p.title
	          FROM submissions s JOIN problems p ON p.id = s.problem_id
	          WHERE s.id = $1`
	s := &model.Submission{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.ProblemID, &s.Code, &s.Language, &s.Status,
		&s.ExecutionTimeMs, &s.MemoryKb, &s.SubmittedAt, &s.ProblemTitle,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) ListByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	query := `SELECT s.id, s.user_id, s.problem_id, s.code, s.language, s.status,
	                 s.execution_time_ms, s.memory_kb, s.submitted_at, p.title
	          FROM submissions s JOIN problems p ON p.id = s.problem_id
	          WHERE s.user_id = $1
	          ORDER BY s.submitted_at DESC, s.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.Code, &s.Language, &s.Status,
			&s.ExecutionTimeMs, &s.MemoryKb, &s.SubmittedAt, &s.ProblemTitle); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByUser scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUser rows.Err: %w", err)
	}
	return subs, nil
}
