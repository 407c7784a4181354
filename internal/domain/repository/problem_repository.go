package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"codearena/internal/common"
	"codearena/internal/domain/model"
)

type ProblemRepository interface {
	// Create inserts the problem and its test cases in one transaction.
	Create(ctx context.Context, problem *model.Problem) error
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	FindBySlug(ctx context.Context, slug string) (*model.Problem, error)
	List(ctx context.Context, filter model.ProblemFilter) ([]model.Problem, int, error)
	GetTestCases(ctx context.Context, problemID string, includeHidden bool) ([]model.TestCase, error)
	// CountExisting reports how many of ids refer to stored problems.
	CountExisting(ctx context.Context, ids []string) (int, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

const problemColumns = `id, title, slug, description, difficulty, template, created_at, updated_at`

func (r *pgProblemRepository) Create(ctx context.Context, p *model.Problem) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `INSERT INTO problems (id, title, slug, description, difficulty, template)
		          VALUES ($1, $2, $3, $4, $5, $6)
		          RETURNING created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty, p.Template).
			Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return fmt.Errorf("problem with this title already exists: %w", common.ErrConflict)
			}
			return fmt.Errorf("insert problem: %w", err)
		}

		if len(p.TestCases) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO problem_test_cases (id, problem_id, input, output, is_public, sort_order)
		                                     VALUES ($1, $2, $3, $4, $5, $6)`)
		if err != nil {
			return fmt.Errorf("prepare test cases: %w", err)
		}
		defer stmt.Close()

		for i := range p.TestCases {
			tc := &p.TestCases[i]
			tc.ProblemID = p.ID
			tc.SortOrder = i + 1
			if _, err := stmt.ExecContext(ctx, tc.ID, p.ID, tc.Input, tc.Output, tc.IsPublic, tc.SortOrder); err != nil {
				return fmt.Errorf("insert test case %d: %w", tc.SortOrder, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) findOne(ctx context.Context, column, value string) (*model.Problem, error) {
	p := &model.Problem{}
	err := r.db.QueryRowContext(ctx, `SELECT `+problemColumns+` FROM problems WHERE `+column+` = $1`, value).Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, &p.Template, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("problem not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgProblemRepository.find by %s: %w", column, err)
	}
	return p, nil
}

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	return r.findOne(ctx, "id", id)
}

func (r *pgProblemRepository) FindBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *pgProblemRepository) List(ctx context.Context, f model.ProblemFilter) ([]model.Problem, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if f.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, f.Difficulty)
		argID++
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`(title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, argID, argID))
		args = append(args, "%"+escapeLike(f.Search)+"%")
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List count: %w", err)
	}

	query := `SELECT ` + problemColumns + ` FROM problems` + where +
		fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, &p.Template, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.List scan: %w", err)
		}
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List rows.Err: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) GetTestCases(ctx context.Context, problemID string, includeHidden bool) ([]model.TestCase, error) {
	query := `SELECT id, problem_id, input, output, is_public, sort_order
	          FROM problem_test_cases WHERE problem_id = $1`
	if !includeHidden {
		query += ` AND is_public`
	}
	query += ` ORDER BY sort_order ASC`

	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCases query: %w", err)
	}
	defer rows.Close()

	cases := []model.TestCase{}
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.Output, &tc.IsPublic, &tc.SortOrder); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetTestCases scan: %w", err)
		}
		cases = append(cases, tc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCases rows.Err: %w", err)
	}
	return cases, nil
}

func (r *pgProblemRepository) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems WHERE id = ANY($1::uuid[])`, ids).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pgProblemRepository.CountExisting: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
