package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"
)

type ContestRepository interface {
	Create(ctx context.Context, contest *model.Contest) error
	List(ctx context.Context) ([]model.Contest, error)
	FindByID(ctx context.Context, id string) (*model.Contest, error)
	// Register adds userID to the participant set. It returns false when the
	// user was already registered.
	Register(ctx context.Context, contestID, userID string) (bool, error)
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

func (r *pgContestRepository) Create(ctx context.Context, c *model.Contest) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO contests (id, title, description, start_time, end_time)
			 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
			c.ID, c.Title, c.Description, c.StartTime, c.EndTime).Scan(&c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert contest: %w", err)
		}
		for i, pid := range c.ProblemIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO contest_problems (contest_id, problem_id, sort_order) VALUES ($1, $2, $3)`,
				c.ID, pid, i+1); err != nil {
				if common.IsForeignKeyViolation(err) {
					return fmt.Errorf("problem %s not found: %w", pid, common.ErrNotFound)
				}
				if common.IsUniqueViolation(err) {
					return fmt.Errorf("problem %s listed twice: %w", pid, common.ErrInvalidInput)
				}
				return fmt.Errorf("attach problem: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pgContestRepository.Create: %w", err)
	}
	return nil
}

const contestSelect = `
	SELECT c.id, c.title, c.description, c.start_time, c.end_time, c.created_at,
	       (SELECT COUNT(*) FROM contest_participants cp WHERE cp.contest_id = c.id)
	FROM contests c`

func (r *pgContestRepository) List(ctx context.Context) ([]model.Contest, error) {
	rows, err := r.db.QueryContext(ctx, contestSelect+` ORDER BY c.start_time DESC, c.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.List query: %w", err)
	}
	defer rows.Close()

	contests := []model.Contest{}
	for rows.Next() {
		var c model.Contest
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.StartTime, &c.EndTime, &c.CreatedAt, &c.ParticipantCount); err != nil {
			return nil, fmt.Errorf("pgContestRepository.List scan: %w", err)
		}
		contests = append(contests, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.List rows.Err: %w", err)
	}
	return contests, nil
}

func (r *pgContestRepository) FindByID(ctx context.Context, id string) (*model.Contest, error) {
	c := &model.Contest{}
	err := r.db.QueryRowContext(ctx, contestSelect+` WHERE c.id = $1`, id).Scan(
		&c.ID, &c.Title, &c.Description, &c.StartTime, &c.EndTime, &c.CreatedAt, &c.ParticipantCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contest not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgContestRepository.FindByID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT problem_id FROM contest_problems WHERE contest_id = $1 ORDER BY sort_order ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.FindByID problems: %w", err)
	}
	defer rows.Close()

	c.ProblemIDs = []string{}
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, fmt.Errorf("pgContestRepository.FindByID problems scan: %w", err)
		}
		c.ProblemIDs = append(c.ProblemIDs, pid)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.FindByID problems rows.Err: %w", err)
	}
	return c, nil
}

func (r *pgContestRepository) Register(ctx context.Context, contestID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contest_participants (contest_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (contest_id, user_id) DO NOTHING`, contestID, userID)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return false, fmt.Errorf("contest or user not found: %w", common.ErrNotFound)
		}
		return false, fmt.Errorf("pgContestRepository.Register: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgContestRepository.Register rows: %w", err)
	}
	return n == 1, nil
}
