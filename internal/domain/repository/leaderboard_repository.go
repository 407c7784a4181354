package repository

import (
	"context"
	"database/sql"
	"fmt"

	"codearena/internal/domain/model"
)

type LeaderboardRepository interface {
	Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type pgLeaderboardRepository struct {
	db *sql.DB
}

func NewPgLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &pgLeaderboardRepository{db: db}
}

// Top ranks users by points, then solved count. Exact ties fall back to
// account age and id so the order is deterministic.
func (r *pgLeaderboardRepository) Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `
		SELECT u.id, u.username, u.points, COALESCE(s.solved, 0) AS solved_count, u.last_login, u.created_at
		FROM users u
		LEFT JOIN (
			SELECT user_id, COUNT(*) AS solved FROM user_solved_problems GROUP BY user_id
		) s ON s.user_id = u.id
		ORDER BY u.points DESC, solved_count DESC, u.created_at ASC, u.id ASC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.Top query: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var (
			e         model.LeaderboardEntry
			lastLogin sql.NullTime
		)
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.SolvedCount, &lastLogin, &e.JoinedAt); err != nil {
			return nil, fmt.Errorf("pgLeaderboardRepository.Top scan: %w", err)
		}
		if lastLogin.Valid {
			t := lastLogin.Time
			e.LastLogin = &t
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.Top rows.Err: %w", err)
	}
	return entries, nil
}
