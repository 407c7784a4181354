package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codearena/internal/common"
	"codearena/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// RecordLogin sets last_login and appends to the login history atomically.
	RecordLogin(ctx context.Context, userID string, at time.Time) error
	RecentLogins(ctx context.Context, userID string, limit int) ([]model.LoginRecord, error)
	CountSolved(ctx context.Context, userID string) (int, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, email, hashed_password, role, points, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	user := &model.User{}
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.Role,
		&user.Points, &lastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, hashed_password, role)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING points, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Username, user.Email, user.HashedPassword, user.Role).
		Scan(&user.Points, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", common.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.findOne(ctx, "email", email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, err
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := r.findOne(ctx, "username", username)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("pgUserRepository.FindByUsername: %w", err)
	}
	return user, err
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := r.findOne(ctx, "id", id)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, err
}

func (r *pgUserRepository) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET last_login = $2, updated_at = now() WHERE id = $1`, userID, at)
		if err != nil {
			return fmt.Errorf("pgUserRepository.RecordLogin update: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("user not found: %w", common.ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_logins (user_id, logged_in_at) VALUES ($1, $2)`, userID, at); err != nil {
			return fmt.Errorf("pgUserRepository.RecordLogin history: %w", err)
		}
		return nil
	})
}

func (r *pgUserRepository) RecentLogins(ctx context.Context, userID string, limit int) ([]model.LoginRecord, error) {
	query := `SELECT id, user_id, logged_in_at FROM user_logins
	          WHERE user_id = $1 ORDER BY logged_in_at DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.RecentLogins query: %w", err)
	}
	defer rows.Close()

	logins := []model.LoginRecord{}
	for rows.Next() {
		var l model.LoginRecord
		if err := rows.Scan(&l.ID, &l.UserID, &l.LoggedInAt); err != nil {
			return nil, fmt.Errorf("pgUserRepository.RecentLogins scan: %w", err)
		}
		logins = append(logins, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.RecentLogins rows.Err: %w", err)
	}
	return logins, nil
}

func (r *pgUserRepository) CountSolved(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_solved_problems WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pgUserRepository.CountSolved: %w", err)
	}
	return n, nil
}
