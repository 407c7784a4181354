package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"
)

// LedgerRepository owns every write to users.points. Each method is a single
// transaction that also appends the matching point event.
type LedgerRepository interface {
	AddPoints(ctx context.Context, userID string, amount int, reason, referenceID string) (int, error)
	// CreditSolve adds problemID to the user's solved set and, only if it was
	// absent, awards the given points. It reports whether anything changed.
	CreditSolve(ctx context.Context, userID, problemID string, award int) (bool, int, error)
	DebitForPurchase(ctx context.Context, userID, itemID string) (*model.Purchase, error)
	ListEvents(ctx context.Context, userID string, limit int) ([]model.PointEvent, error)
}

type pgLedgerRepository struct {
	db *sql.DB
}

func NewPgLedgerRepository(db *sql.DB) LedgerRepository {
	return &pgLedgerRepository{db: db}
}

func insertPointEvent(ctx context.Context, q dbtx, userID string, delta int, reason, referenceID string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO point_events (user_id, delta, reason, reference_id) VALUES ($1, $2, $3, $4)`,
		userID, delta, reason, referenceID)
	if err != nil {
		return fmt.Errorf("insert point event: %w", err)
	}
	return nil
}

func incrementPoints(ctx context.Context, q dbtx, userID string, amount int) (int, error) {
	var balance int
	err := q.QueryRowContext(ctx,
		`UPDATE users SET points = points + $2, updated_at = now() WHERE id = $1 RETURNING points`,
		userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("user not found: %w", common.ErrNotFound)
		}
		return 0, fmt.Errorf("increment points: %w", err)
	}
	return balance, nil
}

func (r *pgLedgerRepository) AddPoints(ctx context.Context, userID string, amount int, reason, referenceID string) (int, error) {
	var balance int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		if balance, err = incrementPoints(ctx, tx, userID, amount); err != nil {
			return err
		}
		return insertPointEvent(ctx, tx, userID, amount, reason, referenceID)
	})
	if err != nil {
		return 0, fmt.Errorf("pgLedgerRepository.AddPoints: %w", err)
	}
	return balance, nil
}

func (r *pgLedgerRepository) CreditSolve(ctx context.Context, userID, problemID string, award int) (bool, int, error) {
	var (
		credited bool
		balance  int
	)
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		// Concurrent inserts of the same pair serialize on the primary key;
		// the loser sees zero rows affected.
		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_solved_problems (user_id, problem_id) VALUES ($1, $2)
			 ON CONFLICT (user_id, problem_id) DO NOTHING`, userID, problemID)
		if err != nil {
			if common.IsForeignKeyViolation(err) {
				return fmt.Errorf("user or problem not found: %w", common.ErrNotFound)
			}
			return fmt.Errorf("mark solved: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark solved rows: %w", err)
		}

		if n == 0 {
			err := tx.QueryRowContext(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&balance)
			if err != nil {
				return fmt.Errorf("read balance: %w", err)
			}
			return nil
		}

		credited = true
		if balance, err = incrementPoints(ctx, tx, userID, award); err != nil {
			return err
		}
		return insertPointEvent(ctx, tx, userID, award, model.PointReasonSolve, problemID)
	})
	if err != nil {
		return false, 0, fmt.Errorf("pgLedgerRepository.CreditSolve: %w", err)
	}
	return credited, balance, nil
}

func (r *pgLedgerRepository) DebitForPurchase(ctx context.Context, userID, itemID string) (*model.Purchase, error) {
	purchase := &model.Purchase{}
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		item, err := findStoreItem(ctx, tx, itemID)
		if err != nil {
			return err
		}

		// The balance check and debit are one conditional statement so a
		// concurrent award or purchase cannot interleave.
		err = tx.QueryRowContext(ctx,
			`UPDATE users SET points = points - $2, updated_at = now()
			 WHERE id = $1 AND points >= $2 RETURNING points`,
			userID, item.Price).Scan(&purchase.Points)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
				return fmt.Errorf("check user: %w", err)
			}
			if !exists {
				return fmt.Errorf("user not found: %w", common.ErrNotFound)
			}
			return fmt.Errorf("%s costs %d points: %w", item.Name, item.Price, common.ErrInsufficientFunds)
		}
		if err != nil {
			return fmt.Errorf("debit points: %w", err)
		}

		purchase.Entry.Item = *item
		err = tx.QueryRowContext(ctx,
			`INSERT INTO user_inventory (user_id, item_id) VALUES ($1, $2) RETURNING id, purchase_date`,
			userID, item.ID).Scan(&purchase.Entry.ID, &purchase.Entry.PurchaseDate)
		if err != nil {
			return fmt.Errorf("append inventory: %w", err)
		}

		return insertPointEvent(ctx, tx, userID, -item.Price, model.PointReasonPurchase, item.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.DebitForPurchase: %w", err)
	}
	return purchase, nil
}

func (r *pgLedgerRepository) ListEvents(ctx context.Context, userID string, limit int) ([]model.PointEvent, error) {
	query := `SELECT id, user_id, delta, reason, reference_id, created_at
	          FROM point_events WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.ListEvents query: %w", err)
	}
	defer rows.Close()

	events := []model.PointEvent{}
	for rows.Next() {
		var e model.PointEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.Reason, &e.ReferenceID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgLedgerRepository.ListEvents scan: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.ListEvents rows.Err: %w", err)
	}
	return events, nil
}
