package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"
)

type StoreRepository interface {
	ListItems(ctx context.Context) ([]model.StoreItem, error)
	ListInventory(ctx context.Context, userID string) ([]model.InventoryEntry, error)
	// UpsertCatalog makes the catalog match items, keyed by name, and returns
	// the resulting catalog size. Items dropped from the list are removed
	// unless someone already owns them.
	UpsertCatalog(ctx context.Context, items []model.StoreItem) (int, error)
}

type pgStoreRepository struct {
	db *sql.DB
}

func NewPgStoreRepository(db *sql.DB) StoreRepository {
	return &pgStoreRepository{db: db}
}

const storeItemColumns = `id, name, description, price, type, image, created_at, updated_at`

func findStoreItem(ctx context.Context, q dbtx, id string) (*model.StoreItem, error) {
	item := &model.StoreItem{}
	err := q.QueryRowContext(ctx, `SELECT `+storeItemColumns+` FROM store_items WHERE id = $1`, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Price, &item.Type, &item.Image, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("find store item: %w", err)
	}
	return item, nil
}

func (r *pgStoreRepository) ListItems(ctx context.Context) ([]model.StoreItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+storeItemColumns+` FROM store_items ORDER BY price ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgStoreRepository.ListItems query: %w", err)
	}
	defer rows.Close()

	items := []model.StoreItem{}
	for rows.Next() {
		var it model.StoreItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Type, &it.Image, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgStoreRepository.ListItems scan: %w", err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgStoreRepository.ListItems rows.Err: %w", err)
	}
	return items, nil
}

func (r *pgStoreRepository) ListInventory(ctx context.Context, userID string) ([]model.InventoryEntry, error) {
	query := `SELECT ui.id, ui.purchase_date,
	                 si.id, si.name, si.description, si.price, si.type, si.image, si.created_at, si.updated_at
	          FROM user_inventory ui
	          JOIN store_items si ON si.id = ui.item_id
	          WHERE ui.user_id = $1
	          ORDER BY ui.id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgStoreRepository.ListInventory query: %w", err)
	}
	defer rows.Close()

	entries := []model.InventoryEntry{}
	for rows.Next() {
		var e model.InventoryEntry
		if err := rows.Scan(&e.ID, &e.PurchaseDate,
			&e.Item.ID, &e.Item.Name, &e.Item.Description, &e.Item.Price, &e.Item.Type, &e.Item.Image,
			&e.Item.CreatedAt, &e.Item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgStoreRepository.ListInventory scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgStoreRepository.ListInventory rows.Err: %w", err)
	}
	return entries, nil
}

func (r *pgStoreRepository) UpsertCatalog(ctx context.Context, items []model.StoreItem) (int, error) {
	var count int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO store_items (id, name, description, price, type, image)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO UPDATE SET
				description = EXCLUDED.description,
				price       = EXCLUDED.price,
				type        = EXCLUDED.type,
				image       = EXCLUDED.image,
				updated_at  = now()`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		names := make([]string, 0, len(items))
		for _, it := range items {
			if _, err := stmt.ExecContext(ctx, it.ID, it.Name, it.Description, it.Price, it.Type, it.Image); err != nil {
				return fmt.Errorf("upsert item %q: %w", it.Name, err)
			}
			names = append(names, it.Name)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM store_items si
			WHERE NOT (si.name = ANY($1))
			  AND NOT EXISTS (SELECT 1 FROM user_inventory ui WHERE ui.item_id = si.id)`, names)
		if err != nil {
			return fmt.Errorf("prune stale items: %w", err)
		}

		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM store_items`).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("pgStoreRepository.UpsertCatalog: %w", err)
	}
	return count, nil
}
