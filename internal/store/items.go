package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lbonetti/spesa/internal/model"
)

// CreateItem adds a catalog item. The unique index on name makes a duplicate
// insert fail; callers check with IsUniqueViolation.
func CreateItem(ctx context.Context, db *sql.DB, name, category string) (*model.AvailableItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO available_items (name, category) VALUES (?, ?)`,
		name, category,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns a catalog item by ID, or nil if no such item exists.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.AvailableItem, error) {
	item := &model.AvailableItem{}
	var category sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, category, created_at FROM available_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &category, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Category = category.String
	return item, nil
}

// ListItems returns the full catalog sorted by category, then name.
func ListItems(ctx context.Context, db *sql.DB) ([]model.AvailableItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, category, created_at FROM available_items ORDER BY category, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.AvailableItem
	for rows.Next() {
		var item model.AvailableItem
		var category sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &category, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Category = category.String
		items = append(items, item)
	}
	return items, rows.Err()
}
