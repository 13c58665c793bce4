package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lbonetti/spesa/internal/model"
)

const entryCols = `sl.id, sl.name, sl.quantity, sl.notes, sl.added_by_user_id,
	u.name, sl.is_purchased, sl.created_at, sl.updated_at`

func scanEntry(scanner interface{ Scan(...any) error }) (*model.Entry, error) {
	var e model.Entry
	var notes sql.NullString
	err := scanner.Scan(&e.ID, &e.Name, &e.Quantity, &notes, &e.AddedByID,
		&e.AddedBy, &e.IsPurchased, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Notes = notes.String
	return &e, nil
}

// ListEntries returns the shared list joined with each adder's display name,
// unpurchased first, newest first within each group.
func ListEntries(ctx context.Context, db *sql.DB) ([]model.Entry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+entryCols+`
		 FROM shopping_list sl
		 JOIN users u ON u.id = sl.added_by_user_id
		 ORDER BY sl.is_purchased ASC, sl.created_at DESC, sl.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// GetEntry returns a list entry by ID joined with the adder's display name,
// or nil if no such entry exists.
func GetEntry(ctx context.Context, db *sql.DB, id int64) (*model.Entry, error) {
	e, err := scanEntry(db.QueryRowContext(ctx,
		`SELECT `+entryCols+`
		 FROM shopping_list sl
		 JOIN users u ON u.id = sl.added_by_user_id
		 WHERE sl.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	return e, nil
}

// CreateEntry adds a list entry on behalf of userID. The partial unique index
// on unpurchased names makes a duplicate open entry fail; callers check with
// IsUniqueViolation.
func CreateEntry(ctx context.Context, db *sql.DB, name, quantity, notes string, userID int64) (*model.Entry, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO shopping_list (name, quantity, notes, added_by_user_id) VALUES (?, ?, ?, ?)`,
		name, quantity, notes, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting entry id: %w", err)
	}

	return GetEntry(ctx, db, id)
}

// DeleteEntry physically removes a list entry. It reports whether a row was
// actually deleted.
func DeleteEntry(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM shopping_list WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting entry: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting entry: %w", err)
	}
	return n > 0, nil
}

// SetEntryPurchased updates an entry's purchased flag and bumps its
// modification timestamp. It reports whether a matching row existed.
func SetEntryPurchased(ctx context.Context, db *sql.DB, id int64, purchased bool) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE shopping_list SET is_purchased = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		purchased, id,
	)
	if err != nil {
		return false, fmt.Errorf("updating entry: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating entry: %w", err)
	}
	return n > 0, nil
}
