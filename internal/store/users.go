package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lbonetti/spesa/internal/model"
)

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role, name string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, name) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if no such user exists.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, name, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username, or nil if no such user exists.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, name, created_at, updated_at
		 FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// CountUsers returns the number of provisioned users.
func CountUsers(ctx context.Context, db *sql.DB) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
