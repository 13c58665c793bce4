package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// maxOpenConns bounds the shared connection pool. Requests past the limit
// queue on the pool rather than fail.
const maxOpenConns = 10

// Open opens a SQLite database connection and configures pragmas.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set pragmas for performance and correctness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	db.SetMaxOpenConns(maxOpenConns)

	return db, nil
}
