package store

import "strings"

// IsUniqueViolation reports whether err is a SQLite unique-constraint
// violation. Duplicate races resolve here: the loser's insert fails with
// this error and the handler maps it to a conflict response.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
