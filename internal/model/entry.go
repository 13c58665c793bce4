package model

import "time"

// Entry is a row on the shared shopping list. It is owned by the user who
// added it but any authenticated user may toggle or delete it.
type Entry struct {
	ID          int64
	Name        string
	Quantity    string
	Notes       string
	AddedByID   int64
	AddedBy     string // display name of the adding user, filled by the join
	IsPurchased bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
