package model

import "time"

// AvailableItem is a catalog entry: a grocery the restaurant knows it can buy.
// Employees read the catalog, only admins extend it.
type AvailableItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}
