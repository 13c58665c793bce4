package model

import "time"

// User represents an employee account. Accounts are provisioned at bootstrap;
// there is no self-registration.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Roles. Admins may extend the catalog; everyone else is an employee.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// IsAdmin reports whether the user may perform catalog writes.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
