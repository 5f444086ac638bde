// Package account manages user accounts and credential verification.
package account

import "time"

// Role is the closed set of authorization roles. Free-form role strings are
// never compared at call sites; handlers go through RequireRole instead.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account represents a registered user.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MinPasswordLen is the minimum accepted plaintext password length.
const MinPasswordLen = 6
