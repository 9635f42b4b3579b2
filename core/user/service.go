package user

import (
	"errors"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

// Repository is the directory of known accounts.
type Repository interface {
	// Add inserts usr or replaces the account with the same ID.
	Add(usr User) (User, error)
	GetByID(id string) (User, error)
	// GetByEmail matches email case-insensitively.
	GetByEmail(email string) (User, error)
	// FirstWithRole returns the first account (by ID) holding role.
	FirstWithRole(role Role) (User, error)
	// Filter returns the accounts with role whose name or email contain search (case-insensitive).
	// An empty role matches every role.
	Filter(role Role, search string) ([]User, error)
}
