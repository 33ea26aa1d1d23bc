package user

import (
	"context"
)

// Repository defines persistence operations for users.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Create creates a new user.
	// Returns ErrEmailTaken if the email is already registered.
	Create(ctx context.Context, u *User) error

	// GetByID returns a user by internal ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns a user by email.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ListByRole returns all users with the given role, ordered by name.
	ListByRole(ctx context.Context, role Role) ([]*User, error)
}
