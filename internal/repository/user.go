package repository

import (
	"context"

	"ridebook/internal/domain"
)

// UserRepository defines the persistence operations for rider accounts.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateProfile updates the mutable profile fields.
	UpdateProfile(ctx context.Context, id, name, phone string) error
}
