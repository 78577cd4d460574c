package repository

import (
	"context"

	"ridebook/internal/domain"
)

// DriverProfileUpdate carries the mutable driver profile fields. Nil
// pointers leave the stored value unchanged.
type DriverProfileUpdate struct {
	Name         string
	Phone        string
	IsActive     *bool
	VehicleNo    *string
	VehicleModel *string
}

// DriverRepository defines the persistence operations for driver accounts.
type DriverRepository interface {
	// Create persists a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByEmail retrieves a driver by email.
	GetByEmail(ctx context.Context, email string) (*domain.Driver, error)

	// UpdateProfile updates the mutable profile fields.
	UpdateProfile(ctx context.Context, id string, update DriverProfileUpdate) error
}
