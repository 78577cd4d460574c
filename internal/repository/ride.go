package repository

import (
	"context"
	"time"

	"ridebook/internal/domain"
)

// RideRepository defines the persistence operations for rides.
//
// All status-changing methods are conditional updates: the write succeeds
// only if the ride is still in the expected status at write time, so
// concurrent transitions on the same ride are linearized by the store.
// A guarded method returns ErrConflict when the ride exists but is not in
// the expected status, and ErrNotFound when it does not exist.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// UpdateStatus moves the ride to status to, guarded on the current
	// status being one of from.
	UpdateStatus(ctx context.Context, id string, to domain.RideStatus, from ...domain.RideStatus) error

	// Assign sets the driver and moves requested -> accepted in a single
	// guarded write. Exactly one of two racing drivers can win.
	Assign(ctx context.Context, id, driverID string) error

	// Start moves accepted -> in_progress and records the start time.
	Start(ctx context.Context, id string, startedAt time.Time) error

	// Complete moves in_progress -> completed and records the actual route
	// and finalized fare.
	Complete(ctx context.Context, id string, distanceKm float64, durationMin int, fare int64, completedAt time.Time) error

	// ListByStatus retrieves rides in any of the given statuses, newest first.
	ListByStatus(ctx context.Context, statuses ...domain.RideStatus) ([]*domain.Ride, error)

	// ListByRider retrieves a rider's rides in any of the given statuses.
	ListByRider(ctx context.Context, riderID string, statuses ...domain.RideStatus) ([]*domain.Ride, error)

	// ListByDriver retrieves a driver's rides in any of the given statuses.
	ListByDriver(ctx context.Context, driverID string, statuses ...domain.RideStatus) ([]*domain.Ride, error)

	// CountCompletedByDriver counts a driver's completed rides.
	CountCompletedByDriver(ctx context.Context, driverID string) (int, error)
}
