package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusPendingPayment   RideStatus = "pending_payment"
	RideStatusRequested        RideStatus = "requested"
	RideStatusAccepted         RideStatus = "accepted"
	RideStatusInProgress       RideStatus = "in_progress"
	RideStatusCompleted        RideStatus = "completed"
	RideStatusCanceledByDriver RideStatus = "canceled_by_driver"
	RideStatusCancelledByRider RideStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted out of s.
func (s RideStatus) Terminal() bool {
	switch s {
	case RideStatusCompleted, RideStatusCanceledByDriver, RideStatusCancelledByRider:
		return true
	}
	return false
}

// Ride represents one trip request from creation through terminal resolution.
type Ride struct {
	ID      string
	RiderID string

	// RiderName and RiderPhone are display-only snapshots taken at creation.
	// The users table remains the source of truth.
	RiderName  string
	RiderPhone string

	// DriverID is set if and only if the ride has been accepted.
	DriverID string

	Pickup     string
	Dropoff    string
	PickupLat  float64
	PickupLng  float64
	DropoffLat float64
	DropoffLng float64

	Status RideStatus

	// DistanceKm and DurationMin hold the estimate route at creation and the
	// actual route after completion.
	DistanceKm  float64
	DurationMin int

	// Fare in major currency units. Recomputed at creation (estimate) and
	// again at completion (actual); the two values may legitimately differ.
	Fare int64

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}
