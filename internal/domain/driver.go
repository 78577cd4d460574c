package domain

import "time"

// Driver represents a driver account.
type Driver struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         Role
	PasswordHash string

	// IsActive reports whether the driver is currently accepting rides.
	IsActive bool

	VehicleNo    string
	VehicleModel string

	CreatedAt time.Time
}
