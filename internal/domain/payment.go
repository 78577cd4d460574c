package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment represents one payment attempt for a ride. Rows are never deleted;
// the most recently created row per ride is the authoritative attempt.
type Payment struct {
	ID     string
	RideID string
	UserID string

	// Amount in major currency units, equal to the ride's fare at
	// order-creation time. Gateway calls convert to minor units.
	Amount   int64
	Currency string

	// OrderID is assigned by the gateway at order creation.
	OrderID string

	// PaymentID and Signature arrive with the gateway callback and are
	// recorded even on verification failure, for audit.
	PaymentID string
	Signature string

	Status PaymentStatus

	// RefundID is present only after a refund has been issued.
	RefundID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Refund represents a gateway-issued refund for a paid payment.
type Refund struct {
	ID     string
	Status string

	// Amount in minor currency units, as reported by the gateway.
	Amount int64
}
