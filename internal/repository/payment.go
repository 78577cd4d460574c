package repository

import (
	"context"

	"ridebook/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
// Payment rows are never deleted; refunds are guarded updates.
type PaymentRepository interface {
	// Create persists a new payment in status created.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByOrderID retrieves a payment by its gateway order ID.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)

	// LatestByRide retrieves the most recently created payment for a ride.
	// Returns ErrNotFound when the ride has no payment rows.
	LatestByRide(ctx context.Context, rideID string) (*domain.Payment, error)

	// PaidByRide retrieves the ride's payment in status paid.
	// Returns ErrNotFound when no successful payment exists.
	PaidByRide(ctx context.Context, rideID string) (*domain.Payment, error)

	// MarkPaid records a verified callback: status paid plus the gateway
	// payment ID and signature, keyed by order ID.
	MarkPaid(ctx context.Context, orderID, paymentID, signature string) error

	// MarkFailed records a rejected callback with the received identifiers,
	// keyed by order ID. The row is kept as an audit trail.
	MarkFailed(ctx context.Context, orderID, paymentID, signature string) error

	// MarkRefunded moves paid -> refunded and records the gateway refund ID.
	// Returns ErrConflict when the payment is not in status paid, so a
	// duplicate refund can never be issued.
	MarkRefunded(ctx context.Context, id, refundID string) error
}
