package service

import "errors"

// Validation errors.
var (
	// ErrPickupDropoffRequired is returned when pickup or dropoff is missing.
	ErrPickupDropoffRequired = errors.New("pickup and dropoff location required")

	// ErrMissingCallbackFields is returned when a payment callback lacks
	// order_id, payment_id or signature.
	ErrMissingCallbackFields = errors.New("order_id, payment_id, and signature are required")

	// ErrMissingSignupFields is returned when signup input is incomplete.
	ErrMissingSignupFields = errors.New("name, email, role, and password are required")

	// ErrInvalidRole is returned when the requested role is unknown.
	ErrInvalidRole = errors.New("role must be rider or driver")
)

// Authentication errors.
var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when an account with the email already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// Forbidden errors: the caller's identity does not own the resource.
var (
	// ErrDriverInactive is returned when an inactive driver tries to accept.
	ErrDriverInactive = errors.New("driver not active")

	// ErrNotRideDriver is returned when a driver acts on a ride assigned to
	// someone else.
	ErrNotRideDriver = errors.New("not the driver assigned to this ride")

	// ErrNotRideOwner is returned when a rider acts on another rider's ride.
	ErrNotRideOwner = errors.New("not the rider who requested this ride")
)

// Conflict errors: the transition is illegal in the ride's current state.
var (
	// ErrRideNotPendingPayment is returned when marking paid a ride that has
	// already left pending_payment, e.g. on a duplicate callback.
	ErrRideNotPendingPayment = errors.New("ride not awaiting payment")

	// ErrRideAlreadyAssigned is returned to the loser of an accept race.
	ErrRideAlreadyAssigned = errors.New("ride already assigned")

	// ErrRideNotAccepted is returned when starting a ride not in accepted.
	ErrRideNotAccepted = errors.New("ride not accepted yet")

	// ErrRideNotInProgress is returned when completing a ride not in progress.
	ErrRideNotInProgress = errors.New("ride not in progress")

	// ErrRideNotCancellable is returned when the ride is completed or
	// already cancelled.
	ErrRideNotCancellable = errors.New("ride cannot be cancelled in current state")

	// ErrNoDriverAssigned is returned when the ride has no driver yet.
	ErrNoDriverAssigned = errors.New("no driver assigned yet")

	// ErrNoPaidPayment is returned when a refund is requested for a ride
	// without a successful payment.
	ErrNoPaidPayment = errors.New("no successful payment found for this ride")

	// ErrPaymentAlreadyRefunded is returned when refunding twice.
	ErrPaymentAlreadyRefunded = errors.New("payment already refunded")

	// ErrPaymentNotPaid is returned when refunding a payment that never
	// succeeded.
	ErrPaymentNotPaid = errors.New("payment not in paid status")
)

// ErrNoPaymentForRide is returned when a ride has no payment rows at all.
var ErrNoPaymentForRide = errors.New("no payment found for this ride")

// ErrSignatureMismatch is returned when a payment callback fails
// verification. The failed attempt is still recorded for audit.
var ErrSignatureMismatch = errors.New("payment verification failed (signature mismatch)")

// External collaborator errors. Adapters wrap the underlying cause with %w
// so the boundary can classify without exposing it.
var (
	// ErrGeocoding is returned when an address cannot be resolved.
	ErrGeocoding = errors.New("address could not be resolved")

	// ErrNoRoute is returned when no route exists between two points.
	ErrNoRoute = errors.New("no route found")

	// ErrExternalService is returned on gateway transport failures and
	// timeouts. Retryable by the client, never retried here.
	ErrExternalService = errors.New("external service unavailable")
)
