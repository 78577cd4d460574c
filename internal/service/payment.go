package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

const defaultCurrency = "INR"

// GatewayOrder is a gateway-side order representing a pending charge.
type GatewayOrder struct {
	ID string

	// Amount in minor currency units, as the gateway reports it.
	Amount   int64
	Currency string
	Receipt  string
}

// PaymentGateway is the interface for the payment provider.
type PaymentGateway interface {
	// CreateOrder opens an order for amount (major units) and returns the
	// gateway order.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)

	// Refund issues a refund for a captured payment, for amount in major
	// units.
	Refund(ctx context.Context, gatewayPaymentID string, amount int64) (*domain.Refund, error)
}

// RideLifecycle is the slice of the ride engine the reconciliation flow
// drives. This interface allows for testing with mock implementations.
type RideLifecycle interface {
	Get(ctx context.Context, rideID string) (*domain.Ride, error)
	MarkPaid(ctx context.Context, rideID string) (*domain.Ride, error)
	CancelByRider(ctx context.Context, rideID string) (*domain.Ride, error)
}

// Ensure RideService implements RideLifecycle.
var _ RideLifecycle = (*RideService)(nil)

// PaymentService reconciles gateway payments with ride state: it creates
// payment intents, verifies callbacks, and propagates outcomes into the
// ride lifecycle. Payment success and ride-status success are tracked
// independently; a duplicate callback never corrupts either record.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	rides       RideLifecycle
	gateway     PaymentGateway
	secret      []byte
}

// NewPaymentService creates a new PaymentService. secret is the gateway key
// used to verify callback signatures.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	rides RideLifecycle,
	gateway PaymentGateway,
	secret string,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		rides:       rides,
		gateway:     gateway,
		secret:      []byte(secret),
	}
}

// CreateOrderResult contains the gateway order and the persisted payment.
type CreateOrderResult struct {
	Order   *GatewayOrder
	Payment *domain.Payment
}

// CreateOrder reads the ride's current fare, opens a gateway order for it,
// and persists a payment row in status created.
func (s *PaymentService) CreateOrder(ctx context.Context, userID, rideID, currency string) (*CreateOrderResult, error) {
	ride, err := s.rides.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if currency == "" {
		currency = defaultCurrency
	}

	order, err := s.gateway.CreateOrder(ctx, ride.Fare, currency, rideID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:        uuid.New().String(),
		RideID:    rideID,
		UserID:    userID,
		Amount:    ride.Fare,
		Currency:  order.Currency,
		OrderID:   order.ID,
		Status:    domain.PaymentStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &CreateOrderResult{Order: order, Payment: payment}, nil
}

// VerifyResult contains the reconciled payment and ride after a callback.
type VerifyResult struct {
	Payment *domain.Payment
	Ride    *domain.Ride

	// RideConflict is set when the payment verified but the ride had
	// already left pending_payment, e.g. on a duplicate callback. The
	// payment stays paid; the conflict is a warning, not a failure.
	RideConflict bool
}

// VerifyCallback checks the callback signature before any state mutation.
// On mismatch the payment is recorded failed with the received identifiers
// (a durable audit trail; the ride stays pending_payment so a correct
// callback can still succeed). On match the payment is recorded paid and
// the ride is driven to requested.
func (s *PaymentService) VerifyCallback(ctx context.Context, orderID, paymentID, signature string) (*VerifyResult, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, ErrMissingCallbackFields
	}

	expected := s.expectedSignature(orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		err := s.paymentRepo.MarkFailed(ctx, orderID, paymentID, signature)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, ErrSignatureMismatch
	}

	if err := s.paymentRepo.MarkPaid(ctx, orderID, paymentID, signature); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Payment: payment}

	ride, err := s.rides.MarkPaid(ctx, payment.RideID)
	if err != nil {
		if !errors.Is(err, ErrRideNotPendingPayment) {
			return nil, err
		}
		// Duplicate callback: the payment is paid either way.
		result.RideConflict = true
		ride, err = s.rides.Get(ctx, payment.RideID)
		if err != nil {
			return nil, err
		}
	}

	result.Ride = ride
	return result, nil
}

// LatestStatus returns the most recently created payment for a ride.
func (s *PaymentService) LatestStatus(ctx context.Context, rideID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.LatestByRide(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPaymentForRide
		}
		return nil, err
	}
	return payment, nil
}

// Refund issues a gateway refund for a paid payment. Idempotent: an
// already-refunded payment yields ErrPaymentAlreadyRefunded rather than a
// duplicate refund.
func (s *PaymentService) Refund(ctx context.Context, paymentID string) (*domain.Refund, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case domain.PaymentStatusRefunded:
		return nil, ErrPaymentAlreadyRefunded
	case domain.PaymentStatusPaid:
	default:
		return nil, ErrPaymentNotPaid
	}

	refund, err := s.gateway.Refund(ctx, payment.PaymentID, payment.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.MarkRefunded(ctx, payment.ID, refund.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrPaymentAlreadyRefunded
		}
		return nil, err
	}

	return refund, nil
}

// CancelResult contains the cancelled ride and the issued refund.
type CancelResult struct {
	Ride   *domain.Ride
	Refund *domain.Refund
}

// CancelWithRefund cancels a ride on the rider's behalf and refunds its
// paid payment. A second call finds no paid payment and yields
// ErrNoPaidPayment, so the refund is issued at most once per ride.
func (s *PaymentService) CancelWithRefund(ctx context.Context, riderID, rideID string) (*CancelResult, error) {
	ride, err := s.rides.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.RiderID != riderID {
		return nil, ErrNotRideOwner
	}

	payment, err := s.paymentRepo.PaidByRide(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPaidPayment
		}
		return nil, err
	}

	refund, err := s.gateway.Refund(ctx, payment.PaymentID, payment.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.MarkRefunded(ctx, payment.ID, refund.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrPaymentAlreadyRefunded
		}
		return nil, err
	}

	ride, err = s.rides.CancelByRider(ctx, rideID)
	if err != nil {
		return nil, err
	}

	return &CancelResult{Ride: ride, Refund: refund}, nil
}

// expectedSignature computes HMAC-SHA256(secret, orderID + "|" + paymentID)
// in hex, the scheme the gateway signs callbacks with.
func (s *PaymentService) expectedSignature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
