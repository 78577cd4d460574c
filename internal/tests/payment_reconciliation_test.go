package tests

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// ──────────────────────────────────────────────
// PAYMENT RECONCILIATION
// ──────────────────────────────────────────────

const testSecret = "test_key_secret"

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type paymentFixture struct {
	rideRepo    *MockRideRepository
	paymentRepo *MockPaymentRepository
	gateway     *MockGateway
	rides       *service.RideService
	payments    *service.PaymentService
}

func newPaymentFixture() *paymentFixture {
	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)
	gateway := NewMockGateway()
	paymentRepo := NewMockPaymentRepository()

	rides := newRideService(rideRepo, userRepo, driverRepo, geocoder)
	payments := service.NewPaymentService(paymentRepo, rides, gateway, testSecret)

	return &paymentFixture{
		rideRepo:    rideRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		rides:       rides,
		payments:    payments,
	}
}

func (f *paymentFixture) addPendingRide(id string, fare int64) {
	f.rideRepo.AddRide(&domain.Ride{
		ID:        id,
		RiderID:   "rider-1",
		Status:    domain.RideStatusPendingPayment,
		Fare:      fare,
		CreatedAt: time.Now(),
	})
}

func TestPayment_CreateOrderPersistsCreatedRow(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()
	f.addPendingRide("ride-1", 100)

	result, err := f.payments.CreateOrder(context.Background(), "rider-1", "ride-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Order.Amount != 10000 {
		t.Errorf("expected gateway amount 10000 paise, got %d", result.Order.Amount)
	}
	if result.Payment.Amount != 100 {
		t.Errorf("expected recorded amount 100, got %d", result.Payment.Amount)
	}
	if result.Payment.Status != domain.PaymentStatusCreated {
		t.Errorf("expected status %s, got %s", domain.PaymentStatusCreated, result.Payment.Status)
	}
	if result.Payment.OrderID != result.Order.ID {
		t.Errorf("payment row must carry the gateway order ID")
	}
}

func TestPayment_VerifyValidSignatureConfirmsRide(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()
	f.addPendingRide("ride-1", 100)
	ctx := context.Background()

	created, err := f.payments.CreateOrder(ctx, "rider-1", "ride-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orderID := created.Order.ID
	result, err := f.payments.VerifyCallback(ctx, orderID, "pay_001", sign(orderID, "pay_001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Payment.Status != domain.PaymentStatusPaid {
		t.Errorf("expected payment status %s, got %s", domain.PaymentStatusPaid, result.Payment.Status)
	}
	if result.Payment.PaymentID != "pay_001" {
		t.Errorf("expected gateway payment ID recorded, got %q", result.Payment.PaymentID)
	}
	if result.RideConflict {
		t.Error("first callback must not report a ride conflict")
	}
	if result.Ride.Status != domain.RideStatusRequested {
		t.Errorf("expected ride status %s, got %s", domain.RideStatusRequested, result.Ride.Status)
	}
}

func TestPayment_VerifyRejectsTamperedSignature(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()
	f.addPendingRide("ride-1", 100)
	ctx := context.Background()

	created, err := f.payments.CreateOrder(ctx, "rider-1", "ride-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orderID := created.Order.ID
	good := sign(orderID, "pay_001")

	// Flip one hex digit.
	tampered := []byte(good)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}

	_, err = f.payments.VerifyCallback(ctx, orderID, "pay_001", string(tampered))
	if !errors.Is(err, service.ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}

	// The failure is durable: the row records the rejected identifiers.
	stored := f.paymentRepo.GetPayment(created.Payment.ID)
	if stored.Status != domain.PaymentStatusFailed {
		t.Errorf("expected payment status %s, got %s", domain.PaymentStatusFailed, stored.Status)
	}
	if stored.PaymentID != "pay_001" {
		t.Errorf("rejected payment ID must be kept for audit, got %q", stored.PaymentID)
	}

	// The ride is untouched, so a correct retry can still succeed.
	ride := f.rideRepo.GetRide("ride-1")
	if ride.Status != domain.RideStatusPendingPayment {
		t.Errorf("expected ride still %s, got %s", domain.RideStatusPendingPayment, ride.Status)
	}
}

func TestPayment_CorrectCallbackSucceedsAfterFailedOne(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()
	f.addPendingRide("ride-1", 100)
	ctx := context.Background()

	created, err := f.payments.CreateOrder(ctx, "rider-1", "ride-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orderID := created.Order.ID

	if _, err := f.payments.VerifyCallback(ctx, orderID, "pay_001", "0deadbeef0"); !errors.Is(err, service.ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}

	result, err := f.payments.VerifyCallback(ctx, orderID, "pay_001", sign(orderID, "pay_001"))
	if err != nil {
		t.Fatalf("retry with valid signature should succeed, got %v", err)
	}
	if result.Payment.Status != domain.PaymentStatusPaid {
		t.Errorf("expected payment status %s, got %s", domain.PaymentStatusPaid, result.Payment.Status)
	}
	if result.Ride.Status != domain.RideStatusRequested {
		t.Errorf("expected ride status %s, got %s", domain.RideStatusRequested, result.Ride.Status)
	}
}

func TestPayment_DuplicateCallbackKeepsPaymentPaid(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()
	f.addPendingRide("ride-1", 100)
	ctx := context.Background()

	created, err := f.payments.CreateOrder(ctx, "rider-1", "ride-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orderID := created.Order.ID
	signature := sign(orderID, "pay_001")

	if _, err := f.payments.VerifyCallback(ctx, orderID, "pay_001", signature); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Gateway retries delivery of the same callback.
	result, err := f.payments.VerifyCallback(ctx, orderID, "pay_001", signature)
	if err != nil {
		t.Fatalf("duplicate callback must not error, got %v", err)
	}
	if !result.RideConflict {
		t.Error("duplicate callback should report the ride conflict")
	}
	if result.Payment.Status != domain.PaymentStatusPaid {
		t.Errorf("expected payment status %s, got %s", domain.PaymentStatusPaid, result.Payment.Status)
	}
	if result.Ride.Status != domain.RideStatusRequested {
		t.Errorf("expected ride status %s, got %s", domain.RideStatusRequested, result.Ride.Status)
	}
}

func TestPayment_VerifyRequiresAllCallbackFields(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()

	_, err := f.payments.VerifyCallback(context.Background(), "order_001", "", "sig")
	if !errors.Is(err, service.ErrMissingCallbackFields) {
		t.Errorf("expected ErrMissingCallbackFields, got %v", err)
	}
	if f.paymentRepo.MarkFailedCallCount != 0 {
		t.Error("incomplete callback must not touch payment rows")
	}
}

func TestPayment_StatusReturnsLatestAttempt(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()
	f.addPendingRide("ride-1", 100)
	ctx := context.Background()

	base := time.Now()
	f.paymentRepo.AddPayment(&domain.Payment{
		ID:        "pmt-1",
		RideID:    "ride-1",
		OrderID:   "order_a",
		Status:    domain.PaymentStatusFailed,
		CreatedAt: base,
	})
	f.paymentRepo.AddPayment(&domain.Payment{
		ID:        "pmt-2",
		RideID:    "ride-1",
		OrderID:   "order_b",
		Status:    domain.PaymentStatusPaid,
		CreatedAt: base.Add(time.Minute),
	})

	latest, err := f.payments.LatestStatus(ctx, "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.ID != "pmt-2" {
		t.Errorf("expected most recent attempt pmt-2, got %s", latest.ID)
	}

	_, err = f.payments.LatestStatus(ctx, "ride-none")
	if !errors.Is(err, service.ErrNoPaymentForRide) {
		t.Errorf("expected ErrNoPaymentForRide, got %v", err)
	}
}

func TestPayment_RefundOnlyOnce(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()

	f.paymentRepo.AddPayment(&domain.Payment{
		ID:        "pmt-1",
		RideID:    "ride-1",
		PaymentID: "pay_001",
		Amount:    100,
		Status:    domain.PaymentStatusPaid,
		CreatedAt: time.Now(),
	})

	ctx := context.Background()
	refund, err := f.payments.Refund(ctx, "pmt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refund.Amount != 10000 {
		t.Errorf("expected refund of 10000 paise, got %d", refund.Amount)
	}

	_, err = f.payments.Refund(ctx, "pmt-1")
	if !errors.Is(err, service.ErrPaymentAlreadyRefunded) {
		t.Errorf("expected ErrPaymentAlreadyRefunded, got %v", err)
	}
	if f.gateway.RefundCallCount != 1 {
		t.Errorf("gateway must be hit exactly once, got %d", f.gateway.RefundCallCount)
	}
}

func TestPayment_RefundRejectsUnpaidPayment(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()

	f.paymentRepo.AddPayment(&domain.Payment{
		ID:        "pmt-1",
		RideID:    "ride-1",
		Status:    domain.PaymentStatusCreated,
		CreatedAt: time.Now(),
	})

	_, err := f.payments.Refund(context.Background(), "pmt-1")
	if !errors.Is(err, service.ErrPaymentNotPaid) {
		t.Errorf("expected ErrPaymentNotPaid, got %v", err)
	}
	if f.gateway.RefundCallCount != 0 {
		t.Error("no gateway refund for an unpaid payment")
	}
}

func TestPayment_CancelWithRefund(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()
	f.addPendingRide("ride-1", 100)
	ctx := context.Background()

	created, err := f.payments.CreateOrder(ctx, "rider-1", "ride-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orderID := created.Order.ID
	if _, err := f.payments.VerifyCallback(ctx, orderID, "pay_001", sign(orderID, "pay_001")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := f.payments.CancelWithRefund(ctx, "rider-1", "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Ride.Status != domain.RideStatusCancelledByRider {
		t.Errorf("expected ride status %s, got %s", domain.RideStatusCancelledByRider, result.Ride.Status)
	}
	if result.Refund == nil || result.Refund.ID == "" {
		t.Error("expected an issued refund")
	}

	stored := f.paymentRepo.GetPayment(created.Payment.ID)
	if stored.Status != domain.PaymentStatusRefunded {
		t.Errorf("expected payment status %s, got %s", domain.PaymentStatusRefunded, stored.Status)
	}
	if stored.RefundID != result.Refund.ID {
		t.Errorf("refund ID must be recorded on the payment row")
	}

	// A second cancel finds no paid payment left to refund.
	_, err = f.payments.CancelWithRefund(ctx, "rider-1", "ride-1")
	if !errors.Is(err, service.ErrNoPaidPayment) {
		t.Errorf("expected ErrNoPaidPayment, got %v", err)
	}
	if f.gateway.RefundCallCount != 1 {
		t.Errorf("gateway must refund exactly once, got %d", f.gateway.RefundCallCount)
	}
}

func TestPayment_CancelRequiresRideOwner(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture()
	f.addPendingRide("ride-1", 100)

	_, err := f.payments.CancelWithRefund(context.Background(), "rider-2", "ride-1")
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
	if f.gateway.RefundCallCount != 0 {
		t.Error("foreign rider must not trigger a refund")
	}
}
