package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ridebook/internal/config"
	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// ──────────────────────────────────────────────
// RIDE LIFECYCLE
// ──────────────────────────────────────────────

func newRideService(rideRepo *MockRideRepository, userRepo *MockUserRepository, driverRepo *MockDriverRepository, geocoder *MockGeocoder) *service.RideService {
	fares := service.NewFareEstimator(config.FareConfig{BaseFare: 50, PerKmRate: 10})
	return service.NewRideService(rideRepo, userRepo, driverRepo, geocoder, fares)
}

func seedRider(userRepo *MockUserRepository) *domain.User {
	rider := &domain.User{
		ID:    "rider-1",
		Name:  "Asha",
		Phone: "9999900001",
		Email: "asha@example.com",
		Role:  domain.RoleRider,
	}
	userRepo.AddUser(rider)
	return rider
}

func seedDriver(driverRepo *MockDriverRepository, id string, active bool) *domain.Driver {
	driver := &domain.Driver{
		ID:        id,
		Name:      "Ravi",
		Phone:     "9999900002",
		Role:      domain.RoleDriver,
		IsActive:  active,
		VehicleNo: "KA01AB1234",
	}
	driverRepo.AddDriver(driver)
	return driver
}

func TestRide_FullLifecycle(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)
	geocoder.AddAddress("MG Road", service.Coordinate{Lat: 12.975, Lng: 77.605})
	geocoder.AddAddress("Airport", service.Coordinate{Lat: 13.199, Lng: 77.707})

	seedRider(userRepo)
	seedDriver(driverRepo, "driver-1", true)

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)
	ctx := context.Background()

	// Create: estimate route of 5.0 km gives fare 50 + 5*10 = 100.
	ride, err := svc.Create(ctx, service.CreateRideRequest{
		RiderID: "rider-1",
		Pickup:  "MG Road",
		Dropoff: "Airport",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusPendingPayment {
		t.Errorf("expected status %s, got %s", domain.RideStatusPendingPayment, ride.Status)
	}
	if ride.Fare != 100 {
		t.Errorf("expected fare 100, got %d", ride.Fare)
	}
	if ride.RiderName != "Asha" {
		t.Errorf("expected rider name snapshot, got %q", ride.RiderName)
	}

	// Payment confirmation moves pending_payment -> requested.
	ride, err = svc.MarkPaid(ctx, ride.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusRequested {
		t.Errorf("expected status %s, got %s", domain.RideStatusRequested, ride.Status)
	}

	// Driver accepts.
	ride, err = svc.Accept(ctx, "driver-1", ride.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusAccepted {
		t.Errorf("expected status %s, got %s", domain.RideStatusAccepted, ride.Status)
	}
	if ride.DriverID != "driver-1" {
		t.Errorf("expected driver-1 assigned, got %q", ride.DriverID)
	}

	// Driver starts.
	ride, err = svc.Start(ctx, "driver-1", ride.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusInProgress {
		t.Errorf("expected status %s, got %s", domain.RideStatusInProgress, ride.Status)
	}
	if ride.StartedAt.IsZero() {
		t.Error("expected started_at to be recorded")
	}

	// The actual route came out longer than the estimate; the fare is
	// recomputed from it: 50 + 5.4*10 = 104.
	geocoder.SetRoute(5.4, 21)
	ride, err = svc.Complete(ctx, "driver-1", ride.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.RideStatusCompleted, ride.Status)
	}
	if ride.Fare != 104 {
		t.Errorf("expected finalized fare 104, got %d", ride.Fare)
	}
	if ride.DistanceKm != 5.4 {
		t.Errorf("expected actual distance 5.4, got %v", ride.DistanceKm)
	}
	if ride.CompletedAt.IsZero() {
		t.Error("expected completed_at to be recorded")
	}
}

func TestRide_CreateRequiresBothAddresses(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)
	seedRider(userRepo)

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	_, err := svc.Create(context.Background(), service.CreateRideRequest{
		RiderID: "rider-1",
		Pickup:  "MG Road",
	})
	if !errors.Is(err, service.ErrPickupDropoffRequired) {
		t.Errorf("expected ErrPickupDropoffRequired, got %v", err)
	}
	if rideRepo.CreateCallCount != 0 {
		t.Error("no ride should be persisted on validation failure")
	}
}

func TestRide_CreateFailsWhenAddressDoesNotResolve(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)
	geocoder.AddAddress("MG Road", service.Coordinate{Lat: 12.975, Lng: 77.605})
	seedRider(userRepo)

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	_, err := svc.Create(context.Background(), service.CreateRideRequest{
		RiderID: "rider-1",
		Pickup:  "MG Road",
		Dropoff: "nowhere at all",
	})
	if !errors.Is(err, service.ErrGeocoding) {
		t.Errorf("expected ErrGeocoding, got %v", err)
	}
	if rideRepo.CreateCallCount != 0 {
		t.Error("no ride should be persisted when geocoding fails")
	}
}

func TestRide_AcceptRequiresRequestedStatus(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)
	seedDriver(driverRepo, "driver-1", true)

	// Payment has not been confirmed yet.
	rideRepo.AddRide(&domain.Ride{
		ID:      "ride-1",
		RiderID: "rider-1",
		Status:  domain.RideStatusPendingPayment,
	})

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	_, err := svc.Accept(context.Background(), "driver-1", "ride-1")
	if !errors.Is(err, service.ErrRideAlreadyAssigned) {
		t.Errorf("expected ErrRideAlreadyAssigned, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusPendingPayment {
		t.Errorf("failed accept must not change status, got %s", stored.Status)
	}
}

func TestRide_InactiveDriverCannotAccept(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)
	seedDriver(driverRepo, "driver-1", false)

	rideRepo.AddRide(&domain.Ride{
		ID:      "ride-1",
		RiderID: "rider-1",
		Status:  domain.RideStatusRequested,
	})

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	_, err := svc.Accept(context.Background(), "driver-1", "ride-1")
	if !errors.Is(err, service.ErrDriverInactive) {
		t.Errorf("expected ErrDriverInactive, got %v", err)
	}
	if rideRepo.AssignCallCount != 0 {
		t.Error("inactive driver must be rejected before the assignment write")
	}
}

func TestRide_ConcurrentAcceptExactlyOneWinner(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)

	const drivers = 8
	for i := 0; i < drivers; i++ {
		seedDriver(driverRepo, driverID(i), true)
	}

	rideRepo.AddRide(&domain.Ride{
		ID:      "ride-1",
		RiderID: "rider-1",
		Status:  domain.RideStatusRequested,
	})

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	var wg sync.WaitGroup
	errs := make([]error, drivers)
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Accept(context.Background(), driverID(i), "ride-1")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, service.ErrRideAlreadyAssigned):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusAccepted {
		t.Errorf("expected status %s, got %s", domain.RideStatusAccepted, stored.Status)
	}
	if stored.DriverID == "" {
		t.Error("winner's driver ID must be recorded")
	}
}

func TestRide_OnlyAssignedDriverCanStart(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)

	rideRepo.AddRide(&domain.Ride{
		ID:       "ride-1",
		RiderID:  "rider-1",
		DriverID: "driver-1",
		Status:   domain.RideStatusAccepted,
	})

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	_, err := svc.Start(context.Background(), "driver-2", "ride-1")
	if !errors.Is(err, service.ErrNotRideDriver) {
		t.Errorf("expected ErrNotRideDriver, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusAccepted {
		t.Errorf("foreign driver must not change status, got %s", stored.Status)
	}
}

func TestRide_CompleteRequiresInProgress(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)

	rideRepo.AddRide(&domain.Ride{
		ID:       "ride-1",
		RiderID:  "rider-1",
		DriverID: "driver-1",
		Status:   domain.RideStatusAccepted,
	})

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	_, err := svc.Complete(context.Background(), "driver-1", "ride-1")
	if !errors.Is(err, service.ErrRideNotInProgress) {
		t.Errorf("expected ErrRideNotInProgress, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusAccepted {
		t.Errorf("failed complete must not change status, got %s", stored.Status)
	}
}

func TestRide_TerminalStatesRejectAllTransitions(t *testing.T) {
	t.Parallel()

	terminal := []domain.RideStatus{
		domain.RideStatusCompleted,
		domain.RideStatusCanceledByDriver,
		domain.RideStatusCancelledByRider,
	}

	for _, status := range terminal {
		rideRepo := NewMockRideRepository()
		userRepo := NewMockUserRepository()
		driverRepo := NewMockDriverRepository()
		geocoder := NewMockGeocoder(5.0, 18)
		seedDriver(driverRepo, "driver-1", true)

		rideRepo.AddRide(&domain.Ride{
			ID:       "ride-1",
			RiderID:  "rider-1",
			DriverID: "driver-1",
			Status:   status,
		})

		svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)
		ctx := context.Background()

		if _, err := svc.MarkPaid(ctx, "ride-1"); err == nil {
			t.Errorf("%s: mark-paid should fail", status)
		}
		if _, err := svc.Accept(ctx, "driver-1", "ride-1"); err == nil {
			t.Errorf("%s: accept should fail", status)
		}
		if _, err := svc.Start(ctx, "driver-1", "ride-1"); err == nil {
			t.Errorf("%s: start should fail", status)
		}
		if _, err := svc.Complete(ctx, "driver-1", "ride-1"); err == nil {
			t.Errorf("%s: complete should fail", status)
		}
		if _, err := svc.CancelByDriver(ctx, "driver-1", "ride-1"); !errors.Is(err, service.ErrRideNotCancellable) {
			t.Errorf("%s: expected ErrRideNotCancellable, got %v", status, err)
		}
		if _, err := svc.CancelByRider(ctx, "ride-1"); !errors.Is(err, service.ErrRideNotCancellable) {
			t.Errorf("%s: expected ErrRideNotCancellable, got %v", status, err)
		}

		if stored := rideRepo.GetRide("ride-1"); stored.Status != status {
			t.Errorf("terminal ride mutated from %s to %s", status, stored.Status)
		}
	}
}

func TestRide_DriverCancelOnlyFromAcceptedOrInProgress(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)

	rideRepo.AddRide(&domain.Ride{
		ID:       "ride-1",
		RiderID:  "rider-1",
		DriverID: "driver-1",
		Status:   domain.RideStatusInProgress,
	})

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	ride, err := svc.CancelByDriver(context.Background(), "driver-1", "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusCanceledByDriver {
		t.Errorf("expected status %s, got %s", domain.RideStatusCanceledByDriver, ride.Status)
	}
}

func TestRide_AvailableListEmptyForInactiveDriver(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	geocoder := NewMockGeocoder(5.0, 18)
	seedDriver(driverRepo, "driver-1", false)

	rideRepo.AddRide(&domain.Ride{
		ID:      "ride-1",
		RiderID: "rider-1",
		Status:  domain.RideStatusRequested,
	})

	svc := newRideService(rideRepo, userRepo, driverRepo, geocoder)

	rides, err := svc.AvailableRides(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rides) != 0 {
		t.Errorf("inactive driver should see no rides, got %d", len(rides))
	}
}

func driverID(i int) string {
	return "driver-" + string(rune('a'+i))
}
