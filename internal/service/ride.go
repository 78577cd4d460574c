package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Route is a routable path between two coordinates.
type Route struct {
	DistanceKm  float64
	DurationMin int
}

// Geocoder is the interface for the geocoding/routing gateway. Both calls
// are slow, fallible network calls; implementations apply bounded timeouts.
type Geocoder interface {
	// ResolveAddress converts free-form address text to coordinates.
	// Returns ErrGeocoding when no match exists.
	ResolveAddress(ctx context.Context, address string) (Coordinate, error)

	// RouteDistance returns the driving route between two points.
	// Returns ErrNoRoute when no route exists.
	RouteDistance(ctx context.Context, origin, destination Coordinate) (Route, error)
}

// RideService enforces the ride lifecycle state machine:
//
//	pending_payment -> requested -> accepted -> in_progress -> completed
//
// with a cancellation branch out of every non-terminal state. Transitions go
// through status-guarded repository writes, so concurrent attempts on the
// same ride are linearized by the store rather than by locks.
type RideService struct {
	rideRepo   repository.RideRepository
	userRepo   repository.UserRepository
	driverRepo repository.DriverRepository
	geocoder   Geocoder
	fares      *FareEstimator
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	driverRepo repository.DriverRepository,
	geocoder Geocoder,
	fares *FareEstimator,
) *RideService {
	return &RideService{
		rideRepo:   rideRepo,
		userRepo:   userRepo,
		driverRepo: driverRepo,
		geocoder:   geocoder,
		fares:      fares,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	RiderID string
	Pickup  string
	Dropoff string
}

// Create resolves both addresses, computes the estimate route and fare, and
// persists a new ride in pending_payment. The rider's name and phone are
// snapshotted onto the ride for display only.
func (s *RideService) Create(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if req.Pickup == "" || req.Dropoff == "" {
		return nil, ErrPickupDropoffRequired
	}

	rider, err := s.userRepo.GetByID(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}

	pickupCoords, err := s.geocoder.ResolveAddress(ctx, req.Pickup)
	if err != nil {
		return nil, err
	}

	dropoffCoords, err := s.geocoder.ResolveAddress(ctx, req.Dropoff)
	if err != nil {
		return nil, err
	}

	route, err := s.geocoder.RouteDistance(ctx, pickupCoords, dropoffCoords)
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:          uuid.New().String(),
		RiderID:     rider.ID,
		RiderName:   rider.Name,
		RiderPhone:  rider.Phone,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		PickupLat:   pickupCoords.Lat,
		PickupLng:   pickupCoords.Lng,
		DropoffLat:  dropoffCoords.Lat,
		DropoffLng:  dropoffCoords.Lng,
		Status:      domain.RideStatusPendingPayment,
		DistanceKm:  route.DistanceKm,
		DurationMin: route.DurationMin,
		Fare:        s.fares.Fare(route.DistanceKm),
		CreatedAt:   time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

// Get retrieves a ride by ID.
func (s *RideService) Get(ctx context.Context, rideID string) (*domain.Ride, error) {
	return s.rideRepo.GetByID(ctx, rideID)
}

// MarkPaid moves pending_payment -> requested. Invoked only by the payment
// reconciliation flow after signature verification; a duplicate callback
// finds the ride already requested and gets ErrRideNotPendingPayment.
func (s *RideService) MarkPaid(ctx context.Context, rideID string) (*domain.Ride, error) {
	err := s.rideRepo.UpdateStatus(ctx, rideID, domain.RideStatusRequested, domain.RideStatusPendingPayment)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRideNotPendingPayment
		}
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, rideID)
}

// Accept assigns the driver and moves requested -> accepted. The assignment
// is a single conditional write: when two drivers race, the loser's update
// matches zero rows and surfaces ErrRideAlreadyAssigned.
func (s *RideService) Accept(ctx context.Context, driverID, rideID string) (*domain.Ride, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if !driver.IsActive {
		return nil, ErrDriverInactive
	}

	if err := s.rideRepo.Assign(ctx, rideID, driver.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRideAlreadyAssigned
		}
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, rideID)
}

// Start moves accepted -> in_progress and records the start time. Only the
// assigned driver may start the ride.
func (s *RideService) Start(ctx context.Context, driverID, rideID string) (*domain.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.DriverID != driverID {
		return nil, ErrNotRideDriver
	}

	if err := s.rideRepo.Start(ctx, rideID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRideNotAccepted
		}
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, rideID)
}

// Complete recomputes distance, duration and fare from the actual route
// between the recorded coordinates, then moves in_progress -> completed.
// The finalized fare may differ from the estimate taken at creation.
func (s *RideService) Complete(ctx context.Context, driverID, rideID string) (*domain.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.DriverID != driverID {
		return nil, ErrNotRideDriver
	}

	route, err := s.geocoder.RouteDistance(ctx,
		Coordinate{Lat: ride.PickupLat, Lng: ride.PickupLng},
		Coordinate{Lat: ride.DropoffLat, Lng: ride.DropoffLng},
	)
	if err != nil {
		return nil, err
	}

	fare := s.fares.Fare(route.DistanceKm)

	err = s.rideRepo.Complete(ctx, rideID, route.DistanceKm, route.DurationMin, fare, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRideNotInProgress
		}
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, rideID)
}

// CancelByDriver moves the driver's own non-terminal ride to
// canceled_by_driver.
func (s *RideService) CancelByDriver(ctx context.Context, driverID, rideID string) (*domain.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.DriverID != driverID {
		return nil, ErrNotRideDriver
	}

	err = s.rideRepo.UpdateStatus(ctx, rideID, domain.RideStatusCanceledByDriver,
		domain.RideStatusAccepted, domain.RideStatusInProgress)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRideNotCancellable
		}
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, rideID)
}

// CancelByRider moves a non-terminal ride to cancelled. Invoked by the
// payment reconciliation flow after the refund has been secured.
func (s *RideService) CancelByRider(ctx context.Context, rideID string) (*domain.Ride, error) {
	err := s.rideRepo.UpdateStatus(ctx, rideID, domain.RideStatusCancelledByRider,
		domain.RideStatusPendingPayment, domain.RideStatusRequested,
		domain.RideStatusAccepted, domain.RideStatusInProgress)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRideNotCancellable
		}
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, rideID)
}

// AvailableRides lists rides awaiting a driver. An inactive driver sees an
// empty list rather than an error.
func (s *RideService) AvailableRides(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if !driver.IsActive {
		return []*domain.Ride{}, nil
	}

	return s.rideRepo.ListByStatus(ctx, domain.RideStatusRequested)
}

// CurrentRide returns the driver's ride in accepted or in_progress, or nil
// when the driver has none.
func (s *RideService) CurrentRide(ctx context.Context, driverID string) (*domain.Ride, error) {
	rides, err := s.rideRepo.ListByDriver(ctx, driverID,
		domain.RideStatusAccepted, domain.RideStatusInProgress)
	if err != nil {
		return nil, err
	}

	if len(rides) == 0 {
		return nil, nil
	}

	return rides[0], nil
}

// RiderRides contains a rider's ride history split by resolution.
type RiderRides struct {
	Ongoing   []*domain.Ride
	Completed []*domain.Ride
}

// RidesForRider lists a rider's ongoing and completed rides.
func (s *RideService) RidesForRider(ctx context.Context, riderID string) (*RiderRides, error) {
	ongoing, err := s.rideRepo.ListByRider(ctx, riderID,
		domain.RideStatusPendingPayment, domain.RideStatusRequested,
		domain.RideStatusAccepted, domain.RideStatusInProgress)
	if err != nil {
		return nil, err
	}

	completed, err := s.rideRepo.ListByRider(ctx, riderID, domain.RideStatusCompleted)
	if err != nil {
		return nil, err
	}

	return &RiderRides{Ongoing: ongoing, Completed: completed}, nil
}

// CompletedRides lists the driver's completed rides.
func (s *RideService) CompletedRides(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	return s.rideRepo.ListByDriver(ctx, driverID, domain.RideStatusCompleted)
}

// DriverStats contains a driver's completion and earnings summary.
type DriverStats struct {
	CompletedRides int
	TodayEarnings  int64
}

// StatsForDriver computes a driver's completed ride count and earnings for
// the current day.
func (s *RideService) StatsForDriver(ctx context.Context, driverID string) (*DriverStats, error) {
	rides, err := s.rideRepo.ListByDriver(ctx, driverID, domain.RideStatusCompleted)
	if err != nil {
		return nil, err
	}

	stats := &DriverStats{CompletedRides: len(rides)}

	now := time.Now()
	for _, ride := range rides {
		if sameDay(ride.CompletedAt, now) {
			stats.TodayEarnings += ride.Fare
		}
	}

	return stats, nil
}

// DriverDetails contains the assigned driver's public profile for a ride.
type DriverDetails struct {
	Name           string
	Phone          string
	VehicleNo      string
	VehicleModel   string
	CompletedRides int
}

// DriverForRide returns the profile of the driver assigned to a ride.
func (s *RideService) DriverForRide(ctx context.Context, rideID string) (*DriverDetails, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.DriverID == "" {
		return nil, ErrNoDriverAssigned
	}

	driver, err := s.driverRepo.GetByID(ctx, ride.DriverID)
	if err != nil {
		return nil, err
	}

	completed, err := s.rideRepo.CountCompletedByDriver(ctx, driver.ID)
	if err != nil {
		return nil, err
	}

	return &DriverDetails{
		Name:           driver.Name,
		Phone:          driver.Phone,
		VehicleNo:      driver.VehicleNo,
		VehicleModel:   driver.VehicleModel,
		CompletedRides: completed,
	}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
