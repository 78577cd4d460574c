package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, rider_id, rider_name, rider_phone, driver_id, pickup, dropoff,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, status, distance_km, duration_min,
	fare, created_at, started_at, completed_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	var startedAt, completedAt sql.NullTime
	if !ride.StartedAt.IsZero() {
		startedAt = sql.NullTime{Time: ride.StartedAt, Valid: true}
	}
	if !ride.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: ride.CompletedAt, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		nullString(ride.RiderName),
		nullString(ride.RiderPhone),
		nullString(ride.DriverID),
		ride.Pickup,
		ride.Dropoff,
		ride.PickupLat,
		ride.PickupLng,
		ride.DropoffLat,
		ride.DropoffLng,
		ride.Status,
		ride.DistanceKm,
		ride.DurationMin,
		ride.Fare,
		ride.CreatedAt,
		startedAt,
		completedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ride, nil
}

// UpdateStatus moves the ride to status to, guarded on the current status
// being one of from.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, to domain.RideStatus, from ...domain.RideStatus) error {
	query := `UPDATE rides SET status = $1 WHERE id = $2 AND status = ANY($3)`

	result, err := r.q.ExecContext(ctx, query, to, id, pq.Array(statusStrings(from)))
	if err != nil {
		return err
	}

	return r.guardResult(ctx, result, id)
}

// Assign sets the driver and moves requested -> accepted in a single guarded
// write. Two drivers racing for the same ride cannot both match the
// status predicate, so exactly one update succeeds.
func (r *RideRepository) Assign(ctx context.Context, id, driverID string) error {
	query := `
		UPDATE rides SET driver_id = $1, status = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query, driverID, domain.RideStatusAccepted, id, domain.RideStatusRequested)
	if err != nil {
		return err
	}

	return r.guardResult(ctx, result, id)
}

// Start moves accepted -> in_progress and records the start time.
func (r *RideRepository) Start(ctx context.Context, id string, startedAt time.Time) error {
	query := `
		UPDATE rides SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query, domain.RideStatusInProgress, startedAt, id, domain.RideStatusAccepted)
	if err != nil {
		return err
	}

	return r.guardResult(ctx, result, id)
}

// Complete moves in_progress -> completed and records the actual route and
// finalized fare.
func (r *RideRepository) Complete(ctx context.Context, id string, distanceKm float64, durationMin int, fare int64, completedAt time.Time) error {
	query := `
		UPDATE rides SET status = $1, distance_km = $2, duration_min = $3, fare = $4, completed_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusCompleted, distanceKm, durationMin, fare, completedAt,
		id, domain.RideStatusInProgress,
	)
	if err != nil {
		return err
	}

	return r.guardResult(ctx, result, id)
}

// ListByStatus retrieves rides in any of the given statuses, newest first.
func (r *RideRepository) ListByStatus(ctx context.Context, statuses ...domain.RideStatus) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE status = ANY($1) ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// ListByRider retrieves a rider's rides in any of the given statuses.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string, statuses ...domain.RideStatus) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE rider_id = $1 AND status = ANY($2) ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, riderID, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// ListByDriver retrieves a driver's rides in any of the given statuses.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string, statuses ...domain.RideStatus) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 AND status = ANY($2) ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, driverID, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// CountCompletedByDriver counts a driver's completed rides.
func (r *RideRepository) CountCompletedByDriver(ctx context.Context, driverID string) (int, error) {
	query := `SELECT COUNT(*) FROM rides WHERE driver_id = $1 AND status = $2`

	var count int
	if err := r.q.QueryRowContext(ctx, query, driverID, domain.RideStatusCompleted).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// guardResult discriminates a zero-row guarded update into ErrConflict
// (ride exists, wrong status) or ErrNotFound (no such ride).
func (r *RideRepository) guardResult(ctx context.Context, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	err = r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		return repository.ErrConflict
	}

	return repository.ErrNotFound
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var riderName, riderPhone, driverID sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&riderName,
		&riderPhone,
		&driverID,
		&ride.Pickup,
		&ride.Dropoff,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DropoffLat,
		&ride.DropoffLng,
		&ride.Status,
		&ride.DistanceKm,
		&ride.DurationMin,
		&ride.Fare,
		&ride.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	ride.RiderName = riderName.String
	ride.RiderPhone = riderPhone.String
	ride.DriverID = driverID.String
	if startedAt.Valid {
		ride.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}

	return &ride, nil
}

func collectRides(rows *sql.Rows) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}
