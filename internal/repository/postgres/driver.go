package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

const driverColumns = `id, name, email, phone, role, password_hash, is_active,
	vehicle_no, vehicle_model, created_at`

// Create persists a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Email,
		nullString(driver.Phone),
		driver.Role,
		driver.PasswordHash,
		driver.IsActive,
		nullString(driver.VehicleNo),
		nullString(driver.VehicleModel),
		driver.CreatedAt,
	)

	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a driver by email.
func (r *DriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// UpdateProfile updates the mutable profile fields. Nil pointers in update
// leave the stored value unchanged.
func (r *DriverRepository) UpdateProfile(ctx context.Context, id string, update repository.DriverProfileUpdate) error {
	query := `
		UPDATE drivers SET
			name = $1,
			phone = $2,
			is_active = COALESCE($3, is_active),
			vehicle_no = COALESCE($4, vehicle_no),
			vehicle_model = COALESCE($5, vehicle_model)
		WHERE id = $6
	`

	var isActive sql.NullBool
	if update.IsActive != nil {
		isActive = sql.NullBool{Bool: *update.IsActive, Valid: true}
	}

	var vehicleNo, vehicleModel sql.NullString
	if update.VehicleNo != nil {
		vehicleNo = sql.NullString{String: *update.VehicleNo, Valid: true}
	}
	if update.VehicleModel != nil {
		vehicleModel = sql.NullString{String: *update.VehicleModel, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		update.Name, nullString(update.Phone), isActive, vehicleNo, vehicleModel, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *DriverRepository) getOne(ctx context.Context, query string, arg any) (*domain.Driver, error) {
	var driver domain.Driver
	var phone, vehicleNo, vehicleModel sql.NullString

	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&driver.ID,
		&driver.Name,
		&driver.Email,
		&phone,
		&driver.Role,
		&driver.PasswordHash,
		&driver.IsActive,
		&vehicleNo,
		&vehicleModel,
		&driver.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	driver.Phone = phone.String
	driver.VehicleNo = vehicleNo.String
	driver.VehicleModel = vehicleModel.String

	return &driver, nil
}
