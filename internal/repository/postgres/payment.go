package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

const paymentColumns = `id, ride_id, user_id, amount, currency, order_id, payment_id,
	signature, status, refund_id, created_at, updated_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.OrderID,
		nullString(payment.PaymentID),
		nullString(payment.Signature),
		payment.Status,
		nullString(payment.RefundID),
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByOrderID retrieves a payment by its gateway order ID.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`
	return r.getOne(ctx, query, orderID)
}

// LatestByRide retrieves the most recently created payment for a ride.
func (r *PaymentRepository) LatestByRide(ctx context.Context, rideID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ride_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.getOne(ctx, query, rideID)
}

// PaidByRide retrieves the ride's payment in status paid.
func (r *PaymentRepository) PaidByRide(ctx context.Context, rideID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ride_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1`

	var payment domain.Payment
	if err := r.scanOne(r.q.QueryRowContext(ctx, query, rideID, domain.PaymentStatusPaid), &payment); err != nil {
		return nil, err
	}

	return &payment, nil
}

// MarkPaid records a verified callback against the payment's order ID.
func (r *PaymentRepository) MarkPaid(ctx context.Context, orderID, paymentID, signature string) error {
	return r.recordCallback(ctx, orderID, paymentID, signature, domain.PaymentStatusPaid)
}

// MarkFailed records a rejected callback against the payment's order ID.
// The received identifiers are kept for dispute tracing.
func (r *PaymentRepository) MarkFailed(ctx context.Context, orderID, paymentID, signature string) error {
	return r.recordCallback(ctx, orderID, paymentID, signature, domain.PaymentStatusFailed)
}

// MarkRefunded moves paid -> refunded. The status guard makes a duplicate
// refund impossible at the storage layer.
func (r *PaymentRepository) MarkRefunded(ctx context.Context, id, refundID string) error {
	query := `
		UPDATE payments SET status = $1, refund_id = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.PaymentStatusRefunded, refundID, time.Now(), id, domain.PaymentStatusPaid,
	)
	if err != nil {
		return err
	}

	return r.guardResult(ctx, result, id)
}

func (r *PaymentRepository) recordCallback(ctx context.Context, orderID, paymentID, signature string, status domain.PaymentStatus) error {
	query := `
		UPDATE payments SET status = $1, payment_id = $2, signature = $3, updated_at = $4
		WHERE order_id = $5
	`

	result, err := r.q.ExecContext(ctx, query, status, paymentID, signature, time.Now(), orderID)
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

func (r *PaymentRepository) getOne(ctx context.Context, query string, arg any) (*domain.Payment, error) {
	var payment domain.Payment
	if err := r.scanOne(r.q.QueryRowContext(ctx, query, arg), &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) scanOne(row *sql.Row, payment *domain.Payment) error {
	var paymentID, signature, refundID sql.NullString

	err := row.Scan(
		&payment.ID,
		&payment.RideID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&payment.OrderID,
		&paymentID,
		&signature,
		&payment.Status,
		&refundID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}

	payment.PaymentID = paymentID.String
	payment.Signature = signature.String
	payment.RefundID = refundID.String

	return nil
}

func (r *PaymentRepository) guardResult(ctx context.Context, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	err = r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		return repository.ErrConflict
	}

	return repository.ErrNotFound
}
