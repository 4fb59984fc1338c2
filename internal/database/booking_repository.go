package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const bookingColumns = `id, user_id, salon_id, salon_name, service_name, price,
	booking_date, booking_time, status, payment_id, gateway_order_id,
	completion_pin_hash, reminder_sent, created_at, updated_at`

// BookingRepository handles booking reads and guarded status transitions
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// GetByID retrieves a booking by ID. Returns nil, nil when not found.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.GetContext(ctx, &booking, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// GetByPaymentID retrieves the booking carrying a gateway payment id
func (r *BookingRepository) GetByPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_id = $1 LIMIT 1`

	err := r.db.GetContext(ctx, &booking, query, gatewayPaymentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by payment id: %w", err)
	}

	return &booking, nil
}

// ConfirmWithPayment moves a booking to confirmed and stores the gateway payment id.
// Only applies from statuses that may transition to confirmed; returns false otherwise.
func (r *BookingRepository) ConfirmWithPayment(ctx context.Context, id uuid.UUID, gatewayPaymentID string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $2, payment_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($4)`

	result, err := r.db.ExecContext(ctx, query,
		id, models.BookingStatusConfirmed, gatewayPaymentID,
		statusArray(models.StatusesAllowing(models.BookingStatusConfirmed)),
	)
	if err != nil {
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}

	return affected(result)
}

// TransitionStatus moves a booking to the target status if the state machine allows it
// from the current row status. Returns false when the row was not in an allowed status.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to models.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)`

	result, err := r.db.ExecContext(ctx, query, id, to, statusArray(models.StatusesAllowing(to)))
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	return affected(result)
}

// ListConfirmedWithoutPayment finds bookings that carry a gateway payment id but have
// no matching ledger row (a capture whose payment insert was lost). Bookings never
// checked come first, then those whose last failed check is oldest.
func (r *BookingRepository) ListConfirmedWithoutPayment(ctx context.Context, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.status = ANY($1)
		  AND b.payment_id IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM payments p WHERE p.gateway_payment_id = b.payment_id
		  )
		ORDER BY b.payment_checked_at ASC NULLS FIRST, b.updated_at ASC
		LIMIT $2`

	statuses := []models.BookingStatus{
		models.BookingStatusConfirmed,
		models.BookingStatusUpcoming,
		models.BookingStatusCompleted,
	}

	err := r.db.SelectContext(ctx, &bookings, query, statusArray(statuses), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreconciled bookings: %w", err)
	}

	return bookings, nil
}

// MarkPaymentChecked stamps a failed sweep check so the next sweep reaches
// other bookings first
func (r *BookingRepository) MarkPaymentChecked(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE bookings SET payment_checked_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark booking payment checked: %w", err)
	}
	return nil
}

func statusArray[T ~string](statuses []T) interface{} {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return pq.Array(values)
}

func affected(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}
