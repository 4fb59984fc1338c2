package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const penaltyColumns = `id, user_id, booking_id, amount, is_paid, is_waived, paid_at,
	paid_booking_id, collected_by_salon_id, waived_by, waived_at, created_at, updated_at`

// PenaltyRepository handles cancellation penalty operations
type PenaltyRepository struct {
	db *sqlx.DB
}

// NewPenaltyRepository creates a new penalty repository
func NewPenaltyRepository(db *sqlx.DB) *PenaltyRepository {
	return &PenaltyRepository{db: db}
}

// SettleForUser marks every unpaid, non-waived penalty of the user as paid by the
// given booking, collected by that booking's salon. Single statement, so
// concurrent settlements cannot double count.
func (r *PenaltyRepository) SettleForUser(ctx context.Context, userID, paidBookingID uuid.UUID) (int64, error) {
	query := `
		UPDATE cancellation_penalties
		SET is_paid = TRUE, paid_at = NOW(), paid_booking_id = $2,
			collected_by_salon_id = (SELECT salon_id FROM bookings WHERE id = $2),
			updated_at = NOW()
		WHERE user_id = $1 AND is_paid = FALSE AND is_waived = FALSE`

	result, err := r.db.ExecContext(ctx, query, userID, paidBookingID)
	if err != nil {
		return 0, fmt.Errorf("failed to settle penalties: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read settled penalty count: %w", err)
	}

	return rows, nil
}

// GetByID retrieves a penalty. Returns nil, nil when not found.
func (r *PenaltyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CancellationPenalty, error) {
	var penalty models.CancellationPenalty
	query := `SELECT ` + penaltyColumns + ` FROM cancellation_penalties WHERE id = $1`

	err := r.db.GetContext(ctx, &penalty, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get penalty: %w", err)
	}

	return &penalty, nil
}

// Waive marks an outstanding penalty waived. Returns false if it was already paid or waived.
func (r *PenaltyRepository) Waive(ctx context.Context, id, adminID uuid.UUID) (bool, error) {
	query := `
		UPDATE cancellation_penalties
		SET is_waived = TRUE, waived_by = $2, waived_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_paid = FALSE AND is_waived = FALSE`

	result, err := r.db.ExecContext(ctx, query, id, adminID)
	if err != nil {
		return false, fmt.Errorf("failed to waive penalty: %w", err)
	}

	return affected(result)
}

// ListOutstanding returns the user's unpaid, non-waived penalties, oldest first
func (r *PenaltyRepository) ListOutstanding(ctx context.Context, userID uuid.UUID) ([]models.CancellationPenalty, error) {
	penalties := []models.CancellationPenalty{}
	query := `
		SELECT ` + penaltyColumns + `
		FROM cancellation_penalties
		WHERE user_id = $1 AND is_paid = FALSE AND is_waived = FALSE
		ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &penalties, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list outstanding penalties: %w", err)
	}

	return penalties, nil
}
