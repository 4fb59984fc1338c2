package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// PaymentRepository handles the append-only payments ledger
type PaymentRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// ExistsByGatewayPaymentID checks whether a ledger row exists for the gateway payment id
func (r *PaymentRepository) ExistsByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM payments WHERE gateway_payment_id = $1)`

	if err := r.db.GetContext(ctx, &exists, query, gatewayPaymentID); err != nil {
		return false, fmt.Errorf("failed to check payment existence: %w", err)
	}

	return exists, nil
}

// Insert writes a new ledger row. A unique violation on gateway_payment_id means a
// concurrent delivery already recorded it: returns false with no error.
func (r *PaymentRepository) Insert(ctx context.Context, payment *models.Payment) (bool, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payments (
			id, booking_id, user_id, salon_id,
			amount, currency, status,
			gateway_order_id, gateway_payment_id,
			platform_fee, salon_amount, fee_percentage,
			captured_at, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9,
			$10, $11, $12,
			$13, $14
		)`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.BookingID, payment.UserID, payment.SalonID,
		payment.Amount, payment.Currency, payment.Status,
		payment.GatewayOrderID, payment.GatewayPaymentID,
		payment.PlatformFee, payment.SalonAmount, payment.FeePercentage,
		payment.CapturedAt, payment.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			r.logger.WithField("gateway_payment_id", payment.GatewayPaymentID).
				Info("Payment already recorded (unique constraint)")
			return false, nil
		}
		return false, fmt.Errorf("failed to insert payment: %w", err)
	}

	return true, nil
}

// SumCapturedSalonAmount returns the salon's total earned share of captured payments.
// Payments on refunded bookings went back to the customer and are left out.
func (r *PaymentRepository) SumCapturedSalonAmount(ctx context.Context, salonID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(p.salon_amount), 0)
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE p.salon_id = $1 AND p.status = $2
		  AND NOT (b.status = ANY($3))`

	err := r.db.GetContext(ctx, &total, query, salonID, models.PaymentStatusCaptured, statusArray(models.RefundedStatuses))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum captured payments: %w", err)
	}

	return total, nil
}

// IsUniqueViolation reports whether err is a Postgres unique_violation
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}
