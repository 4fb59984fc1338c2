package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const payoutColumns = `id, salon_id, amount, method, bank_account_id, status,
	period_start, period_end, notes, processed_at, completed_at, failure_reason,
	created_at, updated_at`

// PayoutRepository handles salon payouts and the global payout settings row
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// ============================================================================
// PAYOUTS
// ============================================================================

// SumOutstanding returns the total of the salon's pending, processing and completed payouts
func (r *PayoutRepository) SumOutstanding(ctx context.Context, salonID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM salon_payouts
		WHERE salon_id = $1 AND status = ANY($2)`

	if err := r.db.GetContext(ctx, &total, query, salonID, statusArray(models.OutstandingPayoutStatuses)); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payouts: %w", err)
	}

	return total, nil
}

// Create inserts a payout row
func (r *PayoutRepository) Create(ctx context.Context, payout *models.SalonPayout) error {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	now := time.Now()
	if payout.CreatedAt.IsZero() {
		payout.CreatedAt = now
	}
	payout.UpdatedAt = payout.CreatedAt

	query := `
		INSERT INTO salon_payouts (
			id, salon_id, amount, method, bank_account_id, status,
			period_start, period_end, notes, processed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		payout.ID, payout.SalonID, payout.Amount, payout.Method, payout.BankAccountID, payout.Status,
		payout.PeriodStart, payout.PeriodEnd, payout.Notes, payout.ProcessedAt,
		payout.CreatedAt, payout.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}

	return nil
}

// GetByID retrieves a payout. Returns nil, nil when not found.
func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SalonPayout, error) {
	var payout models.SalonPayout
	query := `SELECT ` + payoutColumns + ` FROM salon_payouts WHERE id = $1`

	err := r.db.GetContext(ctx, &payout, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}

	return &payout, nil
}

// Approve moves a pending payout to processing
func (r *PayoutRepository) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE salon_payouts
		SET status = $2, processed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, id, models.PayoutStatusProcessing, models.PayoutStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to approve payout: %w", err)
	}

	return affected(result)
}

// Complete moves a processing payout to completed
func (r *PayoutRepository) Complete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE salon_payouts
		SET status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, id, models.PayoutStatusCompleted, models.PayoutStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to complete payout: %w", err)
	}

	return affected(result)
}

// Fail marks a pending or processing payout failed. The amount stops counting
// against the salon's balance and is picked up by the next batch.
func (r *PayoutRepository) Fail(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE salon_payouts
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($4)`

	from := []models.PayoutStatus{models.PayoutStatusPending, models.PayoutStatusProcessing}
	result, err := r.db.ExecContext(ctx, query, id, models.PayoutStatusFailed, reason, statusArray(from))
	if err != nil {
		return false, fmt.Errorf("failed to fail payout: %w", err)
	}

	return affected(result)
}

// ============================================================================
// SETTINGS
// ============================================================================

// GetSettings reads the single payout settings row. Returns nil, nil when missing.
func (r *PayoutRepository) GetSettings(ctx context.Context) (*models.PayoutSettings, error) {
	var settings models.PayoutSettings
	query := `
		SELECT id, enabled, day_of_week, minimum_payout_amount, auto_approve_threshold,
		       last_run_at, next_run_at, updated_at
		FROM payout_settings
		ORDER BY updated_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &settings, query)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout settings: %w", err)
	}

	return &settings, nil
}

// MarkRun stamps the last and next run times on the settings row
func (r *PayoutRepository) MarkRun(ctx context.Context, settingsID uuid.UUID, lastRunAt, nextRunAt time.Time) error {
	query := `
		UPDATE payout_settings
		SET last_run_at = $2, next_run_at = $3, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, settingsID, lastRunAt, nextRunAt); err != nil {
		return fmt.Errorf("failed to update payout settings run times: %w", err)
	}

	return nil
}
