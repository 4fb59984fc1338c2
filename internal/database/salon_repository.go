package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SalonRepository reads salons, their payout destinations and user contacts
type SalonRepository struct {
	db *sqlx.DB
}

// NewSalonRepository creates a new salon repository
func NewSalonRepository(db *sqlx.DB) *SalonRepository {
	return &SalonRepository{db: db}
}

// GetByID retrieves a salon. Returns nil, nil when not found.
func (r *SalonRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Salon, error) {
	var salon models.Salon
	query := `SELECT id, owner_id, name, is_active, is_approved FROM salons WHERE id = $1`

	err := r.db.GetContext(ctx, &salon, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get salon: %w", err)
	}

	return &salon, nil
}

// ListPayoutEligible returns active, approved salons with at least one verified destination
func (r *SalonRepository) ListPayoutEligible(ctx context.Context) ([]models.Salon, error) {
	var salons []models.Salon
	query := `
		SELECT s.id, s.owner_id, s.name, s.is_active, s.is_approved
		FROM salons s
		WHERE s.is_active = TRUE
		  AND s.is_approved = TRUE
		  AND EXISTS (
			SELECT 1 FROM salon_bank_accounts a
			WHERE a.salon_id = s.id AND a.is_verified = TRUE
		  )
		ORDER BY s.name ASC`

	if err := r.db.SelectContext(ctx, &salons, query); err != nil {
		return nil, fmt.Errorf("failed to list payout-eligible salons: %w", err)
	}

	return salons, nil
}

// ListBankAccounts returns a salon's payout destinations, oldest first
func (r *SalonRepository) ListBankAccounts(ctx context.Context, salonID uuid.UUID) ([]models.SalonBankAccount, error) {
	var accounts []models.SalonBankAccount
	query := `
		SELECT id, salon_id, account_holder, account_number, ifsc, upi_id,
		       is_primary, is_verified, created_at
		FROM salon_bank_accounts
		WHERE salon_id = $1
		ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &accounts, query, salonID); err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}

	return accounts, nil
}

// GetUserContact retrieves a user's name, email and phone. Returns nil, nil when not found.
func (r *SalonRepository) GetUserContact(ctx context.Context, userID uuid.UUID) (*models.UserContact, error) {
	var contact models.UserContact
	query := `SELECT id, full_name, email, phone FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &contact, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user contact: %w", err)
	}

	return &contact, nil
}
