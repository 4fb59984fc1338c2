package models

import (
	"time"

	"github.com/google/uuid"
)

// Salon is the subset of salon fields the payments core reads
type Salon struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OwnerID    uuid.UUID `json:"owner_id" db:"owner_id"`
	Name       string    `json:"name" db:"name"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	IsApproved bool      `json:"is_approved" db:"is_approved"`
}

// SalonBankAccount is a payout destination (bank account and/or UPI id)
type SalonBankAccount struct {
	ID            uuid.UUID `json:"id" db:"id"`
	SalonID       uuid.UUID `json:"salon_id" db:"salon_id"`
	AccountHolder string    `json:"account_holder" db:"account_holder"`
	AccountNumber *string   `json:"account_number,omitempty" db:"account_number"`
	IFSC          *string   `json:"ifsc,omitempty" db:"ifsc"`
	UPIID         *string   `json:"upi_id,omitempty" db:"upi_id"`
	IsPrimary     bool      `json:"is_primary" db:"is_primary"`
	IsVerified    bool      `json:"is_verified" db:"is_verified"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// PayoutMethod derives the disbursement method from the destination shape
func (a *SalonBankAccount) PayoutMethod() PayoutMethod {
	if a.UPIID != nil && *a.UPIID != "" {
		return PayoutMethodUPI
	}
	return PayoutMethodBankTransfer
}

// ChoosePayoutDestination prefers the primary verified account, then the first
// verified one. Returns nil when no account is verified.
func ChoosePayoutDestination(accounts []SalonBankAccount) *SalonBankAccount {
	var firstVerified *SalonBankAccount
	for i := range accounts {
		if !accounts[i].IsVerified {
			continue
		}
		if accounts[i].IsPrimary {
			return &accounts[i]
		}
		if firstVerified == nil {
			firstVerified = &accounts[i]
		}
	}
	return firstVerified
}

// UserContact is the contact info needed to notify a user
type UserContact struct {
	ID       uuid.UUID `json:"id" db:"id"`
	FullName *string   `json:"full_name,omitempty" db:"full_name"`
	Email    *string   `json:"email,omitempty" db:"email"`
	Phone    *string   `json:"phone,omitempty" db:"phone"`
}
