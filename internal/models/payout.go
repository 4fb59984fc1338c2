package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutStatus represents the status of a salon payout
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"    // Awaiting admin approval
	PayoutStatusProcessing PayoutStatus = "processing" // Approved, disbursement in flight
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// OutstandingPayoutStatuses are the statuses that count against a salon's earned balance
var OutstandingPayoutStatuses = []PayoutStatus{
	PayoutStatusCompleted,
	PayoutStatusProcessing,
	PayoutStatusPending,
}

// PayoutMethod represents how a payout is disbursed
type PayoutMethod string

const (
	PayoutMethodUPI          PayoutMethod = "upi"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
)

// SalonPayout is a disbursement to a salon's bank or UPI destination
type SalonPayout struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SalonID       uuid.UUID       `json:"salon_id" db:"salon_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Method        PayoutMethod    `json:"method" db:"method"`
	BankAccountID uuid.UUID       `json:"bank_account_id" db:"bank_account_id"`
	Status        PayoutStatus    `json:"status" db:"status"`
	PeriodStart   *time.Time      `json:"period_start,omitempty" db:"period_start"`
	PeriodEnd     *time.Time      `json:"period_end,omitempty" db:"period_end"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	FailureReason *string         `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// PayoutSettings is the single global row controlling the weekly payout batch
type PayoutSettings struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	Enabled              bool            `json:"enabled" db:"enabled"`
	DayOfWeek            int             `json:"day_of_week" db:"day_of_week"` // 0 = Sunday
	MinimumPayoutAmount  decimal.Decimal `json:"minimum_payout_amount" db:"minimum_payout_amount"`
	AutoApproveThreshold decimal.Decimal `json:"auto_approve_threshold" db:"auto_approve_threshold"`
	LastRunAt            *time.Time      `json:"last_run_at,omitempty" db:"last_run_at"`
	NextRunAt            *time.Time      `json:"next_run_at,omitempty" db:"next_run_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// IsScheduledDay reports whether t falls on the configured payout weekday
func (s *PayoutSettings) IsScheduledDay(t time.Time) bool {
	return int(t.Weekday()) == s.DayOfWeek
}

// PayoutRunSummary is returned by the scheduled payout trigger
type PayoutRunSummary struct {
	Success             bool     `json:"success"`
	Skipped             string   `json:"skipped,omitempty"` // why the run was a no-op
	PayoutsCreated      int      `json:"payoutsCreated"`
	PayoutsAutoApproved int      `json:"payoutsAutoApproved"`
	Salons              []string `json:"salons"`
	AutoApproved        []string `json:"autoApproved"`
	Errors              []string `json:"errors,omitempty"`
}
