package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CancellationPenalty is a late-cancellation fee owed by a customer.
// It is settled by the customer's next successful payment or waived by an admin.
type CancellationPenalty struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	BookingID          *uuid.UUID      `json:"booking_id,omitempty" db:"booking_id"` // the cancelled booking
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	IsPaid             bool            `json:"is_paid" db:"is_paid"`
	IsWaived           bool            `json:"is_waived" db:"is_waived"`
	PaidAt             *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	PaidBookingID      *uuid.UUID      `json:"paid_booking_id,omitempty" db:"paid_booking_id"`
	CollectedBySalonID *uuid.UUID      `json:"collected_by_salon_id,omitempty" db:"collected_by_salon_id"`
	WaivedBy           *uuid.UUID      `json:"waived_by,omitempty" db:"waived_by"`
	WaivedAt           *time.Time      `json:"waived_at,omitempty" db:"waived_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// IsOutstanding reports whether the penalty still has to be collected
func (p *CancellationPenalty) IsOutstanding() bool {
	return !p.IsPaid && !p.IsWaived
}
