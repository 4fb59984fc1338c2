package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status recorded on a ledger row
type PaymentStatus string

const (
	PaymentStatusCaptured PaymentStatus = "captured"
)

// Payment is an append-only ledger row for a captured charge.
// gateway_payment_id is UNIQUE in the schema.
type Payment struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	BookingID        uuid.UUID       `json:"booking_id" db:"booking_id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	SalonID          uuid.UUID       `json:"salon_id" db:"salon_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Currency         string          `json:"currency" db:"currency"`
	Status           PaymentStatus   `json:"status" db:"status"`
	GatewayOrderID   *string         `json:"gateway_order_id,omitempty" db:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id" db:"gateway_payment_id"`
	PlatformFee      decimal.Decimal `json:"platform_fee" db:"platform_fee"`
	SalonAmount      decimal.Decimal `json:"salon_amount" db:"salon_amount"`
	FeePercentage    decimal.Decimal `json:"fee_percentage" db:"fee_percentage"`
	CapturedAt       time.Time       `json:"captured_at" db:"captured_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// FeeSplit is the platform/salon division of a gross amount
type FeeSplit struct {
	Gross         decimal.Decimal
	PlatformFee   decimal.Decimal
	SalonAmount   decimal.Decimal
	FeePercentage decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ComputeFeeSplit divides a gross amount (major units, two decimal places) into
// platform fee and salon share. The fee is rounded half away from zero to a whole
// minor unit and the salon takes the remainder, so fee + salon == gross always.
func ComputeFeeSplit(gross, feePercentage decimal.Decimal) FeeSplit {
	grossMinor := gross.Mul(hundred).Round(0)
	feeMinor := grossMinor.Mul(feePercentage).Div(hundred).Round(0)
	salonMinor := grossMinor.Sub(feeMinor)

	return FeeSplit{
		Gross:         grossMinor.Div(hundred),
		PlatformFee:   feeMinor.Div(hundred),
		SalonAmount:   salonMinor.Div(hundred),
		FeePercentage: feePercentage,
	}
}

// ToMinorUnits converts a major-unit amount to the integer minor units the gateway expects
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts gateway minor units to a major-unit decimal
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}
