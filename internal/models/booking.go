package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============================================================================
// BOOKING STATUS (matches DB ENUM: booking_status)
// ============================================================================

// BookingStatus represents the lifecycle state of a salon booking
type BookingStatus string

const (
	BookingStatusPendingPayment   BookingStatus = "pending_payment" // Created at checkout, waiting for capture
	BookingStatusConfirmed        BookingStatus = "confirmed"       // Payment captured
	BookingStatusUpcoming         BookingStatus = "upcoming"        // Confirmed and reminder sent
	BookingStatusCompleted        BookingStatus = "completed"       // Service delivered (PIN verified)
	BookingStatusPaymentFailed    BookingStatus = "payment_failed"
	BookingStatusCancelled        BookingStatus = "cancelled"
	BookingStatusRefundInitiated  BookingStatus = "refund_initiated" // Manual refund, finance follows up
	BookingStatusRefundProcessing BookingStatus = "refund_processing"
	BookingStatusRefundCompleted  BookingStatus = "refund_completed"
	BookingStatusRefundFailed     BookingStatus = "refund_failed"
	BookingStatusRefunded         BookingStatus = "refunded" // Gateway refund accepted
)

// bookingTransitions is the allowed status graph. Anything not listed is rejected,
// so a late or duplicate event can never move a booking backwards.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPendingPayment: {
		BookingStatusConfirmed,
		BookingStatusPaymentFailed,
		BookingStatusCancelled,
		BookingStatusRefundInitiated,
		BookingStatusRefunded,
	},
	BookingStatusPaymentFailed: {
		BookingStatusConfirmed, // retry succeeded on the same order
		BookingStatusCancelled,
	},
	BookingStatusConfirmed: {
		BookingStatusUpcoming,
		BookingStatusCompleted,
		BookingStatusCancelled,
		BookingStatusRefundInitiated,
		BookingStatusRefunded,
	},
	BookingStatusUpcoming: {
		BookingStatusCompleted,
		BookingStatusCancelled,
		BookingStatusRefundInitiated,
		BookingStatusRefunded,
	},
	BookingStatusCancelled: {
		BookingStatusRefundInitiated,
		BookingStatusRefunded,
	},
	BookingStatusRefundInitiated: {
		BookingStatusRefundProcessing,
		BookingStatusRefundCompleted,
		BookingStatusRefundFailed,
	},
	BookingStatusRefundProcessing: {
		BookingStatusRefundCompleted,
		BookingStatusRefundFailed,
	},
	BookingStatusRefunded: { // gateway accepted the refund, settlement event pending
		BookingStatusRefundCompleted,
		BookingStatusRefundFailed,
	},
	BookingStatusRefundFailed: {
		BookingStatusRefundInitiated,
	},
}

// CanTransition reports whether a booking may move from one status to another
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusesAllowing returns every status that may transition to the target.
// Used to build guarded UPDATE ... WHERE status IN (...) statements.
func StatusesAllowing(to BookingStatus) []BookingStatus {
	var from []BookingStatus
	for status := range bookingTransitions {
		if CanTransition(status, to) {
			from = append(from, status)
		}
	}
	return from
}

// RefundableStatuses lists the statuses a customer refund may start from
var RefundableStatuses = []BookingStatus{
	BookingStatusConfirmed,
	BookingStatusUpcoming,
	BookingStatusPendingPayment,
}

// IsRefundable reports whether a refund may be requested for the status
func (s BookingStatus) IsRefundable() bool {
	for _, status := range RefundableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// RefundedStatuses are the statuses of bookings whose payment has been, or is
// being, returned to the customer. Their salon share is not paid out.
var RefundedStatuses = []BookingStatus{
	BookingStatusRefunded,
	BookingStatusRefundInitiated,
	BookingStatusRefundProcessing,
	BookingStatusRefundCompleted,
}

// IsRefunded reports whether the booking's payment is no longer salon earnings
func (s BookingStatus) IsRefunded() bool {
	for _, status := range RefundedStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Booking represents a single scheduled salon service
type Booking struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	UserID            uuid.UUID       `json:"user_id" db:"user_id"`
	SalonID           uuid.UUID       `json:"salon_id" db:"salon_id"`
	SalonName         string          `json:"salon_name" db:"salon_name"`
	ServiceName       string          `json:"service_name" db:"service_name"`
	Price             decimal.Decimal `json:"price" db:"price"`
	BookingDate       time.Time       `json:"booking_date" db:"booking_date"`
	BookingTime       string          `json:"booking_time" db:"booking_time"`
	Status            BookingStatus   `json:"status" db:"status"`
	PaymentID         *string         `json:"payment_id,omitempty" db:"payment_id"`             // gateway payment id
	GatewayOrderID    *string         `json:"gateway_order_id,omitempty" db:"gateway_order_id"` // gateway order id
	CompletionPinHash *string         `json:"-" db:"completion_pin_hash"`
	ReminderSent      bool            `json:"reminder_sent" db:"reminder_sent"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// HasPayment reports whether a gateway payment id is recorded on the booking
func (b *Booking) HasPayment() bool {
	return b.PaymentID != nil && *b.PaymentID != ""
}

// CarriesPayment reports whether the booking was already settled by the given
// payment, whatever its status is now
func (b *Booking) CarriesPayment(gatewayPaymentID string) bool {
	return b.HasPayment() && *b.PaymentID == gatewayPaymentID
}

// BelongsToOrder reports whether orderID is the gateway order created for the booking
func (b *Booking) BelongsToOrder(orderID string) bool {
	return b.GatewayOrderID != nil && orderID != "" && *b.GatewayOrderID == orderID
}
