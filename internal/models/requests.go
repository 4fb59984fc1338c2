package models

import "github.com/shopspring/decimal"

// ============================================================================
// REQUEST / RESPONSE DTOs
// ============================================================================

// ReconcileRequest asks for an order-status pull.
// razorpay_order_id is accepted for older app builds.
type ReconcileRequest struct {
	BookingID       string `json:"booking_id" binding:"required"`
	GatewayOrderID  string `json:"gateway_order_id"`
	RazorpayOrderID string `json:"razorpay_order_id"`
}

// OrderID returns whichever order id field was sent
func (r *ReconcileRequest) OrderID() string {
	if r.GatewayOrderID != "" {
		return r.GatewayOrderID
	}
	return r.RazorpayOrderID
}

// ReconcileStatus is the outcome of an order-status pull
type ReconcileStatus string

const (
	ReconcileCaptured  ReconcileStatus = "captured"
	ReconcilePending   ReconcileStatus = "pending"
	ReconcileCancelled ReconcileStatus = "cancelled"
)

// ReconcileResponse is returned by the reconciliation poll
type ReconcileResponse struct {
	Status            ReconcileStatus `json:"status"`
	PaymentID         string          `json:"payment_id,omitempty"`
	PaymentsCount     *int            `json:"payments_count,omitempty"`
	LastPaymentStatus string          `json:"last_payment_status,omitempty"`
}

// RefundRequest starts a refund for a booking
type RefundRequest struct {
	BookingID    string           `json:"booking_id" binding:"required"`
	RefundAmount *decimal.Decimal `json:"refund_amount"`
}

// RefundResponse is returned on a successful refund
type RefundResponse struct {
	Success       bool            `json:"success"`
	RefundID      string          `json:"refund_id,omitempty"`
	RefundStatus  string          `json:"refund_status"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
	EstimatedDays string          `json:"estimated_days"`
	BookingID     string          `json:"booking_id"`
}

// CompleteBookingRequest carries the customer's completion PIN
type CompleteBookingRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// FailPayoutRequest records why a payout failed
type FailPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SweepRequest bounds a reconciliation sweep
type SweepRequest struct {
	Limit int `json:"limit"`
}

// SweepResult summarises a reconciliation sweep
type SweepResult struct {
	Checked  int      `json:"checked"`
	Repaired int      `json:"repaired"`
	Errors   []string `json:"errors,omitempty"`
}
