package models

import "encoding/json"

// ============================================================================
// GATEWAY WEBHOOK ENVELOPE
// ============================================================================

// WebhookEvent is the envelope of an inbound gateway event:
// { "event": "...", "payload": { "payment": {"entity": {...}}, "order": {...}, "refund": {...} } }
type WebhookEvent struct {
	Event     string         `json:"event"`
	Payload   WebhookPayload `json:"payload"`
	CreatedAt int64          `json:"created_at,omitempty"`
}

// WebhookPayload holds whichever entities the event carries
type WebhookPayload struct {
	Payment *struct {
		Entity GatewayPayment `json:"entity"`
	} `json:"payment,omitempty"`
	Order *struct {
		Entity GatewayOrder `json:"entity"`
	} `json:"order,omitempty"`
	Refund *struct {
		Entity GatewayRefund `json:"entity"`
	} `json:"refund,omitempty"`
}

// PaymentEntity returns the payment entity if present
func (p WebhookPayload) PaymentEntity() *GatewayPayment {
	if p.Payment == nil {
		return nil
	}
	return &p.Payment.Entity
}

// OrderEntity returns the order entity if present
func (p WebhookPayload) OrderEntity() *GatewayOrder {
	if p.Order == nil {
		return nil
	}
	return &p.Order.Entity
}

// RefundEntity returns the refund entity if present
func (p WebhookPayload) RefundEntity() *GatewayRefund {
	if p.Refund == nil {
		return nil
	}
	return &p.Refund.Entity
}

// Notes is the free-form key/value map the checkout attaches to orders and payments.
// The gateway sends an empty JSON array instead of an object when there are none.
type Notes map[string]string

// UnmarshalJSON accepts an object, an empty array, or null
func (n *Notes) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" || string(data) == "[]" {
		*n = Notes{}
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Notes, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	*n = out
	return nil
}

// BookingID returns the booking id stored in notes
func (n Notes) BookingID() string {
	return n["booking_id"]
}

// GatewayPayment is a payment entity as returned by the gateway (amounts in minor units)
type GatewayPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"` // created, authorized, captured, refunded, failed
	Method           string `json:"method,omitempty"`
	Captured         bool   `json:"captured"`
	Notes            Notes  `json:"notes"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	CreatedAt        int64  `json:"created_at"`
}

// IsCaptured reports whether funds were collected
func (p *GatewayPayment) IsCaptured() bool {
	return p.Status == "captured"
}

// GatewayOrder is an order entity
type GatewayOrder struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt,omitempty"`
	Status     string `json:"status"`
	Notes      Notes  `json:"notes"`
}

// GatewayRefund is a refund entity
type GatewayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"` // pending, processed, failed
	Notes     Notes  `json:"notes"`
}

// GatewayPaymentList is the response of the order payments listing
type GatewayPaymentList struct {
	Entity string           `json:"entity"`
	Count  int              `json:"count"`
	Items  []GatewayPayment `json:"items"`
}

// GatewayErrorBody is the error envelope returned by the gateway API
type GatewayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Source      string `json:"source,omitempty"`
		Reason      string `json:"reason,omitempty"`
	} `json:"error"`
}
