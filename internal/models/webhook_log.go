package models

import (
	"time"

	"github.com/google/uuid"
)

// WebhookLogStatus represents the processing state of an inbound gateway event
type WebhookLogStatus string

const (
	WebhookLogReceived  WebhookLogStatus = "received"
	WebhookLogProcessed WebhookLogStatus = "processed"
	WebhookLogFailed    WebhookLogStatus = "failed"
)

// WebhookLog is the audit record of one inbound gateway event.
// Only the status, error and processed_at columns change after insert.
type WebhookLog struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	EventType        string           `json:"event_type" db:"event_type"`
	EventID          *string          `json:"event_id,omitempty" db:"event_id"`
	GatewayPaymentID *string          `json:"gateway_payment_id,omitempty" db:"gateway_payment_id"`
	RawPayload       string           `json:"raw_payload" db:"raw_payload"`
	Status           WebhookLogStatus `json:"status" db:"status"`
	ErrorMessage     *string          `json:"error_message,omitempty" db:"error_message"`

	IPAddress  *string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string `json:"user_agent,omitempty" db:"user_agent"`
	DeviceInfo JSONB   `json:"device_info,omitempty" db:"device_info"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// NewWebhookLog creates a log entry in the received state
func NewWebhookLog(eventType string, rawPayload []byte) *WebhookLog {
	return &WebhookLog{
		ID:         uuid.New(),
		EventType:  eventType,
		RawPayload: string(rawPayload),
		Status:     WebhookLogReceived,
		CreatedAt:  time.Now(),
	}
}

// SetEventID sets the gateway's event id (from the x-event-id header)
func (l *WebhookLog) SetEventID(id string) *WebhookLog {
	if id != "" {
		l.EventID = &id
	}
	return l
}

// SetGatewayPaymentID sets the payment id the event refers to
func (l *WebhookLog) SetGatewayPaymentID(id string) *WebhookLog {
	if id != "" {
		l.GatewayPaymentID = &id
	}
	return l
}

// SetClientInfo sets the request metadata
func (l *WebhookLog) SetClientInfo(ip, userAgent string, deviceInfo map[string]interface{}) *WebhookLog {
	l.IPAddress = &ip
	l.UserAgent = &userAgent
	l.DeviceInfo = deviceInfo
	return l
}
