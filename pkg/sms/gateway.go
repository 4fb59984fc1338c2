package sms

import "context"

// Gateway defines the interface for sending transactional SMS messages
type Gateway interface {
	// Send delivers one message to one number.
	// Returns the provider's transaction reference.
	Send(ctx context.Context, phone, message string) (string, error)

	// GetName returns the name of the SMS gateway implementation
	GetName() string
}
