package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned for a missing or mismatched webhook signature
	ErrUnauthenticated = errors.New("invalid signature")
	// ErrNotFound is returned when a referenced booking, payout or penalty does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when the entity is not in an actionable status
	ErrInvalidState = errors.New("invalid state")
	// ErrForbidden is returned when the caller does not own the entity
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned for malformed ids or amounts
	ErrInvalidInput = errors.New("invalid input")
)

// GatewayError represents a non-2xx response from the payment gateway.
// Description is the gateway's own message, passed through verbatim.
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("payment gateway returned status %d", e.StatusCode)
	}
	return e.Description
}

// invalidState wraps ErrInvalidState with a human-readable reason
func invalidState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// invalidInput wraps ErrInvalidInput with a human-readable reason
func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
