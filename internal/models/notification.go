package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorises a user notification
type NotificationType string

const (
	NotificationPaymentSuccess   NotificationType = "payment_success"
	NotificationPaymentFailed    NotificationType = "payment_failed"
	NotificationRefundProcessed  NotificationType = "refund_processed"
	NotificationRefundInitiated  NotificationType = "refund_initiated"
	NotificationRefundFailed     NotificationType = "refund_failed"
	NotificationPayoutCreated    NotificationType = "payout_created"
	NotificationPayoutUpdated    NotificationType = "payout_updated"
	NotificationBookingCompleted NotificationType = "booking_completed"
	NotificationPenaltyWaived    NotificationType = "penalty_waived"
)

// Notification is an in-app notification row and the message handed to every channel
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Type      NotificationType `json:"type" db:"type"`
	BookingID *uuid.UUID       `json:"booking_id,omitempty" db:"booking_id"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// NewNotification creates an unread notification for a user
func NewNotification(userID uuid.UUID, nType NotificationType, title, message string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      nType,
		CreatedAt: time.Now(),
	}
}

// ForBooking links the notification to a booking
func (n *Notification) ForBooking(bookingID uuid.UUID) *Notification {
	n.BookingID = &bookingID
	return n
}
