package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// BookingService handles salon-side booking actions
type BookingService struct {
	bookings BookingStore
	salons   SalonStore
	notifier Notifier
	logger   *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(bookings BookingStore, salons SalonStore, notifier Notifier, logger *logrus.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		salons:   salons,
		notifier: notifier,
		logger:   logger,
	}
}

// Complete marks a booking completed once the salon owner enters the PIN the
// customer was given at confirmation
func (s *BookingService) Complete(ctx context.Context, actor Actor, bookingID uuid.UUID, pin string) (*models.Booking, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, invalidInput("pin is required")
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}

	salon, err := s.salons.GetByID(ctx, booking.SalonID)
	if err != nil {
		return nil, err
	}
	if salon == nil {
		return nil, fmt.Errorf("salon %s: %w", booking.SalonID, ErrNotFound)
	}
	if !actor.CanAccess(salon.OwnerID) {
		return nil, ErrForbidden
	}

	if !models.CanTransition(booking.Status, models.BookingStatusCompleted) {
		return nil, invalidState("booking in status %s cannot be completed", booking.Status)
	}
	if booking.CompletionPinHash == nil || *booking.CompletionPinHash == "" {
		return nil, invalidState("booking has no completion PIN")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*booking.CompletionPinHash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"salon_id":   booking.SalonID,
			}).Warn("Completion PIN mismatch")
			return nil, invalidInput("incorrect completion PIN")
		}
		return nil, fmt.Errorf("failed to verify completion PIN: %w", err)
	}

	ok, err := s.bookings.TransitionStatus(ctx, booking.ID, models.BookingStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidState("booking status changed, refresh and retry")
	}
	booking.Status = models.BookingStatusCompleted

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"salon_id":     booking.SalonID,
		"completed_by": actor.UserID,
	}).Info("Booking completed")

	s.notifier.Notify(ctx, models.NewNotification(
		booking.UserID,
		models.NotificationBookingCompleted,
		"Thanks for visiting",
		fmt.Sprintf("Your %s at %s is complete. We hope you enjoyed it!", booking.ServiceName, booking.SalonName),
	).ForBooking(booking.ID))

	return booking, nil
}
