package services

import (
	"context"
	"fmt"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	refundEstimatedDays      = "5-7 business days"
	refundStatusManualReview = "manual_required"
)

// Actor identifies who is asking for an operation
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// CanAccess reports whether the actor may act on a resource owned by ownerID
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsAdmin || a.UserID == ownerID
}

// RefundService refunds cancelled or unwanted bookings
type RefundService struct {
	bookings BookingStore
	gateway  PaymentGateway
	notifier Notifier
	logger   *logrus.Logger
}

// NewRefundService creates a new RefundService
func NewRefundService(bookings BookingStore, gateway PaymentGateway, notifier Notifier, logger *logrus.Logger) *RefundService {
	return &RefundService{
		bookings: bookings,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
	}
}

// Refund refunds a booking. A captured booking is refunded through the gateway
// and becomes refunded. A booking with no captured payment becomes
// refund_initiated for the finance team without any gateway call.
// On gateway failure the booking is left untouched.
func (s *RefundService) Refund(ctx context.Context, actor Actor, bookingID uuid.UUID, override *decimal.Decimal) (*models.RefundResponse, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if !actor.CanAccess(booking.UserID) {
		return nil, ErrForbidden
	}
	if !booking.Status.IsRefundable() {
		return nil, invalidState("booking in status %s cannot be refunded", booking.Status)
	}

	amount, err := refundAmount(booking, override)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"booking_id":    booking.ID,
		"status":        booking.Status,
		"refund_amount": amount.StringFixed(2),
		"requested_by":  actor.UserID,
	})

	if !booking.HasPayment() {
		return s.initiateManualRefund(ctx, booking, amount, log)
	}

	refund, err := s.gateway.Refund(ctx, *booking.PaymentID, models.ToMinorUnits(amount), map[string]string{
		"booking_id": booking.ID.String(),
	})
	if err != nil {
		log.WithError(err).Error("Gateway refund failed, booking left unchanged")
		return nil, err
	}

	ok, err := s.bookings.TransitionStatus(ctx, booking.ID, models.BookingStatusRefunded)
	if err != nil {
		log.WithError(err).WithField("refund_id", refund.ID).Error("Refund issued but booking status update failed")
		return nil, err
	}
	if !ok {
		log.WithField("refund_id", refund.ID).Error("Refund issued but booking changed status concurrently")
	}

	log.WithFields(logrus.Fields{
		"refund_id":     refund.ID,
		"refund_status": refund.Status,
	}).Info("Booking refunded through gateway")

	s.notifier.Notify(ctx, models.NewNotification(
		booking.UserID,
		models.NotificationRefundProcessed,
		"Refund processed",
		fmt.Sprintf("Your refund of ₹%s for %s at %s has been processed. It will reach your account in %s.",
			amount.StringFixed(2), booking.ServiceName, booking.SalonName, refundEstimatedDays),
	).ForBooking(booking.ID))

	return &models.RefundResponse{
		Success:       true,
		RefundID:      refund.ID,
		RefundStatus:  refund.Status,
		RefundAmount:  amount,
		EstimatedDays: refundEstimatedDays,
		BookingID:     booking.ID.String(),
	}, nil
}

func (s *RefundService) initiateManualRefund(ctx context.Context, booking *models.Booking, amount decimal.Decimal, log *logrus.Entry) (*models.RefundResponse, error) {
	ok, err := s.bookings.TransitionStatus(ctx, booking.ID, models.BookingStatusRefundInitiated)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidState("booking status changed, retry the refund")
	}

	log.Info("Manual refund initiated, no captured payment on booking")

	s.notifier.Notify(ctx, models.NewNotification(
		booking.UserID,
		models.NotificationRefundInitiated,
		"Refund initiated",
		fmt.Sprintf("Your refund of ₹%s for %s at %s has been initiated and will be processed in %s.",
			amount.StringFixed(2), booking.ServiceName, booking.SalonName, refundEstimatedDays),
	).ForBooking(booking.ID))

	return &models.RefundResponse{
		Success:       true,
		RefundStatus:  refundStatusManualReview,
		RefundAmount:  amount,
		EstimatedDays: refundEstimatedDays,
		BookingID:     booking.ID.String(),
	}, nil
}

// refundAmount defaults to the booking price. An override must be positive and
// no more than the price.
func refundAmount(booking *models.Booking, override *decimal.Decimal) (decimal.Decimal, error) {
	if override == nil {
		return booking.Price, nil
	}
	if !override.IsPositive() {
		return decimal.Zero, invalidInput("refund_amount must be positive")
	}
	if override.GreaterThan(booking.Price) {
		return decimal.Zero, invalidInput("refund_amount %s exceeds booking price %s",
			override.StringFixed(2), booking.Price.StringFixed(2))
	}
	return override.Round(2), nil
}
