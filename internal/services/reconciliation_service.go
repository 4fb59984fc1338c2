package services

import (
	"context"
	"fmt"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const defaultSweepLimit = 200

// ReconciliationService repairs bookings confirmed with a gateway payment id
// whose payment ledger row was never written
type ReconciliationService struct {
	bookings BookingStore
	gateway  PaymentGateway
	ledger   *LedgerService
	logger   *logrus.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(bookings BookingStore, gateway PaymentGateway, ledger *LedgerService, logger *logrus.Logger) *ReconciliationService {
	return &ReconciliationService{
		bookings: bookings,
		gateway:  gateway,
		ledger:   ledger,
		logger:   logger,
	}
}

// Sweep checks up to limit confirmed bookings without a payment row and
// inserts the missing rows from the gateway's record of the payment
func (s *ReconciliationService) Sweep(ctx context.Context, limit int) (*models.SweepResult, error) {
	if limit <= 0 {
		limit = defaultSweepLimit
	}

	bookings, err := s.bookings.ListConfirmedWithoutPayment(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &models.SweepResult{Checked: len(bookings)}
	for i := range bookings {
		booking := &bookings[i]
		repaired, err := s.repair(ctx, booking)
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Sweep could not repair booking")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", booking.ID, err))
			if err := s.bookings.MarkPaymentChecked(ctx, booking.ID); err != nil {
				s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to stamp sweep check")
			}
			continue
		}
		if repaired {
			result.Repaired++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"checked":  result.Checked,
		"repaired": result.Repaired,
		"errors":   len(result.Errors),
	}).Info("Reconciliation sweep finished")

	return result, nil
}

func (s *ReconciliationService) repair(ctx context.Context, booking *models.Booking) (bool, error) {
	if !booking.HasPayment() {
		return false, nil
	}

	payment, err := s.gateway.FetchPayment(ctx, *booking.PaymentID)
	if err != nil {
		return false, err
	}
	if !payment.IsCaptured() {
		return false, fmt.Errorf("gateway reports payment %s as %s", payment.ID, payment.Status)
	}

	recorded, err := s.ledger.RecordPayment(ctx, booking, payment)
	if err != nil {
		return false, err
	}
	if recorded {
		s.logger.WithFields(logrus.Fields{
			"booking_id":         booking.ID,
			"gateway_payment_id": payment.ID,
		}).Warn("Repaired missing payment row")
	}

	return recorded, nil
}
