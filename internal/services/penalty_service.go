package services

import (
	"context"
	"fmt"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PenaltyService settles and waives cancellation penalties
type PenaltyService struct {
	penalties PenaltyStore
	notifier  Notifier
	logger    *logrus.Logger
}

// NewPenaltyService creates a new PenaltyService
func NewPenaltyService(penalties PenaltyStore, notifier Notifier, logger *logrus.Logger) *PenaltyService {
	return &PenaltyService{
		penalties: penalties,
		notifier:  notifier,
		logger:    logger,
	}
}

// SettleForUser marks all of the user's outstanding penalties paid by bookingID.
// Any successful payment settles every outstanding penalty, not only those tied
// to the paid booking.
func (s *PenaltyService) SettleForUser(ctx context.Context, userID, bookingID uuid.UUID) (int64, error) {
	settled, err := s.penalties.SettleForUser(ctx, userID, bookingID)
	if err != nil {
		return 0, err
	}

	if settled > 0 {
		s.logger.WithFields(logrus.Fields{
			"user_id":    userID,
			"booking_id": bookingID,
			"settled":    settled,
		}).Info("Settled outstanding cancellation penalties")
	}

	return settled, nil
}

// Waive marks an outstanding penalty waived by an admin
func (s *PenaltyService) Waive(ctx context.Context, penaltyID, adminID uuid.UUID) (*models.CancellationPenalty, error) {
	penalty, err := s.penalties.GetByID(ctx, penaltyID)
	if err != nil {
		return nil, err
	}
	if penalty == nil {
		return nil, fmt.Errorf("penalty %s: %w", penaltyID, ErrNotFound)
	}
	if !penalty.IsOutstanding() {
		return nil, invalidState("penalty is already paid or waived")
	}

	ok, err := s.penalties.Waive(ctx, penaltyID, adminID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// settled by a concurrent payment between the read and the update
		return nil, invalidState("penalty is already paid or waived")
	}

	penalty.IsWaived = true
	penalty.WaivedBy = &adminID

	s.logger.WithFields(logrus.Fields{
		"penalty_id": penaltyID,
		"admin_id":   adminID,
		"user_id":    penalty.UserID,
	}).Info("Cancellation penalty waived")

	s.notifier.Notify(ctx, models.NewNotification(
		penalty.UserID,
		models.NotificationPenaltyWaived,
		"Cancellation fee waived",
		fmt.Sprintf("Your cancellation fee of ₹%s has been waived.", penalty.Amount.StringFixed(2)),
	))

	return penalty, nil
}

// ListOutstanding returns the user's unpaid, non-waived penalties
func (s *PenaltyService) ListOutstanding(ctx context.Context, userID uuid.UUID) ([]models.CancellationPenalty, error) {
	return s.penalties.ListOutstanding(ctx, userID)
}
