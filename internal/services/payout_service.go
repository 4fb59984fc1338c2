package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const payoutInterval = 7 * 24 * time.Hour

// PayoutService runs the weekly salon payout batch and the admin payout lifecycle
type PayoutService struct {
	payouts  PayoutStore
	payments PaymentStore
	salons   SalonStore
	notifier Notifier
	lock     RunLock // optional
	logger   *logrus.Logger
	nowFn    func() time.Time
}

// NewPayoutService creates a new PayoutService. lock may be nil.
func NewPayoutService(
	payouts PayoutStore,
	payments PaymentStore,
	salons SalonStore,
	notifier Notifier,
	lock RunLock,
	logger *logrus.Logger,
) *PayoutService {
	return &PayoutService{
		payouts:  payouts,
		payments: payments,
		salons:   salons,
		notifier: notifier,
		lock:     lock,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// ============================================================================
// SCHEDULED BATCH
// ============================================================================

// RunScheduled creates payouts for every eligible salon's unpaid balance.
// Safe to invoke daily: it is a no-op unless enabled and today is the
// configured payout day. Per-salon failures are collected, not fatal.
func (s *PayoutService) RunScheduled(ctx context.Context) (*models.PayoutRunSummary, error) {
	summary := &models.PayoutRunSummary{
		Success:      true,
		Salons:       []string{},
		AutoApproved: []string{},
	}

	settings, err := s.payouts.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		summary.Skipped = "payout settings not configured"
		return summary, nil
	}
	if !settings.Enabled {
		summary.Skipped = "scheduled payouts disabled"
		return summary, nil
	}

	now := s.nowFn()
	if !settings.IsScheduledDay(now) {
		summary.Skipped = fmt.Sprintf("not a payout day (today %s, configured %s)",
			now.Weekday(), time.Weekday(settings.DayOfWeek))
		return summary, nil
	}

	if s.lock != nil {
		key := "payouts:" + now.Format("2006-01-02")
		acquired, err := s.lock.Acquire(ctx, key)
		if err != nil {
			return nil, err
		}
		if !acquired {
			summary.Skipped = "payout run already in progress"
			return summary, nil
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), key); err != nil {
				s.logger.WithError(err).Warn("Failed to release payout run lock")
			}
		}()
	}

	salons, err := s.salons.ListPayoutEligible(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"salons":                 len(salons),
		"minimum_payout_amount":  settings.MinimumPayoutAmount.String(),
		"auto_approve_threshold": settings.AutoApproveThreshold.String(),
	}).Info("Starting scheduled payout run")

	for _, salon := range salons {
		payout, err := s.payoutSalon(ctx, salon, settings, now)
		if err != nil {
			s.logger.WithError(err).WithField("salon_id", salon.ID).Error("Payout failed for salon")
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", salon.Name, err))
			continue
		}
		if payout == nil {
			continue
		}

		summary.PayoutsCreated++
		summary.Salons = append(summary.Salons, salon.Name)
		if payout.Status == models.PayoutStatusProcessing {
			summary.PayoutsAutoApproved++
			summary.AutoApproved = append(summary.AutoApproved, salon.Name)
		}
	}

	if err := s.payouts.MarkRun(ctx, settings.ID, now, now.Add(payoutInterval)); err != nil {
		s.logger.WithError(err).Error("Failed to record payout run times")
		summary.Errors = append(summary.Errors, err.Error())
	}

	s.logger.WithFields(logrus.Fields{
		"payouts_created":       summary.PayoutsCreated,
		"payouts_auto_approved": summary.PayoutsAutoApproved,
		"errors":                len(summary.Errors),
	}).Info("Scheduled payout run finished")

	return summary, nil
}

// payoutSalon creates one payout for the salon's pending balance.
// Returns nil, nil when the salon is skipped.
func (s *PayoutService) payoutSalon(ctx context.Context, salon models.Salon, settings *models.PayoutSettings, now time.Time) (*models.SalonPayout, error) {
	balance, err := s.PendingBalance(ctx, salon.ID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"salon_id":        salon.ID,
		"pending_balance": balance.StringFixed(2),
	})

	if !balance.IsPositive() || balance.LessThan(settings.MinimumPayoutAmount) {
		log.Debug("Pending balance below minimum payout, skipping")
		return nil, nil
	}

	accounts, err := s.salons.ListBankAccounts(ctx, salon.ID)
	if err != nil {
		return nil, err
	}
	destination := models.ChoosePayoutDestination(accounts)
	if destination == nil {
		log.Warn("No verified payout destination, skipping")
		return nil, nil
	}

	notes := "Scheduled weekly payout"
	periodEnd := now
	payout := &models.SalonPayout{
		SalonID:       salon.ID,
		Amount:        balance,
		Method:        destination.PayoutMethod(),
		BankAccountID: destination.ID,
		Status:        models.PayoutStatusPending,
		PeriodStart:   settings.LastRunAt,
		PeriodEnd:     &periodEnd,
		Notes:         &notes,
		CreatedAt:     now,
	}
	if balance.LessThanOrEqual(settings.AutoApproveThreshold) {
		processedAt := now
		payout.Status = models.PayoutStatusProcessing
		payout.ProcessedAt = &processedAt
	}

	if err := s.payouts.Create(ctx, payout); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"payout_id": payout.ID,
		"method":    payout.Method,
		"status":    payout.Status,
	}).Info("Payout created")

	message := fmt.Sprintf("A payout of ₹%s to your %s has been created and is awaiting approval.",
		balance.StringFixed(2), describeMethod(payout.Method))
	if payout.Status == models.PayoutStatusProcessing {
		message = fmt.Sprintf("A payout of ₹%s to your %s is being processed.",
			balance.StringFixed(2), describeMethod(payout.Method))
	}
	s.notifier.Notify(ctx, models.NewNotification(salon.OwnerID, models.NotificationPayoutCreated, "Payout created", message))

	return payout, nil
}

// PendingBalance is the salon's captured earnings minus payouts that are
// pending, processing or completed
func (s *PayoutService) PendingBalance(ctx context.Context, salonID uuid.UUID) (decimal.Decimal, error) {
	earned, err := s.payments.SumCapturedSalonAmount(ctx, salonID)
	if err != nil {
		return decimal.Zero, err
	}
	paidOut, err := s.payouts.SumOutstanding(ctx, salonID)
	if err != nil {
		return decimal.Zero, err
	}
	return earned.Sub(paidOut), nil
}

// ============================================================================
// ADMIN LIFECYCLE
// ============================================================================

// ApprovePayout moves a pending payout to processing
func (s *PayoutService) ApprovePayout(ctx context.Context, id uuid.UUID) (*models.SalonPayout, error) {
	payout, err := s.getPayout(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.payouts.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidState("payout is %s, only pending payouts can be approved", payout.Status)
	}

	now := s.nowFn()
	payout.Status = models.PayoutStatusProcessing
	payout.ProcessedAt = &now

	s.notifyPayoutUpdate(ctx, payout, fmt.Sprintf("Your payout of ₹%s has been approved and is being processed.",
		payout.Amount.StringFixed(2)))

	return payout, nil
}

// CompletePayout marks a processing payout completed
func (s *PayoutService) CompletePayout(ctx context.Context, id uuid.UUID) (*models.SalonPayout, error) {
	payout, err := s.getPayout(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.payouts.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidState("payout is %s, only processing payouts can be completed", payout.Status)
	}

	now := s.nowFn()
	payout.Status = models.PayoutStatusCompleted
	payout.CompletedAt = &now

	s.notifyPayoutUpdate(ctx, payout, fmt.Sprintf("Your payout of ₹%s has been sent to your %s.",
		payout.Amount.StringFixed(2), describeMethod(payout.Method)))

	return payout, nil
}

// FailPayout marks a pending or processing payout failed. Its amount returns to
// the salon's pending balance for the next run.
func (s *PayoutService) FailPayout(ctx context.Context, id uuid.UUID, reason string) (*models.SalonPayout, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalidInput("a failure reason is required")
	}

	payout, err := s.getPayout(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.payouts.Fail(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidState("payout is %s and can no longer fail", payout.Status)
	}

	payout.Status = models.PayoutStatusFailed
	payout.FailureReason = &reason

	s.notifyPayoutUpdate(ctx, payout, fmt.Sprintf("Your payout of ₹%s failed: %s. It will be retried in the next payout run.",
		payout.Amount.StringFixed(2), reason))

	return payout, nil
}

func (s *PayoutService) getPayout(ctx context.Context, id uuid.UUID) (*models.SalonPayout, error) {
	payout, err := s.payouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, fmt.Errorf("payout %s: %w", id, ErrNotFound)
	}
	return payout, nil
}

func (s *PayoutService) notifyPayoutUpdate(ctx context.Context, payout *models.SalonPayout, message string) {
	log := s.logger.WithFields(logrus.Fields{
		"payout_id": payout.ID,
		"salon_id":  payout.SalonID,
		"status":    payout.Status,
	})
	log.Info("Payout status updated")

	salon, err := s.salons.GetByID(ctx, payout.SalonID)
	if err != nil || salon == nil {
		log.WithError(err).Warn("Could not resolve salon owner for payout notification")
		return
	}

	s.notifier.Notify(ctx, models.NewNotification(salon.OwnerID, models.NotificationPayoutUpdated, "Payout update", message))
}

func describeMethod(method models.PayoutMethod) string {
	if method == models.PayoutMethodUPI {
		return "UPI ID"
	}
	return "bank account"
}
