package services

import (
	"context"
	"fmt"
	"time"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// EventStatus is the outcome reported for a handled gateway event
type EventStatus string

const (
	EventProcessed        EventStatus = "processed"
	EventAlreadyProcessed EventStatus = "already_processed"
	EventIgnored          EventStatus = "ignored"
	EventAcknowledged     EventStatus = "acknowledged"
	EventReconciled       EventStatus = "reconciled"
)

// EventResult describes what the ledger did with an event
type EventResult struct {
	Status           EventStatus `json:"status"`
	BookingID        string      `json:"booking_id,omitempty"`
	PaymentRecorded  bool        `json:"payment_recorded,omitempty"`
	PenaltiesSettled int64       `json:"penalties_settled,omitempty"`
	Reason           string      `json:"reason,omitempty"`
}

// LedgerService applies gateway events to bookings and the payment ledger.
// The payment insert, penalty settlement and booking update are independent
// steps; ReconciliationService repairs a booking whose payment row is missing.
type LedgerService struct {
	bookings   BookingStore
	payments   PaymentStore
	penalties  *PenaltyService
	gateway    PaymentGateway
	notifier   Notifier
	feePercent decimal.Decimal
	currency   string
	logger     *logrus.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	bookings BookingStore,
	payments PaymentStore,
	penalties *PenaltyService,
	gateway PaymentGateway,
	notifier Notifier,
	feePercent decimal.Decimal,
	currency string,
	logger *logrus.Logger,
) *LedgerService {
	return &LedgerService{
		bookings:   bookings,
		payments:   payments,
		penalties:  penalties,
		gateway:    gateway,
		notifier:   notifier,
		feePercent: feePercent,
		currency:   currency,
		logger:     logger,
	}
}

// ============================================================================
// WEBHOOK EVENTS
// ============================================================================

// HandleCaptureEvent records a captured payment and confirms its booking
func (s *LedgerService) HandleCaptureEvent(ctx context.Context, payment *models.GatewayPayment) (*EventResult, error) {
	rawBookingID := payment.Notes.BookingID()
	if rawBookingID == "" {
		s.logger.WithFields(logrus.Fields{
			"gateway_payment_id": payment.ID,
			"gateway_order_id":   payment.OrderID,
		}).Warn("Captured payment has no booking_id in notes, acknowledging without changes")
		return &EventResult{Status: EventIgnored, Reason: "no booking_id in notes"}, nil
	}

	booking, err := s.loadBooking(ctx, rawBookingID)
	if err != nil {
		return nil, err
	}

	if booking.CarriesPayment(payment.ID) {
		s.logger.WithFields(logrus.Fields{
			"booking_id":         booking.ID,
			"status":             booking.Status,
			"gateway_payment_id": payment.ID,
		}).Info("Duplicate capture event, booking already settled by this payment")
		return &EventResult{Status: EventAlreadyProcessed, BookingID: booking.ID.String()}, nil
	}

	return s.applyCapture(ctx, booking, payment)
}

// HandleFailureEvent marks a pending booking payment_failed
func (s *LedgerService) HandleFailureEvent(ctx context.Context, payment *models.GatewayPayment) (*EventResult, error) {
	rawBookingID := payment.Notes.BookingID()
	if rawBookingID == "" {
		s.logger.WithField("gateway_payment_id", payment.ID).
			Warn("Failed payment has no booking_id in notes, acknowledging without changes")
		return &EventResult{Status: EventIgnored, Reason: "no booking_id in notes"}, nil
	}

	booking, err := s.loadBooking(ctx, rawBookingID)
	if err != nil {
		return nil, err
	}

	ok, err := s.bookings.TransitionStatus(ctx, booking.ID, models.BookingStatusPaymentFailed)
	if err != nil {
		return nil, err
	}
	if !ok {
		// a late failure for an earlier attempt must not downgrade the booking
		s.logger.WithFields(logrus.Fields{
			"booking_id":         booking.ID,
			"status":             booking.Status,
			"gateway_payment_id": payment.ID,
		}).Info("Ignoring payment failure, booking is past pending_payment")
		return &EventResult{Status: EventIgnored, BookingID: booking.ID.String(), Reason: "booking not pending payment"}, nil
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":         booking.ID,
		"gateway_payment_id": payment.ID,
		"error_code":         payment.ErrorCode,
	}).Info("Booking payment failed")

	message := fmt.Sprintf("Your payment for %s at %s could not be completed. Please try again.",
		booking.ServiceName, booking.SalonName)
	if payment.ErrorDescription != "" {
		message = fmt.Sprintf("%s Reason: %s", message, payment.ErrorDescription)
	}
	s.notifier.Notify(ctx, models.NewNotification(
		booking.UserID, models.NotificationPaymentFailed, "Payment failed", message,
	).ForBooking(booking.ID))

	return &EventResult{Status: EventProcessed, BookingID: booking.ID.String()}, nil
}

// HandleOrderPaid is a backup signal for a capture that has not arrived yet.
// A booking still waiting on this order is reconciled against the gateway.
func (s *LedgerService) HandleOrderPaid(ctx context.Context, order *models.GatewayOrder, payment *models.GatewayPayment) (*EventResult, error) {
	rawBookingID := order.Notes.BookingID()
	if rawBookingID == "" && payment != nil {
		rawBookingID = payment.Notes.BookingID()
	}
	if rawBookingID == "" {
		s.logger.WithField("gateway_order_id", order.ID).
			Warn("Paid order has no booking_id in notes, acknowledging without changes")
		return &EventResult{Status: EventIgnored, Reason: "no booking_id in notes"}, nil
	}

	booking, err := s.loadBooking(ctx, rawBookingID)
	if err != nil {
		return nil, err
	}

	result := &EventResult{Status: EventAcknowledged, BookingID: booking.ID.String()}
	if booking.Status != models.BookingStatusPendingPayment && booking.Status != models.BookingStatusPaymentFailed {
		return result, nil
	}
	if !booking.BelongsToOrder(order.ID) {
		s.logger.WithFields(logrus.Fields{
			"booking_id":       booking.ID,
			"gateway_order_id": order.ID,
		}).Warn("Paid order does not match the booking's order")
		return result, nil
	}

	resp, err := s.reconcileBooking(ctx, booking, order.ID)
	if err != nil {
		// the capture event or the client poll will still settle it
		s.logger.WithError(err).WithField("booking_id", booking.ID).
			Warn("Order paid reconciliation failed")
		return result, nil
	}
	if resp.Status == models.ReconcileCaptured {
		result.Status = EventReconciled
	}

	return result, nil
}

// HandleRefundEvent settles a refund on the booking that owns the payment
func (s *LedgerService) HandleRefundEvent(ctx context.Context, refund *models.GatewayRefund, settled bool) (*EventResult, error) {
	booking, err := s.bookings.GetByPaymentID(ctx, refund.PaymentID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		s.logger.WithFields(logrus.Fields{
			"refund_id":          refund.ID,
			"gateway_payment_id": refund.PaymentID,
		}).Warn("Refund event for unknown payment, acknowledging without changes")
		return &EventResult{Status: EventIgnored, Reason: "no booking for payment"}, nil
	}

	to := models.BookingStatusRefundFailed
	nType := models.NotificationRefundFailed
	title := "Refund failed"
	message := fmt.Sprintf("We could not complete the refund for your %s booking at %s. Our team will contact you.",
		booking.ServiceName, booking.SalonName)
	if settled {
		to = models.BookingStatusRefundCompleted
		nType = models.NotificationRefundProcessed
		title = "Refund completed"
		message = fmt.Sprintf("₹%s for your %s booking at %s has been credited back.",
			models.FromMinorUnits(refund.Amount).StringFixed(2), booking.ServiceName, booking.SalonName)
	}

	ok, err := s.bookings.TransitionStatus(ctx, booking.ID, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"status":     booking.Status,
			"target":     to,
		}).Info("Refund event does not apply to booking status")
		return &EventResult{Status: EventIgnored, BookingID: booking.ID.String(), Reason: "booking not awaiting refund"}, nil
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"refund_id":  refund.ID,
		"status":     to,
	}).Info("Refund settled on booking")

	s.notifier.Notify(ctx, models.NewNotification(booking.UserID, nType, title, message).ForBooking(booking.ID))

	return &EventResult{Status: EventProcessed, BookingID: booking.ID.String()}, nil
}

// ============================================================================
// RECONCILIATION POLL
// ============================================================================

// ReconcileOrder pulls the order's payment attempts from the gateway and applies
// a captured one. Called by clients after returning from the payment page.
// The order must be the one created for the booking, and only the booking's
// owner or an admin may poll it.
func (s *LedgerService) ReconcileOrder(ctx context.Context, actor Actor, bookingID uuid.UUID, orderID string) (*models.ReconcileResponse, error) {
	if orderID == "" {
		return nil, invalidInput("gateway_order_id is required")
	}

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
	if !booking.BelongsToOrder(orderID) {
		s.logger.WithFields(logrus.Fields{
			"booking_id":       booking.ID,
			"gateway_order_id": orderID,
			"requested_by":     actor.UserID,
		}).Warn("Reconcile requested with an order that is not the booking's")
		return nil, invalidInput("gateway_order_id %s does not belong to booking %s", orderID, booking.ID)
	}

	return s.reconcileBooking(ctx, booking, orderID)
}

func (s *LedgerService) reconcileBooking(ctx context.Context, booking *models.Booking, orderID string) (*models.ReconcileResponse, error) {
	if booking.Status == models.BookingStatusConfirmed && booking.HasPayment() {
		return &models.ReconcileResponse{Status: models.ReconcileCaptured, PaymentID: *booking.PaymentID}, nil
	}

	attempts, err := s.gateway.FetchOrderPayments(ctx, orderID)
	if err != nil {
		return nil, err
	}

	count := len(attempts)
	if count == 0 {
		return &models.ReconcileResponse{Status: models.ReconcileCancelled, PaymentsCount: &count}, nil
	}

	var captured *models.GatewayPayment
	latest := &attempts[0]
	for i := range attempts {
		if attempts[i].IsCaptured() && captured == nil {
			if noted := attempts[i].Notes.BookingID(); noted != "" && noted != booking.ID.String() {
				s.logger.WithFields(logrus.Fields{
					"booking_id":         booking.ID,
					"noted_booking_id":   noted,
					"gateway_payment_id": attempts[i].ID,
				}).Warn("Captured payment on order is noted for another booking, skipping")
			} else {
				captured = &attempts[i]
			}
		}
		if attempts[i].CreatedAt > latest.CreatedAt {
			latest = &attempts[i]
		}
	}

	if captured == nil {
		return &models.ReconcileResponse{
			Status:            models.ReconcilePending,
			PaymentsCount:     &count,
			LastPaymentStatus: latest.Status,
		}, nil
	}

	if captured.OrderID == "" {
		captured.OrderID = orderID
	}
	if booking.CarriesPayment(captured.ID) {
		return &models.ReconcileResponse{Status: models.ReconcileCaptured, PaymentID: captured.ID}, nil
	}
	if _, err := s.applyCapture(ctx, booking, captured); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":         booking.ID,
		"gateway_order_id":   orderID,
		"gateway_payment_id": captured.ID,
	}).Info("Booking reconciled from order status")

	return &models.ReconcileResponse{Status: models.ReconcileCaptured, PaymentID: captured.ID}, nil
}

// ============================================================================
// CAPTURE LEDGER UPDATE
// ============================================================================

// applyCapture records the payment, settles penalties and confirms the booking.
// Ledger and penalty write failures are logged and do not stop the confirmation.
func (s *LedgerService) applyCapture(ctx context.Context, booking *models.Booking, payment *models.GatewayPayment) (*EventResult, error) {
	result := &EventResult{Status: EventProcessed, BookingID: booking.ID.String()}
	log := s.logger.WithFields(logrus.Fields{
		"booking_id":         booking.ID,
		"gateway_payment_id": payment.ID,
		"gateway_order_id":   payment.OrderID,
	})

	recorded, err := s.RecordPayment(ctx, booking, payment)
	alreadyRecorded := err == nil && !recorded
	if err != nil {
		log.WithError(err).Error("Partial write: payment row not recorded, confirming booking anyway")
	}
	result.PaymentRecorded = recorded

	// penalties are settled once per payment, by the delivery that recorded it
	var settled int64
	if alreadyRecorded {
		log.Info("Payment already in ledger, penalties not settled again")
	} else {
		settled, err = s.penalties.SettleForUser(ctx, booking.UserID, booking.ID)
		if err != nil {
			log.WithError(err).Error("Partial write: penalty settlement failed, confirming booking anyway")
		}
	}
	result.PenaltiesSettled = settled

	confirmed, err := s.bookings.ConfirmWithPayment(ctx, booking.ID, payment.ID)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		log.WithField("status", booking.Status).
			Warn("Booking not in a confirmable status, payment recorded without confirmation")
		result.Reason = "booking not confirmable"
		return result, nil
	}

	log.WithFields(logrus.Fields{
		"payment_recorded":  recorded,
		"penalties_settled": settled,
	}).Info("Booking confirmed")

	s.notifier.Notify(ctx, models.NewNotification(
		booking.UserID,
		models.NotificationPaymentSuccess,
		"Booking confirmed",
		fmt.Sprintf("Your %s booking at %s on %s at %s is confirmed.",
			booking.ServiceName, booking.SalonName, booking.BookingDate.Format("02 Jan 2006"), booking.BookingTime),
	).ForBooking(booking.ID))

	return result, nil
}

// RecordPayment inserts the ledger row for a captured payment unless one exists.
// Returns false when the payment was already recorded.
func (s *LedgerService) RecordPayment(ctx context.Context, booking *models.Booking, payment *models.GatewayPayment) (bool, error) {
	exists, err := s.payments.ExistsByGatewayPaymentID(ctx, payment.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	currency := payment.Currency
	if currency == "" {
		currency = s.currency
	}

	split := models.ComputeFeeSplit(models.FromMinorUnits(payment.Amount), s.feePercent)

	capturedAt := time.Now()
	if payment.CreatedAt > 0 {
		capturedAt = time.Unix(payment.CreatedAt, 0)
	}

	row := &models.Payment{
		BookingID:        booking.ID,
		UserID:           booking.UserID,
		SalonID:          booking.SalonID,
		Amount:           split.Gross,
		Currency:         currency,
		Status:           models.PaymentStatusCaptured,
		GatewayPaymentID: payment.ID,
		PlatformFee:      split.PlatformFee,
		SalonAmount:      split.SalonAmount,
		FeePercentage:    split.FeePercentage,
		CapturedAt:       capturedAt,
	}
	if payment.OrderID != "" {
		orderID := payment.OrderID
		row.GatewayOrderID = &orderID
	}

	return s.payments.Insert(ctx, row)
}

// loadBooking resolves the booking id carried in gateway notes
func (s *LedgerService) loadBooking(ctx context.Context, rawBookingID string) (*models.Booking, error) {
	bookingID, err := uuid.Parse(rawBookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %q: %w", rawBookingID, ErrNotFound)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}

	return booking, nil
}
