package services

import (
	"context"
	"errors"
	"testing"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefundFixture(bookings ...*models.Booking) (*RefundService, *fakeBookingStore, *fakeGateway, *recordingNotifier) {
	store := newFakeBookingStore(bookings...)
	gateway := newFakeGateway()
	notifier := &recordingNotifier{}
	return NewRefundService(store, gateway, notifier, quietLogger()), store, gateway, notifier
}

func confirmedBooking(paymentID string) *models.Booking {
	booking := pendingBooking()
	booking.Status = models.BookingStatusConfirmed
	booking.PaymentID = &paymentID
	return booking
}

func TestRefund_GatewayBranch(t *testing.T) {
	booking := confirmedBooking("pay_1")
	svc, store, gateway, notifier := newRefundFixture(booking)

	resp, err := svc.Refund(context.Background(), Actor{UserID: booking.UserID}, booking.ID, nil)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "rfnd_pay_1", resp.RefundID)
	assert.Equal(t, "processed", resp.RefundStatus)
	assert.True(t, resp.RefundAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, booking.ID.String(), resp.BookingID)
	assert.NotEmpty(t, resp.EstimatedDays)

	assert.Equal(t, []int64{100000}, gateway.refunds, "refund sent in paise")
	assert.Equal(t, models.BookingStatusRefunded, store.status(booking.ID))
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, models.NotificationRefundProcessed, notifier.last().Type)
}

func TestRefund_ManualBranch(t *testing.T) {
	booking := pendingBooking()
	svc, store, gateway, notifier := newRefundFixture(booking)

	resp, err := svc.Refund(context.Background(), Actor{UserID: booking.UserID}, booking.ID, nil)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Empty(t, resp.RefundID)
	assert.Equal(t, "manual_required", resp.RefundStatus)
	assert.Equal(t, 0, gateway.callCount())
	assert.Equal(t, models.BookingStatusRefundInitiated, store.status(booking.ID))
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, models.NotificationRefundInitiated, notifier.last().Type)
	assert.Contains(t, notifier.last().Message, "5-7 business days")
}

func TestRefund_OverrideAmount(t *testing.T) {
	t.Run("Partial refund", func(t *testing.T) {
		booking := confirmedBooking("pay_1")
		svc, _, gateway, _ := newRefundFixture(booking)
		amount := decimal.RequireFromString("250.50")

		resp, err := svc.Refund(context.Background(), Actor{UserID: booking.UserID}, booking.ID, &amount)
		require.NoError(t, err)
		assert.True(t, resp.RefundAmount.Equal(amount))
		assert.Equal(t, []int64{25050}, gateway.refunds)
	})

	for name, raw := range map[string]string{"Zero": "0", "Negative": "-10", "Above price": "1000.01"} {
		t.Run(name, func(t *testing.T) {
			booking := confirmedBooking("pay_1")
			svc, store, gateway, _ := newRefundFixture(booking)
			amount := decimal.RequireFromString(raw)

			_, err := svc.Refund(context.Background(), Actor{UserID: booking.UserID}, booking.ID, &amount)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 0, gateway.callCount())
			assert.Equal(t, models.BookingStatusConfirmed, store.status(booking.ID))
		})
	}
}

func TestRefund_Rejections(t *testing.T) {
	t.Run("Ineligible status", func(t *testing.T) {
		for _, status := range []models.BookingStatus{
			models.BookingStatusCompleted,
			models.BookingStatusCancelled,
			models.BookingStatusRefunded,
			models.BookingStatusPaymentFailed,
		} {
			booking := confirmedBooking("pay_1")
			booking.Status = status
			svc, _, gateway, _ := newRefundFixture(booking)

			_, err := svc.Refund(context.Background(), Actor{UserID: booking.UserID}, booking.ID, nil)
			assert.ErrorIs(t, err, ErrInvalidState, string(status))
			assert.Equal(t, 0, gateway.callCount())
		}
	})

	t.Run("Unknown booking", func(t *testing.T) {
		svc, _, _, _ := newRefundFixture()
		_, err := svc.Refund(context.Background(), Actor{IsAdmin: true}, uuid.New(), nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Other customer's booking", func(t *testing.T) {
		booking := confirmedBooking("pay_1")
		svc, _, gateway, _ := newRefundFixture(booking)
		_, err := svc.Refund(context.Background(), Actor{UserID: uuid.New()}, booking.ID, nil)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, 0, gateway.callCount())
	})

	t.Run("Admin may refund any booking", func(t *testing.T) {
		booking := confirmedBooking("pay_1")
		svc, _, _, _ := newRefundFixture(booking)
		_, err := svc.Refund(context.Background(), Actor{UserID: uuid.New(), IsAdmin: true}, booking.ID, nil)
		assert.NoError(t, err)
	})
}

func TestRefund_GatewayFailureLeavesBooking(t *testing.T) {
	booking := confirmedBooking("pay_1")
	svc, store, gateway, notifier := newRefundFixture(booking)
	gateway.refundErr = &GatewayError{
		StatusCode:  400,
		Code:        "BAD_REQUEST_ERROR",
		Description: "The refund amount provided is greater than amount captured",
	}

	_, err := svc.Refund(context.Background(), Actor{UserID: booking.UserID}, booking.ID, nil)
	require.Error(t, err)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "The refund amount provided is greater than amount captured", gwErr.Error())

	assert.Equal(t, models.BookingStatusConfirmed, store.status(booking.ID))
	assert.Equal(t, 0, store.writes)
	assert.Equal(t, 0, notifier.count())
}
