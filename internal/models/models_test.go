package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFeeSplit(t *testing.T) {
	eight := decimal.NewFromInt(8)

	t.Run("Round amount", func(t *testing.T) {
		split := ComputeFeeSplit(decimal.NewFromInt(1000), eight)
		assert.True(t, split.PlatformFee.Equal(decimal.NewFromInt(80)), split.PlatformFee.String())
		assert.True(t, split.SalonAmount.Equal(decimal.NewFromInt(920)), split.SalonAmount.String())
	})

	t.Run("Fee rounds, salon takes remainder", func(t *testing.T) {
		// 999.99 * 8% = 79.9992 -> 80.00, salon 919.99
		split := ComputeFeeSplit(decimal.RequireFromString("999.99"), eight)
		assert.Equal(t, "80", split.PlatformFee.String())
		assert.Equal(t, "919.99", split.SalonAmount.String())

		// 0.06 * 8% = 0.0048 -> 0.00
		split = ComputeFeeSplit(decimal.RequireFromString("0.06"), eight)
		assert.True(t, split.PlatformFee.IsZero())
		assert.Equal(t, "0.06", split.SalonAmount.String())

		// 6.25 * 8% = 0.50 exactly
		split = ComputeFeeSplit(decimal.RequireFromString("6.25"), eight)
		assert.Equal(t, "0.5", split.PlatformFee.String())
	})

	t.Run("No leakage", func(t *testing.T) {
		for _, gross := range []string{"1", "1.01", "49.5", "333.33", "1234.57", "99999.99", "0.01"} {
			g := decimal.RequireFromString(gross)
			for _, pct := range []string{"8", "7.5", "12.25", "2.36"} {
				split := ComputeFeeSplit(g, decimal.RequireFromString(pct))
				assert.True(t, split.PlatformFee.Add(split.SalonAmount).Equal(g), "gross %s pct %s", gross, pct)
				assert.True(t, split.PlatformFee.Mul(hundred).IsInteger(), "fee must be whole minor units")
			}
		}
	})
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100000), ToMinorUnits(decimal.NewFromInt(1000)))
	assert.Equal(t, int64(49950), ToMinorUnits(decimal.RequireFromString("499.5")))
	assert.True(t, FromMinorUnits(49950).Equal(decimal.RequireFromString("499.50")))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusPendingPayment, BookingStatusConfirmed, true},
		{BookingStatusPendingPayment, BookingStatusPaymentFailed, true},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusConfirmed, BookingStatusRefunded, true},
		{BookingStatusCancelled, BookingStatusRefundInitiated, true},
		{BookingStatusRefundInitiated, BookingStatusRefundProcessing, true},
		{BookingStatusRefundProcessing, BookingStatusRefundCompleted, true},
		{BookingStatusConfirmed, BookingStatusPendingPayment, false},
		{BookingStatusConfirmed, BookingStatusPaymentFailed, false},
		{BookingStatusCompleted, BookingStatusCancelled, false},
		{BookingStatusRefunded, BookingStatusConfirmed, false},
		{BookingStatusRefundCompleted, BookingStatusRefundInitiated, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, BookingStatusCompleted.IsTerminal())
	assert.True(t, BookingStatusRefundCompleted.IsTerminal())
	assert.False(t, BookingStatusRefunded.IsTerminal())
	assert.False(t, BookingStatusConfirmed.IsTerminal())
}

func TestStatusesAllowing(t *testing.T) {
	from := StatusesAllowing(BookingStatusPaymentFailed)
	assert.Equal(t, []BookingStatus{BookingStatusPendingPayment}, from)

	from = StatusesAllowing(BookingStatusConfirmed)
	assert.ElementsMatch(t, []BookingStatus{BookingStatusPendingPayment, BookingStatusPaymentFailed}, from)
}

func TestIsRefundable(t *testing.T) {
	assert.True(t, BookingStatusConfirmed.IsRefundable())
	assert.True(t, BookingStatusUpcoming.IsRefundable())
	assert.True(t, BookingStatusPendingPayment.IsRefundable())
	assert.False(t, BookingStatusCompleted.IsRefundable())
	assert.False(t, BookingStatusRefunded.IsRefundable())
}

func TestIsRefunded(t *testing.T) {
	assert.True(t, BookingStatusRefunded.IsRefunded())
	assert.True(t, BookingStatusRefundCompleted.IsRefunded())
	assert.True(t, BookingStatusRefundProcessing.IsRefunded())
	assert.False(t, BookingStatusRefundFailed.IsRefunded(), "a failed refund leaves the money with the salon")
	assert.False(t, BookingStatusConfirmed.IsRefunded())
}

func TestBookingPaymentAndOrderMatching(t *testing.T) {
	paymentID, orderID := "pay_1", "order_1"
	booking := &Booking{Status: BookingStatusCancelled, PaymentID: &paymentID, GatewayOrderID: &orderID}

	assert.True(t, booking.CarriesPayment("pay_1"))
	assert.False(t, booking.CarriesPayment("pay_2"))

	assert.True(t, booking.BelongsToOrder("order_1"))
	assert.False(t, booking.BelongsToOrder("order_2"))
	assert.False(t, booking.BelongsToOrder(""))
	assert.False(t, (&Booking{}).BelongsToOrder("order_1"))
}

func TestChoosePayoutDestination(t *testing.T) {
	upi := "salon@okaxis"

	t.Run("Primary verified wins", func(t *testing.T) {
		accounts := []SalonBankAccount{
			{AccountHolder: "first", IsVerified: true},
			{AccountHolder: "primary", IsVerified: true, IsPrimary: true, UPIID: &upi},
		}
		dest := ChoosePayoutDestination(accounts)
		require.NotNil(t, dest)
		assert.Equal(t, "primary", dest.AccountHolder)
		assert.Equal(t, PayoutMethodUPI, dest.PayoutMethod())
	})

	t.Run("Unverified primary is ignored", func(t *testing.T) {
		accounts := []SalonBankAccount{
			{AccountHolder: "primary", IsPrimary: true},
			{AccountHolder: "verified", IsVerified: true},
		}
		dest := ChoosePayoutDestination(accounts)
		require.NotNil(t, dest)
		assert.Equal(t, "verified", dest.AccountHolder)
		assert.Equal(t, PayoutMethodBankTransfer, dest.PayoutMethod())
	})

	t.Run("None verified", func(t *testing.T) {
		assert.Nil(t, ChoosePayoutDestination([]SalonBankAccount{{IsPrimary: true}}))
		assert.Nil(t, ChoosePayoutDestination(nil))
	})
}

func TestPayoutSettings_IsScheduledDay(t *testing.T) {
	settings := PayoutSettings{DayOfWeek: int(time.Monday)}
	monday := time.Date(2026, 10, 12, 2, 30, 0, 0, time.UTC)
	assert.True(t, settings.IsScheduledDay(monday))
	assert.False(t, settings.IsScheduledDay(monday.AddDate(0, 0, 1)))
}

func TestWebhookEvent_Unmarshal(t *testing.T) {
	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":100000,"currency":"INR","status":"captured","notes":{"booking_id":"b-1","attempt":2}}}}}`

	var event WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(body), &event))
	payment := event.Payload.PaymentEntity()
	require.NotNil(t, payment)
	assert.Equal(t, "pay_1", payment.ID)
	assert.Equal(t, "b-1", payment.Notes.BookingID())
	assert.True(t, payment.IsCaptured())
	assert.Nil(t, event.Payload.OrderEntity())

	// Empty notes arrive as an array
	body = `{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","status":"failed","notes":[]}}}}`
	event = WebhookEvent{}
	require.NoError(t, json.Unmarshal([]byte(body), &event))
	assert.Equal(t, "", event.Payload.PaymentEntity().Notes.BookingID())
}

func TestReconcileRequest_OrderID(t *testing.T) {
	assert.Equal(t, "order_a", (&ReconcileRequest{GatewayOrderID: "order_a", RazorpayOrderID: "order_b"}).OrderID())
	assert.Equal(t, "order_b", (&ReconcileRequest{RazorpayOrderID: "order_b"}).OrderID())
}
