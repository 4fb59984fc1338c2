package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/glamspot/booking-backend/internal/services"
	"github.com/glamspot/booking-backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	t.Run("Requires a token", func(t *testing.T) {
		f := newAPIFixture()
		w := f.do(t, "POST", "/api/v1/payments/reconcile", map[string]string{"booking_id": uuid.NewString()})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Returns the poll result", func(t *testing.T) {
		f := newAPIFixture()
		bookingID := uuid.New()
		userID := uuid.New()

		w := f.authed(t, "POST", "/api/v1/payments/reconcile",
			map[string]string{"booking_id": bookingID.String(), "gateway_order_id": "order_9"},
			userID, jwt.RoleCustomer)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.Equal(t, "captured", body["status"])
		assert.Equal(t, "pay_1", body["payment_id"])
		assert.Equal(t, bookingID, f.reconciler.gotBooking)
		assert.Equal(t, "order_9", f.reconciler.gotOrder)
		assert.Equal(t, services.Actor{UserID: userID}, f.reconciler.gotActor)
	})

	t.Run("Accepts the legacy order id field", func(t *testing.T) {
		f := newAPIFixture()
		w := f.authed(t, "POST", "/api/v1/payments/reconcile",
			map[string]string{"booking_id": uuid.NewString(), "razorpay_order_id": "order_legacy"},
			uuid.New(), jwt.RoleCustomer)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "order_legacy", f.reconciler.gotOrder)
	})

	t.Run("Bad booking id", func(t *testing.T) {
		f := newAPIFixture()
		w := f.authed(t, "POST", "/api/v1/payments/reconcile",
			map[string]string{"booking_id": "nope", "gateway_order_id": "order_1"}, uuid.New(), jwt.RoleCustomer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error mapping", func(t *testing.T) {
		cases := map[string]struct {
			err  error
			code int
		}{
			"Not found":     {fmt.Errorf("%w: booking", services.ErrNotFound), http.StatusNotFound},
			"Missing order": {fmt.Errorf("%w: order id is required", services.ErrInvalidInput), http.StatusBadRequest},
			"Foreign order": {fmt.Errorf("%w: order does not belong to booking", services.ErrInvalidInput), http.StatusBadRequest},
			"Not the owner": {services.ErrForbidden, http.StatusForbidden},
			"Gateway down":  {&services.GatewayError{StatusCode: 503, Description: "service unavailable"}, http.StatusBadGateway},
			"Store failure": {errDatabaseDown, http.StatusInternalServerError},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				f := newAPIFixture()
				f.reconciler.err = tc.err
				f.reconciler.resp = nil

				w := f.authed(t, "POST", "/api/v1/payments/reconcile",
					map[string]string{"booking_id": uuid.NewString(), "gateway_order_id": "order_1"}, uuid.New(), jwt.RoleCustomer)
				assert.Equal(t, tc.code, w.Code)
			})
		}
	})
}

func TestRefund(t *testing.T) {
	t.Run("Customer refund", func(t *testing.T) {
		f := newAPIFixture()
		userID := uuid.New()
		bookingID := uuid.New()

		w := f.authed(t, "POST", "/api/v1/payments/refund",
			`{"booking_id":"`+bookingID.String()+`","refund_amount":"250.50"}`, userID, jwt.RoleCustomer)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "rfnd_1", body["refund_id"])
		assert.Equal(t, bookingID.String(), body["booking_id"])

		assert.Equal(t, services.Actor{UserID: userID}, f.refunder.gotActor)
		require.NotNil(t, f.refunder.gotAmount)
		assert.True(t, f.refunder.gotAmount.Equal(decimal.RequireFromString("250.50")))
	})

	t.Run("Numeric amount and admin actor", func(t *testing.T) {
		f := newAPIFixture()
		adminID := uuid.New()

		w := f.authed(t, "POST", "/api/v1/payments/refund",
			`{"booking_id":"`+uuid.NewString()+`","refund_amount":100}`, adminID, jwt.RoleAdmin)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, f.refunder.gotActor.IsAdmin)
		assert.True(t, f.refunder.gotAmount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("Full refund when amount omitted", func(t *testing.T) {
		f := newAPIFixture()
		w := f.authed(t, "POST", "/api/v1/payments/refund",
			map[string]string{"booking_id": uuid.NewString()}, uuid.New(), jwt.RoleCustomer)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, f.refunder.gotAmount)
	})

	t.Run("Missing booking id", func(t *testing.T) {
		f := newAPIFixture()
		w := f.authed(t, "POST", "/api/v1/payments/refund", map[string]string{}, uuid.New(), jwt.RoleCustomer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["success"])
	})

	t.Run("Gateway rejection passes description through", func(t *testing.T) {
		f := newAPIFixture()
		f.refunder.err = &services.GatewayError{
			StatusCode:  400,
			Code:        "BAD_REQUEST_ERROR",
			Description: "The payment has been fully refunded already",
		}

		w := f.authed(t, "POST", "/api/v1/payments/refund",
			map[string]string{"booking_id": uuid.NewString()}, uuid.New(), jwt.RoleCustomer)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "The payment has been fully refunded already", body["error"])
	})

	t.Run("Error mapping", func(t *testing.T) {
		cases := map[string]struct {
			err  error
			code int
		}{
			"Not refundable": {fmt.Errorf("%w: booking is completed", services.ErrInvalidState), http.StatusBadRequest},
			"Not the owner":  {services.ErrForbidden, http.StatusForbidden},
			"Unknown":        {services.ErrNotFound, http.StatusNotFound},
			"Store failure":  {errDatabaseDown, http.StatusInternalServerError},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				f := newAPIFixture()
				f.refunder.err = tc.err
				w := f.authed(t, "POST", "/api/v1/payments/refund",
					map[string]string{"booking_id": uuid.NewString()}, uuid.New(), jwt.RoleCustomer)
				assert.Equal(t, tc.code, w.Code)

				body := decodeBody(t, w)
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["error"])
			})
		}
	})
}
