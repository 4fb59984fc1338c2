package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/glamspot/booking-backend/internal/services"
	"github.com/glamspot/booking-backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteBooking(t *testing.T) {
	t.Run("Salon owner completes with PIN", func(t *testing.T) {
		f := newAPIFixture()
		ownerID := uuid.New()
		bookingID := uuid.New()

		w := f.authed(t, "POST", "/api/v1/bookings/"+bookingID.String()+"/complete",
			map[string]string{"pin": "4821"}, ownerID, jwt.RoleSalonOwner)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, bookingID.String(), body["booking_id"])
		assert.Equal(t, "4821", f.completer.gotPIN)
		assert.Equal(t, services.Actor{UserID: ownerID}, f.completer.gotActor)
	})

	t.Run("Missing PIN", func(t *testing.T) {
		f := newAPIFixture()
		w := f.authed(t, "POST", "/api/v1/bookings/"+uuid.NewString()+"/complete",
			map[string]string{}, uuid.New(), jwt.RoleSalonOwner)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Wrong PIN", func(t *testing.T) {
		f := newAPIFixture()
		f.completer.err = fmt.Errorf("%w: incorrect completion PIN", services.ErrInvalidInput)

		w := f.authed(t, "POST", "/api/v1/bookings/"+uuid.NewString()+"/complete",
			map[string]string{"pin": "0000"}, uuid.New(), jwt.RoleSalonOwner)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w)["error"], "incorrect completion PIN")
	})

	t.Run("Other salon's booking", func(t *testing.T) {
		f := newAPIFixture()
		f.completer.err = services.ErrForbidden

		w := f.authed(t, "POST", "/api/v1/bookings/"+uuid.NewString()+"/complete",
			map[string]string{"pin": "4821"}, uuid.New(), jwt.RoleSalonOwner)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Customers cannot complete", func(t *testing.T) {
		f := newAPIFixture()
		w := f.authed(t, "POST", "/api/v1/bookings/"+uuid.NewString()+"/complete",
			map[string]string{"pin": "4821"}, uuid.New(), jwt.RoleCustomer)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, f.completer.gotPIN)
	})
}
