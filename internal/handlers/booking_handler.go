package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/glamspot/booking-backend/internal/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingCompleter marks a booking completed after the customer's PIN is checked
type BookingCompleter interface {
	Complete(ctx context.Context, actor services.Actor, bookingID uuid.UUID, pin string) (*models.Booking, error)
}

// BookingHandler serves salon-side booking actions
type BookingHandler struct {
	bookings BookingCompleter
	logger   *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings BookingCompleter, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// ============================================================================
// COMPLETE - POST /api/v1/bookings/:id/complete
// ============================================================================

// Complete closes a confirmed booking once the salon enters the customer's PIN
// @Summary Complete a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body models.CompleteBookingRequest true "Completion PIN"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.CompleteBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.bookings.Complete(c.Request.Context(), actorFrom(userCtx), id, req.PIN)
	if err != nil {
		respondError(c, h.logger, "complete booking", err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"booking_id": booking.ID,
		"status":     booking.Status,
	})
}
