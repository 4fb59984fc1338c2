package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/glamspot/booking-backend/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OrderReconciler pulls an order's payment status from the gateway
type OrderReconciler interface {
	ReconcileOrder(ctx context.Context, actor services.Actor, bookingID uuid.UUID, orderID string) (*models.ReconcileResponse, error)
}

// Refunder refunds a booking
type Refunder interface {
	Refund(ctx context.Context, actor services.Actor, bookingID uuid.UUID, override *decimal.Decimal) (*models.RefundResponse, error)
}

// PaymentHandler serves the app-facing payment endpoints
type PaymentHandler struct {
	reconciler OrderReconciler
	refunds    Refunder
	logger     *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(reconciler OrderReconciler, refunds Refunder, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		reconciler: reconciler,
		refunds:    refunds,
		logger:     logger,
	}
}

// ============================================================================
// RECONCILE - POST /api/v1/payments/reconcile
// ============================================================================

// Reconcile polls the gateway for an order whose webhook may not have arrived
// @Summary Reconcile a booking's payment
// @Description Called by the app after redirect-back from checkout.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ReconcileRequest true "Booking and order id"
// @Success 200 {object} models.ReconcileResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /payments/reconcile [post]
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking_id"})
		return
	}

	resp, err := h.reconciler.ReconcileOrder(c.Request.Context(), actorFrom(userCtx), bookingID, req.OrderID())
	if err != nil {
		respondError(c, h.logger, "reconcile", err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ============================================================================
// REFUND - POST /api/v1/payments/refund
// ============================================================================

// Refund refunds a booking through the gateway, or queues a manual refund
// @Summary Refund a booking
// @Description Customers may refund their own bookings, admins any booking.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.RefundRequest true "Booking and optional amount"
// @Success 200 {object} models.RefundResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /payments/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid booking_id"})
		return
	}

	resp, err := h.refunds.Refund(c.Request.Context(), actorFrom(userCtx), bookingID, req.RefundAmount)
	if err != nil {
		respondFailure(c, h.logger, "refund", err, http.StatusBadRequest)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id":    resp.BookingID,
		"refund_id":     resp.RefundID,
		"refund_status": resp.RefundStatus,
		"user_id":       userCtx.UserID,
	}).Info("Refund requested")

	c.JSON(http.StatusOK, resp)
}
