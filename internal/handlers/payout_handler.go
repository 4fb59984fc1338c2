package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/middleware"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PayoutManager runs scheduled payouts and moves payouts through their lifecycle
type PayoutManager interface {
	RunScheduled(ctx context.Context) (*models.PayoutRunSummary, error)
	ApprovePayout(ctx context.Context, id uuid.UUID) (*models.SalonPayout, error)
	CompletePayout(ctx context.Context, id uuid.UUID) (*models.SalonPayout, error)
	FailPayout(ctx context.Context, id uuid.UUID, reason string) (*models.SalonPayout, error)
}

// PayoutHandler serves the payout trigger and admin payout actions
type PayoutHandler struct {
	payouts PayoutManager
	logger  *logrus.Logger
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(payouts PayoutManager, logger *logrus.Logger) *PayoutHandler {
	return &PayoutHandler{payouts: payouts, logger: logger}
}

// RunScheduled handles POST /api/v1/payouts/scheduled
func (h *PayoutHandler) RunScheduled(c *gin.Context) {
	triggeredBy := "admin"
	if c.GetBool(middleware.CronTriggerKey) {
		triggeredBy = "cron"
	}

	summary, err := h.payouts.RunScheduled(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).WithField("triggered_by", triggeredBy).Error("Scheduled payout run failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "payout run failed",
			"details": err.Error(),
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"triggered_by":  triggeredBy,
		"created":       summary.PayoutsCreated,
		"auto_approved": summary.PayoutsAutoApproved,
		"errors":        len(summary.Errors),
		"skipped":       summary.Skipped,
	}).Info("Scheduled payout run finished")

	c.JSON(http.StatusOK, summary)
}

// Approve handles POST /api/v1/admin/payouts/:id/approve
func (h *PayoutHandler) Approve(c *gin.Context) {
	h.transition(c, "approve payout", h.payouts.ApprovePayout)
}

// Complete handles POST /api/v1/admin/payouts/:id/complete
func (h *PayoutHandler) Complete(c *gin.Context) {
	h.transition(c, "complete payout", h.payouts.CompletePayout)
}

// Fail handles POST /api/v1/admin/payouts/:id/fail
func (h *PayoutHandler) Fail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.FailPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	payout, err := h.payouts.FailPayout(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, h.logger, "fail payout", err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "payout": payout})
}

func (h *PayoutHandler) transition(c *gin.Context, operation string, apply func(context.Context, uuid.UUID) (*models.SalonPayout, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payout, err := apply(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, operation, err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "payout": payout})
}
