package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// LedgerSweeper repairs confirmed bookings whose payment row is missing
type LedgerSweeper interface {
	Sweep(ctx context.Context, limit int) (*models.SweepResult, error)
}

// ReconciliationHandler serves the admin ledger sweep
type ReconciliationHandler struct {
	sweeper LedgerSweeper
	logger  *logrus.Logger
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(sweeper LedgerSweeper, logger *logrus.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{sweeper: sweeper, logger: logger}
}

// Sweep handles POST /api/v1/admin/reconciliation/sweep. The body is optional.
func (h *ReconciliationHandler) Sweep(c *gin.Context) {
	var req models.SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}
	if req.Limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must not be negative"})
		return
	}

	result, err := h.sweeper.Sweep(c.Request.Context(), req.Limit)
	if err != nil {
		respondError(c, h.logger, "reconciliation sweep", err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, result)
}
