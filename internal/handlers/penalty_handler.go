package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PenaltyManager lists and waives cancellation penalties
type PenaltyManager interface {
	ListOutstanding(ctx context.Context, userID uuid.UUID) ([]models.CancellationPenalty, error)
	Waive(ctx context.Context, penaltyID, adminID uuid.UUID) (*models.CancellationPenalty, error)
}

// PenaltyHandler serves cancellation penalty endpoints
type PenaltyHandler struct {
	penalties PenaltyManager
	logger    *logrus.Logger
}

// NewPenaltyHandler creates a new PenaltyHandler
func NewPenaltyHandler(penalties PenaltyManager, logger *logrus.Logger) *PenaltyHandler {
	return &PenaltyHandler{penalties: penalties, logger: logger}
}

// Outstanding handles GET /api/v1/penalties/outstanding.
// The total is what the customer's next payment will settle.
func (h *PenaltyHandler) Outstanding(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	penalties, err := h.penalties.ListOutstanding(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, "list penalties", err, http.StatusBadGateway)
		return
	}

	total := decimal.Zero
	for _, p := range penalties {
		total = total.Add(p.Amount)
	}
	if penalties == nil {
		penalties = []models.CancellationPenalty{}
	}

	c.JSON(http.StatusOK, gin.H{
		"penalties": penalties,
		"count":     len(penalties),
		"total":     total,
	})
}

// Waive handles POST /api/v1/admin/penalties/:id/waive
func (h *PenaltyHandler) Waive(c *gin.Context) {
	userCtx, ok := requireUser(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	penalty, err := h.penalties.Waive(c.Request.Context(), id, userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, "waive penalty", err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "penalty": penalty})
}
