package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/glamspot/booking-backend/internal/services"
	"github.com/glamspot/booking-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body
const SignatureHeader = "x-gateway-signature"

// EventIDHeader carries the gateway's delivery id, kept for the audit log
const EventIDHeader = "x-event-id"

// EventLedger applies classified gateway events
type EventLedger interface {
	HandleCaptureEvent(ctx context.Context, payment *models.GatewayPayment) (*services.EventResult, error)
	HandleFailureEvent(ctx context.Context, payment *models.GatewayPayment) (*services.EventResult, error)
	HandleOrderPaid(ctx context.Context, order *models.GatewayOrder, payment *models.GatewayPayment) (*services.EventResult, error)
	HandleRefundEvent(ctx context.Context, refund *models.GatewayRefund, settled bool) (*services.EventResult, error)
}

// WebhookHandler receives asynchronous payment gateway events
type WebhookHandler struct {
	verifier *services.SignatureVerifier
	ledger   EventLedger
	logs     services.WebhookLogStore
	logger   *logrus.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	verifier *services.SignatureVerifier,
	ledger EventLedger,
	logs services.WebhookLogStore,
	logger *logrus.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		ledger:   ledger,
		logs:     logs,
		logger:   logger,
	}
}

// ============================================================================
// GATEWAY WEBHOOK - POST /api/v1/payments/webhook
// ============================================================================

// HandleWebhook verifies and applies one gateway event
// @Summary Payment gateway webhook
// @Description Signature-verified entry point for payment, order and refund events.
// @Description Events that are understood but not actioned still return 200 so the gateway does not retry them.
// @Tags Payments
// @Accept json
// @Produce json
// @Param x-gateway-signature header string true "HMAC-SHA256 hex of the raw body"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /payments/webhook [post]
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if err := h.verifier.Verify(raw, c.GetHeader(SignatureHeader)); err != nil {
		h.logger.WithFields(logrus.Fields{
			"ip":    utils.GetRealIP(c),
			"bytes": len(raw),
		}).Warn("Rejected webhook with invalid signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.logger.WithError(err).Warn("Signed webhook body is not valid JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}

	entry := h.recordReceipt(c, &event, raw)

	log := h.logger.WithField("event", event.Event)
	log.Info("Webhook received")

	result, err := h.dispatch(c.Request.Context(), &event)
	if err != nil {
		h.markFailed(c.Request.Context(), entry, err)
		if errors.Is(err, services.ErrNotFound) {
			log.WithError(err).Warn("Webhook references an unknown booking")
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.WithError(err).Error("Webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "webhook processing failed",
			"details": err.Error(),
		})
		return
	}

	h.markProcessed(c.Request.Context(), entry)

	log.WithFields(logrus.Fields{
		"status":     result.Status,
		"booking_id": result.BookingID,
	}).Info("Webhook handled")

	response := gin.H{
		"received": true,
		"event":    event.Event,
		"status":   result.Status,
	}
	if result.BookingID != "" {
		response["booking_id"] = result.BookingID
	}
	if result.Reason != "" {
		response["reason"] = result.Reason
	}
	c.JSON(http.StatusOK, response)
}

// dispatch routes the event to the ledger by its classified action
func (h *WebhookHandler) dispatch(ctx context.Context, event *models.WebhookEvent) (*services.EventResult, error) {
	payment := event.Payload.PaymentEntity()

	switch services.ClassifyEvent(event.Event) {
	case services.ActionCapture:
		if payment == nil {
			return missingEntity("payment"), nil
		}
		return h.ledger.HandleCaptureEvent(ctx, payment)

	case services.ActionFailure:
		if payment == nil {
			return missingEntity("payment"), nil
		}
		return h.ledger.HandleFailureEvent(ctx, payment)

	case services.ActionOrderPaid:
		order := event.Payload.OrderEntity()
		if order == nil {
			return missingEntity("order"), nil
		}
		return h.ledger.HandleOrderPaid(ctx, order, payment)

	case services.ActionRefundSettled, services.ActionRefundFailed:
		refund := event.Payload.RefundEntity()
		if refund == nil {
			return missingEntity("refund"), nil
		}
		return h.ledger.HandleRefundEvent(ctx, refund, services.ClassifyEvent(event.Event) == services.ActionRefundSettled)

	case services.ActionAcknowledge:
		return &services.EventResult{Status: services.EventAcknowledged}, nil

	default:
		return &services.EventResult{Status: services.EventIgnored, Reason: "unhandled event type"}, nil
	}
}

func missingEntity(name string) *services.EventResult {
	return &services.EventResult{Status: services.EventIgnored, Reason: "event has no " + name + " entity"}
}

// recordReceipt writes the audit row. A failed insert is logged and the
// event is still processed; nil is returned in that case.
func (h *WebhookHandler) recordReceipt(c *gin.Context, event *models.WebhookEvent, raw []byte) *models.WebhookLog {
	paymentID := ""
	if payment := event.Payload.PaymentEntity(); payment != nil {
		paymentID = payment.ID
	} else if refund := event.Payload.RefundEntity(); refund != nil {
		paymentID = refund.PaymentID
	}

	userAgent := utils.GetUserAgent(c)
	entry := models.NewWebhookLog(event.Event, raw).
		SetEventID(c.GetHeader(EventIDHeader)).
		SetGatewayPaymentID(paymentID).
		SetClientInfo(utils.GetRealIP(c), userAgent, utils.ParseUserAgent(userAgent).ToMap())

	if err := h.logs.Create(c.Request.Context(), entry); err != nil {
		h.logger.WithError(err).WithField("event", event.Event).Warn("Failed to write webhook log")
		return nil
	}
	return entry
}

func (h *WebhookHandler) markProcessed(ctx context.Context, entry *models.WebhookLog) {
	if entry == nil {
		return
	}
	if err := h.logs.MarkProcessed(ctx, entry.ID); err != nil {
		h.logger.WithError(err).WithField("webhook_log_id", entry.ID).Warn("Failed to mark webhook log processed")
	}
}

func (h *WebhookHandler) markFailed(ctx context.Context, entry *models.WebhookLog, cause error) {
	if entry == nil {
		return
	}
	if err := h.logs.MarkFailed(ctx, entry.ID, cause.Error()); err != nil {
		h.logger.WithError(err).WithField("webhook_log_id", entry.ID).Warn("Failed to mark webhook log failed")
	}
}
