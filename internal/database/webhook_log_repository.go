package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// WebhookLogRepository handles the inbound gateway event audit log
type WebhookLogRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewWebhookLogRepository creates a new webhook log repository
func NewWebhookLogRepository(db *sqlx.DB, logger *logrus.Logger) *WebhookLogRepository {
	return &WebhookLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a webhook log entry
func (r *WebhookLogRepository) Create(ctx context.Context, entry *models.WebhookLog) error {
	if entry == nil {
		return fmt.Errorf("webhook log entry cannot be nil")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO webhook_logs (
			id, event_type, event_id, gateway_payment_id, raw_payload, status,
			error_message, ip_address, user_agent, device_info, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.EventType, entry.EventID, entry.GatewayPaymentID, entry.RawPayload, entry.Status,
		entry.ErrorMessage, entry.IPAddress, entry.UserAgent, entry.DeviceInfo, entry.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":         entry.EventType,
			"gateway_payment_id": entry.GatewayPaymentID,
		}).Error("Failed to write webhook log")
		return fmt.Errorf("failed to create webhook log: %w", err)
	}

	return nil
}

// MarkProcessed moves an entry to processed
func (r *WebhookLogRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.finish(ctx, id, models.WebhookLogProcessed, nil)
}

// MarkFailed moves an entry to failed with the error message
func (r *WebhookLogRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return r.finish(ctx, id, models.WebhookLogFailed, &message)
}

func (r *WebhookLogRepository) finish(ctx context.Context, id uuid.UUID, status models.WebhookLogStatus, message *string) error {
	query := `
		UPDATE webhook_logs
		SET status = $2, error_message = $3, processed_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, status, message); err != nil {
		return fmt.Errorf("failed to update webhook log: %w", err)
	}

	return nil
}
