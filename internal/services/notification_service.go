package services

import (
	"context"
	"fmt"
	"html"

	"github.com/glamspot/booking-backend/internal/config"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/glamspot/booking-backend/pkg/sms"
	"github.com/glamspot/booking-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Channel delivers a notification over one medium.
// contact is nil when the user could not be resolved.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n *models.Notification, contact *models.UserContact) error
}

// ContactStore resolves a user's email and phone
type ContactStore interface {
	GetUserContact(ctx context.Context, userID uuid.UUID) (*models.UserContact, error)
}

// NotificationService fans a notification out to every channel.
// Channel failures are logged one by one and never returned.
type NotificationService struct {
	contacts ContactStore
	channels []Channel
	logger   *logrus.Logger
}

// NewNotificationService creates a dispatcher over the given channels
func NewNotificationService(contacts ContactStore, logger *logrus.Logger, channels ...Channel) *NotificationService {
	return &NotificationService{
		contacts: contacts,
		channels: channels,
		logger:   logger,
	}
}

// Notify delivers n on every channel
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	if n == nil {
		return
	}

	log := s.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"type":            n.Type,
	})

	contact, err := s.contacts.GetUserContact(ctx, n.UserID)
	if err != nil {
		log.WithError(err).Warn("Failed to load user contact, email and SMS will be skipped")
		contact = nil
	}

	for _, ch := range s.channels {
		if err := ch.Deliver(ctx, n, contact); err != nil {
			log.WithError(err).WithField("channel", ch.Name()).Error("Notification delivery failed")
		}
	}
}

// ============================================================================
// IN-APP
// ============================================================================

// InAppChannel writes the notifications table row the app reads
type InAppChannel struct {
	store NotificationStore
}

// NewInAppChannel creates an in-app channel
func NewInAppChannel(store NotificationStore) *InAppChannel {
	return &InAppChannel{store: store}
}

func (c *InAppChannel) Name() string { return "in_app" }

func (c *InAppChannel) Deliver(ctx context.Context, n *models.Notification, _ *models.UserContact) error {
	return c.store.Create(ctx, n)
}

// ============================================================================
// EMAIL
// ============================================================================

// mailSender is satisfied by *sendgrid.Client
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailChannel sends plain notification emails through SendGrid
type EmailChannel struct {
	client  mailSender
	from    *mail.Email
	sandbox bool
}

// NewEmailChannel creates a SendGrid email channel
func NewEmailChannel(cfg config.NotificationConfig) *EmailChannel {
	return &EmailChannel{
		client:  sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:    mail.NewEmail(cfg.FromName, cfg.FromEmail),
		sandbox: cfg.SandboxMode,
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(ctx context.Context, n *models.Notification, contact *models.UserContact) error {
	if contact == nil || contact.Email == nil || *contact.Email == "" {
		return nil
	}

	name := ""
	if contact.FullName != nil {
		name = *contact.FullName
	}

	htmlContent := "<p>" + html.EscapeString(n.Message) + "</p>"
	msg := mail.NewSingleEmail(c.from, n.Title, mail.NewEmail(name, *contact.Email), n.Message, htmlContent)
	if c.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	resp, err := c.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}

// ============================================================================
// SMS
// ============================================================================

// SMSChannel texts the notification to the user's mobile number
type SMSChannel struct {
	gateway   sms.Gateway
	validator *validator.PhoneValidator
	logger    *logrus.Logger
}

// NewSMSChannel creates an SMS channel over the given gateway
func NewSMSChannel(gateway sms.Gateway, logger *logrus.Logger) *SMSChannel {
	return &SMSChannel{
		gateway:   gateway,
		validator: validator.NewPhoneValidator(),
		logger:    logger,
	}
}

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) Deliver(ctx context.Context, n *models.Notification, contact *models.UserContact) error {
	if contact == nil || contact.Phone == nil || *contact.Phone == "" {
		return nil
	}

	phone, err := c.validator.ToE164(*contact.Phone)
	if err != nil {
		return fmt.Errorf("invalid phone for user %s: %w", contact.ID, err)
	}

	ref, err := c.gateway.Send(ctx, phone, fmt.Sprintf("GlamSpot: %s. %s", n.Title, n.Message))
	if err != nil {
		return fmt.Errorf("%s: %w", c.gateway.GetName(), err)
	}

	c.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"gateway":         c.gateway.GetName(),
		"ref":             ref,
	}).Debug("SMS sent")

	return nil
}
