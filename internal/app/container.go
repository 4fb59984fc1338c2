package app

import (
	"context"
	"fmt"

	"github.com/glamspot/booking-backend/internal/cache"
	"github.com/glamspot/booking-backend/internal/config"
	"github.com/glamspot/booking-backend/internal/database"
	"github.com/glamspot/booking-backend/internal/handlers"
	"github.com/glamspot/booking-backend/internal/services"
	"github.com/glamspot/booking-backend/pkg/sms"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Container holds the wired services shared by the server and ledgerctl
type Container struct {
	Verifier       *services.SignatureVerifier
	Ledger         *services.LedgerService
	Refunds        *services.RefundService
	Payouts        *services.PayoutService
	Penalties      *services.PenaltyService
	Bookings       *services.BookingService
	Reconciliation *services.ReconciliationService
	WebhookLogs    *database.WebhookLogRepository

	redis       *redis.Client
	rateLimiter *cache.RedisRateLimiter
	limits      config.RateLimitConfig
	logger      *logrus.Logger
}

// Build wires repositories, the gateway client, notification channels and
// services. Redis is optional; without it the payout run lock and rate
// limits are skipped.
func Build(ctx context.Context, cfg *config.Config, db *database.PostgresDB, logger *logrus.Logger) (*Container, error) {
	feePercent, err := cfg.Gateway.FeePercent()
	if err != nil {
		return nil, fmt.Errorf("invalid platform fee: %w", err)
	}

	bookingRepo := database.NewBookingRepository(db.DB)
	paymentRepo := database.NewPaymentRepository(db.DB, logger)
	penaltyRepo := database.NewPenaltyRepository(db.DB)
	payoutRepo := database.NewPayoutRepository(db.DB)
	salonRepo := database.NewSalonRepository(db.DB)
	notificationRepo := database.NewNotificationRepository(db.DB)
	webhookLogRepo := database.NewWebhookLogRepository(db.DB, logger)

	gateway := services.NewPaymentGatewayService(cfg.Gateway, logger)
	notifier := services.NewNotificationService(salonRepo, logger, notificationChannels(cfg, notificationRepo, logger)...)

	c := &Container{
		Verifier:    services.NewSignatureVerifier(cfg.Gateway.WebhookSecret),
		WebhookLogs: webhookLogRepo,
		limits:      cfg.RateLimit,
		logger:      logger,
	}

	var lock services.RunLock
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		c.redis = client
		lock = cache.NewRedisRunLock(client, cfg.Redis.LockTTL)
		c.rateLimiter = cache.NewRedisRateLimiter(client)
		logger.Info("Redis connected, payout runs are locked and rate limits enforced")
	} else {
		logger.Warn("REDIS_URL not set, payout runs are not locked and rate limits are off")
	}

	c.Penalties = services.NewPenaltyService(penaltyRepo, notifier, logger)
	c.Ledger = services.NewLedgerService(bookingRepo, paymentRepo, c.Penalties, gateway, notifier,
		feePercent, cfg.Gateway.DefaultCurrency, logger)
	c.Refunds = services.NewRefundService(bookingRepo, gateway, notifier, logger)
	c.Payouts = services.NewPayoutService(payoutRepo, paymentRepo, salonRepo, notifier, lock, logger)
	c.Bookings = services.NewBookingService(bookingRepo, salonRepo, notifier, logger)
	c.Reconciliation = services.NewReconciliationService(bookingRepo, gateway, c.Ledger, logger)

	return c, nil
}

// Routes returns the HTTP handlers over the container's services
func (c *Container) Routes() *handlers.Routes {
	routes := &handlers.Routes{
		Webhook:        handlers.NewWebhookHandler(c.Verifier, c.Ledger, c.WebhookLogs, c.logger),
		Payment:        handlers.NewPaymentHandler(c.Ledger, c.Refunds, c.logger),
		Payout:         handlers.NewPayoutHandler(c.Payouts, c.logger),
		Penalty:        handlers.NewPenaltyHandler(c.Penalties, c.logger),
		Booking:        handlers.NewBookingHandler(c.Bookings, c.logger),
		Reconciliation: handlers.NewReconciliationHandler(c.Reconciliation, c.logger),
		Limits:         c.limits,
	}
	if c.rateLimiter != nil {
		routes.Limiter = c.rateLimiter
	}
	return routes
}

// Close releases the Redis connection if one was opened
func (c *Container) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// notificationChannels picks the channels the configuration enables.
// In-app is always on; email needs a SendGrid key.
func notificationChannels(cfg *config.Config, store services.NotificationStore, logger *logrus.Logger) []services.Channel {
	channels := []services.Channel{services.NewInAppChannel(store)}

	if cfg.Notification.SendgridAPIKey != "" {
		channels = append(channels, services.NewEmailChannel(cfg.Notification))
	} else {
		logger.Info("SENDGRID_API_KEY not set, email notifications disabled")
	}

	var gateway sms.Gateway
	if cfg.Notification.SMSMode == "production" {
		gateway = sms.NewHTTPGateway(sms.HTTPConfig{
			APIURL:   cfg.Notification.SMSAPIURL,
			Username: cfg.Notification.SMSUsername,
			Password: cfg.Notification.SMSPassword,
			SenderID: cfg.Notification.SMSSenderID,
		})
		logger.Info("SMS gateway initialized in production mode")
	} else {
		gateway = sms.NewLogGateway(logger)
		logger.Info("SMS gateway in development mode (messages are logged, not sent)")
	}
	channels = append(channels, services.NewSMSChannel(gateway, logger))

	return channels
}
