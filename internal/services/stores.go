package services

import (
	"context"
	"time"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Storage contracts consumed by the services. Implemented by the sqlx
// repositories in internal/database and by fakes in tests.

// BookingStore reads and transitions bookings
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Booking, error)
	ConfirmWithPayment(ctx context.Context, id uuid.UUID, gatewayPaymentID string) (bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to models.BookingStatus) (bool, error)
	ListConfirmedWithoutPayment(ctx context.Context, limit int) ([]models.Booking, error)
	MarkPaymentChecked(ctx context.Context, id uuid.UUID) error
}

// PaymentStore is the append-only payment ledger
type PaymentStore interface {
	ExistsByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (bool, error)
	Insert(ctx context.Context, payment *models.Payment) (bool, error)
	SumCapturedSalonAmount(ctx context.Context, salonID uuid.UUID) (decimal.Decimal, error)
}

// PenaltyStore reads and settles cancellation penalties
type PenaltyStore interface {
	SettleForUser(ctx context.Context, userID, paidBookingID uuid.UUID) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CancellationPenalty, error)
	Waive(ctx context.Context, id, adminID uuid.UUID) (bool, error)
	ListOutstanding(ctx context.Context, userID uuid.UUID) ([]models.CancellationPenalty, error)
}

// PayoutStore handles payout rows and the payout settings row
type PayoutStore interface {
	SumOutstanding(ctx context.Context, salonID uuid.UUID) (decimal.Decimal, error)
	Create(ctx context.Context, payout *models.SalonPayout) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SalonPayout, error)
	Approve(ctx context.Context, id uuid.UUID) (bool, error)
	Complete(ctx context.Context, id uuid.UUID) (bool, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	GetSettings(ctx context.Context) (*models.PayoutSettings, error)
	MarkRun(ctx context.Context, settingsID uuid.UUID, lastRunAt, nextRunAt time.Time) error
}

// SalonStore reads salons, payout destinations and user contacts
type SalonStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Salon, error)
	ListPayoutEligible(ctx context.Context) ([]models.Salon, error)
	ListBankAccounts(ctx context.Context, salonID uuid.UUID) ([]models.SalonBankAccount, error)
	GetUserContact(ctx context.Context, userID uuid.UUID) (*models.UserContact, error)
}

// WebhookLogStore is the inbound event audit log
type WebhookLogStore interface {
	Create(ctx context.Context, entry *models.WebhookLog) error
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

// NotificationStore persists in-app notifications
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// PaymentGateway is the subset of the gateway API the ledger and refunds use
type PaymentGateway interface {
	FetchOrderPayments(ctx context.Context, orderID string) ([]models.GatewayPayment, error)
	FetchPayment(ctx context.Context, paymentID string) (*models.GatewayPayment, error)
	Refund(ctx context.Context, paymentID string, amountMinor int64, notes map[string]string) (*models.GatewayRefund, error)
}

// Notifier delivers a user notification. Delivery failures are never returned.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}

// RunLock prevents overlapping payout batch runs
type RunLock interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
