package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/config"
	"github.com/glamspot/booking-backend/internal/middleware"
	"github.com/glamspot/booking-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// Routes bundles the handlers mounted under /api/v1
type Routes struct {
	Webhook        *WebhookHandler
	Payment        *PaymentHandler
	Payout         *PayoutHandler
	Penalty        *PenaltyHandler
	Booking        *BookingHandler
	Reconciliation *ReconciliationHandler

	// Limiter is optional; without it the limits are not enforced
	Limiter middleware.Limiter
	Limits  config.RateLimitConfig
}

// Register mounts every route on v1. cronSecret authenticates the external
// payout scheduler; admins may trigger the run with a JWT instead.
func (r *Routes) Register(v1 *gin.RouterGroup, jwtService *jwt.Service, cronSecret string, logger *logrus.Logger) {
	auth := middleware.AuthMiddleware(jwtService, logger)

	payments := v1.Group("/payments")
	{
		// Authenticated by the body signature, not a JWT
		payments.POST("/webhook", r.Webhook.HandleWebhook)

		reconcileLimit := middleware.RateLimit(r.Limiter, middleware.RateLimitRule{
			Name: "reconcile", Limit: r.Limits.ReconcilePerMinute, Window: time.Minute,
		}, logger)
		refundLimit := middleware.RateLimit(r.Limiter, middleware.RateLimitRule{
			Name: "refund", Limit: r.Limits.RefundsPerHour, Window: time.Hour,
		}, logger)

		payments.POST("/reconcile", auth, reconcileLimit, r.Payment.Reconcile)
		payments.POST("/refund", auth, refundLimit, r.Payment.Refund)
	}

	v1.POST("/payouts/scheduled", middleware.CronOrAdmin(cronSecret, jwtService, logger), r.Payout.RunScheduled)

	v1.GET("/penalties/outstanding", auth, r.Penalty.Outstanding)

	bookings := v1.Group("/bookings")
	bookings.Use(auth, middleware.RequireRole(jwt.RoleSalonOwner, jwt.RoleAdmin))
	{
		bookings.POST("/:id/complete", r.Booking.Complete)
	}

	admin := v1.Group("/admin")
	admin.Use(auth, middleware.RequireRole(jwt.RoleAdmin))
	{
		admin.POST("/payouts/:id/approve", r.Payout.Approve)
		admin.POST("/payouts/:id/complete", r.Payout.Complete)
		admin.POST("/payouts/:id/fail", r.Payout.Fail)
		admin.POST("/penalties/:id/waive", r.Penalty.Waive)
		admin.POST("/reconciliation/sweep", r.Reconciliation.Sweep)
	}
}
