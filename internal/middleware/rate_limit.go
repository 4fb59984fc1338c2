package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// Limiter counts requests per key within a window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// RateLimitRule bounds how often one caller may hit a route
type RateLimitRule struct {
	Name   string // key namespace, e.g. "reconcile"
	Limit  int
	Window time.Duration
}

// RateLimit rejects callers that exceed rule with 429. Callers are keyed by
// user id when authenticated, else by client IP. A nil limiter or a
// non-positive limit disables the check; limiter errors let the request through.
func RateLimit(limiter Limiter, rule RateLimitRule, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || rule.Limit <= 0 {
			c.Next()
			return
		}

		caller := "ip:" + utils.GetRealIP(c)
		if userCtx, ok := GetUserContext(c); ok {
			caller = "user:" + userCtx.UserID.String()
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), rule.Name+":"+caller, rule.Limit, rule.Window)
		if err != nil {
			logger.WithError(err).WithField("rule", rule.Name).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			logger.WithFields(logrus.Fields{
				"rule":        rule.Name,
				"caller":      caller,
				"retry_after": seconds,
			}).Warn("Rate limit exceeded")

			c.Header("Retry-After", strconv.Itoa(seconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"code":        "RATE_LIMITED",
				"retry_after": seconds,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
